package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// Service settles a session identity once per process. A configured
// credential produces a named session; anything else falls back to an
// anonymous one, so login can never block the dashboard.
type Service struct {
	config  *common.IdentityConfig
	storage interfaces.SessionStorage
	events  interfaces.EventService
	logger  arbor.ILogger

	mu      sync.Mutex
	settled *models.Session
}

// NewService creates a new identity service
func NewService(config *common.IdentityConfig, storage interfaces.SessionStorage, events interfaces.EventService, logger arbor.ILogger) interfaces.IdentityService {
	return &Service{
		config:  config,
		storage: storage,
		events:  events,
		logger:  logger,
	}
}

// EnsureSession returns the settled session, logging in on first use.
func (s *Service) EnsureSession(ctx context.Context) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settled != nil {
		return s.settled, nil
	}

	// A session persisted by an earlier run is reused as-is.
	if stored, err := s.storage.CurrentSession(ctx); err == nil && stored != nil {
		s.logger.Debug().Str("session_id", stored.ID).Msg("Reusing stored session")
		s.settled = stored
		return stored, nil
	}

	return s.login(ctx)
}

// Relogin discards the settled session and runs the login path again.
func (s *Service) Relogin(ctx context.Context) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settled = nil
	return s.login(ctx)
}

// login must be called with the mutex held.
func (s *Service) login(ctx context.Context) (*models.Session, error) {
	session := s.credentialSession()
	if session == nil {
		session = &models.Session{
			ID:        common.NewSessionID(),
			Anonymous: true,
			CreatedAt: time.Now(),
		}
		s.logger.Info().Str("session_id", session.ID).Msg("Settled anonymous session")
	} else {
		s.logger.Info().Str("session_id", session.ID).Msg("Settled credential session")
	}

	if err := s.storage.SaveSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	s.settled = session

	if s.events != nil {
		s.events.Publish(ctx, interfaces.Event{
			Type:    interfaces.EventSessionSettled,
			Payload: session,
		})
	}

	return session, nil
}

// credentialSession derives a session from the configured credential,
// returning nil when the credential is missing or unusable.
func (s *Service) credentialSession() *models.Session {
	if s.config == nil {
		return nil
	}

	credential := strings.TrimSpace(s.config.Credential)
	if credential == "" {
		return nil
	}

	// Credentials shorter than the token prefix are treated as malformed
	// and fall through to the anonymous path.
	if len(credential) < 8 {
		s.logger.Warn().Msg("Configured credential rejected, falling back to anonymous session")
		return nil
	}

	return &models.Session{
		ID:        fmt.Sprintf("cred_%s", credential[:8]),
		Anonymous: false,
		CreatedAt: time.Now(),
	}
}
