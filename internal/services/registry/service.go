package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// ErrInvalidSubmission marks a rejected submission. Callers use it to
// separate caller mistakes from storage failures.
var ErrInvalidSubmission = errors.New("invalid submission")

// Service manages the append-only aid registry. Records are never edited
// or deleted through this service; the feed is a live newest-first view.
type Service struct {
	config   *common.RegistryConfig
	storage  interfaces.AidRecordStorage
	identity interfaces.IdentityService
	events   interfaces.EventService
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewService creates a new registry service
func NewService(config *common.RegistryConfig, storage interfaces.AidRecordStorage, identity interfaces.IdentityService, events interfaces.EventService, logger arbor.ILogger) interfaces.RegistryService {
	return &Service{
		config:   config,
		storage:  storage,
		identity: identity,
		events:   events,
		validate: validator.New(),
		logger:   logger,
	}
}

// Append validates a submission, stamps it server-side, and persists it.
func (s *Service) Append(ctx context.Context, input *interfaces.AidRecordInput) (*models.AidRecord, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: submission is required", ErrInvalidSubmission)
	}

	record := &models.AidRecord{
		Name:     strings.TrimSpace(input.Name),
		Location: strings.TrimSpace(input.Location),
		Category: strings.ToLower(strings.TrimSpace(input.Category)),
		Capacity: input.Capacity,
		Contact:  strings.TrimSpace(input.Contact),
		Notes:    strings.TrimSpace(input.Notes),
	}

	if err := s.validate.Struct(record); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}

	// ID, timestamp and session identity are always assigned here,
	// never taken from the submission.
	record.ID = common.NewRecordID()
	record.CreatedAt = time.Now()

	session, err := s.identity.EnsureSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	record.SessionID = session.ID

	if err := s.storage.SaveRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store aid record: %w", err)
	}

	s.logger.Info().
		Str("record_id", record.ID).
		Str("category", record.Category).
		Str("session_id", record.SessionID).
		Msg("Aid record appended")

	if s.events != nil {
		s.events.Publish(ctx, interfaces.Event{
			Type:    interfaces.EventAidRecordCreated,
			Payload: record,
		})
	}

	return record, nil
}

// Feed returns the most recent records, newest first.
func (s *Service) Feed(ctx context.Context) ([]*models.AidRecord, error) {
	limit := 100
	if s.config != nil && s.config.FeedLimit > 0 {
		limit = s.config.FeedLimit
	}

	records, err := s.storage.ListRecords(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry feed: %w", err)
	}
	return records, nil
}
