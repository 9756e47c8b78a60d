package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
)

// SessionHandler exposes the settled session identity.
type SessionHandler struct {
	identityService interfaces.IdentityService
	logger          arbor.ILogger
}

func NewSessionHandler(identityService interfaces.IdentityService, logger arbor.ILogger) *SessionHandler {
	return &SessionHandler{
		identityService: identityService,
		logger:          logger,
	}
}

// SessionHandler handles GET /api/session (current identity) and
// POST /api/session (relogin).
func (h *SessionHandler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		session, err := h.identityService.EnsureSession(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("Failed to settle session")
			WriteError(w, http.StatusInternalServerError, "Failed to settle session")
			return
		}
		WriteJSON(w, http.StatusOK, session)

	case http.MethodPost:
		session, err := h.identityService.Relogin(r.Context())
		if err != nil {
			h.logger.Error().Err(err).Msg("Relogin failed")
			WriteError(w, http.StatusInternalServerError, "Relogin failed")
			return
		}
		WriteJSON(w, http.StatusOK, session)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
