package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/services/registry"
)

// RegistryHandler serves the crowd-submitted aid registry.
type RegistryHandler struct {
	registryService interfaces.RegistryService
	logger          arbor.ILogger
}

func NewRegistryHandler(registryService interfaces.RegistryService, logger arbor.ILogger) *RegistryHandler {
	return &RegistryHandler{
		registryService: registryService,
		logger:          logger,
	}
}

// RegistryHandler handles GET and POST /api/registry
func (h *RegistryHandler) RegistryHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.feed(w, r)
	case http.MethodPost:
		h.append(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *RegistryHandler) feed(w http.ResponseWriter, r *http.Request) {
	records, err := h.registryService.Feed(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to load registry feed")
		WriteError(w, http.StatusInternalServerError, "Failed to load registry feed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

func (h *RegistryHandler) append(w http.ResponseWriter, r *http.Request) {
	var input interfaces.AidRecordInput
	if err := DecodeJSON(r, &input); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := h.registryService.Append(r.Context(), &input)
	if err != nil {
		if errors.Is(err, registry.ErrInvalidSubmission) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		h.logger.Error().Err(err).Msg("Failed to append aid record")
		WriteError(w, http.StatusInternalServerError, "Failed to store aid record")
		return
	}

	WriteJSON(w, http.StatusCreated, record)
}
