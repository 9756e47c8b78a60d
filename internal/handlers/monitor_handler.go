package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
)

// MonitorHandler serves the simulated water-level panel.
type MonitorHandler struct {
	monitorService interfaces.MonitorService
	readingStorage interfaces.ReadingStorage
	logger         arbor.ILogger
}

func NewMonitorHandler(monitorService interfaces.MonitorService, readingStorage interfaces.ReadingStorage, logger arbor.ILogger) *MonitorHandler {
	return &MonitorHandler{
		monitorService: monitorService,
		readingStorage: readingStorage,
		logger:         logger,
	}
}

// LevelsHandler handles GET /api/monitor/levels
func (h *MonitorHandler) LevelsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"levels":    h.monitorService.Levels(),
		"simulated": true,
	})
}

// ReadingsHandler handles GET /api/monitor/readings?river=NAME&limit=N
func (h *MonitorHandler) ReadingsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	river := strings.TrimSpace(r.URL.Query().Get("river"))
	if river == "" {
		WriteError(w, http.StatusBadRequest, "river parameter is required")
		return
	}

	limit := 200
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 && n <= 2000 {
			limit = n
		}
	}

	readings, err := h.readingStorage.ListReadings(r.Context(), river, limit)
	if err != nil {
		h.logger.Error().Err(err).Str("river", river).Msg("Failed to load readings")
		WriteError(w, http.StatusInternalServerError, "Failed to load readings")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"river":     river,
		"readings":  readings,
		"count":     len(readings),
		"simulated": true,
	})
}
