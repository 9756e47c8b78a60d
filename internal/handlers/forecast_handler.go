package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/services/forecast"
)

// ForecastHandler serves the outbreak projection panel.
type ForecastHandler struct {
	logger arbor.ILogger
}

func NewForecastHandler(logger arbor.ILogger) *ForecastHandler {
	return &ForecastHandler{
		logger: logger,
	}
}

// ProjectHandler handles POST /api/forecast
func (h *ForecastHandler) ProjectHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var params forecast.Params
	if err := DecodeJSON(r, &params); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := forecast.Project(params)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
