package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/services/query"
)

// QueryHandler serves grounded questions against the generation endpoint.
type QueryHandler struct {
	queryService interfaces.QueryService
	logger       arbor.ILogger
}

func NewQueryHandler(queryService interfaces.QueryService, logger arbor.ILogger) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
		logger:       logger,
	}
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Text    string              `json:"text"`
	Sources []interfaces.Source `json:"sources"`
}

// AskHandler handles POST /api/query
func (h *QueryHandler) AskHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req queryRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	answer, err := h.queryService.Ask(r.Context(), req.Query)
	if err != nil {
		if errors.Is(err, query.ErrEmptyQuery) {
			WriteError(w, http.StatusBadRequest, "Query must not be empty")
			return
		}

		h.logger.Warn().
			Str("query", strings.TrimSpace(req.Query)).
			Str("error", err.Error()).
			Msg("Grounded query failed")
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []interfaces.Source{}
	}

	WriteJSON(w, http.StatusOK, queryResponse{
		Text:    answer.Text,
		Sources: sources,
	})
}
