package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/ternarybob/vigil/internal/services/registry"
)

type stubRegistryService struct {
	record *models.AidRecord
	err    error
}

func (s *stubRegistryService) Append(ctx context.Context, input *interfaces.AidRecordInput) (*models.AidRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

func (s *stubRegistryService) Feed(ctx context.Context) ([]*models.AidRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*models.AidRecord{s.record}, nil
}

func postRecord(handler *RegistryHandler) *httptest.ResponseRecorder {
	body := `{"name":"Hall","location":"Ward 12","category":"shelter","capacity":10,"contact":"+91 99999 00000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/registry", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.RegistryHandler(rec, req)
	return rec
}

func TestRegistryAppendSuccess(t *testing.T) {
	handler := NewRegistryHandler(&stubRegistryService{
		record: &models.AidRecord{ID: "aid_1", Name: "Hall"},
	}, arbor.NewLogger())

	rec := postRecord(handler)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "aid_1")
}

func TestRegistryAppendInvalidSubmissionIsBadRequest(t *testing.T) {
	handler := NewRegistryHandler(&stubRegistryService{
		err: fmt.Errorf("%w: name is required", registry.ErrInvalidSubmission),
	}, arbor.NewLogger())

	rec := postRecord(handler)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegistryAppendStorageFailureIsServerError(t *testing.T) {
	handler := NewRegistryHandler(&stubRegistryService{
		err: fmt.Errorf("failed to store aid record: disk full"),
	}, arbor.NewLogger())

	rec := postRecord(handler)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// Internal failure details stay out of the response body.
	assert.NotContains(t, rec.Body.String(), "disk full")
}
