package query

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSleeper records requested backoff waits without sleeping.
type fakeSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits = append(s.waits, d)
	return nil
}

func (s *fakeSleeper) total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum time.Duration
	for _, d := range s.waits {
		sum += d
	}
	return sum
}

// countingHandler wraps a handler and counts requests.
type countingHandler struct {
	mu      sync.Mutex
	count   int
	handler func(n int, w http.ResponseWriter, r *http.Request)
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.count++
	n := h.count
	h.mu.Unlock()
	h.handler(n, w, r)
}

func (h *countingHandler) requests() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func validBody(text string) string {
	return `{"candidates":[{"content":{"parts":[{"text":"` + text + `"}]}}]}`
}

func newTestClient(t *testing.T, handler *countingHandler) (*Client, *fakeSleeper) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sleeper := &fakeSleeper{}
	client := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithSleeper(sleeper),
	)
	return client, sleeper
}

func TestAskEmptyQuerySendsNothing(t *testing.T) {
	handler := &countingHandler{handler: func(n int, w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validBody("unreachable")))
	}}
	client, _ := newTestClient(t, handler)

	for _, q := range []string{"", "   ", "\n\t "} {
		answer, err := client.Ask(context.Background(), q)
		assert.Nil(t, answer)
		require.ErrorIs(t, err, ErrEmptyQuery)
	}

	assert.Equal(t, 0, handler.requests(), "empty query must perform zero network calls")
}

func TestAskSuccessFirstAttempt(t *testing.T) {
	handler := &countingHandler{handler: func(n int, w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.NotNil(t, req.SystemInstruction)
		assert.Contains(t, req.SystemInstruction.Parts[0].Text, "disaster-information assistant")
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Equal(t, "where are the shelters", req.Contents[0].Parts[0].Text)
		require.Len(t, req.Tools, 1)
		require.NotNil(t, req.Tools[0].GoogleSearch)

		w.Write([]byte(validBody("Shelters are listed at relief.example.org.")))
	}}
	client, sleeper := newTestClient(t, handler)

	answer, err := client.Ask(context.Background(), "where are the shelters")
	require.NoError(t, err)
	assert.Equal(t, "Shelters are listed at relief.example.org.", answer.Text)
	assert.Empty(t, answer.Sources)
	assert.Equal(t, 1, handler.requests())
	assert.Zero(t, sleeper.total(), "no backoff before the first attempt")
}

func TestAskRetriesRateLimitThenSucceeds(t *testing.T) {
	handler := &countingHandler{handler: func(n int, w http.ResponseWriter, r *http.Request) {
		if n <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(validBody("answer on the fourth attempt")))
	}}
	client, sleeper := newTestClient(t, handler)

	answer, err := client.Ask(context.Background(), "flood status")
	require.NoError(t, err)
	assert.Equal(t, "answer on the fourth attempt", answer.Text)
	assert.Equal(t, 4, handler.requests())

	// Unconditional exponential backoff: 2s + 4s + 8s before attempts 1-3.
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, sleeper.waits)
	assert.Equal(t, 14*time.Second, sleeper.total())
}

func TestAskRateLimitExhausted(t *testing.T) {
	handler := &countingHandler{handler: func(n int, w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}}
	client, _ := newTestClient(t, handler)

	answer, err := client.Ask(context.Background(), "flood status")
	assert.Nil(t, answer)

	var qerr *Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, KindRateLimited, qerr.Kind)
	assert.Equal(t, 4, handler.requests())
}

func TestAskHardHTTPErrorFailsImmediately(t *testing.T) {
	handler := &countingHandler{handler: func(n int, w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal failure", http.StatusInternalServerError)
	}}
	client, sleeper := newTestClient(t, handler)

	answer, err := client.Ask(context.Background(), "flood status")
	assert.Nil(t, answer)

	var qerr *Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, KindHTTP, qerr.Kind)
	assert.Contains(t, err.Error(), "500")

	// Non-429 failures abandon the remaining attempt budget.
	assert.Equal(t, 1, handler.requests())
	assert.Zero(t, sleeper.total())
}

func TestAskEmptyContentRetriedThenTerminal(t *testing.T) {
	handler := &countingHandler{handler: func(n int, w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[]}}]}`))
	}}
	client, _ := newTestClient(t, handler)

	answer, err := client.Ask(context.Background(), "flood status")
	assert.Nil(t, answer)

	var qerr *Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, KindEmptyContent, qerr.Kind)
	assert.Contains(t, err.Error(), "empty content")

	// Empty bodies are retried to the full budget, never failing earlier.
	assert.Equal(t, 4, handler.requests())
}

func TestAskGroundingSourceFiltering(t *testing.T) {
	body := `{
		"candidates": [{
			"content": {"parts": [{"text": "grounded answer"}]},
			"groundingMetadata": {
				"groundingAttributions": [
					{"web": {"uri": "https://example.org/flood", "title": "Flood bulletin"}},
					{"web": {"uri": "https://example.org/untitled"}},
					{"web": {"title": "No link"}},
					{}
				]
			}
		}]
	}`
	handler := &countingHandler{handler: func(n int, w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}}
	client, _ := newTestClient(t, handler)

	answer, err := client.Ask(context.Background(), "flood status")
	require.NoError(t, err)
	require.Len(t, answer.Sources, 1, "candidates missing uri or title are dropped")
	assert.Equal(t, "https://example.org/flood", answer.Sources[0].URI)
	assert.Equal(t, "Flood bulletin", answer.Sources[0].Title)
}

func TestAskConcurrentCallsIndependent(t *testing.T) {
	handler := &countingHandler{handler: func(n int, w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validBody("ok")))
	}}
	client, _ := newTestClient(t, handler)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Ask(context.Background(), "parallel question")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 8, handler.requests())
}
