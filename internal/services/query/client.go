package query

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
)

const (
	// DefaultBaseURL is the base URL for the hosted generation endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com"

	// DefaultModel is the generation model used when none is configured.
	DefaultModel = "gemini-2.0-flash"

	// DefaultTimeout is the default per-request HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// systemInstruction is the fixed system prompt sent with every query.
	systemInstruction = "You are a domain-expert disaster-information assistant. " +
		"Answer only using the supplied search results."
)

// Client issues grounded queries against the generation endpoint. Calls are
// independent: no request coalescing, no shared mutable state beyond the
// HTTP client, so concurrent Ask calls are safe.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     arbor.ILogger
	sleeper    Sleeper
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL (used by tests to point at a mock).
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithModel sets the generation model.
func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSleeper sets the backoff sleeper (tests inject a fake clock).
func WithSleeper(sleeper Sleeper) ClientOption {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient creates a new grounded query client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		model:   DefaultModel,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		sleeper: realSleeper{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Ask issues a grounded query and returns exactly one outcome: an Answer or
// a terminal error. Delivery uses up to MaxAttempts attempts with fixed
// exponential backoff (2s, 4s, 8s before retries); 429 and empty-content
// responses are retried, any other failure status aborts immediately.
func (c *Client) Ask(ctx context.Context, query string) (*interfaces.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	payload, err := json.Marshal(&generateRequest{
		SystemInstruction: &content{
			Parts: []part{{Text: systemInstruction}},
		},
		Contents: []content{
			{Role: "user", Parts: []part{{Text: query}}},
		},
		Tools: []toolConfig{
			{GoogleSearch: &googleSearch{}},
		},
	})
	if err != nil {
		return nil, newError(KindTransport, "failed to encode request: %v", err)
	}

	st := loopState{phase: phasePending}
	var answer *interfaces.Answer

	for !st.done() {
		if wait := Backoff(st.attempt); wait > 0 {
			if c.logger != nil {
				c.logger.Warn().
					Int("attempt", st.attempt).
					Dur("backoff", wait).
					Msg("Retrying grounded query")
			}
			if err := c.sleeper.Sleep(ctx, wait); err != nil {
				return nil, newError(KindTransport, "query canceled during backoff: %v", err)
			}
		}

		out, ans := c.attempt(ctx, payload)
		if out.kind == outcomeSuccess {
			answer = ans
		}
		st = step(st, out)
	}

	if st.phase == phaseSucceeded {
		if c.logger != nil {
			c.logger.Info().
				Int("attempts", st.attempt+1).
				Int("sources", len(answer.Sources)).
				Msg("Grounded query answered")
		}
		return answer, nil
	}

	if c.logger != nil {
		c.logger.Error().
			Str("kind", string(st.err.Kind)).
			Str("error", st.err.Message).
			Msg("Grounded query failed")
	}
	return nil, st.err
}

// attempt performs one delivery attempt and classifies its outcome.
func (c *Client) attempt(ctx context.Context, payload []byte) (attemptOutcome, *interfaces.Answer) {
	reqURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent?%s",
		c.baseURL, c.model, url.Values{"key": {c.apiKey}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return attemptOutcome{kind: outcomeTerminal, err: newError(KindTransport, "failed to create request: %v", err)}, nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return attemptOutcome{kind: outcomeTerminal, err: newError(KindTransport, "request failed: %v", err)}, nil
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to body parsing below.
	case resp.StatusCode == http.StatusTooManyRequests:
		return attemptOutcome{kind: outcomeRateLimited}, nil
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return attemptOutcome{
			kind: outcomeTerminal,
			err:  newError(KindHTTP, "generation request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}, nil
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return attemptOutcome{kind: outcomeTerminal, err: newError(KindTransport, "failed to decode response: %v", err)}, nil
	}

	text := answerText(&parsed)
	if text == "" {
		return attemptOutcome{kind: outcomeEmptyContent}, nil
	}

	return attemptOutcome{kind: outcomeSuccess}, &interfaces.Answer{
		Text:    text,
		Sources: extractSources(&parsed),
	}
}

// answerText returns the first candidate's text, empty when missing.
func answerText(resp *generateResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return parts[0].Text
}

// extractSources keeps grounding attributions that carry both a URI and a
// title, preserving the server's ordering. Incomplete candidates are dropped.
func extractSources(resp *generateResponse) []interfaces.Source {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}

	attributions := resp.Candidates[0].GroundingMetadata.GroundingAttributions
	sources := make([]interfaces.Source, 0, len(attributions))
	for _, attr := range attributions {
		if attr.Web == nil || attr.Web.URI == "" || attr.Web.Title == "" {
			continue
		}
		sources = append(sources, interfaces.Source{
			URI:   attr.Web.URI,
			Title: attr.Web.Title,
		})
	}

	if len(sources) == 0 {
		return nil
	}
	return sources
}
