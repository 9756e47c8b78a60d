// Package query implements the grounded remote query client: a single
// generateContent call with search grounding, retried on rate limiting and
// empty content with fixed exponential backoff.
package query

import "fmt"

// Wire format for the hosted generation endpoint.
// POST {base}/v1beta/models/{model}:generateContent?key={apiKey}

type generateRequest struct {
	SystemInstruction *content     `json:"system_instruction,omitempty"`
	Contents          []content    `json:"contents"`
	Tools             []toolConfig `json:"tools,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type toolConfig struct {
	GoogleSearch *googleSearch `json:"google_search,omitempty"`
}

type googleSearch struct{}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content           content            `json:"content"`
	GroundingMetadata *groundingMetadata `json:"groundingMetadata,omitempty"`
}

type groundingMetadata struct {
	GroundingAttributions []groundingAttribution `json:"groundingAttributions"`
}

type groundingAttribution struct {
	Web *webAttribution `json:"web,omitempty"`
}

type webAttribution struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// ErrorKind classifies query failures. The kinds are preserved on the error
// value for tests and logging, while the user-facing surface stays a single
// flattened message.
type ErrorKind string

const (
	KindEmptyQuery   ErrorKind = "empty_query"
	KindRateLimited  ErrorKind = "rate_limited"
	KindEmptyContent ErrorKind = "empty_content"
	KindHTTP         ErrorKind = "http"
	KindTransport    ErrorKind = "transport"
)

// Error is a terminal query failure.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// ErrEmptyQuery is returned when the trimmed query is empty. No request is
// sent and callers treat the call as a no-op.
var ErrEmptyQuery = &Error{Kind: KindEmptyQuery, Message: "query is empty"}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
