package interfaces

import "context"

// Source is one grounded citation attached to an answer.
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Answer is the result of one successful grounded query. Immutable after
// creation; the caller replaces it wholesale on the next query.
type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// QueryService answers natural-language questions with grounded citations.
type QueryService interface {
	// Ask issues a grounded query and returns exactly one outcome: an Answer
	// or an error. Empty or all-whitespace queries send no request and
	// return a sentinel empty-query error.
	Ask(ctx context.Context, query string) (*Answer, error)
}
