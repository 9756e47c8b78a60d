package interfaces

import (
	"context"

	"github.com/ternarybob/vigil/internal/models"
)

// AidRecordInput is a crowd submission before server-side fields are assigned.
type AidRecordInput struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Category string `json:"category"`
	Capacity int    `json:"capacity"`
	Contact  string `json:"contact"`
	Notes    string `json:"notes"`
}

// RegistryService manages the crowd-submitted aid registry.
type RegistryService interface {
	// Append validates a submission, assigns ID, timestamp and session
	// identity, persists it, and returns the stored record.
	Append(ctx context.Context, input *AidRecordInput) (*models.AidRecord, error)

	// Feed returns the most recent records, newest first.
	Feed(ctx context.Context) ([]*models.AidRecord, error)
}
