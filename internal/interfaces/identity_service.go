package interfaces

import (
	"context"

	"github.com/ternarybob/vigil/internal/models"
)

// IdentityService settles a stable session identity for the process.
// The login path is: try the configured credential, fall back to an
// anonymous session on any failure.
type IdentityService interface {
	// EnsureSession returns the settled session, logging in on first use.
	// It never fails once the anonymous fallback is reachable.
	EnsureSession(ctx context.Context) (*models.Session, error)

	// Relogin discards the settled session and runs the login path again.
	Relogin(ctx context.Context) (*models.Session, error)
}
