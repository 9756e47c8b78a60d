package interfaces

import (
	"context"

	"github.com/ternarybob/vigil/internal/models"
)

// MonitorService runs the simulated water-level random walk.
// Every gauge value it produces is synthetic.
type MonitorService interface {
	// Start begins ticking in the background.
	Start(ctx context.Context) error

	// Levels returns the current state of every simulated gauge.
	Levels() []*models.WaterLevel

	// Close stops the simulation.
	Close() error
}
