package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/vigil/internal/models"
)

// AidRecordStorage persists crowd-submitted aid records.
type AidRecordStorage interface {
	// SaveRecord persists a record. ID and CreatedAt must already be assigned.
	SaveRecord(ctx context.Context, record *models.AidRecord) error

	// ListRecords returns records ordered by CreatedAt descending.
	// limit <= 0 means no limit.
	ListRecords(ctx context.Context, limit int) ([]*models.AidRecord, error)

	// GetRecord returns a single record by ID.
	GetRecord(ctx context.Context, id string) (*models.AidRecord, error)

	// CountRecords returns the total number of records.
	CountRecords(ctx context.Context) (int, error)
}

// ReadingStorage persists simulated water-level readings.
type ReadingStorage interface {
	// SaveReading persists one simulation tick.
	SaveReading(ctx context.Context, reading *models.Reading) error

	// ListReadings returns readings for a river ordered by RecordedAt
	// descending. limit <= 0 means no limit.
	ListReadings(ctx context.Context, river string, limit int) ([]*models.Reading, error)

	// PurgeBefore deletes readings recorded before the cutoff and returns
	// the number removed.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// SessionStorage persists the settled session identity.
type SessionStorage interface {
	SaveSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)

	// CurrentSession returns the most recently settled session, or nil when
	// none has been stored yet.
	CurrentSession(ctx context.Context) (*models.Session, error)
}

// KeyValueStorage provides generic key/value storage (API keys, settings).
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	AidRecordStorage() AidRecordStorage
	ReadingStorage() ReadingStorage
	SessionStorage() SessionStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
