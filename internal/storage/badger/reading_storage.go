package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ReadingStorage implements the ReadingStorage interface for Badger
type ReadingStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewReadingStorage creates a new ReadingStorage instance
func NewReadingStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ReadingStorage {
	return &ReadingStorage{
		db:     db,
		logger: logger,
	}
}

func (s *ReadingStorage) SaveReading(ctx context.Context, reading *models.Reading) error {
	if reading.ID == "" {
		return fmt.Errorf("reading ID is required")
	}

	if err := s.db.Store().Upsert(reading.ID, reading); err != nil {
		return fmt.Errorf("failed to save reading: %w", err)
	}
	return nil
}

func (s *ReadingStorage) ListReadings(ctx context.Context, river string, limit int) ([]*models.Reading, error) {
	query := badgerhold.Where("River").Eq(river).Index("River").SortBy("RecordedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var readings []models.Reading
	if err := s.db.Store().Find(&readings, query); err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}

	result := make([]*models.Reading, len(readings))
	for i := range readings {
		result[i] = &readings[i]
	}
	return result, nil
}

func (s *ReadingStorage) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var stale []models.Reading
	if err := s.db.Store().Find(&stale, badgerhold.Where("RecordedAt").Lt(cutoff)); err != nil {
		return 0, fmt.Errorf("failed to find stale readings: %w", err)
	}

	deleted := 0
	for i := range stale {
		if err := s.db.Store().Delete(stale[i].ID, &models.Reading{}); err != nil {
			s.logger.Warn().Err(err).Str("id", stale[i].ID).Msg("Failed to delete stale reading")
			continue
		}
		deleted++
	}

	return deleted, nil
}
