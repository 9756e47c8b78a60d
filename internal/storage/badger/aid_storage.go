package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// AidStorage implements the AidRecordStorage interface for Badger
type AidStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewAidStorage creates a new AidStorage instance
func NewAidStorage(db *BadgerDB, logger arbor.ILogger) interfaces.AidRecordStorage {
	return &AidStorage{
		db:     db,
		logger: logger,
	}
}

func (s *AidStorage) SaveRecord(ctx context.Context, record *models.AidRecord) error {
	if record.ID == "" {
		return fmt.Errorf("record ID is required")
	}

	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to save aid record: %w", err)
	}
	return nil
}

func (s *AidStorage) ListRecords(ctx context.Context, limit int) ([]*models.AidRecord, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []models.AidRecord
	if err := s.db.Store().Find(&records, query); err != nil {
		return nil, fmt.Errorf("failed to list aid records: %w", err)
	}

	result := make([]*models.AidRecord, len(records))
	for i := range records {
		result[i] = &records[i]
	}
	return result, nil
}

func (s *AidStorage) GetRecord(ctx context.Context, id string) (*models.AidRecord, error) {
	var record models.AidRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("aid record not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get aid record: %w", err)
	}
	return &record, nil
}

func (s *AidStorage) CountRecords(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.AidRecord{}, badgerhold.Where("ID").Ne(""))
	if err != nil {
		return 0, fmt.Errorf("failed to count aid records: %w", err)
	}
	return int(count), nil
}
