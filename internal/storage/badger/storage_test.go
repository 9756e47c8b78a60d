package badger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

func newTestManager(t *testing.T) interfaces.StorageManager {
	t.Helper()

	logger := arbor.NewLogger()
	manager, err := NewManager(logger, &common.BadgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to open storage manager: %v", err)
	}
	t.Cleanup(func() { manager.Close() })

	return manager
}

func TestAidRecordOrdering(t *testing.T) {
	manager := newTestManager(t)
	storage := manager.AidRecordStorage()
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		record := &models.AidRecord{
			ID:        fmt.Sprintf("aid_%d", i),
			Name:      fmt.Sprintf("Shelter %d", i),
			Location:  "Riverside",
			Category:  "shelter",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := storage.SaveRecord(ctx, record); err != nil {
			t.Fatalf("Failed to save record %d: %v", i, err)
		}
	}

	records, err := storage.ListRecords(ctx, 0)
	if err != nil {
		t.Fatalf("Failed to list records: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("Expected 5 records, got %d", len(records))
	}

	// Newest first
	for i := 1; i < len(records); i++ {
		if records[i].CreatedAt.After(records[i-1].CreatedAt) {
			t.Errorf("Records not ordered newest-first at index %d", i)
		}
	}

	limited, err := storage.ListRecords(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to list limited records: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("Expected 2 records with limit, got %d", len(limited))
	}
	if limited[0].ID != "aid_4" {
		t.Errorf("Expected newest record first, got %s", limited[0].ID)
	}

	count, err := storage.CountRecords(ctx)
	if err != nil {
		t.Fatalf("Failed to count records: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected count 5, got %d", count)
	}
}

func TestAidRecordSaveRequiresID(t *testing.T) {
	manager := newTestManager(t)
	ctx := context.Background()

	err := manager.AidRecordStorage().SaveRecord(ctx, &models.AidRecord{Name: "no id"})
	if err == nil {
		t.Fatal("Expected error saving record without ID")
	}
}

func TestReadingPurge(t *testing.T) {
	manager := newTestManager(t)
	storage := manager.ReadingStorage()
	ctx := context.Background()

	now := time.Now()
	for i := 0; i < 6; i++ {
		reading := &models.Reading{
			ID:         fmt.Sprintf("reading_%d", i),
			River:      "Ganges",
			Level:      4.2,
			RecordedAt: now.Add(-time.Duration(i) * time.Hour),
		}
		if err := storage.SaveReading(ctx, reading); err != nil {
			t.Fatalf("Failed to save reading %d: %v", i, err)
		}
	}

	deleted, err := storage.PurgeBefore(ctx, now.Add(-150*time.Minute))
	if err != nil {
		t.Fatalf("Failed to purge readings: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 purged readings, got %d", deleted)
	}

	remaining, err := storage.ListReadings(ctx, "Ganges", 0)
	if err != nil {
		t.Fatalf("Failed to list readings: %v", err)
	}
	if len(remaining) != 3 {
		t.Errorf("Expected 3 remaining readings, got %d", len(remaining))
	}
	for i := 1; i < len(remaining); i++ {
		if remaining[i].RecordedAt.After(remaining[i-1].RecordedAt) {
			t.Errorf("Readings not ordered newest-first at index %d", i)
		}
	}
}

func TestReadingsFilteredByRiver(t *testing.T) {
	manager := newTestManager(t)
	storage := manager.ReadingStorage()
	ctx := context.Background()

	now := time.Now()
	for i, river := range []string{"Ganges", "Kosi", "Ganges"} {
		reading := &models.Reading{
			ID:         fmt.Sprintf("reading_%d", i),
			River:      river,
			Level:      3.0,
			RecordedAt: now.Add(time.Duration(i) * time.Second),
		}
		if err := storage.SaveReading(ctx, reading); err != nil {
			t.Fatalf("Failed to save reading: %v", err)
		}
	}

	readings, err := storage.ListReadings(ctx, "Ganges", 0)
	if err != nil {
		t.Fatalf("Failed to list readings: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("Expected 2 Ganges readings, got %d", len(readings))
	}
	for _, r := range readings {
		if r.River != "Ganges" {
			t.Errorf("Unexpected river %s in filtered result", r.River)
		}
	}
}

func TestSessionCurrentReturnsLatest(t *testing.T) {
	manager := newTestManager(t)
	storage := manager.SessionStorage()
	ctx := context.Background()

	current, err := storage.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("Failed to query empty sessions: %v", err)
	}
	if current != nil {
		t.Fatal("Expected nil session before any login")
	}

	now := time.Now()
	older := &models.Session{ID: "anon_old", Anonymous: true, CreatedAt: now.Add(-time.Minute)}
	newer := &models.Session{ID: "anon_new", Anonymous: true, CreatedAt: now}
	if err := storage.SaveSession(ctx, older); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	if err := storage.SaveSession(ctx, newer); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	current, err = storage.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("Failed to query current session: %v", err)
	}
	if current == nil || current.ID != "anon_new" {
		t.Fatalf("Expected latest session anon_new, got %+v", current)
	}
}

func TestKVRoundTrip(t *testing.T) {
	manager := newTestManager(t)
	kv := manager.KeyValueStorage()
	ctx := context.Background()

	if _, err := kv.Get(ctx, "missing"); err != interfaces.ErrKeyNotFound {
		t.Fatalf("Expected ErrKeyNotFound, got %v", err)
	}

	if err := kv.Set(ctx, "Gemini_API_Key", "secret"); err != nil {
		t.Fatalf("Failed to set key: %v", err)
	}

	// Lookup is case-insensitive
	value, err := kv.Get(ctx, "gemini_api_key")
	if err != nil {
		t.Fatalf("Failed to get key: %v", err)
	}
	if value != "secret" {
		t.Errorf("Expected 'secret', got %q", value)
	}

	if err := kv.Delete(ctx, "GEMINI_API_KEY"); err != nil {
		t.Fatalf("Failed to delete key: %v", err)
	}
	if _, err := kv.Get(ctx, "gemini_api_key"); err != interfaces.ErrKeyNotFound {
		t.Fatalf("Expected ErrKeyNotFound after delete, got %v", err)
	}
}
