package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
)

// Service runs periodic maintenance jobs. The only job today is the
// reading retention sweep; schedules use the 6-field cron format with
// a seconds column.
type Service struct {
	config   *common.Config
	readings interfaces.ReadingStorage
	cron     *cron.Cron
	logger   arbor.ILogger

	mu      sync.Mutex
	running bool
	purgeID cron.EntryID
}

// NewService creates a new scheduler service
func NewService(config *common.Config, readings interfaces.ReadingStorage, logger arbor.ILogger) *Service {
	return &Service{
		config:   config,
		readings: readings,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
	}
}

// Start registers the retention sweep and begins the cron loop.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	schedule := s.config.Monitor.PurgeSchedule
	id, err := s.cron.AddFunc(schedule, s.purgeStaleReadings)
	if err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	s.purgeID = id

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Str("retention", s.config.MonitorRetention().String()).
		Msg("Retention scheduler started")

	return nil
}

// purgeStaleReadings deletes readings older than the retention window.
func (s *Service) purgeStaleReadings() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-s.config.MonitorRetention())
	deleted, err := s.readings.PurgeBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("Retention sweep failed")
		return
	}

	if deleted > 0 {
		s.logger.Info().
			Int("deleted", deleted).
			Str("cutoff", cutoff.Format(time.RFC3339)).
			Msg("Stale readings purged")
	}
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.running = false

	s.logger.Debug().Msg("Retention scheduler stopped")
	return nil
}
