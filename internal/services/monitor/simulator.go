package monitor

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
)

// Simulator drives the water-level panel with a bounded random walk.
// There is no upstream sensor; every reading is synthetic.
type Simulator struct {
	config  *common.MonitorConfig
	storage interfaces.ReadingStorage
	events  interfaces.EventService
	logger  arbor.ILogger
	rng     *rand.Rand
	tick    time.Duration

	mu     sync.RWMutex
	levels map[string]*models.WaterLevel
	order  []string

	stopCh  chan struct{}
	doneCh  chan struct{}
	startMu sync.Mutex
	started bool
}

// SimulatorOption configures the Simulator.
type SimulatorOption func(*Simulator)

// WithRand sets the random source (tests inject a seeded one).
func WithRand(rng *rand.Rand) SimulatorOption {
	return func(s *Simulator) {
		s.rng = rng
	}
}

// NewSimulator creates a new water-level simulator
func NewSimulator(config *common.MonitorConfig, tick time.Duration, storage interfaces.ReadingStorage, events interfaces.EventService, logger arbor.ILogger, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		config:  config,
		storage: storage,
		events:  events,
		logger:  logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		tick:    tick,
		levels:  make(map[string]*models.WaterLevel),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	now := time.Now()
	for _, river := range config.Rivers {
		s.levels[river.Name] = &models.WaterLevel{
			River:     river.Name,
			Level:     river.BaseLevel,
			Danger:    river.Danger,
			UpdatedAt: now,
		}
		s.order = append(s.order, river.Name)
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start begins ticking in the background.
func (s *Simulator) Start(ctx context.Context) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if s.started {
		return fmt.Errorf("simulator already started")
	}
	if len(s.order) == 0 {
		return fmt.Errorf("no rivers configured")
	}
	s.started = true

	go s.run(ctx)

	s.logger.Info().
		Int("rivers", len(s.order)).
		Str("interval", s.tick.String()).
		Msg("Water-level simulator started")

	return nil
}

func (s *Simulator) run(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick advances every gauge one simulation step. Exposed so tests can
// step the walk without a running ticker.
func (s *Simulator) Tick(ctx context.Context) {
	now := time.Now()
	snapshot := s.step(now)

	for _, level := range snapshot {
		reading := &models.Reading{
			ID:         common.NewRecordID(),
			River:      level.River,
			Level:      level.Level,
			RecordedAt: now,
		}
		if err := s.storage.SaveReading(ctx, reading); err != nil {
			s.logger.Warn().Err(err).Str("river", level.River).Msg("Failed to persist reading")
		}
	}

	if s.events != nil {
		s.events.Publish(ctx, interfaces.Event{
			Type:    interfaces.EventWaterLevelTick,
			Payload: snapshot,
		})
	}
}

// step mutates every gauge under the lock and returns a copied snapshot.
func (s *Simulator) step(now time.Time) []*models.WaterLevel {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make([]*models.WaterLevel, 0, len(s.order))
	for _, river := range s.config.Rivers {
		level := s.levels[river.Name]

		// Symmetric jitter in [-Jitter, +Jitter], clamped to the gauge range.
		delta := (s.rng.Float64()*2 - 1) * river.Jitter
		next := level.Level + delta
		if next < river.MinLevel {
			next = river.MinLevel
		}
		if next > river.MaxLevel {
			next = river.MaxLevel
		}

		level.Rising = next > level.Level
		level.Level = next
		level.UpdatedAt = now

		copied := *level
		snapshot = append(snapshot, &copied)
	}

	return snapshot
}

// Levels returns the current state of every simulated gauge.
func (s *Simulator) Levels() []*models.WaterLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]*models.WaterLevel, 0, len(s.order))
	for _, name := range s.order {
		copied := *s.levels[name]
		snapshot = append(snapshot, &copied)
	}
	return snapshot
}

// Close stops the simulation.
func (s *Simulator) Close() error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false

	close(s.stopCh)
	<-s.doneCh

	s.logger.Debug().Msg("Water-level simulator stopped")
	return nil
}
