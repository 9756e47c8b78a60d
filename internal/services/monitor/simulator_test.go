package monitor

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
)

type memoryReadingStorage struct {
	mu       sync.Mutex
	readings []*models.Reading
}

func (m *memoryReadingStorage) SaveReading(ctx context.Context, reading *models.Reading) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings = append(m.readings, reading)
	return nil
}

func (m *memoryReadingStorage) ListReadings(ctx context.Context, river string, limit int) ([]*models.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Reading
	for _, r := range m.readings {
		if r.River == river {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryReadingStorage) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return 0, nil
}

func (m *memoryReadingStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.readings)
}

func testMonitorConfig() *common.MonitorConfig {
	return &common.MonitorConfig{
		Rivers: []common.RiverConfig{
			{Name: "Ganges", BaseLevel: 14.0, Jitter: 0.5, MinLevel: 13.5, MaxLevel: 14.5, Danger: 20.0},
			{Name: "Kosi", BaseLevel: 8.0, Jitter: 0.3, MinLevel: 4.0, MaxLevel: 15.0, Danger: 13.0},
		},
	}
}

func newTestSimulator(storage *memoryReadingStorage) *Simulator {
	return NewSimulator(testMonitorConfig(), 3*time.Second, storage, nil, arbor.NewLogger(),
		WithRand(rand.New(rand.NewSource(42))))
}

func TestLevelsStartAtBase(t *testing.T) {
	sim := newTestSimulator(&memoryReadingStorage{})

	levels := sim.Levels()
	require.Len(t, levels, 2)
	assert.Equal(t, "Ganges", levels[0].River)
	assert.Equal(t, 14.0, levels[0].Level)
	assert.Equal(t, 20.0, levels[0].Danger)
	assert.Equal(t, "Kosi", levels[1].River)
	assert.Equal(t, 8.0, levels[1].Level)
}

func TestTickStaysWithinBounds(t *testing.T) {
	storage := &memoryReadingStorage{}
	sim := newTestSimulator(storage)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		sim.Tick(ctx)
		for _, level := range sim.Levels() {
			switch level.River {
			case "Ganges":
				assert.GreaterOrEqual(t, level.Level, 13.5)
				assert.LessOrEqual(t, level.Level, 14.5)
			case "Kosi":
				assert.GreaterOrEqual(t, level.Level, 4.0)
				assert.LessOrEqual(t, level.Level, 15.0)
			}
		}
	}
}

func TestTickPersistsReadingPerRiver(t *testing.T) {
	storage := &memoryReadingStorage{}
	sim := newTestSimulator(storage)

	sim.Tick(context.Background())
	assert.Equal(t, 2, storage.count(), "one reading per river per tick")

	sim.Tick(context.Background())
	assert.Equal(t, 4, storage.count())

	readings, err := storage.ListReadings(context.Background(), "Ganges", 0)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	for _, r := range readings {
		assert.NotEmpty(t, r.ID)
		assert.False(t, r.RecordedAt.IsZero())
	}
}

func TestRisingFlagTracksMovement(t *testing.T) {
	sim := newTestSimulator(&memoryReadingStorage{})

	previous := map[string]float64{}
	for _, level := range sim.Levels() {
		previous[level.River] = level.Level
	}

	for i := 0; i < 50; i++ {
		sim.Tick(context.Background())
		for _, level := range sim.Levels() {
			rose := level.Level > previous[level.River]
			assert.Equal(t, rose, level.Rising, "river %s tick %d", level.River, i)
			previous[level.River] = level.Level
		}
	}
}

func TestStartRequiresRivers(t *testing.T) {
	sim := NewSimulator(&common.MonitorConfig{}, 3*time.Second, &memoryReadingStorage{}, nil, arbor.NewLogger())
	err := sim.Start(context.Background())
	require.Error(t, err)
}

func TestStartAndCloseIdempotentClose(t *testing.T) {
	storage := &memoryReadingStorage{}
	sim := NewSimulator(testMonitorConfig(), 10*time.Millisecond, storage, nil, arbor.NewLogger(),
		WithRand(rand.New(rand.NewSource(7))))

	require.NoError(t, sim.Start(context.Background()))
	assert.Error(t, sim.Start(context.Background()), "double start is rejected")

	// Let a few ticks land.
	time.Sleep(60 * time.Millisecond)
	require.NoError(t, sim.Close())
	require.NoError(t, sim.Close())

	assert.Greater(t, storage.count(), 0, "background ticks persist readings")
}
