package models

import "time"

// WaterLevel is the current simulated state of one river gauge.
type WaterLevel struct {
	River     string    `json:"river"`
	Level     float64   `json:"level"`  // metres
	Danger    float64   `json:"danger"` // danger threshold in metres
	Rising    bool      `json:"rising"` // level moved up on the last tick
	UpdatedAt time.Time `json:"updated_at"`
}

// Reading is one persisted tick of the water-level simulation.
// Simulated data only; there is no upstream sensor.
type Reading struct {
	ID         string    `json:"id" badgerhold:"key"`
	River      string    `json:"river" badgerholdIndex:"River"`
	Level      float64   `json:"level"`
	RecordedAt time.Time `json:"recorded_at" badgerholdIndex:"RecordedAt"`
}
