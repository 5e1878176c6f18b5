package model

import (
	"time"

	"github.com/google/uuid"
)

// GenerationFailure records one entity that could not be described
type GenerationFailure struct {
	Identity Identity `json:"identity"`
	Reason   string   `json:"reason"`
}

// RunReport summarizes one description completion run
type RunReport struct {
	RunID      uuid.UUID           `json:"run_id"`
	Generated  int                 `json:"generated"`
	Seeded     int                 `json:"seeded"`
	Skipped    int                 `json:"skipped"`
	Failed     int                 `json:"failed"`
	Failures   []GenerationFailure `json:"failures,omitempty"`
	Persisted  bool                `json:"persisted"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}
