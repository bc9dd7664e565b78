package runlog

import (
	"time"

	"github.com/google/uuid"
)

// RunSummary holds the outcome of one plant simulation run.
type RunSummary struct {
	ID         uuid.UUID
	PlantName  string
	Period     string
	StartedAt  time.Time
	Duration   time.Duration
	Arrays     int // arrays declared in the configuration
	Simulated  int // arrays that produced results
	Skipped    int // arrays isolated after a build/run/gather failure
	GridMerged bool
	Rows       int // rows in the persisted cumulative table
}

// ArrayStatus records the fate of one array within a run. A failed array never aborts the
// run, so the statuses are the only place partial failure is visible.
type ArrayStatus struct {
	RunID   uuid.UUID
	ArrayID int
	Phase   Phase
	Err     error
}

func (s ArrayStatus) OK() bool {
	return s.Err == nil
}

// Phase names the pipeline step an array was in when its status was recorded.
type Phase string

const (
	PhaseBuild     Phase = "build"
	PhaseSimulate  Phase = "simulate"
	PhaseAggregate Phase = "aggregate"
	PhaseDone      Phase = "done"
)
