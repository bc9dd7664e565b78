package repository

import (
	"time"

	"github.com/cepro/plantsim/runlog"
)

// StoredRun is a run summary persisted to the SQLite database, with a count of upload
// attempts so failed uploads can be retried later.
type StoredRun struct {
	ID                 string `gorm:"primaryKey"`
	PlantName          string
	Period             string
	StartedAt          time.Time
	DurationSeconds    float64
	Arrays             int
	Simulated          int
	Skipped            int
	GridMerged         bool
	Rows               int
	UploadAttemptCount uint
}

// StoredArrayStatus is one array's per-run diagnostic persisted alongside its run.
type StoredArrayStatus struct {
	ID      uint   `gorm:"primaryKey"`
	RunID   string `gorm:"index"`
	ArrayID int
	Phase   string
	Error   string
	OK      bool
}

// StoredSeasonalValue is one long-form row of the seasonal report persisted for a run.
type StoredSeasonalValue struct {
	ID       uint   `gorm:"primaryKey"`
	RunID    string `gorm:"index"`
	Season   string
	Variable string
	Stat     string
	Value    float64
}

func newStoredRun(summary runlog.RunSummary) StoredRun {
	return StoredRun{
		ID:                 summary.ID.String(),
		PlantName:          summary.PlantName,
		Period:             summary.Period,
		StartedAt:          summary.StartedAt,
		DurationSeconds:    summary.Duration.Seconds(),
		Arrays:             summary.Arrays,
		Simulated:          summary.Simulated,
		Skipped:            summary.Skipped,
		GridMerged:         summary.GridMerged,
		Rows:               summary.Rows,
		UploadAttemptCount: 0,
	}
}

func newStoredArrayStatus(status runlog.ArrayStatus) StoredArrayStatus {
	errText := ""
	if status.Err != nil {
		errText = status.Err.Error()
	}
	return StoredArrayStatus{
		RunID:   status.RunID.String(),
		ArrayID: status.ArrayID,
		Phase:   string(status.Phase),
		Error:   errText,
		OK:      status.OK(),
	}
}
