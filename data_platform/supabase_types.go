package dataplatform

import (
	"time"

	"github.com/cepro/plantsim/repository"
)

// supabaseRun holds the json encoding schema for a run summary in supabase.
type supabaseRun struct {
	ID              string    `json:"id"`
	PlantName       string    `json:"plant_name"`
	Period          string    `json:"period"`
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds float64   `json:"duration_seconds"`
	Arrays          int       `json:"arrays"`
	Simulated       int       `json:"simulated"`
	Skipped         int       `json:"skipped"`
	GridMerged      bool      `json:"grid_merged"`
	Rows            int       `json:"rows"`
}

func convertRuns(runs []repository.StoredRun) []supabaseRun {
	var supabaseRuns []supabaseRun
	for _, run := range runs {
		supabaseRuns = append(supabaseRuns, supabaseRun{
			ID:              run.ID,
			PlantName:       run.PlantName,
			Period:          run.Period,
			StartedAt:       run.StartedAt,
			DurationSeconds: run.DurationSeconds,
			Arrays:          run.Arrays,
			Simulated:       run.Simulated,
			Skipped:         run.Skipped,
			GridMerged:      run.GridMerged,
			Rows:            run.Rows,
		})
	}
	return supabaseRuns
}
