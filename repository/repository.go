package repository

import (
	"fmt"
	"math"

	"github.com/glebarez/sqlite"
	"github.com/go-gota/gota/dataframe"
	"gorm.io/gorm"

	"github.com/cepro/plantsim/runlog"
)

// Repository stores run outcomes to the local file system (sqlite) before they are
// uploaded to the results platform.
type Repository struct {
	db *gorm.DB
}

func New(path string) (*Repository, error) {

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Migrate the schema
	err = db.AutoMigrate(&StoredRun{}, &StoredArrayStatus{}, &StoredSeasonalValue{})
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Repository{
		db: db,
	}, nil
}

// AddRun persists a run summary with its per-array statuses.
func (r *Repository) AddRun(summary runlog.RunSummary, statuses []runlog.ArrayStatus) error {
	run := newStoredRun(summary)
	if result := r.db.Create(&run); result.Error != nil {
		return result.Error
	}
	for _, status := range statuses {
		stored := newStoredArrayStatus(status)
		if result := r.db.Create(&stored); result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// AddSeasonalReport persists the long-form seasonal report rows of a run. The frame is
// expected in (season, variable, value, stat) shape as produced by the report package.
func (r *Repository) AddSeasonalReport(runID string, report dataframe.DataFrame) error {
	if report.Err != nil {
		return fmt.Errorf("seasonal report frame: %w", report.Err)
	}
	seasons := report.Col("season").Records()
	variables := report.Col("variable").Records()
	values := report.Col("value").Float()
	stats := report.Col("stat").Records()

	for i := range seasons {
		value := values[i]
		if math.IsNaN(value) {
			continue
		}
		row := StoredSeasonalValue{
			RunID:    runID,
			Season:   seasons[i],
			Variable: variables[i],
			Stat:     stats[i],
			Value:    value,
		}
		if result := r.db.Create(&row); result.Error != nil {
			return result.Error
		}
	}
	return nil
}

// GetRuns returns up to limit stored runs, fresh ones (never attempted) first when fresh
// is true, previously failed ones otherwise.
func (r *Repository) GetRuns(limit int, fresh bool) ([]StoredRun, error) {
	var runs []StoredRun

	query := r.db.Limit(limit).Order("upload_attempt_count asc, started_at desc")
	if fresh {
		query = query.Where("upload_attempt_count = ?", 0)
	} else {
		query = query.Where("upload_attempt_count > ?", 0)
	}
	result := query.Find(&runs)
	if result.Error != nil {
		return nil, result.Error
	}
	return runs, nil
}

// GetArrayStatuses returns the stored per-array diagnostics of one run.
func (r *Repository) GetArrayStatuses(runID string) ([]StoredArrayStatus, error) {
	var statuses []StoredArrayStatus
	result := r.db.Where("run_id = ?", runID).Order("array_id asc").Find(&statuses)
	if result.Error != nil {
		return nil, result.Error
	}
	return statuses, nil
}

// DeleteRuns removes uploaded runs from the buffer.
func (r *Repository) DeleteRuns(runs []StoredRun) error {
	result := r.db.Delete(&runs)
	return result.Error
}

// IncrementUploadAttemptCount marks runs as having failed one more upload.
func (r *Repository) IncrementUploadAttemptCount(runs []StoredRun) error {
	result := r.db.Model(&runs).UpdateColumn("upload_attempt_count", gorm.Expr("upload_attempt_count + ?", 1))
	return result.Error
}
