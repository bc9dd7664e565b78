package dataplatform

import (
	"fmt"
	"log/slog"

	supa "github.com/nedpals/supabase-go"

	"github.com/cepro/plantsim/repository"
	"github.com/cepro/plantsim/runlog"
)

// runsTable is the supabase table that run summaries are inserted into.
const runsTable = "simulation_runs"

// DataPlatform handles the publishing of run outcomes to Supabase. Runs are buffered on
// disk in a SQLite database first, so an offline simulation never loses its summary: a
// failed upload stays in the buffer and is retried on the next attempt.
type DataPlatform struct {
	repository *repository.Repository
	supaClient *supa.Client
}

func New(supabaseUrl string, supabaseKey string, bufferRepositoryFilename string) (*DataPlatform, error) {

	supaClient := supa.CreateClient(supabaseUrl, supabaseKey)

	schema := "plants"
	supaClient.DB.AddHeader("Accept-Profile", schema)
	supaClient.DB.AddHeader("Content-Profile", schema)

	repository, err := repository.New(bufferRepositoryFilename)
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}

	return &DataPlatform{
		repository: repository,
		supaClient: supaClient,
	}, nil
}

// Record buffers one run outcome for upload.
func (d *DataPlatform) Record(summary runlog.RunSummary, statuses []runlog.ArrayStatus) error {
	if err := d.repository.AddRun(summary, statuses); err != nil {
		return fmt.Errorf("buffer run: %w", err)
	}
	slog.Debug("Buffered run for upload", "run_id", summary.ID)
	return nil
}

// AttemptUpload pushes buffered runs to Supabase: first the fresh ones that have never
// been attempted, then the ones left over from earlier failures.
func (d *DataPlatform) AttemptUpload() {

	// uploadChunkLimit defines how many runs we can upload in one supabase HTTP request
	uploadChunkLimit := 100

	freshRuns, err := d.repository.GetRuns(uploadChunkLimit, true)
	if err != nil {
		slog.Error("failed to query fresh runs", "error", err)
	} else if len(freshRuns) > 0 {
		if err := d.handleRuns(freshRuns); err != nil {
			slog.Error("failed to handle fresh runs", "error", err)
		}
	}

	oldRuns, err := d.repository.GetRuns(uploadChunkLimit, false)
	if err != nil {
		slog.Error("failed to query old runs", "error", err)
	} else if len(oldRuns) > 0 {
		if err := d.handleRuns(oldRuns); err != nil {
			slog.Error("failed to handle old runs", "error", err)
		}
	}
}

// handleRuns attempts to upload the given runs. If successful, it deletes the runs from
// the buffer, if unsuccessful, it increments the 'upload attempt count' column and leaves
// them in the buffer for another time.
func (d *DataPlatform) handleRuns(runs []repository.StoredRun) error {

	uploadErr := d.supaClient.DB.From(runsTable).Insert(convertRuns(runs)).Execute(nil)
	if uploadErr != nil {
		uploadErr := fmt.Errorf("upload failed: %w", uploadErr)
		if errInc := d.repository.IncrementUploadAttemptCount(runs); errInc != nil {
			return fmt.Errorf("%w: increment upload attempt count: %w", uploadErr, errInc)
		}
		return uploadErr
	}

	if deleteErr := d.repository.DeleteRuns(runs); deleteErr != nil {
		return fmt.Errorf("delete runs: %w", deleteErr)
	}

	slog.Info("Uploaded runs", "db_table", runsTable, "db_records", len(runs))
	return nil
}
