package simulator

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/google/uuid"

	"github.com/cepro/plantsim/config"
	"github.com/cepro/plantsim/grid"
	"github.com/cepro/plantsim/gridmerge"
	"github.com/cepro/plantsim/pvmodel"
	"github.com/cepro/plantsim/results"
	"github.com/cepro/plantsim/runlog"
	"github.com/cepro/plantsim/solar"
	timeutils "github.com/cepro/plantsim/time_utils"
)

// ResultFile is the name of the persisted cumulative result table inside the plant folder.
const ResultFile = "simulation.csv"

// defaultWeatherSeed primes the (currently inert) stochastic path of the synthetic weather.
const defaultWeatherSeed = 42

// defaultDCACEfficiency converts DC power to AC for the grid profile when an array's
// bundle carries no AC power column.
const defaultDCACEfficiency = 0.96

// ArrayError wraps a per-array failure with the array's identity and the pipeline phase it
// failed in. Array errors are isolated: the array is skipped and the run continues.
type ArrayError struct {
	ArrayID int
	Phase   runlog.Phase
	Err     error
}

func (e *ArrayError) Error() string {
	return fmt.Sprintf("array %d: %s: %v", e.ArrayID, e.Phase, e.Err)
}

func (e *ArrayError) Unwrap() error {
	return e.Err
}

// Simulator orchestrates one full plant simulation: load the configuration folder, build
// and execute the model of every declared array with per-array failure isolation, merge
// the optional grid run, and persist the cumulative result table.
//
// A Simulator runs one plant and is not safe for concurrent use; simulate several plants
// with one instance each.
type Simulator struct {
	logger *slog.Logger
	dir    string

	site   config.Site
	plant  config.Plant
	arrays map[int]config.ArrayWiring
	net    *grid.Net

	times     timeutils.TimeIndex
	env       *solar.Environment
	collector *results.Collector
	table     dataframe.DataFrame

	summary  runlog.RunSummary
	statuses []runlog.ArrayStatus

	buildModel   func(config.Plant, config.ArrayWiring) (*pvmodel.Model, error)
	executeModel func(*pvmodel.Model, *solar.Environment, solar.Weather) (results.Bundle, error)
}

// New creates a simulator for the plant configured in dir.
func New(dir string) *Simulator {
	return &Simulator{
		logger:     slog.Default(),
		dir:        dir,
		collector:  results.NewCollector(),
		buildModel: pvmodel.Build,
		executeModel: func(m *pvmodel.Model, env *solar.Environment, w solar.Weather) (results.Bundle, error) {
			return m.Execute(env, w)
		},
	}
}

// Run executes the full pipeline. times overrides the default hourly-year window when
// non-nil.
//
// The return value reports whether the configuration was valid and the pipeline ran to the
// end, not whether every array succeeded: skipped arrays and a failed grid run are logged
// and recorded in Statuses, but still return true. Only a configuration loading failure
// returns false.
func (s *Simulator) Run(times *timeutils.TimeIndex) bool {
	start := time.Now()
	s.summary = runlog.RunSummary{
		ID:        uuid.New(),
		StartedAt: start,
	}

	if err := s.load(); err != nil {
		s.logger.Error("Loading configuration failed", "plant", s.safePlantName(), "error", err)
		return false
	}
	s.logger.Info("Configuration loaded", "plant", s.plantName())

	s.initTimes(times)
	s.summary.PlantName = s.plantName()
	s.summary.Period = s.times.Name
	s.summary.Arrays = len(s.arrays)

	for _, id := range s.arrayIDs() {
		status := runlog.ArrayStatus{RunID: s.summary.ID, ArrayID: id, Phase: runlog.PhaseDone}
		if err := s.simulateArray(id); err != nil {
			var arrayErr *ArrayError
			if e, ok := err.(*ArrayError); ok {
				arrayErr = e
			} else {
				arrayErr = &ArrayError{ArrayID: id, Phase: runlog.PhaseSimulate, Err: err}
			}
			status.Phase = arrayErr.Phase
			status.Err = arrayErr
			s.summary.Skipped++
			s.logger.Warn("Array skipped", "plant", s.plantName(), "array_id", id, "phase", arrayErr.Phase, "error", arrayErr.Err)
		} else {
			s.summary.Simulated++
			s.logger.Debug("Array executed", "plant", s.plantName(), "array_id", id)
		}
		s.statuses = append(s.statuses, status)
	}

	s.table = s.collector.Table()

	if s.net != nil {
		s.mergeGrid()
	} else {
		s.logger.Debug("No grid configured, skipping grid run", "plant", s.plantName())
	}

	s.save()

	s.summary.Duration = time.Since(start)
	s.summary.Rows = s.tableRows()
	s.logger.Info("Simulation executed",
		"plant", s.plantName(),
		"arrays", s.summary.Arrays,
		"simulated", s.summary.Simulated,
		"skipped", s.summary.Skipped,
		"grid_merged", s.summary.GridMerged,
		"rows", s.summary.Rows,
		"duration", s.summary.Duration,
	)
	return true
}

// Table returns the cumulative result table, including grid variables when a grid run was
// merged. Only meaningful after Run.
func (s *Simulator) Table() dataframe.DataFrame {
	return s.table
}

// Statuses returns the per-array diagnostics of the last run, in array iteration order.
func (s *Simulator) Statuses() []runlog.ArrayStatus {
	return s.statuses
}

// Summary returns the outcome record of the last run.
func (s *Simulator) Summary() runlog.RunSummary {
	return s.summary
}

// ResultPath is where the cumulative table is persisted.
func (s *Simulator) ResultPath() string {
	return filepath.Join(s.dir, ResultFile)
}

// load reads the plant configuration folder. Any error here is fatal to the run.
func (s *Simulator) load() error {
	site, err := config.ReadSite(s.dir)
	if err != nil {
		return err
	}
	s.site = site

	plant, err := config.ReadPlant(s.dir)
	if err != nil {
		return err
	}
	s.plant = plant

	// the components are shared plant-level configuration: an unresolvable module,
	// inverter or mount fails the run here, before any array is attempted
	if _, _, _, err := pvmodel.ResolveComponents(plant); err != nil {
		return fmt.Errorf("plant components: %w", err)
	}

	arrays, found, err := config.ReadArrays(s.dir)
	if err != nil {
		return err
	}
	s.arrays = arrays
	if !found {
		s.logger.Info("No arrays file found, defaulting to a single 1x1 array", "plant", s.plantName())
	}

	if config.HasGrid(s.dir) {
		net, err := grid.FromFile(filepath.Join(s.dir, config.GridFile))
		if err != nil {
			return err
		}
		s.net = net
		if !found {
			s.logger.Warn("Grid is configured but no arrays file was found", "plant", s.plantName())
		}
	}
	return nil
}

// initTimes sets the shared time index: the supplied one when given, otherwise the default
// hourly-year window in the site's timezone, falling back to UTC with a warning when the
// timezone cannot be resolved.
func (s *Simulator) initTimes(times *timeutils.TimeIndex) {
	if times != nil {
		s.times = *times
		s.logger.Debug("Using supplied time index",
			"start", s.times.Start(), "end", s.times.End(), "points", s.times.Len())
		return
	}

	loc, err := s.site.Location()
	if err != nil {
		s.logger.Warn("Site timezone unavailable, defaulting to UTC", "plant", s.plantName(), "error", err)
		loc = time.UTC
	}
	s.times = timeutils.HourlyYear(loc)
	s.logger.Debug("Default time index created",
		"start", s.times.Start(), "end", s.times.End(), "points", s.times.Len())
}

// simulateArray runs the whole per-array pipeline: build the model handle, run the
// synthetic environment and the model engine, and hand the bundle to the collector.
func (s *Simulator) simulateArray(id int) error {
	model, err := s.buildModel(s.plant, s.arrays[id])
	if err != nil {
		return &ArrayError{ArrayID: id, Phase: runlog.PhaseBuild, Err: err}
	}

	env, err := s.environment()
	if err != nil {
		return &ArrayError{ArrayID: id, Phase: runlog.PhaseSimulate, Err: err}
	}
	weather := env.Weather(25, 1, defaultWeatherSeed)

	bundle, err := s.executeModel(model, env, weather)
	if err != nil {
		return &ArrayError{ArrayID: id, Phase: runlog.PhaseSimulate, Err: err}
	}

	record, err := s.collector.Gather(id, s.times.Name, bundle)
	if err != nil {
		return &ArrayError{ArrayID: id, Phase: runlog.PhaseAggregate, Err: err}
	}
	if err := s.collector.Append(record); err != nil {
		return &ArrayError{ArrayID: id, Phase: runlog.PhaseAggregate, Err: err}
	}
	return nil
}

// environment lazily computes the synthetic environment shared by every array of the run.
func (s *Simulator) environment() (*solar.Environment, error) {
	if s.env != nil {
		return s.env, nil
	}
	env, err := solar.NewEnvironment(s.site.Solar(), s.times)
	if err != nil {
		return nil, err
	}
	s.env = env
	return env, nil
}

// mergeGrid bridges the cumulative table into the grid engine. A grid failure never fails
// the run, the PV-only table is kept.
func (s *Simulator) mergeGrid() {
	if s.collector.IsEmpty() {
		s.logger.Warn("No array results to feed the grid run", "plant", s.plantName())
		return
	}

	errs, merged, err := gridmerge.Merge(s.table, s.net, defaultDCACEfficiency)
	if err != nil {
		s.logger.Error("Grid run failed", "plant", s.plantName(), "error", err)
		return
	}
	if len(errs) > 0 {
		s.logger.Error("Grid run reported errors", "plant", s.plantName(), "error", &gridmerge.RunError{Errors: errs})
		return
	}
	s.table = merged
	s.summary.GridMerged = true
	s.logger.Debug("Grid run completed", "plant", s.plantName())
}

// save persists the cumulative table inside the plant folder. An empty table is a warning,
// not an error.
func (s *Simulator) save() {
	if s.tableRows() == 0 {
		s.logger.Warn("Nothing to save, no results were produced", "plant", s.plantName())
		return
	}
	if err := results.SaveFile(s.table, s.ResultPath()); err != nil {
		s.logger.Error("Failed to save results", "plant", s.plantName(), "error", err)
		return
	}
	s.logger.Info("Results saved", "plant", s.plantName(), "path", s.ResultPath())
}

func (s *Simulator) tableRows() int {
	if s.table.Err != nil {
		return 0
	}
	return s.table.Nrow()
}

// arrayIDs returns the declared array ids in ascending order so runs are deterministic.
func (s *Simulator) arrayIDs() []int {
	ids := make([]int, 0, len(s.arrays))
	for id := range s.arrays {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// plantName is the log-friendly "[site : plant]" label.
func (s *Simulator) plantName() string {
	return fmt.Sprintf("[%s : %s]", s.site.Name, s.plant.Name)
}

// safePlantName tolerates a partially loaded configuration.
func (s *Simulator) safePlantName() string {
	siteName := s.site.Name
	if siteName == "" {
		siteName = "<site?>"
	}
	plantName := s.plant.Name
	if plantName == "" {
		plantName = "<plant?>"
	}
	return fmt.Sprintf("[%s : %s]", siteName, plantName)
}
