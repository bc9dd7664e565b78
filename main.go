package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-gota/gota/dataframe"

	dataplatform "github.com/cepro/plantsim/data_platform"
	"github.com/cepro/plantsim/plot"
	"github.com/cepro/plantsim/report"
	"github.com/cepro/plantsim/repository"
	"github.com/cepro/plantsim/simulator"
)

func main() {

	plantDir := flag.String("plant", "", "plant configuration folder (site.json, plant.json, arrays.json, grid.json)")
	dbPath := flag.String("db", "", "optional sqlite file to store run outcomes in")
	supabaseUrl := flag.String("supabase-url", "", "optional supabase project url to publish run summaries to")
	supabaseKey := flag.String("supabase-key", "", "supabase anon key, required with -supabase-url")
	plotPath := flag.String("plot", "", "optional PNG file to render the AC power profile to")
	printReport := flag.Bool("report", false, "print the seasonal report after the run")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *plantDir == "" {
		slog.Error("No plant folder given, use -plant")
		os.Exit(2)
	}

	slog.Info("Starting plant simulation...", "plant_dir", *plantDir)

	sim := simulator.New(*plantDir)
	if ok := sim.Run(nil); !ok {
		slog.Error("Simulation aborted, configuration could not be loaded")
		os.Exit(1)
	}

	seasonal, reportErr := report.Seasonal(sim.Table())
	if reportErr != nil {
		slog.Warn("Seasonal report unavailable", "error", reportErr)
	} else if *printReport {
		fmt.Println(seasonal)
	}

	if *dbPath != "" {
		if *supabaseUrl != "" {
			publishRun(sim, *supabaseUrl, *supabaseKey, *dbPath)
		} else {
			storeRun(sim, *dbPath, seasonal, reportErr == nil)
		}
	}

	if *plotPath != "" {
		if err := plot.SavePowerProfile(sim.Table(), 0.96, *plotPath); err != nil {
			slog.Error("Failed to render power profile", "error", err)
		} else {
			slog.Info("Power profile rendered", "path", *plotPath)
		}
	}

	summary := sim.Summary()
	slog.Info("Done",
		"run_id", summary.ID,
		"simulated", summary.Simulated,
		"skipped", summary.Skipped,
		"grid_merged", summary.GridMerged,
	)
}

// storeRun persists the run outcome and the seasonal report to a local sqlite file.
func storeRun(sim *simulator.Simulator, dbPath string, seasonal dataframe.DataFrame, haveReport bool) {
	repo, err := repository.New(dbPath)
	if err != nil {
		slog.Error("Failed to open run database", "path", dbPath, "error", err)
		return
	}
	summary := sim.Summary()
	if err := repo.AddRun(summary, sim.Statuses()); err != nil {
		slog.Error("Failed to store run", "error", err)
		return
	}
	if haveReport {
		if err := repo.AddSeasonalReport(summary.ID.String(), seasonal); err != nil {
			slog.Error("Failed to store seasonal report", "error", err)
		}
	}
	slog.Info("Run stored", "path", dbPath, "run_id", summary.ID)
}

// publishRun buffers the run outcome in sqlite and pushes it to Supabase.
func publishRun(sim *simulator.Simulator, url, key, bufferPath string) {
	platform, err := dataplatform.New(url, key, bufferPath)
	if err != nil {
		slog.Error("Failed to create data platform", "error", err)
		return
	}
	if err := platform.Record(sim.Summary(), sim.Statuses()); err != nil {
		slog.Error("Failed to buffer run", "error", err)
		return
	}
	platform.AttemptUpload()
}
