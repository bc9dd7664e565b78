package gridmerge

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/cepro/plantsim/grid"
	"github.com/cepro/plantsim/results"
)

// RunError reports a failed grid run. It is never fatal to a simulation: the PV-only
// results are kept and persisted without grid variables.
type RunError struct {
	Errors []string
}

func (e *RunError) Error() string {
	return "grid run failed: " + strings.Join(e.Errors, "; ")
}

// Engine is the power-flow engine the adapter drives. *grid.Net satisfies it.
type Engine interface {
	RunTimeSeries(profile grid.Profile) ([]string, *grid.Result)
}

// Merge bridges the cumulative result table into a grid time-series run.
//
// The table's per-array AC active power is pivoted into a generation profile and handed to
// the engine. If the engine reports errors they are returned as-is and the table comes
// back unchanged. Otherwise every returned grid variable is serialized to its
// "(<table>, <variable>, <index>)" column name and merged into the table, aligned by
// timestamp. assumeACFromDC is the DC-to-AC efficiency used when only DC power columns
// exist (0 disallows the fallback).
func Merge(table dataframe.DataFrame, engine Engine, assumeACFromDC float64) ([]string, dataframe.DataFrame, error) {
	profile, err := results.ACProfile(table, assumeACFromDC)
	if err != nil {
		return nil, table, fmt.Errorf("build generation profile: %w", err)
	}

	errs, res := engine.RunTimeSeries(profile)
	if len(errs) > 0 {
		return errs, table, nil
	}
	if res == nil {
		return nil, table, fmt.Errorf("grid engine returned no results")
	}

	ss := make([]series.Series, 0, len(res.Keys)+1)
	stamps := make([]string, len(res.Times))
	for i, t := range res.Times {
		stamps[i] = t.Format(results.TimeLayout)
	}
	ss = append(ss, series.New(stamps, series.String, results.TimestampCol))
	for _, key := range res.Keys {
		ss = append(ss, series.New(res.Columns[key], series.Float, key.String()))
	}
	gridFrame := dataframe.New(ss...)
	if gridFrame.Err != nil {
		return nil, table, fmt.Errorf("assemble grid variables: %w", gridFrame.Err)
	}

	merged := table.LeftJoin(gridFrame, results.TimestampCol)
	if merged.Err != nil {
		return nil, table, fmt.Errorf("merge grid variables: %w", merged.Err)
	}
	slog.Debug("Merged grid variables into cumulative table", "grid_columns", len(res.Keys))
	return nil, merged, nil
}

// Filter parses the serialized grid variable columns of a table back into their 3-part
// keys and re-selects them by element table name and/or element index. Surviving columns
// are renamed to the bare variable name (disambiguated with the element index when two
// survivors share a variable). Non-grid columns are dropped.
func Filter(table dataframe.DataFrame, elements []string, indices []int) dataframe.DataFrame {
	resTables := make(map[string]bool, len(elements))
	for _, el := range elements {
		if !strings.HasPrefix(el, "res_") {
			el = "res_" + el
		}
		resTables[el] = true
	}
	wantIndex := make(map[int]bool, len(indices))
	for _, idx := range indices {
		wantIndex[idx] = true
	}

	var keep []string
	var keys []grid.VariableKey
	hasTimestamp := false
	for _, col := range table.Names() {
		if col == results.TimestampCol {
			hasTimestamp = true
			continue
		}
		key, err := grid.ParseVariableKey(col)
		if err != nil {
			continue
		}
		if len(resTables) > 0 && !resTables[key.Table] {
			continue
		}
		if len(wantIndex) > 0 && !wantIndex[key.Index] {
			continue
		}
		keep = append(keep, col)
		keys = append(keys, key)
	}
	if len(keep) == 0 {
		return dataframe.DataFrame{}
	}

	variableCount := make(map[string]int, len(keys))
	for _, key := range keys {
		variableCount[key.Variable]++
	}

	// the time column stays so filtered frames remain time-indexed
	selected := keep
	if hasTimestamp {
		selected = append([]string{results.TimestampCol}, keep...)
	}
	out := table.Select(selected)
	for i, col := range keep {
		name := keys[i].Variable
		if variableCount[name] > 1 {
			name = fmt.Sprintf("%s_%d", name, keys[i].Index)
		}
		out = out.Rename(name, col)
	}
	return out
}
