package results

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/cepro/plantsim/grid"
)

// acPowerCandidates lists the column names accepted as an array's AC active power, in
// priority order, with the factor that converts their unit to MW.
var acPowerCandidates = []powerCandidate{
	{"p_mw", 1},
	{"ac_p_mw", 1},
	{"ac_p_kw", 1e-3},
	{"ac_p_mp", 1e-6}, // engine outputs in W
	{"p_ac", 1e-6},
	{"ac", 1e-6},
}

// dcPowerCandidates are the fallbacks used when only DC-stage power is available; they
// additionally require a DC-to-AC conversion efficiency.
var dcPowerCandidates = []powerCandidate{
	{"dc_p_mp", 1e-6},
	{"p_dc", 1e-6},
}

type powerCandidate struct {
	name string
	toMW float64
}

// ACProfile pivots the cumulative result table into a (timestamp × array id) generation
// profile in MW, one column per array, suitable for driving a grid time-series run.
//
// The AC power column is resolved per array from acPowerCandidates; if only DC power is
// present it is converted with assumeACFromDC (pass 0 to disallow the DC fallback).
// Absent cells are filled with zero.
func ACProfile(table dataframe.DataFrame, assumeACFromDC float64) (grid.Profile, error) {
	if table.Err != nil {
		return grid.Profile{}, fmt.Errorf("pivot cumulative table: %w", table.Err)
	}
	if table.Nrow() == 0 {
		return grid.Profile{}, fmt.Errorf("pivot cumulative table: no rows")
	}
	names := table.Names()
	if !containsName(names, TimestampCol) || !containsName(names, "array_id") {
		return grid.Profile{}, fmt.Errorf("pivot cumulative table: missing %s or array_id column", TimestampCol)
	}

	tsRecords := table.Col(TimestampCol).Records()
	idValues := table.Col("array_id").Float()

	columns := make(map[string][]float64)
	for _, cand := range append(append([]powerCandidate{}, acPowerCandidates...), dcPowerCandidates...) {
		if containsName(names, cand.name) {
			columns[cand.name] = table.Col(cand.name).Float()
		}
	}

	// align all arrays to the sorted union of timestamps
	parsed := make([]time.Time, len(tsRecords))
	seen := make(map[int64]int)
	var times []time.Time
	for i, rec := range tsRecords {
		t, err := ParseTimestamp(rec)
		if err != nil {
			return grid.Profile{}, fmt.Errorf("pivot cumulative table: row %d: %w", i, err)
		}
		parsed[i] = t
		if _, ok := seen[t.Unix()]; !ok {
			seen[t.Unix()] = 0
			times = append(times, t)
		}
	}
	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for i, t := range times {
		seen[t.Unix()] = i
	}

	rowsByArray := make(map[int][]int)
	for i, v := range idValues {
		if math.IsNaN(v) {
			return grid.Profile{}, fmt.Errorf("pivot cumulative table: row %d has no array_id", i)
		}
		id := int(v)
		rowsByArray[id] = append(rowsByArray[id], i)
	}

	profile := grid.Profile{
		Times: times,
		P:     make(map[int][]float64, len(rowsByArray)),
	}

	for id, rows := range rowsByArray {
		cand, factor, err := resolvePowerColumn(columns, rows, assumeACFromDC)
		if err != nil {
			return grid.Profile{}, fmt.Errorf("array %d: %w", id, err)
		}

		values := make([]float64, len(times))
		nanCount := 0
		for _, row := range rows {
			v := columns[cand][row]
			if math.IsNaN(v) {
				nanCount++
				v = 0
			}
			values[seen[parsed[row].Unix()]] = v * factor
		}
		if nanCount > 0 {
			slog.Warn("Filling absent power values with zero", "array_id", id, "column", cand, "cells", nanCount)
		}
		profile.P[id] = values
	}
	return profile, nil
}

// resolvePowerColumn picks the first candidate column with at least one present value for
// the given rows, falling back to DC power scaled by the conversion efficiency.
func resolvePowerColumn(columns map[string][]float64, rows []int, assumeACFromDC float64) (string, float64, error) {
	for _, cand := range acPowerCandidates {
		values, ok := columns[cand.name]
		if !ok {
			continue
		}
		if hasPresentValue(values, rows) {
			return cand.name, cand.toMW, nil
		}
	}
	for _, cand := range dcPowerCandidates {
		values, ok := columns[cand.name]
		if !ok {
			continue
		}
		if !hasPresentValue(values, rows) {
			continue
		}
		if assumeACFromDC <= 0 {
			return "", 0, fmt.Errorf("only %q present but no DC-to-AC efficiency provided", cand.name)
		}
		slog.Warn("Converting DC power to AC for grid profile", "column", cand.name, "efficiency", assumeACFromDC)
		return cand.name, cand.toMW * assumeACFromDC, nil
	}
	return "", 0, fmt.Errorf("no valid active power column found")
}

func hasPresentValue(values []float64, rows []int) bool {
	for _, row := range rows {
		if !math.IsNaN(values[row]) {
			return true
		}
	}
	return false
}
