package timeutils

import (
	"fmt"
	"time"
)

// DefaultPeriodName labels the default annual simulation window.
const DefaultPeriodName = "annual_01_03_24"

// TimeIndex is an ordered, timezone-aware sequence of timestamps that is shared by every
// array in one simulation run. The name doubles as the period label that gets attached to
// every aggregated result row.
type TimeIndex struct {
	Name  string
	Times []time.Time
}

// New validates and wraps an externally supplied sequence of timestamps.
func New(times []time.Time, name string) (TimeIndex, error) {
	if len(times) == 0 {
		return TimeIndex{}, fmt.Errorf("time index must not be empty")
	}
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return TimeIndex{}, fmt.Errorf("time index must be strictly increasing (position %d)", i)
		}
	}
	return TimeIndex{Name: name, Times: times}, nil
}

// HourlyYear returns the default simulation window: one year at hourly resolution,
// 2024-03-01 to 2025-02-28 inclusive, in the given location.
func HourlyYear(loc *time.Location) TimeIndex {
	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, loc)
	end := time.Date(2025, time.February, 28, 0, 0, 0, 0, loc)

	var times []time.Time
	for t := start; !t.After(end); t = t.Add(time.Hour) {
		times = append(times, t)
	}
	return TimeIndex{Name: DefaultPeriodName, Times: times}
}

func (ti TimeIndex) Len() int {
	return len(ti.Times)
}

func (ti TimeIndex) Start() time.Time {
	return ti.Times[0]
}

func (ti TimeIndex) End() time.Time {
	return ti.Times[len(ti.Times)-1]
}

// Span returns the absolute period covered by the index.
func (ti TimeIndex) Span() Period {
	return Period{Start: ti.Start(), End: ti.End()}
}
