package results

import (
	"github.com/go-gota/gota/dataframe"

	timeutils "github.com/cepro/plantsim/time_utils"
)

// Stage tags a sub-table with the electrical stage that produced it. The aggregator
// switches on this declared role when applying its column-namespace policy; it never
// infers the stage from position or content.
type Stage int

const (
	StageNone Stage = iota
	StageDC
	StageAC
)

// Kind distinguishes multi-column sub-tables from single-column sub-series.
type Kind int

const (
	KindTable Kind = iota
	KindSeries
)

// Entry is one named, role-tagged member of an array result bundle.
type Entry struct {
	Name  string
	Kind  Kind
	Stage Stage
	Frame dataframe.DataFrame
}

// Bundle is the raw output of one array model execution: an unordered collection of named
// time-indexed sub-tables and sub-series. No fixed schema is assumed, the column sets vary
// with the engine configuration.
type Bundle struct {
	Entries []Entry
}

// AddTable appends a multi-column sub-table to the bundle.
func (b *Bundle) AddTable(name string, stage Stage, index timeutils.TimeIndex, cols ...Column) {
	b.Entries = append(b.Entries, Entry{
		Name:  name,
		Kind:  KindTable,
		Stage: stage,
		Frame: Frame(index, cols...),
	})
}

// AddSeries appends a single-column sub-series to the bundle. The series' name becomes
// its column name in the aggregated record.
func (b *Bundle) AddSeries(name string, index timeutils.TimeIndex, values []float64) {
	b.Entries = append(b.Entries, Entry{
		Name:  name,
		Kind:  KindSeries,
		Frame: Frame(index, Column{Name: name, Values: values}),
	})
}
