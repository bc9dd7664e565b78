package results

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// AggregationError reports a malformed result bundle. It is isolated per array: the
// offending array is skipped and the run continues.
type AggregationError struct {
	Reason string
}

func (e *AggregationError) Error() string {
	return "aggregate results: " + e.Reason
}

// Collector merges per-array result bundles into wide records and accumulates them, in
// arrival order, into the plant-wide cumulative table. The cumulative table is the single
// artifact that survives a run.
type Collector struct {
	logger  *slog.Logger
	table   dataframe.DataFrame
	hasRows bool
}

func NewCollector() *Collector {
	return &Collector{
		logger: slog.Default(),
	}
}

// Gather flattens one array's result bundle into a single wide row-aligned record.
//
// Sub-tables tagged with a DC or AC stage get a "dc_"/"ac_" prefix on every column so that
// same-named fields from different electrical stages cannot collide. Sub-series contribute
// one column named after the series. Members are joined column-wise on the timestamp with
// outer semantics: a timestamp missing from one member yields an absent value, never a
// dropped row. The record is finally tagged with the array identity and the period label.
func (c *Collector) Gather(arrayID int, period string, b Bundle) (dataframe.DataFrame, error) {
	if len(b.Entries) == 0 {
		return dataframe.DataFrame{}, &AggregationError{Reason: "empty bundle"}
	}

	var merged dataframe.DataFrame
	got := false

	for _, entry := range b.Entries {
		frame := entry.Frame
		if frame.Err != nil {
			c.logger.Warn("Skipping malformed bundle member", "member", entry.Name, "error", frame.Err)
			continue
		}
		names := frame.Names()
		if frame.Nrow() == 0 || !containsName(names, TimestampCol) || len(names) < 2 {
			c.logger.Warn("Skipping bundle member without time-aligned data", "member", entry.Name)
			continue
		}

		var prefix string
		switch entry.Stage {
		case StageDC:
			prefix = "dc_"
		case StageAC:
			prefix = "ac_"
		}
		if prefix != "" {
			for _, name := range names {
				if name != TimestampCol {
					frame = frame.Rename(prefix+name, name)
				}
			}
		}

		if !got {
			merged = frame
			got = true
			continue
		}

		// residual collisions (outside the recognised stages) get the member name instead
		existing := make(map[string]bool, len(merged.Names()))
		for _, name := range merged.Names() {
			existing[name] = true
		}
		for _, name := range frame.Names() {
			if name != TimestampCol && existing[name] {
				frame = frame.Rename(entry.Name+"_"+name, name)
			}
		}

		merged = merged.OuterJoin(frame, TimestampCol)
		if merged.Err != nil {
			return dataframe.DataFrame{}, &AggregationError{Reason: fmt.Sprintf("join member %q: %v", entry.Name, merged.Err)}
		}
	}

	if !got {
		return dataframe.DataFrame{}, &AggregationError{Reason: "bundle contains no table-like or series-like members"}
	}

	n := merged.Nrow()
	ids := make([]int, n)
	periods := make([]string, n)
	for i := range ids {
		ids[i] = arrayID
		periods[i] = period
	}
	merged = merged.Mutate(series.New(ids, series.Int, "array_id"))
	merged = merged.Mutate(series.New(periods, series.String, "period"))
	return merged, merged.Err
}

// Append adds the record's rows to the cumulative table, preserving arrival order. The
// column set is the superset of all appended records; cells absent on either side are kept
// as NaN, never dropped. Appending the same array id twice is legal and produces multiple
// row blocks.
func (c *Collector) Append(record dataframe.DataFrame) error {
	if record.Err != nil {
		return fmt.Errorf("append record: %w", record.Err)
	}
	if record.Nrow() == 0 {
		return nil
	}
	if !c.hasRows {
		c.table = record
		c.hasRows = true
		return nil
	}
	combined := c.table.Concat(record)
	if combined.Err != nil {
		return fmt.Errorf("append record: %w", combined.Err)
	}
	c.table = combined
	return nil
}

// Table returns a copy of the cumulative table.
func (c *Collector) Table() dataframe.DataFrame {
	if !c.hasRows {
		return dataframe.DataFrame{}
	}
	return c.table.Copy()
}

func (c *Collector) IsEmpty() bool {
	return !c.hasRows || c.table.Nrow() == 0
}

// WriteCSV writes a table in the persisted result format.
func WriteCSV(table dataframe.DataFrame, w io.Writer) error {
	return table.WriteCSV(w)
}

// SaveFile persists a table to the given path as CSV.
func SaveFile(table dataframe.DataFrame, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()

	if err := table.WriteCSV(f); err != nil {
		return fmt.Errorf("write result file: %w", err)
	}
	return nil
}

func containsName(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
