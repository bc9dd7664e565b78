package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/cepro/plantsim/gridmerge"
	"github.com/cepro/plantsim/results"
	timeutils "github.com/cepro/plantsim/time_utils"
)

// Seasonal computes the periodic reporting view over a result table.
//
// Every row is bucketed by calendar month, independent of year, into winter (Dec-Feb),
// spring (Mar-May), summer (Jun-Aug) and autumn (Sep-Nov), plus an annual bucket holding
// all rows. Each numeric column is reduced to its sum and mean per bucket, and the result
// is reshaped into long-form rows of (season, variable, value, stat). The input table is
// never mutated.
func Seasonal(table dataframe.DataFrame) (dataframe.DataFrame, error) {
	if table.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("seasonal report: %w", table.Err)
	}
	if table.Nrow() == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("seasonal report: no rows")
	}
	names := table.Names()
	if !hasColumn(names, results.TimestampCol) {
		return dataframe.DataFrame{}, fmt.Errorf("seasonal report: missing %s column", results.TimestampCol)
	}

	seasons := make([]string, table.Nrow())
	for i, rec := range table.Col(results.TimestampCol).Records() {
		t, err := results.ParseTimestamp(rec)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("seasonal report: row %d: %w", i, err)
		}
		seasons[i] = timeutils.Season(t.Month())
	}

	var numeric []string
	types := table.Types()
	for i, name := range names {
		if types[i] == series.Float || types[i] == series.Int {
			numeric = append(numeric, name)
		}
	}
	if len(numeric) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("seasonal report: no numeric columns")
	}

	var outSeason, outVariable, outStat []string
	var outValue []float64
	for _, stat := range []string{"sum", "mean"} {
		for _, season := range timeutils.Seasons {
			for _, name := range numeric {
				values := table.Col(name).Float()
				sum, count := 0.0, 0
				for i, v := range values {
					if season != timeutils.SeasonAnnual && seasons[i] != season {
						continue
					}
					if math.IsNaN(v) {
						continue
					}
					sum += v
					count++
				}

				value := sum
				if stat == "mean" {
					if count == 0 {
						value = math.NaN()
					} else {
						value = sum / float64(count)
					}
				}
				outSeason = append(outSeason, season)
				outVariable = append(outVariable, name)
				outValue = append(outValue, value)
				outStat = append(outStat, stat)
			}
		}
	}

	out := dataframe.New(
		series.New(outSeason, series.String, "season"),
		series.New(outVariable, series.String, "variable"),
		series.New(outValue, series.Float, "value"),
		series.New(outStat, series.String, "stat"),
	)
	return out, out.Err
}

// Array selects the rows produced by one PV array.
func Array(table dataframe.DataFrame, arrayID int) dataframe.DataFrame {
	return table.Filter(dataframe.F{Colname: "array_id", Comparator: series.Eq, Comparando: arrayID})
}

// ArrayIDs lists the distinct array ids present in a result table, ascending.
func ArrayIDs(table dataframe.DataFrame) []int {
	if table.Err != nil || table.Nrow() == 0 || !hasColumn(table.Names(), "array_id") {
		return nil
	}
	seen := make(map[int]bool)
	var ids []int
	for _, v := range table.Col("array_id").Float() {
		if math.IsNaN(v) {
			continue
		}
		id := int(v)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j] < ids[j-1]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids
}

// Grid selects the serialized grid variable columns (plus the time column) of a table.
func Grid(table dataframe.DataFrame) dataframe.DataFrame {
	if table.Err != nil || table.Nrow() == 0 {
		return dataframe.DataFrame{}
	}
	keep := []string{}
	for _, name := range table.Names() {
		if name == results.TimestampCol || strings.HasPrefix(name, "(") {
			keep = append(keep, name)
		}
	}
	if len(keep) <= 1 {
		return dataframe.DataFrame{}
	}
	return table.Select(keep)
}

// GridElement returns the seasonal report restricted to one grid element selection.
func GridElement(table dataframe.DataFrame, elements []string, indices []int) (dataframe.DataFrame, error) {
	filtered := gridmerge.Filter(table, elements, indices)
	if filtered.Err != nil || filtered.Nrow() == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("seasonal report: no grid columns match the selection")
	}
	return Seasonal(filtered)
}

func hasColumn(names []string, want string) bool {
	for _, n := range names {
		if n == want {
			return true
		}
	}
	return false
}
