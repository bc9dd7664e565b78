package report

import (
	"math"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cepro/plantsim/results"
)

// reportTable has one row per month so every season bucket is populated.
func reportTable(t *testing.T) dataframe.DataFrame {
	var stamps []string
	var power []float64
	var ids []int
	for m := 1; m <= 12; m++ {
		ts := time.Date(2024, time.Month(m), 15, 12, 0, 0, 0, time.UTC)
		stamps = append(stamps, ts.Format(results.TimeLayout))
		power = append(power, float64(m))
		ids = append(ids, m%2)
	}
	df := dataframe.New(
		series.New(stamps, series.String, results.TimestampCol),
		series.New(ids, series.Int, "array_id"),
		series.New([]string{"p", "p", "p", "p", "p", "p", "p", "p", "p", "p", "p", "p"}, series.String, "period"),
		series.New(power, series.Float, "ac_p_mp"),
	)
	require.NoError(t, df.Err)
	return df
}

func TestSeasonalShape(t *testing.T) {

	out, err := Seasonal(reportTable(t))
	require.NoError(t, err)

	// numeric columns are array_id and ac_p_mp: 2 columns x 5 seasons x 2 stats
	assert.Equal(t, 2*5*2, out.Nrow())
	assert.Equal(t, []string{"season", "variable", "value", "stat"}, out.Names())
}

func TestSeasonalValues(t *testing.T) {

	out, err := Seasonal(reportTable(t))
	require.NoError(t, err)

	seasons := out.Col("season").Records()
	variables := out.Col("variable").Records()
	values := out.Col("value").Float()
	stats := out.Col("stat").Records()

	lookup := func(season, variable, stat string) float64 {
		for i := range seasons {
			if seasons[i] == season && variables[i] == variable && stats[i] == stat {
				return values[i]
			}
		}
		t.Fatalf("No row for (%s, %s, %s)", season, variable, stat)
		return math.NaN()
	}

	// winter months are Dec(12), Jan(1), Feb(2)
	assert.InDelta(t, 15.0, lookup("winter", "ac_p_mp", "sum"), 1e-9)
	assert.InDelta(t, 5.0, lookup("winter", "ac_p_mp", "mean"), 1e-9)

	// summer months are Jun(6), Jul(7), Aug(8)
	assert.InDelta(t, 21.0, lookup("summer", "ac_p_mp", "sum"), 1e-9)
	assert.InDelta(t, 7.0, lookup("summer", "ac_p_mp", "mean"), 1e-9)

	// annual holds every row
	assert.InDelta(t, 78.0, lookup("annual", "ac_p_mp", "sum"), 1e-9)
	assert.InDelta(t, 6.5, lookup("annual", "ac_p_mp", "mean"), 1e-9)
}

func TestSeasonalRejectsEmptyTables(t *testing.T) {
	_, err := Seasonal(dataframe.DataFrame{})
	assert.Error(t, err)
}

func TestArraySelection(t *testing.T) {

	table := reportTable(t)

	only := Array(table, 1)
	require.NoError(t, only.Err)
	assert.Equal(t, 6, only.Nrow())
	for _, rec := range only.Col("array_id").Records() {
		assert.Equal(t, "1", rec)
	}

	assert.Equal(t, []int{0, 1}, ArrayIDs(table))
}

func TestGridSelection(t *testing.T) {

	table := reportTable(t)

	// no grid columns present
	assert.Equal(t, 0, Grid(table).Nrow())

	withGrid := table.Mutate(series.New(
		[]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, series.Float, "(res_sgen, p_mw, 0)"))
	require.NoError(t, withGrid.Err)

	gridOnly := Grid(withGrid)
	assert.ElementsMatch(t, []string{results.TimestampCol, "(res_sgen, p_mw, 0)"}, gridOnly.Names())

	seasonal, err := GridElement(withGrid, []string{"sgen"}, nil)
	require.NoError(t, err)
	// one surviving variable x 5 seasons x 2 stats
	assert.Equal(t, 1*5*2, seasonal.Nrow())
}
