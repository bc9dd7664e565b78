package plot

import (
	"fmt"
	"sort"

	"github.com/go-gota/gota/dataframe"
	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/cepro/plantsim/results"
)

// SavePowerProfile renders the per-array AC power profile of a cumulative result table to
// a PNG file, one line per array, in MW against time.
func SavePowerProfile(table dataframe.DataFrame, dcACEfficiency float64, path string) error {
	profile, err := results.ACProfile(table, dcACEfficiency)
	if err != nil {
		return fmt.Errorf("plot power profile: %w", err)
	}

	p := gplot.New()
	p.Title.Text = "AC power per array"
	p.X.Label.Text = "time"
	p.Y.Label.Text = "P [MW]"
	p.X.Tick.Marker = gplot.TimeTicks{Format: "2006-01-02"}

	// iterate arrays in id order so colors and legend entries are stable across runs
	ids := make([]int, 0, len(profile.P))
	for id := range profile.P {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for i, id := range ids {
		values := profile.P[id]
		pts := make(plotter.XYs, len(values))
		for j, v := range values {
			pts[j].X = float64(profile.Times[j].Unix())
			pts[j].Y = v
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("plot power profile: array %d: %w", id, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("array %d", id), line)
	}

	if err := p.Save(25*vg.Centimeter, 12*vg.Centimeter, path); err != nil {
		return fmt.Errorf("plot power profile: %w", err)
	}
	return nil
}
