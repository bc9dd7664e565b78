package grid

import (
	"math"
	"testing"
	"time"
)

// testNet is a small radial network: ext grid on bus 0, one line to bus 1 that carries a
// PV sgen and a load.
func testNet() *Net {
	return &Net{
		Name:     "test",
		Buses:    []Bus{{Index: 0, VnKV: 20}, {Index: 1, VnKV: 0.4}},
		Lines:    []Line{{Index: 0, FromBus: 0, ToBus: 1, LengthKM: 0.5}},
		SGens:    []SGen{{Index: 0, Bus: 1, PMW: 0.1}},
		Loads:    []Load{{Index: 0, Bus: 1, PMW: 0.05}},
		ExtGrids: []ExtGrid{{Index: 0, Bus: 0, VmPU: 1.0}},
	}
}

func testProfile(values []float64) Profile {
	times := make([]time.Time, len(values))
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range times {
		times[i] = base.Add(time.Duration(i) * time.Hour)
	}
	return Profile{Times: times, P: map[int][]float64{0: values}}
}

func TestValidateCatchesBrokenNetworks(t *testing.T) {

	type subTest struct {
		name   string
		mutate func(*Net)
	}

	subTests := []subTest{
		{"no buses", func(n *Net) { n.Buses = nil }},
		{"no ext grid", func(n *Net) { n.ExtGrids = nil }},
		{"duplicate bus", func(n *Net) { n.Buses = append(n.Buses, Bus{Index: 0}) }},
		{"sgen unknown bus", func(n *Net) { n.SGens[0].Bus = 99 }},
		{"load unknown bus", func(n *Net) { n.Loads[0].Bus = 99 }},
		{"line self loop", func(n *Net) { n.Lines[0].ToBus = n.Lines[0].FromBus }},
	}
	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			net := testNet()
			subTest.mutate(net)
			if errs := net.Validate(); len(errs) == 0 {
				t.Error("Expected validation errors")
			}
		})
	}

	if errs := testNet().Validate(); len(errs) != 0 {
		t.Errorf("Healthy network should validate, got %v", errs)
	}
}

func TestRunTimeSeriesBalances(t *testing.T) {

	net := testNet()
	profile := testProfile([]float64{0.0, 0.08, 0.2})

	errs, res := net.RunTimeSeries(profile)
	if len(errs) != 0 {
		t.Fatalf("Unexpected run errors: %v", errs)
	}

	sgenP := res.Columns[VariableKey{Table: "res_sgen", Variable: "p_mw", Index: 0}]
	for i, want := range profile.P[0] {
		if sgenP[i] != want {
			t.Errorf("res_sgen at step %d: got %v, expected %v", i, sgenP[i], want)
		}
	}

	// the external grid absorbs generation minus load
	extP := res.Columns[VariableKey{Table: "res_ext_grid", Variable: "p_mw", Index: 0}]
	for i, gen := range profile.P[0] {
		want := -(gen - 0.05)
		if math.Abs(extP[i]-want) > 1e-12 {
			t.Errorf("res_ext_grid at step %d: got %v, expected %v", i, extP[i], want)
		}
	}

	// line flow from bus 0 to bus 1 is the negative of bus 1's surplus
	lineP := res.Columns[VariableKey{Table: "res_line", Variable: "p_from_mw", Index: 0}]
	if lineP == nil {
		t.Fatal("Expected line flow results for a radial network")
	}
	for i, gen := range profile.P[0] {
		want := -(gen - 0.05)
		if math.Abs(lineP[i]-want) > 1e-12 {
			t.Errorf("res_line at step %d: got %v, expected %v", i, lineP[i], want)
		}
	}
}

func TestRunTimeSeriesReportsProfileErrors(t *testing.T) {

	net := testNet()

	profile := testProfile([]float64{0.1})
	profile.P[7] = []float64{0.1} // unknown sgen

	errs, res := net.RunTimeSeries(profile)
	if len(errs) == 0 {
		t.Fatal("Expected errors for a profile referencing an unknown sgen")
	}
	if res != nil {
		t.Fatal("No results should be produced when prerequisites fail")
	}
}
