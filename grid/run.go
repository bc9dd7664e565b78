package grid

import (
	"fmt"
	"log/slog"
	"time"
)

// Profile is a (timestamp × generator id) active power table in MW, used to drive the
// static generators through a time-series run.
type Profile struct {
	Times []time.Time
	P     map[int][]float64
}

// Result holds the per-element output variables of a time-series run. Keys preserves a
// deterministic column order.
type Result struct {
	Times   []time.Time
	Keys    []VariableKey
	Columns map[VariableKey][]float64
}

func (r *Result) add(key VariableKey, values []float64) {
	r.Keys = append(r.Keys, key)
	r.Columns[key] = values
}

// RunTimeSeries executes a balance-based power flow for every timestamp of the profile.
//
// If prerequisites are not met, the error list is returned and no results are produced.
// Otherwise the result carries res_sgen and res_bus active powers, the external grid
// balance, and, when the network is radial, per-line flows.
func (n *Net) RunTimeSeries(profile Profile) ([]string, *Result) {
	errs := n.Validate()

	sgens := make(map[int]SGen, len(n.SGens))
	for _, sg := range n.SGens {
		sgens[sg.Index] = sg
	}
	for id, values := range profile.P {
		if _, ok := sgens[id]; !ok {
			errs = append(errs, fmt.Sprintf("profile references unknown sgen %d", id))
		}
		if len(values) != len(profile.Times) {
			errs = append(errs, fmt.Sprintf("profile for sgen %d has %d values for %d timestamps", id, len(values), len(profile.Times)))
		}
	}
	if len(profile.Times) == 0 {
		errs = append(errs, "profile has no timestamps")
	}
	if len(errs) > 0 {
		return errs, nil
	}

	steps := len(profile.Times)
	res := &Result{
		Times:   profile.Times,
		Columns: make(map[VariableKey][]float64),
	}

	// static generators: profile value when driven, nameplate setpoint otherwise
	sgenP := make(map[int][]float64, len(n.SGens))
	for _, sg := range n.SGens {
		values := make([]float64, steps)
		if driven, ok := profile.P[sg.Index]; ok {
			copy(values, driven)
		} else {
			for i := range values {
				values[i] = sg.PMW
			}
		}
		sgenP[sg.Index] = values
		res.add(VariableKey{Table: "res_sgen", Variable: "p_mw", Index: sg.Index}, values)
	}

	// bus injections: generation minus load at each bus
	busInjection := make(map[int][]float64, len(n.Buses))
	for _, b := range n.Buses {
		busInjection[b.Index] = make([]float64, steps)
	}
	for _, sg := range n.SGens {
		for i, p := range sgenP[sg.Index] {
			busInjection[sg.Bus][i] += p
		}
	}
	for _, ld := range n.Loads {
		for i := range busInjection[ld.Bus] {
			busInjection[ld.Bus][i] -= ld.PMW
		}
	}
	for _, b := range n.Buses {
		res.add(VariableKey{Table: "res_bus", Variable: "p_mw", Index: b.Index}, busInjection[b.Index])
	}

	// the external grid absorbs the network balance (lossless approximation)
	for _, eg := range n.ExtGrids {
		balance := make([]float64, steps)
		for _, b := range n.Buses {
			for i, p := range busInjection[b.Index] {
				balance[i] -= p
			}
		}
		res.add(VariableKey{Table: "res_ext_grid", Variable: "p_mw", Index: eg.Index}, balance)
	}

	n.lineFlows(res, busInjection, steps)

	return nil, res
}

// lineFlows computes per-line active power flows for radial networks by accumulating the
// injections of the subtree hanging off each line. Meshed or disconnected networks are
// left without line results.
func (n *Net) lineFlows(res *Result, busInjection map[int][]float64, steps int) {
	if len(n.Lines) == 0 || len(n.ExtGrids) == 0 {
		return
	}

	adjacency := make(map[int][]Line)
	for _, ln := range n.Lines {
		adjacency[ln.FromBus] = append(adjacency[ln.FromBus], ln)
		adjacency[ln.ToBus] = append(adjacency[ln.ToBus], ln)
	}

	root := n.ExtGrids[0].Bus
	parent := map[int]int{root: root}
	parentLine := map[int]Line{}
	order := []int{root}
	queue := []int{root}
	for len(queue) > 0 {
		bus := queue[0]
		queue = queue[1:]
		for _, ln := range adjacency[bus] {
			next := ln.ToBus
			if next == bus {
				next = ln.FromBus
			}
			if _, seen := parent[next]; seen {
				if parent[bus] != next {
					slog.Warn("Grid network is meshed, skipping line flow results", "line", ln.Index)
					return
				}
				continue
			}
			parent[next] = bus
			parentLine[next] = ln
			order = append(order, next)
			queue = append(queue, next)
		}
	}
	if len(parent) != len(n.Buses) {
		slog.Warn("Grid network is not fully connected, skipping line flow results")
		return
	}

	// walk leaves-first so each subtree sum is complete before its parent line is set
	subtree := make(map[int][]float64, len(n.Buses))
	for bus, inj := range busInjection {
		values := make([]float64, steps)
		copy(values, inj)
		subtree[bus] = values
	}
	for i := len(order) - 1; i > 0; i-- {
		bus := order[i]
		for s := 0; s < steps; s++ {
			subtree[parent[bus]][s] += subtree[bus][s]
		}

		ln := parentLine[bus]
		flow := make([]float64, steps)
		for s := 0; s < steps; s++ {
			// positive res_line.p_from_mw means power flowing from_bus -> to_bus
			if ln.FromBus == bus {
				flow[s] = subtree[bus][s]
			} else {
				flow[s] = -subtree[bus][s]
			}
		}
		res.add(VariableKey{Table: "res_line", Variable: "p_from_mw", Index: ln.Index}, flow)
	}
}
