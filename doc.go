// Package pinplace places the boundary IO pins of a rectangular block on
// track-aligned slots along its four edges, minimizing the half-perimeter
// wirelength from each pin to the cells it connects to.
//
// 🚀 What is in here?
//
//	geom/        points, rectangles, edges, intervals, mirroring
//	slots/       the slot grid: every legal pin position, in boundary walk order
//	netlist/     pins, their sinks (CSR), groups, mirrored pairs, HPWL
//	constraint/  edge interval constraints and per-pin feasibility
//	section/     splits the grid into sections and distributes pins over them
//	hungarian/   exact per-section assignment (Kuhn–Munkres)
//	anneal/      simulated annealing over the whole grid
//	pinshape/    pin orientation and footprint
//	placer/      the driver: options, design files, runs, checks, output
//	cmd/ioplace  command-line front end
//
// ✨ Guarantees
//
//   - one pin per slot, grouped pins side by side, mirrored pins reflected;
//   - constrained pins inside their interval;
//   - the same inputs and seed give the same placement.
//
// Quick ASCII view of the boundary walk:
//
//	      top  ←───────
//	    ┌──────────────┐
//	  l │              │ r
//	  e │              │ i
//	  f │              │ g
//	  t ↓              ↑ h
//	    └──────────────┘ t
//	      bottom ───────→
//
//	go run ./cmd/ioplace -design examples/four_corners/design.yaml
package pinplace
