package hungarian

import (
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/pinplace/netlist"
	"github.com/katalvlaran/pinplace/slots"
)

// Cells of the group matrix: a block some member may not take costs
// infeasibleRun on top of its wirelength, a start where the group does not
// fit at all costs noRun.
const (
	infeasibleRun = 1e12
	noRun         = 1e15
)

func groupMirrored(nl *netlist.Netlist, grp int) bool {
	for _, p := range nl.Group(grp).Pins {
		if nl.Pin(p).Mirrored {
			return true
		}
	}
	return false
}

// GroupCost returns the summed member wirelength of grp placed on the block
// that starts at start. ok is false when any member, or its mirrored partner,
// may not take its slot; the cost then covers the feasible members only.
func GroupCost(nl *netlist.Netlist, g *slots.Grid, feas netlist.Feasibility, grp, start int) (cost int, ok bool) {
	ok = true
	for k, p := range nl.SortGroupForEdge(grp, g.At(start).Edge) {
		c := slotCost(nl, g, feas, p, start+k)
		if c >= netlist.Infeasible {
			ok = false
			continue
		}
		cost += c
	}
	return cost, ok
}

// CommitGroup binds the members of grp to the block starting at start, in
// edge order, and blocks the consumed slots.
func CommitGroup(nl *netlist.Netlist, g *slots.Grid, grp, start int) ([]Binding, error) {
	members := nl.Group(grp).Pins
	if !g.IsFreeRun(start, len(members), groupMirrored(nl, grp)) {
		return nil, fmt.Errorf("group of %q at slot %d: %w", nl.Pin(members[0]).Name, start, ErrGroupPlacement)
	}
	var out []Binding
	for k, p := range nl.SortGroupForEdge(grp, g.At(start).Edge) {
		bs, err := CommitPin(nl, g, p, start+k)
		if err != nil {
			return out, err
		}
		for _, b := range bs {
			g.Block(b.Slot)
		}
		out = append(out, bs...)
	}
	return out, nil
}

// BestGroupStart returns the cheapest start in [begin, end] admitting a free
// run for grp, or -1. Feasible blocks win over infeasible ones.
func BestGroupStart(nl *netlist.Netlist, g *slots.Grid, feas netlist.Feasibility, grp, begin, end int) (start int, ok bool) {
	var (
		size     = len(nl.Group(grp).Pins)
		mirrored = groupMirrored(nl, grp)
		bestCost int
	)
	start = -1
	for s := begin; s+size-1 <= end; s++ {
		if !g.IsFreeRun(s, size, mirrored) {
			continue
		}
		c, feasible := GroupCost(nl, g, feas, grp, s)
		if start < 0 || (feasible && !ok) || (feasible == ok && c < bestCost) {
			start, bestCost, ok = s, c, feasible
		}
	}
	return start, ok
}

// AssignGroups places every unplaced group of the section. All groups are
// first solved jointly, one virtual column each; a group whose chosen block
// was taken by an earlier one is re-solved alone on what is left.
func (m *Matching) AssignGroups() ([]Binding, error) {
	var groups []int
	for _, grp := range m.sec.Groups {
		if !m.nl.Pin(m.nl.Group(grp).Pins[0]).Placed {
			groups = append(groups, grp)
		}
	}
	if len(groups) == 0 {
		return nil, nil
	}

	var (
		begin, end = m.sec.BeginSlot, m.sec.EndSlot
		rows       = end - begin + 1
		chosen     = make([]int, len(groups))
	)
	for i := range chosen {
		chosen[i] = -1
	}
	if rows >= len(groups) {
		cost := mat.NewDense(rows, len(groups), nil)
		for r := 0; r < rows; r++ {
			for c, grp := range groups {
				size := len(m.nl.Group(grp).Pins)
				if begin+r+size-1 > end || !m.grid.IsFreeRun(begin+r, size, groupMirrored(m.nl, grp)) {
					cost.Set(r, c, noRun)
					continue
				}
				gc, ok := GroupCost(m.nl, m.grid, m.feas, grp, begin+r)
				cell := float64(gc)
				if !ok {
					cell += infeasibleRun
				}
				cost.Set(r, c, cell)
			}
		}
		rowOfCol, _, err := Solve(cost)
		if err != nil {
			return nil, err
		}
		for c, r := range rowOfCol {
			if cost.At(r, c) < noRun {
				chosen[c] = begin + r
			}
		}
	}

	var out []Binding
	for i, grp := range groups {
		var (
			size     = len(m.nl.Group(grp).Pins)
			start    = chosen[i]
			feasible bool
		)
		if start < 0 || !m.grid.IsFreeRun(start, size, groupMirrored(m.nl, grp)) {
			start, feasible = BestGroupStart(m.nl, m.grid, m.feas, grp, begin, end)
		} else {
			_, feasible = GroupCost(m.nl, m.grid, m.feas, grp, start)
		}
		if start < 0 {
			return out, fmt.Errorf("group of %q (%d pins) in section %s %d..%d: %w",
				m.nl.Pin(m.nl.Group(grp).Pins[0]).Name, size, m.sec.Edge, begin, end, ErrGroupPlacement)
		}
		if !feasible {
			m.logger.Warn("pin group cannot be placed in the specified region: not enough space",
				zap.String("first_pin", m.nl.Pin(m.nl.Group(grp).Pins[0]).Name))
		}
		bs, err := CommitGroup(m.nl, m.grid, grp, start)
		if err != nil {
			return out, err
		}
		out = append(out, bs...)
	}
	return out, nil
}
