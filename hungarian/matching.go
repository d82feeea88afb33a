package hungarian

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/pinplace/netlist"
	"github.com/katalvlaran/pinplace/section"
	"github.com/katalvlaran/pinplace/slots"
)

var (
	// ErrNotEnoughSlots is returned when a section has fewer free slots than
	// pins to place.
	ErrNotEnoughSlots = errors.New("hungarian: not enough free slots in section")

	// ErrMirrorSlot is returned when the reflection of a chosen slot is
	// missing or already taken.
	ErrMirrorSlot = errors.New("hungarian: mirror slot unavailable")

	// ErrGroupPlacement is returned when a group finds no contiguous run.
	ErrGroupPlacement = errors.New("hungarian: no contiguous slots for group")

	// ErrSlotTaken is returned when a commit targets a slot that is no
	// longer free.
	ErrSlotTaken = errors.New("hungarian: slot already taken")
)

// Binding ties a pin to a slot.
type Binding struct {
	Pin  int
	Slot int
}

// Matching solves one section.
type Matching struct {
	sec    *section.Section
	nl     *netlist.Netlist
	grid   *slots.Grid
	feas   netlist.Feasibility
	logger *zap.Logger

	result     []Binding
	infeasible []bool
}

// NewMatching prepares the matching of sec. feas and logger may be nil.
func NewMatching(sec *section.Section, nl *netlist.Netlist, g *slots.Grid, feas netlist.Feasibility, logger *zap.Logger) *Matching {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matching{sec: sec, nl: nl, grid: g, feas: feas, logger: logger}
}

// slotCost is the wirelength of pin at slot plus, for a mirrored pin, its
// partner's wirelength at the reflected slot.
func slotCost(nl *netlist.Netlist, g *slots.Grid, feas netlist.Feasibility, pin, slot int) int {
	s := g.At(slot)
	cost := nl.ComputeIONetHPWLChecked(pin, s.Pos, s.Edge, feas)
	if cost >= netlist.Infeasible {
		return netlist.Infeasible
	}
	partner := nl.MirrorIndex(pin)
	if partner < 0 {
		return cost
	}
	mi, ok := g.MirrorIndex(slot)
	if !ok || !g.Free(mi) {
		return netlist.Infeasible
	}
	ms := g.At(mi)
	mc := nl.ComputeIONetHPWLChecked(partner, ms.Pos, ms.Edge, feas)
	if mc >= netlist.Infeasible {
		return netlist.Infeasible
	}
	return min(cost+mc, netlist.Infeasible)
}

// FindAssignment solves the section for pins. Placed pins are skipped. It
// only reads shared state.
//
// Complexity: O(n·m·k + n²·m) for n pins, m free slots and k sinks per pin.
func (m *Matching) FindAssignment(pins []int) error {
	m.result, m.infeasible = m.result[:0], m.infeasible[:0]

	var (
		cols []int
		rows []int
	)
	for _, p := range pins {
		if !m.nl.Pin(p).Placed {
			cols = append(cols, p)
		}
	}
	if len(cols) == 0 {
		return nil
	}
	for i := m.sec.BeginSlot; i <= m.sec.EndSlot; i++ {
		if m.grid.Free(i) {
			rows = append(rows, i)
		}
	}
	if len(rows) < len(cols) {
		return fmt.Errorf("section %s %d..%d: %d pins, %d slots: %w",
			m.sec.Edge, m.sec.BeginSlot, m.sec.EndSlot, len(cols), len(rows), ErrNotEnoughSlots)
	}

	cost := mat.NewDense(len(rows), len(cols), nil)
	for r, slot := range rows {
		for c, pin := range cols {
			cost.Set(r, c, float64(slotCost(m.nl, m.grid, m.feas, pin, slot)))
		}
	}
	rowOfCol, _, err := Solve(cost)
	if err != nil {
		return err
	}
	for c, r := range rowOfCol {
		m.result = append(m.result, Binding{Pin: cols[c], Slot: rows[r]})
		m.infeasible = append(m.infeasible, cost.At(r, c) >= netlist.Infeasible)
	}
	return nil
}

// Result returns the bindings computed by FindAssignment.
func (m *Matching) Result() []Binding { return m.result }

// Commit writes the computed bindings into the grid and the netlist and binds
// mirrored partners. It returns every binding made, partners included.
func (m *Matching) Commit() ([]Binding, error) {
	out := make([]Binding, 0, len(m.result))
	for i, b := range m.result {
		if m.infeasible[i] {
			m.logger.Warn("pin cannot be placed in the specified region: not enough space",
				zap.String("pin", m.nl.Pin(b.Pin).Name))
		}
		bs, err := CommitPin(m.nl, m.grid, b.Pin, b.Slot)
		if err != nil {
			return out, err
		}
		out = append(out, bs...)
	}
	return out, nil
}

// CommitPin binds pin to slot and, for a mirrored pin, its partner to the
// reflected slot.
func CommitPin(nl *netlist.Netlist, g *slots.Grid, pin, slot int) ([]Binding, error) {
	if !g.Free(slot) {
		return nil, fmt.Errorf("pin %q slot %d: %w", nl.Pin(pin).Name, slot, ErrSlotTaken)
	}
	place(nl, g, pin, slot)
	out := []Binding{{Pin: pin, Slot: slot}}

	partner := nl.MirrorIndex(pin)
	if partner < 0 || nl.Pin(partner).Placed {
		return out, nil
	}
	mi, ok := g.MirrorIndex(slot)
	if !ok || !g.Free(mi) {
		return out, fmt.Errorf("pin %q mirrored by %q at %v: %w",
			nl.Pin(pin).Name, nl.Pin(partner).Name, g.Region().Mirror(g.At(slot).Pos), ErrMirrorSlot)
	}
	place(nl, g, partner, mi)
	return append(out, Binding{Pin: partner, Slot: mi}), nil
}

func place(nl *netlist.Netlist, g *slots.Grid, pin, slot int) {
	s := g.At(slot)
	g.Occupy(slot, pin)
	p := nl.Pin(pin)
	p.Pos = s.Pos
	p.Layer = s.Layer
	p.Edge = s.Edge
	p.Placed = true
}
