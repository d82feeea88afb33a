package constraint

import (
	"fmt"

	"github.com/katalvlaran/pinplace/geom"
	"github.com/katalvlaran/pinplace/netlist"
	"github.com/katalvlaran/pinplace/slots"
)

// Registry holds the constraints of one run.
type Registry struct {
	nl       *netlist.Netlist
	region   geom.Rect
	cons     []Constraint
	grid     *slots.Grid
	resolved bool
}

// NewRegistry returns an empty registry bound to nl.
func NewRegistry(nl *netlist.Netlist, region geom.Rect) *Registry {
	return &Registry{nl: nl, region: region}
}

// Len returns the number of registered constraints.
func (r *Registry) Len() int { return len(r.cons) }

// At returns constraint i.
func (r *Registry) At(i int) *Constraint { return &r.cons[i] }

// Add validates c and registers it.
func (r *Registry) Add(c Constraint) error {
	if len(c.PinNames) == 0 && c.Direction == geom.AnyDirection {
		return fmt.Errorf("%q: %w", c.Name, ErrEmptyConstraint)
	}
	if c.Region != nil {
		iv, err := IntervalFromRect(r.region, *c.Region)
		if err != nil {
			return fmt.Errorf("%q: %w", c.Name, err)
		}
		c.Interval = iv
	}
	if !c.Interval.Edge.Valid() {
		return fmt.Errorf("%q: %w", c.Name, ErrBadEdge)
	}
	c.Interval = geom.NewInterval(c.Interval.Edge, c.Interval.Begin, c.Interval.End, c.Interval.Layer)

	c.Pins = make([]int, 0, len(c.PinNames))
	for _, name := range c.PinNames {
		idx, ok := r.nl.IndexOf(name)
		if !ok {
			return fmt.Errorf("%q pin %q: %w", c.Name, name, ErrUnknownPin)
		}
		c.Pins = append(c.Pins, idx)
	}
	r.cons = append(r.cons, c)
	return nil
}

// IntervalFromRect projects rect onto the edge of region it touches. Edges
// are tried in walk order.
func IntervalFromRect(region, rect geom.Rect) (geom.Interval, error) {
	switch {
	case rect.YMin <= region.YMin:
		return geom.NewInterval(geom.Bottom, max(rect.XMin, region.XMin), min(rect.XMax, region.XMax), -1), nil
	case rect.XMax >= region.XMax:
		return geom.NewInterval(geom.Right, max(rect.YMin, region.YMin), min(rect.YMax, region.YMax), -1), nil
	case rect.YMax >= region.YMax:
		return geom.NewInterval(geom.Top, max(rect.XMin, region.XMin), min(rect.XMax, region.XMax), -1), nil
	case rect.XMin <= region.XMin:
		return geom.NewInterval(geom.Left, max(rect.YMin, region.YMin), min(rect.YMax, region.YMax), -1), nil
	}
	return geom.Interval{Edge: geom.InvalidEdge}, ErrRegionOffEdge
}

// Resolve binds the constraints to the pins of the netlist and the slots of
// g.
//
// Stages:
//  1. explicit pin lists claim their pins; a pin claimed twice is fatal;
//  2. direction constraints take every still unclaimed pin of that direction;
//  3. intervals on one edge must be disjoint;
//  4. per constraint, collect the slot span of every layer block on its edge,
//     count free slots and derive density, groups and mirrored pins.
//
// Complexity: O(C² + C·S + P) for C constraints, S slots and P pins.
func (r *Registry) Resolve(g *slots.Grid) error {
	r.grid = g
	n := r.nl.NumIOPins()
	owner := make([]int, n)
	for i := range owner {
		owner[i] = -1
	}

	// Stage 1
	for ci := range r.cons {
		c := &r.cons[ci]
		if c.ByDirection() {
			continue
		}
		for _, p := range c.Pins {
			if owner[p] >= 0 {
				return fmt.Errorf("pin %q in %q and %q: %w",
					r.nl.Pin(p).Name, r.cons[owner[p]].Name, c.Name, ErrPinInMultipleConstraints)
			}
			owner[p] = ci
		}
	}

	// Stage 2
	for ci := range r.cons {
		c := &r.cons[ci]
		if !c.ByDirection() {
			continue
		}
		c.Pins = nil
		for p := 0; p < n; p++ {
			if owner[p] < 0 && r.nl.Pin(p).Direction == c.Direction {
				owner[p] = ci
				c.Pins = append(c.Pins, p)
			}
		}
	}

	// Stage 3
	for i := range r.cons {
		for j := i + 1; j < len(r.cons); j++ {
			a, b := r.cons[i].Interval, r.cons[j].Interval
			if a.Overlaps(b) && (a.Layer < 0 || b.Layer < 0 || a.Layer == b.Layer) {
				return fmt.Errorf("%q %v and %q %v: %w",
					r.cons[i].Name, a, r.cons[j].Name, b, ErrOverlap)
			}
		}
	}

	// Stage 4
	for ci := range r.cons {
		if err := r.bindSlots(ci); err != nil {
			return err
		}
	}
	for p := 0; p < n; p++ {
		r.nl.Pin(p).ConstraintIdx = owner[p]
	}
	r.resolved = true
	return nil
}

func (r *Registry) bindSlots(ci int) error {
	var (
		c      = &r.cons[ci]
		iv     = c.Interval
		seen   = make(map[int]struct{})
		groups []int
	)
	c.Ranges = nil
	c.NumSlots, c.MirroredPins = 0, 0
	c.FirstSlot, c.LastSlot = -1, -1

	for _, rng := range r.grid.Ranges() {
		if rng.Edge != iv.Edge || !iv.AppliesTo(rng.Layer) {
			continue
		}
		sub := slots.Range{Edge: rng.Edge, Layer: rng.Layer, Begin: -1, End: -1}
		for i := rng.Begin; i <= rng.End; i++ {
			s := r.grid.At(i)
			if !iv.Contains(iv.Edge.Coord(s.Pos)) {
				continue
			}
			if sub.Begin < 0 {
				sub.Begin = i
			}
			sub.End = i
			if !s.Blocked {
				c.NumSlots++
			}
		}
		if sub.Begin < 0 {
			continue
		}
		c.Ranges = append(c.Ranges, sub)
		if c.FirstSlot < 0 || sub.Begin < c.FirstSlot {
			c.FirstSlot = sub.Begin
		}
		c.LastSlot = max(c.LastSlot, sub.End)
	}

	if c.NumSlots == 0 {
		return fmt.Errorf("%q %v: %w", c.Name, iv, ErrNoSlots)
	}
	if len(c.Pins) > c.NumSlots {
		return fmt.Errorf("%q has %d pins for %d slots: %w", c.Name, len(c.Pins), c.NumSlots, ErrTooManyPins)
	}
	c.PinsPerSlot = float64(len(c.Pins)) / float64(c.NumSlots)

	for _, p := range c.Pins {
		pin := r.nl.Pin(p)
		if pin.Mirrored {
			c.MirroredPins++
		}
		if pin.InGroup {
			if _, ok := seen[pin.GroupIdx]; !ok {
				seen[pin.GroupIdx] = struct{}{}
				groups = append(groups, pin.GroupIdx)
			}
		}
	}
	c.Groups = groups
	return nil
}

// ConstraintOf returns the index of the constraint governing pin, or -1.
func (r *Registry) ConstraintOf(pin int) int {
	if r.resolved {
		return r.nl.Pin(pin).ConstraintIdx
	}
	for ci := range r.cons {
		c := &r.cons[ci]
		if c.ByDirection() {
			if r.nl.Pin(pin).Direction == c.Direction {
				return ci
			}
			continue
		}
		for _, p := range c.Pins {
			if p == pin {
				return ci
			}
		}
	}
	return -1
}

// CheckSlotForPin reports whether pin may sit at pos on edge. Unconstrained
// pins fit anywhere.
func (r *Registry) CheckSlotForPin(pin int, edge geom.Edge, pos geom.Point) bool {
	ci := r.ConstraintOf(pin)
	if ci < 0 {
		return true
	}
	iv := r.cons[ci].Interval
	return edge == iv.Edge && iv.Contains(edge.Coord(pos))
}

// SlotRange returns the slot index span [first, last] a pin must be sampled
// from. A mirrored pin without a constraint of its own inherits the mirrored
// span of its partner's constraint.
func (r *Registry) SlotRange(pin int) (first, last int, ok bool) {
	if ci := r.ConstraintOf(pin); ci >= 0 && r.cons[ci].FirstSlot >= 0 {
		return r.cons[ci].FirstSlot, r.cons[ci].LastSlot, true
	}
	partner := r.nl.MirrorIndex(pin)
	if partner < 0 || r.grid == nil {
		return -1, -1, false
	}
	ci := r.ConstraintOf(partner)
	if ci < 0 || r.cons[ci].FirstSlot < 0 {
		return -1, -1, false
	}
	a, okA := r.grid.MirrorIndex(r.cons[ci].FirstSlot)
	b, okB := r.grid.MirrorIndex(r.cons[ci].LastSlot)
	if !okA || !okB {
		return -1, -1, false
	}
	return min(a, b), max(a, b), true
}

var _ netlist.Feasibility = (*Registry)(nil)
