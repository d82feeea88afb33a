package netlist

import (
	"fmt"

	"github.com/katalvlaran/pinplace/geom"
)

// Netlist stores boundary pins and their sinks in compressed sparse row form:
// the sinks of pin i are instPins[netPointer[i]:netPointer[i+1]].
type Netlist struct {
	pins       []IOPin
	instPins   []InstancePin
	netPointer []int
	groups     []PinGroup
	byName     map[string]int
}

// New returns an empty netlist.
func New() *Netlist {
	return &Netlist{
		netPointer: []int{0},
		byName:     make(map[string]int),
	}
}

// AddIONet appends a pin and its sinks and returns the pin index.
//
// Complexity: O(len(sinks)) amortized.
func (n *Netlist) AddIONet(pin IOPin, sinks []InstancePin) (int, error) {
	if _, dup := n.byName[pin.Name]; dup {
		return -1, fmt.Errorf("%q: %w", pin.Name, ErrDuplicatePin)
	}
	idx := len(n.pins)
	n.pins = append(n.pins, pin)
	n.instPins = append(n.instPins, sinks...)
	n.netPointer = append(n.netPointer, len(n.instPins))
	n.byName[pin.Name] = idx
	return idx, nil
}

// CreateIOGroup registers a group from pin names. It returns 0 and creates
// nothing when any name is unknown, otherwise the member count. A pin listed
// twice, or already grouped, is an error.
func (n *Netlist) CreateIOGroup(names []string, order bool) (int, error) {
	var (
		members = make([]int, 0, len(names))
		listed  = make(map[int]struct{}, len(names))
	)
	for _, name := range names {
		idx, ok := n.byName[name]
		if !ok {
			return 0, nil
		}
		if _, dup := listed[idx]; dup {
			return 0, fmt.Errorf("%q listed twice: %w", name, ErrPinInTwoGroups)
		}
		if n.pins[idx].InGroup {
			return 0, fmt.Errorf("%q: %w", name, ErrPinInTwoGroups)
		}
		listed[idx] = struct{}{}
		members = append(members, idx)
	}
	if len(members) == 0 {
		return 0, nil
	}

	g := len(n.groups)
	for _, idx := range members {
		n.pins[idx].InGroup = true
		n.pins[idx].GroupIdx = g
	}
	n.groups = append(n.groups, PinGroup{Pins: members, Order: order})
	return len(members), nil
}

// SetMirrored pairs two pins so that one is placed at the reflection of the
// other.
func (n *Netlist) SetMirrored(a, b int) error {
	if err := n.check(a); err != nil {
		return err
	}
	if err := n.check(b); err != nil {
		return err
	}
	pa, pb := &n.pins[a], &n.pins[b]
	if a == b || (pa.Mirrored && pa.MirrorIdx != b) || (pb.Mirrored && pb.MirrorIdx != a) {
		return fmt.Errorf("%q/%q: %w", pa.Name, pb.Name, ErrBadMirror)
	}
	pa.Mirrored, pa.MirrorIdx = true, b
	pb.Mirrored, pb.MirrorIdx = true, a
	return nil
}

func (n *Netlist) check(i int) error {
	if i < 0 || i >= len(n.pins) {
		return fmt.Errorf("%d: %w", i, ErrPinIndex)
	}
	return nil
}

// NumIOPins returns the pin count.
func (n *Netlist) NumIOPins() int { return len(n.pins) }

// Pin returns pin i for in-place updates.
func (n *Netlist) Pin(i int) *IOPin { return &n.pins[i] }

// Pins returns the pin arena. Callers must not append to it.
func (n *Netlist) Pins() []IOPin { return n.pins }

// Groups returns every registered group.
func (n *Netlist) Groups() []PinGroup { return n.groups }

// Group returns group g.
func (n *Netlist) Group(g int) PinGroup { return n.groups[g] }

// IndexOf resolves a pin name.
func (n *Netlist) IndexOf(name string) (int, bool) {
	i, ok := n.byName[name]
	return i, ok
}

// MirrorIndex returns the partner of pin i, or -1.
func (n *Netlist) MirrorIndex(i int) int {
	if !n.pins[i].Mirrored {
		return -1
	}
	return n.pins[i].MirrorIdx
}

// SinksOf returns the sinks of pin i.
func (n *Netlist) SinksOf(i int) []InstancePin {
	return n.instPins[n.netPointer[i]:n.netPointer[i+1]]
}

// ComputeIONetHPWL returns the half-perimeter wirelength of pin i if it sat at
// pos.
//
// Complexity: O(sinks of i).
func (n *Netlist) ComputeIONetHPWL(i int, pos geom.Point) int {
	var (
		xMin, xMax = pos.X, pos.X
		yMin, yMax = pos.Y, pos.Y
	)
	for _, s := range n.SinksOf(i) {
		xMin = min(xMin, s.Pos.X)
		xMax = max(xMax, s.Pos.X)
		yMin = min(yMin, s.Pos.Y)
		yMax = max(yMax, s.Pos.Y)
	}
	return (xMax - xMin) + (yMax - yMin)
}

// ComputeIONetHPWLChecked is ComputeIONetHPWL with a feasibility gate:
// positions rejected by f cost Infeasible. A nil f accepts everything.
func (n *Netlist) ComputeIONetHPWLChecked(i int, pos geom.Point, edge geom.Edge, f Feasibility) int {
	if f != nil && !f.CheckSlotForPin(i, edge, pos) {
		return Infeasible
	}
	return n.ComputeIONetHPWL(i, pos)
}

// TotalHPWL sums the wirelength of every pin at its current position.
func (n *Netlist) TotalHPWL() int64 {
	var total int64
	for i := range n.pins {
		total += int64(n.ComputeIONetHPWL(i, n.pins[i].Pos))
	}
	return total
}

// ZeroSinkPins counts pins whose net has no sink.
func (n *Netlist) ZeroSinkPins() int {
	c := 0
	for i := range n.pins {
		if n.netPointer[i+1] == n.netPointer[i] {
			c++
		}
	}
	return c
}

// LonePins lists pins that are neither grouped nor mirrored.
func (n *Netlist) LonePins() []int {
	out := make([]int, 0, len(n.pins))
	for i := range n.pins {
		if n.pins[i].Lone() {
			out = append(out, i)
		}
	}
	return out
}

// SortGroupForEdge returns the members of group g in slot order for a block
// on edge. Slot indices run right-to-left on the top edge and top-to-bottom on
// the left edge, so those edges reverse the list to keep the group reading
// the same way on the die; Order reverses it once more.
func (n *Netlist) SortGroupForEdge(g int, edge geom.Edge) []int {
	grp := n.groups[g]
	out := make([]int, len(grp.Pins))
	copy(out, grp.Pins)
	reverse := grp.Order
	if edge == geom.Top || edge == geom.Left {
		reverse = !reverse
	}
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}
