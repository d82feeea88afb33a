package netlist

import (
	"errors"
	"math"

	"github.com/katalvlaran/pinplace/geom"
)

// Infeasible is the cost of a position a pin may not take. It is large
// enough to lose against any real wirelength yet small enough to sum.
const Infeasible = math.MaxInt32

// Sentinel errors.
var (
	// ErrDuplicatePin indicates a second pin registered under an existing name.
	ErrDuplicatePin = errors.New("netlist: duplicate pin name")

	// ErrPinInTwoGroups indicates a pin listed by two groups.
	ErrPinInTwoGroups = errors.New("netlist: pin already belongs to a group")

	// ErrBadMirror indicates a mirror pair that is self-referential or
	// reuses a pin that already has a partner.
	ErrBadMirror = errors.New("netlist: invalid mirror pair")

	// ErrPinIndex indicates an out-of-range pin index.
	ErrPinIndex = errors.New("netlist: pin index out of range")
)

// IOPin is a boundary terminal. It is identified externally by Name and
// internally by its index in the Netlist arena.
type IOPin struct {
	Name        string
	Pos         geom.Point
	Direction   geom.Direction
	Orientation geom.Orientation
	Lower       geom.Point
	Upper       geom.Point
	Layer       int
	Edge        geom.Edge

	InGroup           bool
	GroupIdx          int
	Placed            bool
	AssignedToSection bool
	InFallback        bool
	Mirrored          bool
	MirrorIdx         int
	ConstraintIdx     int
}

// NewIOPin returns an unplaced pin with every index field cleared.
func NewIOPin(name string, pos geom.Point, dir geom.Direction) IOPin {
	return IOPin{
		Name:          name,
		Pos:           pos,
		Direction:     dir,
		Layer:         -1,
		Edge:          geom.InvalidEdge,
		GroupIdx:      -1,
		MirrorIdx:     -1,
		ConstraintIdx: -1,
	}
}

// Lone reports whether the pin is assigned on its own: neither grouped nor
// mirrored.
func (p *IOPin) Lone() bool { return !p.InGroup && !p.Mirrored }

// InstancePin is an immutable sink of a boundary net.
type InstancePin struct {
	Name string     `yaml:"name" toml:"name"`
	Pos  geom.Point `yaml:"pos" toml:"pos"`
}

// PinGroup is a set of pins placed atomically on adjacent slots. With Order
// set the block is filled backward.
type PinGroup struct {
	Pins  []int
	Order bool
}

// Feasibility decides whether a pin may sit at a position on an edge.
type Feasibility interface {
	CheckSlotForPin(pin int, edge geom.Edge, pos geom.Point) bool
}
