package constraint

import (
	"errors"

	"github.com/katalvlaran/pinplace/geom"
	"github.com/katalvlaran/pinplace/slots"
)

// Errors returned by Add. The driver reports them and skips the constraint.
var (
	// ErrEmptyConstraint indicates neither pins nor a direction were given.
	ErrEmptyConstraint = errors.New("constraint: no pins and no direction")

	// ErrUnknownPin indicates a pin name missing from the netlist.
	ErrUnknownPin = errors.New("constraint: unknown pin")

	// ErrBadEdge indicates an interval that does not name a real edge.
	ErrBadEdge = errors.New("constraint: interval edge is invalid")

	// ErrRegionOffEdge indicates a region rectangle touching no boundary.
	ErrRegionOffEdge = errors.New("constraint: region does not touch the boundary")
)

// Errors returned by Resolve. These abort the run.
var (
	// ErrPinInMultipleConstraints indicates a pin listed by two constraints.
	ErrPinInMultipleConstraints = errors.New("constraint: pin assigned to multiple constraints")

	// ErrOverlap indicates two constraints sharing part of one edge.
	ErrOverlap = errors.New("constraint: overlapping intervals")

	// ErrNoSlots indicates a constraint whose interval holds no free slot.
	ErrNoSlots = errors.New("constraint: no available slots")

	// ErrTooManyPins indicates more pins than free slots in a constraint.
	ErrTooManyPins = errors.New("constraint: more pins than available slots")
)

// Constraint restricts a pin set, or every pin of one direction, to an
// interval of one edge.
type Constraint struct {
	Name string
	// PinNames lists the governed pins. When empty, Direction selects them.
	PinNames  []string
	Direction geom.Direction
	Interval  geom.Interval
	// Region, when set, replaces Interval by its projection on the edge it
	// touches.
	Region *geom.Rect

	// Derived by Add and Resolve.
	Pins         []int
	Ranges       []slots.Range
	FirstSlot    int
	LastSlot     int
	NumSlots     int
	PinsPerSlot  float64
	Groups       []int
	MirroredPins int
}

// ByDirection reports whether the constraint selects its pins by direction.
func (c *Constraint) ByDirection() bool { return len(c.PinNames) == 0 }
