package placer

import (
	"github.com/pkg/errors"

	"github.com/katalvlaran/pinplace/geom"
)

var (
	// ErrBadOptions indicates an option outside its range.
	ErrBadOptions = errors.New("placer: invalid options")

	// ErrUnknownFormat indicates a configuration file with an unsupported
	// extension.
	ErrUnknownFormat = errors.New("placer: unknown file format")

	// ErrBadDesign indicates a design file that cannot describe a run.
	ErrBadDesign = errors.New("placer: invalid design")

	// ErrTooManyPins indicates more pins than available slots.
	ErrTooManyPins = errors.New("placer: more pins than available slots")

	// ErrGroupTooLarge indicates a group longer than its constraint.
	ErrGroupTooLarge = errors.New("placer: group does not fit its constraint")

	// ErrUnplacedPins indicates pins left without a slot at the end of a run.
	ErrUnplacedPins = errors.New("placer: pins left unplaced")

	// ErrInvalidPlacement indicates a failed placement check.
	ErrInvalidPlacement = errors.New("placer: invalid pin placement")
)

// Strategy names the assignment engine of a run.
type Strategy string

// Strategies.
const (
	Hungarian Strategy = "hungarian"
	Annealing Strategy = "annealing"
)

// Placement is the final state of one pin.
type Placement struct {
	Name        string
	Pos         geom.Point
	Layer       int
	Edge        geom.Edge
	Orientation geom.Orientation
	Lower       geom.Point
	Upper       geom.Point
}

// Size returns the footprint extent of the pin.
func (p Placement) Size() (w, h int) { return p.Upper.X - p.Lower.X, p.Upper.Y - p.Lower.Y }

// Result is the outcome of a successful run.
type Result struct {
	Placements []Placement
	// HPWL is the total half-perimeter wirelength of the boundary nets.
	HPWL     int64
	Strategy Strategy
}
