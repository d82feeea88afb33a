package slots

import (
	"errors"

	"github.com/katalvlaran/pinplace/geom"
)

// Sentinel errors returned by Generate.
var (
	// ErrBadRegion indicates an empty or inverted placement region.
	ErrBadRegion = errors.New("slots: empty or inverted region")

	// ErrBadPitch indicates a layer with a non-positive pitch.
	ErrBadPitch = errors.New("slots: layer pitch must be positive")

	// ErrBadStep indicates a non-positive pin-to-pin distance.
	ErrBadStep = errors.New("slots: pin step must be positive")

	// ErrMissingLayer indicates an edge that has no routing layer to host pins.
	ErrMissingLayer = errors.New("slots: no routing layer for edge")

	// ErrDuplicateLayer indicates two layers sharing one index.
	ErrDuplicateLayer = errors.New("slots: duplicate layer index")
)

// Layer describes the routing tracks of one metal layer. Horizontal layers
// host pins on the left and right edges; vertical layers on bottom and top.
type Layer struct {
	Index      int  `yaml:"index" toml:"index"`
	Horizontal bool `yaml:"horizontal" toml:"horizontal"`
	Pitch      int  `yaml:"pitch" toml:"pitch"`
	Offset     int  `yaml:"offset" toml:"offset"`
	// NumTracks bounds the track count; 0 means unbounded.
	NumTracks int `yaml:"num_tracks" toml:"num_tracks"`
	MinWidth  int `yaml:"min_width" toml:"min_width"`
	MinArea   int `yaml:"min_area" toml:"min_area"`
}

// Blockage forbids every slot whose position lies in Rect. Layer -1 applies
// to all layers.
type Blockage struct {
	Rect  geom.Rect `yaml:"rect" toml:"rect"`
	Layer int       `yaml:"layer" toml:"layer"`
}

// Options tunes slot generation.
type Options struct {
	// MinDistance is the pin-to-pin distance in DBU, or in tracks when
	// MinDistanceInTracks is set. Zero selects two pitches.
	MinDistance         int
	MinDistanceInTracks bool

	// CornerAvoidance is the distance kept free at each corner. -1 keeps
	// exactly one step.
	CornerAvoidance int

	// BoundaryOffset insets the usable span of every edge.
	BoundaryOffset int

	HorizontalThicknessMultiplier float64
	VerticalThicknessMultiplier   float64

	Blockages []Blockage
	Excluded  []geom.Interval
}

// DefaultOptions returns the generation defaults: two-pitch spacing, one step
// of corner avoidance, unit thickness.
func DefaultOptions() Options {
	return Options{
		MinDistance:                   0,
		CornerAvoidance:               -1,
		HorizontalThicknessMultiplier: 1,
		VerticalThicknessMultiplier:   1,
	}
}

// OwnerKind tags the variant held by an Owner.
type OwnerKind uint8

const (
	// OwnedByEdge marks a slot nobody has claimed yet.
	OwnedByEdge OwnerKind = iota
	// OwnedByPin marks a slot bound to a pin.
	OwnedByPin
)

// Owner records who holds a slot: its edge until a pin is committed, then
// that pin.
type Owner struct {
	Kind OwnerKind
	Edge geom.Edge
	Pin  int
}

// EdgeOwner is the initial owner of every slot on e.
func EdgeOwner(e geom.Edge) Owner { return Owner{Kind: OwnedByEdge, Edge: e, Pin: -1} }

// PinOwner tags a slot with a pin index.
func PinOwner(pin int) Owner { return Owner{Kind: OwnedByPin, Edge: geom.InvalidEdge, Pin: pin} }

// PinIndex returns the owning pin, if any.
func (o Owner) PinIndex() (int, bool) {
	if o.Kind != OwnedByPin {
		return -1, false
	}
	return o.Pin, true
}

// Slot is one legal pin position.
type Slot struct {
	Pos     geom.Point
	Layer   int
	Edge    geom.Edge
	Blocked bool
	Used    bool
	Owner   Owner
}

// Free reports whether a pin may still be committed here.
func (s *Slot) Free() bool { return !s.Blocked && !s.Used }

// Range is the closed index span [Begin, End] of one edge/layer block.
type Range struct {
	Edge  geom.Edge
	Layer int
	Begin int
	End   int
}

// Len returns the number of slots in r.
func (r Range) Len() int { return r.End - r.Begin + 1 }

// Contains reports whether slot index i belongs to r.
func (r Range) Contains(i int) bool { return i >= r.Begin && i <= r.End }
