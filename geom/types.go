package geom

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for parsing text values.
var (
	// ErrUnknownEdge is returned when an edge name cannot be parsed.
	ErrUnknownEdge = errors.New("geom: unknown edge")

	// ErrUnknownDirection is returned when a direction name cannot be parsed.
	ErrUnknownDirection = errors.New("geom: unknown direction")
)

// Point is an integer position in database units.
type Point struct {
	X int `yaml:"x" toml:"x"`
	Y int `yaml:"y" toml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int) Point { return Point{X: x, Y: y} }

func (p Point) String() string { return fmt.Sprintf("(%d, %d)", p.X, p.Y) }

// Rect is a closed axis-aligned rectangle.
type Rect struct {
	XMin int `yaml:"xmin" toml:"xmin"`
	YMin int `yaml:"ymin" toml:"ymin"`
	XMax int `yaml:"xmax" toml:"xmax"`
	YMax int `yaml:"ymax" toml:"ymax"`
}

// NewRect builds a rectangle from two opposite corners in any order.
func NewRect(x0, y0, x1, y1 int) Rect {
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return Rect{XMin: x0, YMin: y0, XMax: x1, YMax: y1}
}

// Empty reports whether r has no interior (zero or negative extent).
func (r Rect) Empty() bool { return r.XMax <= r.XMin || r.YMax <= r.YMin }

// Contains reports whether p lies in r, border included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.XMin && p.X <= r.XMax && p.Y >= r.YMin && p.Y <= r.YMax
}

// Center returns the integer centre of r.
func (r Rect) Center() Point {
	return Point{X: (r.XMin + r.XMax) / 2, Y: (r.YMin + r.YMax) / 2}
}

// Mirror reflects p about the centre of r: x' = xMin+xMax-x, y' = yMin+yMax-y.
func (r Rect) Mirror(p Point) Point {
	return Point{X: r.XMin + r.XMax - p.X, Y: r.YMin + r.YMax - p.Y}
}

// EdgeOf reports which edge of r the point p lies on. Corners resolve in walk
// order, so the bottom-left corner belongs to Bottom. Points off the border
// yield InvalidEdge.
func (r Rect) EdgeOf(p Point) Edge {
	switch {
	case p.Y == r.YMin && p.X >= r.XMin && p.X <= r.XMax:
		return Bottom
	case p.X == r.XMax && p.Y >= r.YMin && p.Y <= r.YMax:
		return Right
	case p.Y == r.YMax && p.X >= r.XMin && p.X <= r.XMax:
		return Top
	case p.X == r.XMin && p.Y >= r.YMin && p.Y <= r.YMax:
		return Left
	}
	return InvalidEdge
}

// HPWL returns the half-perimeter of the bounding box of pts. An empty or
// single-point set has zero wirelength.
//
// Complexity: O(len(pts)).
func HPWL(pts ...Point) int {
	if len(pts) == 0 {
		return 0
	}
	var (
		xMin, xMax = pts[0].X, pts[0].X
		yMin, yMax = pts[0].Y, pts[0].Y
	)
	for _, p := range pts[1:] {
		xMin = min(xMin, p.X)
		xMax = max(xMax, p.X)
		yMin = min(yMin, p.Y)
		yMax = max(yMax, p.Y)
	}
	return (xMax - xMin) + (yMax - yMin)
}

// Edge identifies one side of the placement region.
type Edge int

// Edges in boundary walk order.
const (
	Bottom Edge = iota
	Right
	Top
	Left
	InvalidEdge
)

// Edges lists the four real edges in walk order.
var Edges = [...]Edge{Bottom, Right, Top, Left}

var edgeNames = [...]string{"bottom", "right", "top", "left", "invalid"}

func (e Edge) String() string {
	if e < Bottom || e > InvalidEdge {
		return edgeNames[InvalidEdge]
	}
	return edgeNames[e]
}

// Valid reports whether e is one of the four real edges.
func (e Edge) Valid() bool { return e >= Bottom && e < InvalidEdge }

// Horizontal reports whether the edge runs along the x axis (bottom, top).
// Pins on these edges use vertical routing layers.
func (e Edge) Horizontal() bool { return e == Bottom || e == Top }

// Opposite returns the edge a mirrored pin lands on.
func (e Edge) Opposite() Edge {
	switch e {
	case Bottom:
		return Top
	case Top:
		return Bottom
	case Left:
		return Right
	case Right:
		return Left
	}
	return InvalidEdge
}

// Coord returns the coordinate of p that varies along e.
func (e Edge) Coord(p Point) int {
	if e.Horizontal() {
		return p.X
	}
	return p.Y
}

// ParseEdge converts a case-insensitive edge name.
func ParseEdge(s string) (Edge, error) {
	for i, n := range edgeNames[:InvalidEdge] {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return Edge(i), nil
		}
	}
	return InvalidEdge, fmt.Errorf("%q: %w", s, ErrUnknownEdge)
}

// MarshalText implements encoding.TextMarshaler.
func (e Edge) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler; both the YAML and the
// TOML decoder pick it up.
func (e *Edge) UnmarshalText(b []byte) error {
	v, err := ParseEdge(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// Direction is the signal direction of a boundary pin.
type Direction int

const (
	Input Direction = iota
	Output
	Inout
	Feedthru
	AnyDirection
)

var directionNames = [...]string{"input", "output", "inout", "feedthru", "any"}

func (d Direction) String() string {
	if d < Input || d > AnyDirection {
		return directionNames[AnyDirection]
	}
	return directionNames[d]
}

// ParseDirection converts a case-insensitive direction name. The empty string
// parses as AnyDirection.
func ParseDirection(s string) (Direction, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AnyDirection, nil
	}
	for i, n := range directionNames {
		if strings.EqualFold(s, n) {
			return Direction(i), nil
		}
	}
	return AnyDirection, fmt.Errorf("%q: %w", s, ErrUnknownDirection)
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Orientation is the direction a pin shape points into the region.
type Orientation int

const (
	North Orientation = iota
	South
	East
	West
)

func (o Orientation) String() string {
	switch o {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	}
	return "unknown"
}

// Interval is a closed span [Begin, End] of edge coordinates. Layer -1 means
// the interval applies to every layer.
type Interval struct {
	Edge  Edge `yaml:"edge" toml:"edge"`
	Begin int  `yaml:"begin" toml:"begin"`
	End   int  `yaml:"end" toml:"end"`
	Layer int  `yaml:"layer" toml:"layer"`
}

// NewInterval builds an interval with Begin <= End.
func NewInterval(edge Edge, begin, end, layer int) Interval {
	if begin > end {
		begin, end = end, begin
	}
	return Interval{Edge: edge, Begin: begin, End: end, Layer: layer}
}

// Contains reports whether c lies in [Begin, End].
func (iv Interval) Contains(c int) bool { return c >= iv.Begin && c <= iv.End }

// StrictlyContains reports whether c lies in (Begin, End).
func (iv Interval) StrictlyContains(c int) bool { return c > iv.Begin && c < iv.End }

// AppliesTo reports whether the interval covers the given layer.
func (iv Interval) AppliesTo(layer int) bool { return iv.Layer < 0 || iv.Layer == layer }

// Overlaps reports whether two intervals on the same edge share a point.
// Layers are ignored.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Edge == o.Edge && iv.Begin <= o.End && o.Begin <= iv.End
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s[%d, %d]", iv.Edge, iv.Begin, iv.End)
}
