package pinshape

import (
	"go.uber.org/zap"

	"github.com/katalvlaran/pinplace/geom"
	"github.com/katalvlaran/pinplace/netlist"
	"github.com/katalvlaran/pinplace/slots"
)

// Options sizes pin footprints. Lengths and extensions of -1 are unset.
// Horizontal values apply to pins on horizontal layers (left and right
// edges), vertical values to pins on the bottom and top edges.
type Options struct {
	HorizontalLength              int
	VerticalLength                int
	HorizontalLengthExtend        int
	VerticalLengthExtend          int
	HorizontalThicknessMultiplier float64
	VerticalThicknessMultiplier   float64
	ManufacturingGrid             int
}

// DefaultOptions leaves lengths to the layer rules.
func DefaultOptions() Options {
	return Options{
		HorizontalLength:              -1,
		VerticalLength:                -1,
		HorizontalLengthExtend:        -1,
		VerticalLengthExtend:          -1,
		HorizontalThicknessMultiplier: 1,
		VerticalThicknessMultiplier:   1,
	}
}

// Orient returns the direction a pin at pos points into region. The
// top-left corner points south and the bottom-right corner north.
func Orient(region geom.Rect, pos geom.Point) geom.Orientation {
	switch {
	case pos.X == region.XMin:
		if pos.Y == region.YMax {
			return geom.South
		}
		return geom.East
	case pos.X == region.XMax:
		if pos.Y == region.YMin {
			return geom.North
		}
		return geom.West
	case pos.Y == region.YMin:
		return geom.North
	}
	return geom.South
}

// Finalizer computes pin shapes from the layer data of a grid.
type Finalizer struct {
	grid   *slots.Grid
	opts   Options
	logger *zap.Logger
}

// NewFinalizer builds a finalizer; logger may be nil.
func NewFinalizer(g *slots.Grid, opts Options, logger *zap.Logger) *Finalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Finalizer{grid: g, opts: opts, logger: logger}
}

// Finalize shapes every placed pin of nl.
func (f *Finalizer) Finalize(nl *netlist.Netlist) {
	for i := 0; i < nl.NumIOPins(); i++ {
		if p := nl.Pin(i); p.Placed {
			f.Shape(p)
		}
	}
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// Shape sets the orientation and bounds of one placed pin.
func (f *Finalizer) Shape(p *netlist.IOPin) {
	p.Orientation = Orient(f.grid.Region(), p.Pos)
	p.Lower, p.Upper = p.Pos, p.Pos

	layer, ok := f.grid.Layer(p.Layer)
	if !ok {
		f.logger.Warn("no layer data for pin, footprint left empty",
			zap.String("pin", p.Name), zap.Int("layer", p.Layer))
		return
	}

	var (
		vertical = p.Orientation == geom.North || p.Orientation == geom.South
		mult     = f.opts.HorizontalThicknessMultiplier
		length   = f.opts.HorizontalLength
		extend   = f.opts.HorizontalLengthExtend
	)
	if vertical {
		mult = f.opts.VerticalThicknessMultiplier
		length = f.opts.VerticalLength
		extend = f.opts.VerticalLengthExtend
	}
	if mult <= 0 {
		mult = 1
	}
	halfWidth := int(float64(ceilDiv(layer.MinWidth, 2)) * mult)
	width := 2 * halfWidth

	if length < 0 {
		length = max(width, ceilDiv(layer.MinArea, width))
	}
	if g := f.opts.ManufacturingGrid; g > 0 {
		length = ceilDiv(length, g) * g
	}
	extend = max(extend, 0)

	if width*length < layer.MinArea {
		f.logger.Warn("pin area below the layer minimum",
			zap.String("pin", p.Name),
			zap.Int("area", width*length),
			zap.Int("min_area", layer.MinArea))
	}

	x, y := p.Pos.X, p.Pos.Y
	switch p.Orientation {
	case geom.North:
		p.Lower, p.Upper = geom.Pt(x-halfWidth, y-extend), geom.Pt(x+halfWidth, y+length)
	case geom.South:
		p.Lower, p.Upper = geom.Pt(x-halfWidth, y-length), geom.Pt(x+halfWidth, y+extend)
	case geom.East:
		p.Lower, p.Upper = geom.Pt(x-extend, y-halfWidth), geom.Pt(x+length, y+halfWidth)
	case geom.West:
		p.Lower, p.Upper = geom.Pt(x-length, y-halfWidth), geom.Pt(x+extend, y+halfWidth)
	}
}
