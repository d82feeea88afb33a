package placer

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/katalvlaran/pinplace/geom"
)

type posLayer struct {
	pos   geom.Point
	layer int
}

// check verifies the finished placement and logs every violation before
// failing: two pins on one position and layer, a pin outside its constraint,
// a broken mirror, a split or misordered group.
func (r *run) check() error {
	var (
		bad    int
		seen   = make(map[posLayer]string, r.nl.NumIOPins())
		region = r.grid.Region()
	)
	for i := 0; i < r.nl.NumIOPins(); i++ {
		p := r.nl.Pin(i)
		key := posLayer{p.Pos, p.Layer}
		if other, dup := seen[key]; dup {
			r.logger.Warn("at least two pins on one position",
				zap.String("pin", p.Name), zap.String("other", other),
				zap.Stringer("pos", p.Pos), zap.Int("layer", p.Layer))
			bad++
		}
		seen[key] = p.Name

		if ci := p.ConstraintIdx; ci >= 0 {
			iv := r.reg.At(ci).Interval
			if p.Edge != iv.Edge {
				r.logger.Warn("pin is not placed on its constraint edge",
					zap.String("pin", p.Name), zap.Stringer("edge", p.Edge), zap.Stringer("want", iv.Edge))
				bad++
			} else if !iv.Contains(iv.Edge.Coord(p.Pos)) {
				r.logger.Warn("pin is not placed in its constraint interval",
					zap.String("pin", p.Name), zap.Stringer("pos", p.Pos), zap.Stringer("interval", iv))
				bad++
			}
		}

		if p.Mirrored {
			m := r.nl.Pin(p.MirrorIdx)
			if m.Pos != region.Mirror(p.Pos) || m.Layer != p.Layer {
				r.logger.Warn("pins are not mirroring each other",
					zap.String("pin", p.Name), zap.String("mirror", m.Name))
				bad++
			}
		}
	}

	for gi, g := range r.nl.Groups() {
		edge := r.nl.Pin(g.Pins[0]).Edge
		order := r.nl.SortGroupForEdge(gi, edge)
		start, _ := r.grid.IndexByPosition(r.nl.Pin(order[0]).Pos, r.nl.Pin(order[0]).Layer)
		for k, p := range order {
			s, ok := r.grid.IndexByPosition(r.nl.Pin(p).Pos, r.nl.Pin(p).Layer)
			if !ok || s != start+k {
				r.logger.Warn("pin group is not contiguous",
					zap.String("first_pin", r.nl.Pin(order[0]).Name), zap.String("pin", r.nl.Pin(p).Name))
				bad++
				break
			}
		}
	}

	if bad > 0 {
		return errors.Wrapf(ErrInvalidPlacement, "%d violations", bad)
	}
	return nil
}
