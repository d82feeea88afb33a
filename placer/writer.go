package placer

import (
	"fmt"
	"io"

	"github.com/katalvlaran/pinplace/geom"
)

// WritePinPlacement writes one place_pin command per pin, grouped by edge in
// walk order. The location is the centre of the pin footprint.
func WritePinPlacement(w io.Writer, res *Result) error {
	for _, edge := range geom.Edges {
		if _, err := fmt.Fprintf(w, "#Edge: %s\n", edge); err != nil {
			return err
		}
		for _, p := range res.Placements {
			if p.Edge != edge {
				continue
			}
			c := geom.NewRect(p.Lower.X, p.Lower.Y, p.Upper.X, p.Upper.Y).Center()
			wd, ht := p.Size()
			if _, err := fmt.Fprintf(w, "place_pin -pin_name %s -layer %d -location {%d %d} -pin_size {%d %d}\n",
				p.Name, p.Layer, c.X, c.Y, wd, ht); err != nil {
				return err
			}
		}
	}
	return nil
}
