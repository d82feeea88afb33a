package slots

import (
	"fmt"

	"github.com/katalvlaran/pinplace/geom"
)

// validateInputs checks the region and the layer stack before generation.
//
// Complexity: O(L) for L layers.
func validateInputs(region geom.Rect, layers []Layer) error {
	if region.Empty() {
		return fmt.Errorf("%v-%v: %w", geom.Pt(region.XMin, region.YMin), geom.Pt(region.XMax, region.YMax), ErrBadRegion)
	}

	var (
		seen            = make(map[int]struct{}, len(layers))
		hasHor, hasVert bool
	)
	for _, l := range layers {
		if l.Pitch <= 0 {
			return fmt.Errorf("layer %d pitch %d: %w", l.Index, l.Pitch, ErrBadPitch)
		}
		if _, dup := seen[l.Index]; dup {
			return fmt.Errorf("layer %d: %w", l.Index, ErrDuplicateLayer)
		}
		seen[l.Index] = struct{}{}
		if l.Horizontal {
			hasHor = true
		} else {
			hasVert = true
		}
	}
	if !hasVert {
		return fmt.Errorf("%s/%s: %w", geom.Bottom, geom.Top, ErrMissingLayer)
	}
	if !hasHor {
		return fmt.Errorf("%s/%s: %w", geom.Left, geom.Right, ErrMissingLayer)
	}
	return nil
}

// stepFor returns the pin-to-pin distance on layer l.
func stepFor(l Layer, opts Options) (int, error) {
	var step int
	switch {
	case opts.MinDistance == 0:
		step = 2 * l.Pitch
	case opts.MinDistanceInTracks:
		step = opts.MinDistance * l.Pitch
	default:
		step = ceilDiv(opts.MinDistance, l.Pitch) * l.Pitch
	}
	if step <= 0 {
		return 0, fmt.Errorf("layer %d step %d: %w", l.Index, step, ErrBadStep)
	}
	return step, nil
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func ceilDiv(a, b int) int { return -floorDiv(-a, b) }
