package placer

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/katalvlaran/pinplace/hungarian"
	"github.com/katalvlaran/pinplace/slots"
)

// placeFallbackGroups puts each group on the first free contiguous run that
// holds it. A constrained group searches the runs of its constraint one layer
// at a time, the middle of each run first; an unconstrained one scans the
// whole grid.
func (r *run) placeFallbackGroups(groups []int) error {
	for _, gi := range groups {
		var (
			members = r.nl.Group(gi).Pins
			size    = len(members)
			ranges  = []slots.Range{{Begin: 0, End: r.grid.Len() - 1}}
			widest  int
			start   = -1
		)
		if r.nl.Pin(members[0]).Placed {
			continue
		}

		if ci := r.nl.Pin(members[0]).ConstraintIdx; ci >= 0 {
			c := r.reg.At(ci)
			ranges = c.Ranges
			for _, rng := range ranges {
				widest = max(widest, rng.Len())
			}
			if widest < size {
				return errors.Wrapf(ErrGroupTooLarge, "group of %d with pin %q in %q (widest run %d slots)",
					size, r.nl.Pin(members[0]).Name, c.Name, widest)
			}
		}
		for _, rng := range ranges {
			mid := rng.Begin + (rng.Len()-size)/2
			if start = r.firstFallbackRun(gi, mid, rng.End); start >= 0 {
				break
			}
			if start = r.firstFallbackRun(gi, rng.Begin, rng.End); start >= 0 {
				break
			}
		}
		if start < 0 {
			most := 0
			for _, rng := range ranges {
				most = max(most, r.grid.MaxContiguous(rng.Begin, rng.End))
			}
			return errors.Wrapf(hungarian.ErrGroupPlacement,
				"group of %d with pin %q: max contiguous slots %d",
				size, r.nl.Pin(members[0]).Name, most)
		}

		for _, p := range members {
			r.nl.Pin(p).InFallback = true
			if partner := r.nl.MirrorIndex(p); partner >= 0 {
				r.nl.Pin(partner).InFallback = true
			}
		}
		if _, err := hungarian.CommitGroup(r.nl, r.grid, gi, start); err != nil {
			return errors.Wrap(err, "fallback group")
		}
		r.logger.Info("group placed in fallback mode",
			zap.Int("size", size), zap.String("first_pin", r.nl.Pin(members[0]).Name))
	}
	return nil
}

// firstFallbackRun returns the lowest start in [begin, end] whose block is
// free and legal for every member of group gi and its mirrored partners, or
// -1.
func (r *run) firstFallbackRun(gi, begin, end int) int {
	var (
		size     = len(r.nl.Group(gi).Pins)
		mirrored bool
	)
	for _, p := range r.nl.Group(gi).Pins {
		mirrored = mirrored || r.nl.Pin(p).Mirrored
	}
	for s := max(begin, 0); s+size-1 <= end; s++ {
		if r.grid.IsFreeRun(s, size, mirrored) && r.legalRun(gi, s) {
			return s
		}
	}
	return -1
}

func (r *run) legalRun(gi, start int) bool {
	for k, p := range r.nl.SortGroupForEdge(gi, r.grid.At(start).Edge) {
		sl := r.grid.At(start + k)
		if !r.reg.CheckSlotForPin(p, sl.Edge, sl.Pos) {
			return false
		}
		partner := r.nl.MirrorIndex(p)
		if partner < 0 {
			continue
		}
		mi, ok := r.grid.MirrorIndex(start + k)
		if !ok {
			return false
		}
		ms := r.grid.At(mi)
		if !r.reg.CheckSlotForPin(partner, ms.Edge, ms.Pos) {
			return false
		}
	}
	return true
}
