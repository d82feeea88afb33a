package slots

import (
	"sort"

	"github.com/katalvlaran/pinplace/geom"
)

type slotKey struct {
	pos   geom.Point
	layer int
}

// Grid is the slot arena of one placement run.
type Grid struct {
	region geom.Rect
	slots  []Slot
	ranges []Range
	layers map[int]Layer
	index  map[slotKey]int
}

// Generate enumerates the slots of region on the given layers.
//
// Stages:
//  1. validate region and layers;
//  2. per edge (walk order) and per layer, compute the first and last track
//     index that respect corner avoidance, boundary offset and half width;
//  3. emit slots, marking blockages and excluded intervals as Blocked.
//
// Complexity: O(S·(B+X)) for S slots, B blockages and X excluded intervals.
func Generate(region geom.Rect, layers []Layer, opts Options) (*Grid, error) {
	if err := validateInputs(region, layers); err != nil {
		return nil, err
	}

	sorted := make([]Layer, len(layers))
	copy(sorted, layers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	g := &Grid{
		region: region,
		layers: make(map[int]Layer, len(sorted)),
		index:  make(map[slotKey]int),
	}
	for _, l := range sorted {
		g.layers[l.Index] = l
	}

	for _, edge := range geom.Edges {
		for _, l := range sorted {
			// Horizontal layers serve the vertical edges and vice versa.
			if l.Horizontal == edge.Horizontal() {
				continue
			}
			if err := g.addBlock(edge, l, opts); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// addBlock appends the slots of one edge/layer block.
func (g *Grid) addBlock(edge geom.Edge, l Layer, opts Options) error {
	step, err := stepFor(l, opts)
	if err != nil {
		return err
	}

	var (
		lo, hi     int
		mult       float64
		halfWidth  int
		corner     int
		first, lst int
	)
	if edge.Horizontal() {
		lo, hi = g.region.XMin, g.region.XMax
		mult = opts.VerticalThicknessMultiplier
	} else {
		lo, hi = g.region.YMin, g.region.YMax
		mult = opts.HorizontalThicknessMultiplier
	}
	if mult <= 0 {
		mult = 1
	}
	// the scaled half width truncates
	halfWidth = int(float64(ceilDiv(l.MinWidth, 2)) * mult)

	switch {
	case opts.CornerAvoidance == -1:
		corner = 1
	case opts.CornerAvoidance > 0:
		corner = ceilDiv(opts.CornerAvoidance, step)
	}

	first = max(0, ceilDiv(lo+halfWidth+opts.BoundaryOffset-l.Offset, step)) + corner
	lst = floorDiv(hi-halfWidth-opts.BoundaryOffset-l.Offset, step)
	if l.NumTracks > 0 {
		lst = min(lst, floorDiv((l.NumTracks-1)*l.Pitch, step))
	}
	lst -= corner
	if lst < first {
		return nil
	}

	begin := len(g.slots)
	emit := func(k int) {
		c := l.Offset + k*step
		var p geom.Point
		switch edge {
		case geom.Bottom:
			p = geom.Pt(c, g.region.YMin)
		case geom.Right:
			p = geom.Pt(g.region.XMax, c)
		case geom.Top:
			p = geom.Pt(c, g.region.YMax)
		case geom.Left:
			p = geom.Pt(g.region.XMin, c)
		}
		s := Slot{
			Pos:     p,
			Layer:   l.Index,
			Edge:    edge,
			Blocked: blocked(p, c, edge, l.Index, opts),
			Owner:   EdgeOwner(edge),
		}
		g.index[slotKey{pos: p, layer: l.Index}] = len(g.slots)
		g.slots = append(g.slots, s)
	}
	if edge == geom.Bottom || edge == geom.Right {
		for k := first; k <= lst; k++ {
			emit(k)
		}
	} else {
		for k := lst; k >= first; k-- {
			emit(k)
		}
	}
	g.ranges = append(g.ranges, Range{Edge: edge, Layer: l.Index, Begin: begin, End: len(g.slots) - 1})
	return nil
}

func blocked(p geom.Point, coord int, edge geom.Edge, layer int, opts Options) bool {
	for _, b := range opts.Blockages {
		if (b.Layer < 0 || b.Layer == layer) && b.Rect.Contains(p) {
			return true
		}
	}
	for _, iv := range opts.Excluded {
		if iv.Edge == edge && iv.AppliesTo(layer) && iv.StrictlyContains(coord) {
			return true
		}
	}
	return false
}

// Region returns the placement region.
func (g *Grid) Region() geom.Rect { return g.region }

// Len returns the slot count.
func (g *Grid) Len() int { return len(g.slots) }

// At returns slot i for in-place inspection. Mutate through Occupy, Release
// and Block.
func (g *Grid) At(i int) *Slot { return &g.slots[i] }

// Snapshot copies every slot; handy for comparing two runs.
func (g *Grid) Snapshot() []Slot {
	out := make([]Slot, len(g.slots))
	copy(out, g.slots)
	return out
}

// Layer returns the routing layer with the given index.
func (g *Grid) Layer(index int) (Layer, bool) {
	l, ok := g.layers[index]
	return l, ok
}

// Ranges returns the non-empty edge/layer blocks in walk order.
func (g *Grid) Ranges() []Range { return g.ranges }

// EdgeRange returns the block of edge on layer.
func (g *Grid) EdgeRange(edge geom.Edge, layer int) (Range, bool) {
	for _, r := range g.ranges {
		if r.Edge == edge && r.Layer == layer {
			return r, true
		}
	}
	return Range{}, false
}

// RangeOf returns the block containing slot i.
//
// Complexity: O(log R).
func (g *Grid) RangeOf(i int) Range {
	k := sort.Search(len(g.ranges), func(k int) bool { return g.ranges[k].End >= i })
	if k == len(g.ranges) {
		return Range{Edge: geom.InvalidEdge, Begin: 0, End: -1}
	}
	return g.ranges[k]
}

// Available counts slots that are neither blocked nor used.
func (g *Grid) Available() int {
	n := 0
	for i := range g.slots {
		if g.slots[i].Free() {
			n++
		}
	}
	return n
}

// IndexByPosition looks a slot up by position and layer.
func (g *Grid) IndexByPosition(p geom.Point, layer int) (int, bool) {
	i, ok := g.index[slotKey{pos: p, layer: layer}]
	return i, ok
}

// MirrorIndex returns the slot at the reflection of slot i about the region
// centre, on the same layer.
func (g *Grid) MirrorIndex(i int) (int, bool) {
	s := &g.slots[i]
	return g.IndexByPosition(g.region.Mirror(s.Pos), s.Layer)
}

// Free reports whether slot i can take a pin.
func (g *Grid) Free(i int) bool { return i >= 0 && i < len(g.slots) && g.slots[i].Free() }

// IsFreeRun reports whether size slots starting at start are free and stay in
// one edge/layer block. With checkMirror every slot must also have a free
// mirror outside the run.
func (g *Grid) IsFreeRun(start, size int, checkMirror bool) bool {
	if size <= 0 || start < 0 || start+size > len(g.slots) {
		return false
	}
	r := g.RangeOf(start)
	if !r.Contains(start + size - 1) {
		return false
	}
	for i := start; i < start+size; i++ {
		if !g.slots[i].Free() {
			return false
		}
		if !checkMirror {
			continue
		}
		m, ok := g.MirrorIndex(i)
		if !ok || !g.slots[m].Free() || (m >= start && m < start+size) {
			return false
		}
	}
	return true
}

// FirstFreeRun returns the lowest start in [begin, end] whose run of size
// slots fits inside [begin, end] and passes IsFreeRun.
//
// Complexity: O((end-begin)·size).
func (g *Grid) FirstFreeRun(begin, end, size int, checkMirror bool) (int, bool) {
	for s := begin; s+size-1 <= end; s++ {
		if g.IsFreeRun(s, size, checkMirror) {
			return s, true
		}
	}
	return -1, false
}

// MaxContiguous returns the longest run of free slots inside [begin, end]
// that stays in one block.
//
// Complexity: O(end-begin).
func (g *Grid) MaxContiguous(begin, end int) int {
	var (
		best, cur int
		rng       = g.RangeOf(begin)
	)
	for i := begin; i <= end && i < len(g.slots); i++ {
		if !rng.Contains(i) {
			rng = g.RangeOf(i)
			cur = 0
		}
		if g.slots[i].Free() {
			cur++
			best = max(best, cur)
		} else {
			cur = 0
		}
	}
	return best
}

// Occupy binds slot i to pin.
func (g *Grid) Occupy(i, pin int) {
	g.slots[i].Used = true
	g.slots[i].Owner = PinOwner(pin)
}

// Release returns slot i to its edge.
func (g *Grid) Release(i int) {
	g.slots[i].Used = false
	g.slots[i].Owner = EdgeOwner(g.slots[i].Edge)
}

// Block forbids slot i permanently.
func (g *Grid) Block(i int) { g.slots[i].Blocked = true }

// CommitBlocked turns every used slot into a blocked one, freezing a
// finished placement stage.
func (g *Grid) CommitBlocked() {
	for i := range g.slots {
		if g.slots[i].Used {
			g.slots[i].Blocked = true
		}
	}
}
