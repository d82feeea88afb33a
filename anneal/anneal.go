package anneal

import (
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/katalvlaran/pinplace/constraint"
	"github.com/katalvlaran/pinplace/netlist"
	"github.com/katalvlaran/pinplace/slots"
)

// Annealer refines a random pin-to-slot assignment by simulated annealing.
// It owns the slot grid for the duration of the run: bindings live in the
// grid (Used, Owner) and in slotOf, and pins are written back only by
// Assignment.
type Annealer struct {
	nl     *netlist.Netlist
	grid   *slots.Grid
	reg    *constraint.Registry
	opts   Options
	rng    *rand.Rand
	logger *zap.Logger

	slotOf   []int
	pins     []int
	lone     []int
	freeLone []int
	consLone map[int][]int
	groups   []int

	cost         int64
	ready        bool
	pending      []move
	pendingDelta int64
}

// New builds an annealer over every unplaced pin of nl. reg may be nil for
// an unconstrained run; rng nil selects the default seed; logger may be nil.
func New(nl *netlist.Netlist, g *slots.Grid, reg *constraint.Registry, opts Options, rng *rand.Rand, logger *zap.Logger) (*Annealer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewRand(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Annealer{
		nl:       nl,
		grid:     g,
		reg:      reg,
		opts:     opts,
		rng:      rng,
		logger:   logger,
		slotOf:   make([]int, nl.NumIOPins()),
		consLone: make(map[int][]int),
	}

	for i := range a.slotOf {
		a.slotOf[i] = -1
		if !nl.Pin(i).Placed {
			a.pins = append(a.pins, i)
		}
	}
	for gi, grp := range nl.Groups() {
		if !nl.Pin(grp.Pins[0]).Placed {
			a.groups = append(a.groups, gi)
		}
	}
	for _, i := range nl.LonePins() {
		if nl.Pin(i).Placed {
			continue
		}
		a.lone = append(a.lone, i)
		if ci := a.constraintOf(i); ci >= 0 {
			a.consLone[ci] = append(a.consLone[ci], i)
		} else {
			a.freeLone = append(a.freeLone, i)
		}
	}
	return a, nil
}

func (a *Annealer) constraintOf(pin int) int {
	if a.reg == nil {
		return -1
	}
	return a.reg.ConstraintOf(pin)
}

func (a *Annealer) slotRange(pin int) (int, int) {
	if a.reg != nil {
		if lo, hi, ok := a.reg.SlotRange(pin); ok {
			return lo, hi
		}
	}
	return 0, a.grid.Len() - 1
}

func (a *Annealer) feasible(pin, slot int) bool {
	if a.reg == nil {
		return true
	}
	s := a.grid.At(slot)
	return a.reg.CheckSlotForPin(pin, s.Edge, s.Pos)
}

// slotOK reports whether pin, and its partner at the reflection, can move to
// slot.
func (a *Annealer) slotOK(pin, slot int) bool {
	if !a.grid.Free(slot) || !a.feasible(pin, slot) {
		return false
	}
	partner := a.nl.MirrorIndex(pin)
	if partner < 0 {
		return true
	}
	mi, ok := a.grid.MirrorIndex(slot)
	return ok && mi != slot && a.grid.Free(mi) && a.feasible(partner, mi)
}

func (a *Annealer) hpwl(pin, slot int) int64 {
	return int64(a.nl.ComputeIONetHPWL(pin, a.grid.At(slot).Pos))
}

func (a *Annealer) groupMirrored(grp int) bool {
	for _, p := range a.nl.Group(grp).Pins {
		if a.nl.Pin(p).Mirrored {
			return true
		}
	}
	return false
}

func (a *Annealer) groupFits(grp, start int) bool {
	size := len(a.nl.Group(grp).Pins)
	if !a.grid.IsFreeRun(start, size, a.groupMirrored(grp)) {
		return false
	}
	for k, p := range a.nl.SortGroupForEdge(grp, a.grid.At(start).Edge) {
		if !a.feasible(p, start+k) {
			return false
		}
		if partner := a.nl.MirrorIndex(p); partner >= 0 {
			mi, _ := a.grid.MirrorIndex(start + k)
			if !a.feasible(partner, mi) {
				return false
			}
		}
	}
	return true
}

// groupMoves lists the relocations that put grp on the block at start.
func (a *Annealer) groupMoves(grp, start int) []move {
	var out []move
	for k, p := range a.nl.SortGroupForEdge(grp, a.grid.At(start).Edge) {
		out = append(out, move{pin: p, from: a.slotOf[p], to: start + k})
		if partner := a.nl.MirrorIndex(p); partner >= 0 {
			mi, _ := a.grid.MirrorIndex(start + k)
			out = append(out, move{pin: partner, from: a.slotOf[partner], to: mi})
		}
	}
	return out
}

// bind places moves whose pins hold no slot yet.
func (a *Annealer) bind(moves []move) {
	for _, m := range moves {
		a.slotOf[m.pin] = m.to
		a.grid.Occupy(m.to, m.pin)
	}
}

// RandomAssignment seeds the run with a random legal assignment.
//
// Stages:
//  1. groups: constrained groups sample starts inside their range, the others
//     walk a shuffled slot sequence until a contiguous run fits;
//  2. pins whose slot range is restricted (own or partner's constraint);
//  3. remaining mirrored pins, then lone pins, in shuffled slot order.
//
// Complexity: O(S + P·S) worst case for S slots and P pins.
func (a *Annealer) RandomAssignment() error {
	for _, p := range a.pins {
		if s := a.slotOf[p]; s >= 0 {
			a.grid.Release(s)
			a.slotOf[p] = -1
		}
	}
	a.pending = a.pending[:0]
	perm := permRange(a.grid.Len(), a.rng)

	// Stage 1
	for _, grp := range a.groups {
		start := -1
		if a.constraintOf(a.nl.Group(grp).Pins[0]) >= 0 {
			start = a.sampleGroupStart(grp, true)
		} else {
			for _, s := range perm {
				if a.groupFits(grp, s) {
					start = s
					break
				}
			}
		}
		if start < 0 {
			return fmt.Errorf("group of %q (%d pins): %w",
				a.nl.Pin(a.nl.Group(grp).Pins[0]).Name, len(a.nl.Group(grp).Pins), ErrNoRoomForGroup)
		}
		a.bind(a.groupMoves(grp, start))
	}

	// Stage 2
	for _, p := range a.pins {
		if a.slotOf[p] >= 0 || a.nl.Pin(p).InGroup || a.reg == nil {
			continue
		}
		if _, _, ok := a.reg.SlotRange(p); !ok {
			continue
		}
		s, ok := a.randomSlot(p, true)
		if !ok {
			return fmt.Errorf("pin %q: %w", a.nl.Pin(p).Name, ErrNoFreeSlot)
		}
		a.bind(a.pinMoves(p, s))
	}

	// Stage 3
	for _, p := range a.pins {
		if a.slotOf[p] >= 0 || !a.nl.Pin(p).Mirrored {
			continue
		}
		placed := false
		for _, s := range perm {
			if a.slotOK(p, s) {
				a.bind(a.pinMoves(p, s))
				placed = true
				break
			}
		}
		if !placed {
			return fmt.Errorf("mirrored pin %q: %w", a.nl.Pin(p).Name, ErrNoFreeSlot)
		}
	}
	cursor := 0
	for _, p := range a.pins {
		if a.slotOf[p] >= 0 {
			continue
		}
		for cursor < len(perm) && !a.slotOK(p, perm[cursor]) {
			cursor++
		}
		if cursor == len(perm) {
			return fmt.Errorf("pin %q: %w", a.nl.Pin(p).Name, ErrNoFreeSlot)
		}
		a.bind(a.pinMoves(p, perm[cursor]))
		cursor++
	}

	a.cost = a.Recompute()
	a.ready = true
	return nil
}

func (a *Annealer) pinMoves(pin, slot int) []move {
	out := []move{{pin: pin, from: a.slotOf[pin], to: slot}}
	if partner := a.nl.MirrorIndex(pin); partner >= 0 {
		mi, _ := a.grid.MirrorIndex(slot)
		out = append(out, move{pin: partner, from: a.slotOf[partner], to: mi})
	}
	return out
}

// randomSlot samples a legal slot for pin inside its range; with linear set
// it falls back to a scan when sampling gives up.
func (a *Annealer) randomSlot(pin int, linear bool) (int, bool) {
	lo, hi := a.slotRange(pin)
	for try := 0; try < 10*(hi-lo+1); try++ {
		s := intBetween(a.rng, lo, hi)
		if a.slotOK(pin, s) {
			return s, true
		}
	}
	if linear {
		for s := lo; s <= hi; s++ {
			if a.slotOK(pin, s) {
				return s, true
			}
		}
	}
	return -1, false
}

// sampleGroupStart samples a start for grp inside its range, bounded by ten
// attempts per slot of the range.
func (a *Annealer) sampleGroupStart(grp int, linear bool) int {
	var (
		members = a.nl.Group(grp).Pins
		size    = len(members)
		lo, hi  = a.slotRange(members[0])
	)
	if hi-lo+1 < size {
		return -1
	}
	for try := 0; try < 10*(hi-lo+1); try++ {
		s := intBetween(a.rng, lo, hi-size+1)
		if a.groupFits(grp, s) {
			return s
		}
	}
	if linear {
		for s := lo; s <= hi-size+1; s++ {
			if a.groupFits(grp, s) {
				return s
			}
		}
	}
	return -1
}

// apply performs moves and returns the wirelength delta of the moved pins.
func (a *Annealer) apply(moves []move) int64 {
	var before, after int64
	for _, m := range moves {
		if m.from >= 0 {
			before += a.hpwl(m.pin, m.from)
			a.grid.Release(m.from)
		}
	}
	for _, m := range moves {
		a.slotOf[m.pin] = m.to
		a.grid.Occupy(m.to, m.pin)
		after += a.hpwl(m.pin, m.to)
	}
	a.pending = append(a.pending[:0], moves...)
	a.pendingDelta = after - before
	return a.pendingDelta
}

// Perturb applies one random perturbation and returns its cost delta. ok is
// false when nothing moved. Every successful Perturb must be followed by
// Accept or Reject.
func (a *Annealer) Perturb() (delta int64, ok bool) {
	if a.rng.Float64() < a.opts.SwapPins {
		if d, ok := a.swapPins(); ok {
			return d, true
		}
	}
	return a.movePin()
}

// Accept keeps the last perturbation.
func (a *Annealer) Accept() {
	a.cost += a.pendingDelta
	a.pending = a.pending[:0]
	a.pendingDelta = 0
}

// Reject undoes the last perturbation, restoring bindings and slot state.
func (a *Annealer) Reject() {
	for _, m := range a.pending {
		a.grid.Release(m.to)
	}
	for _, m := range a.pending {
		a.slotOf[m.pin] = m.from
		if m.from >= 0 {
			a.grid.Occupy(m.from, m.pin)
		}
	}
	a.pending = a.pending[:0]
	a.pendingDelta = 0
}

func (a *Annealer) swapPins() (int64, bool) {
	if len(a.lone) < 2 {
		return 0, false
	}
	p1 := a.lone[a.rng.Intn(len(a.lone))]
	pool := a.freeLone
	if ci := a.constraintOf(p1); ci >= 0 {
		pool = a.consLone[ci]
	}
	if len(pool) < 2 {
		return 0, false
	}
	p2 := p1
	for try := 0; try < 8 && p2 == p1; try++ {
		p2 = pool[a.rng.Intn(len(pool))]
	}
	if p2 == p1 {
		return 0, false
	}
	s1, s2 := a.slotOf[p1], a.slotOf[p2]
	return a.apply([]move{{pin: p1, from: s1, to: s2}, {pin: p2, from: s2, to: s1}}), true
}

func (a *Annealer) movePin() (int64, bool) {
	if len(a.pins) == 0 {
		return 0, false
	}
	pin := a.pins[a.rng.Intn(len(a.pins))]
	if p := a.nl.Pin(pin); p.InGroup {
		return a.moveGroup(p.GroupIdx)
	}
	if partner := a.nl.MirrorIndex(pin); partner >= 0 && a.nl.Pin(partner).InGroup {
		return a.moveGroup(a.nl.Pin(partner).GroupIdx)
	}
	slot, ok := a.randomSlot(pin, false)
	if !ok {
		return 0, false
	}
	return a.apply(a.pinMoves(pin, slot)), true
}

// moveGroup relocates a whole group, either to a fresh run or by sliding it.
// The group's own slots count as free while searching.
func (a *Annealer) moveGroup(grp int) (int64, bool) {
	var (
		members = a.nl.Group(grp).Pins
		cur     = a.slotOf[members[0]]
		held    []int
	)
	for _, p := range members {
		cur = min(cur, a.slotOf[p])
		held = append(held, p)
		if partner := a.nl.MirrorIndex(p); partner >= 0 {
			held = append(held, partner)
		}
	}
	for _, p := range held {
		a.grid.Release(a.slotOf[p])
	}

	var start int
	if a.rng.Float64() < a.opts.GroupToFreeSlots {
		start = a.sampleGroupStart(grp, false)
	} else {
		start = a.shiftStart(grp, cur)
	}

	for _, p := range held {
		a.grid.Occupy(a.slotOf[p], p)
	}
	if start < 0 || start == cur {
		return 0, false
	}
	return a.apply(a.groupMoves(grp, start)), true
}

// shiftStart slides the group at cur by a random amount up to its size,
// trying one direction and then the other.
func (a *Annealer) shiftStart(grp, cur int) int {
	var (
		size   = len(a.nl.Group(grp).Pins)
		amount = 1 + a.rng.Intn(size)
		dir    = 1
	)
	if a.rng.Intn(2) == 0 {
		dir = -1
	}
	for _, d := range []int{dir, -dir} {
		s := cur + d*amount
		if s >= 0 && s < a.grid.Len() && a.groupFits(grp, s) {
			return s
		}
	}
	return -1
}

// Run anneals for the configured number of cooling steps, seeding a random
// assignment first if none exists.
//
// Complexity: O(MaxIterations · PerturbPerIter · k) for k sinks per moved pin.
func (a *Annealer) Run() error {
	if !a.ready {
		if err := a.RandomAssignment(); err != nil {
			return err
		}
	}
	perIter := a.opts.PerturbPerIter
	if perIter == 0 {
		perIter = int(0.8*float64(len(a.lone))) + 10*len(a.groups)
	}
	perIter = max(perIter, 1)

	temperature := a.opts.Temperature
	for iter := 0; iter < a.opts.MaxIterations; iter++ {
		for j := 0; j < perIter; j++ {
			delta, ok := a.Perturb()
			if !ok {
				continue
			}
			if delta <= 0 || math.Exp(-float64(delta)/temperature) > a.rng.Float64() {
				a.Accept()
			} else {
				a.Reject()
			}
		}
		temperature *= a.opts.Alpha
		a.logger.Debug("annealing iteration",
			zap.Int("iteration", iter),
			zap.Float64("temperature", temperature),
			zap.Int64("cost", a.cost))
	}
	return nil
}

// Assignment writes the bindings into the pins.
func (a *Annealer) Assignment() {
	for _, p := range a.pins {
		s := a.slotOf[p]
		if s < 0 {
			continue
		}
		slot := a.grid.At(s)
		pin := a.nl.Pin(p)
		pin.Pos = slot.Pos
		pin.Layer = slot.Layer
		pin.Edge = slot.Edge
		pin.Placed = true
	}
}

// Cost returns the tracked wirelength of the annealed pins.
func (a *Annealer) Cost() int64 { return a.cost }

// Recompute sums the wirelength of the annealed pins from scratch.
func (a *Annealer) Recompute() int64 {
	var total int64
	for _, p := range a.pins {
		if s := a.slotOf[p]; s >= 0 {
			total += a.hpwl(p, s)
		}
	}
	return total
}

// SlotOf returns the slot currently bound to pin, or -1.
func (a *Annealer) SlotOf(pin int) int { return a.slotOf[pin] }
