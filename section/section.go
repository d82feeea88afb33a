package section

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/katalvlaran/pinplace/netlist"
	"github.com/katalvlaran/pinplace/slots"
)

// CreateSections cuts every range into chunks of slotsPerSection slots.
// NumSlots counts the chunk's free slots and MaxSlots is NumSlots scaled by
// usage, capped at NumSlots. Chunks without a free slot are dropped.
//
// Complexity: O(total range length).
func CreateSections(g *slots.Grid, ranges []slots.Range, slotsPerSection int, usage float64) []Section {
	var out []Section
	for _, r := range ranges {
		for b := r.Begin; b <= r.End; b += slotsPerSection {
			e := min(b+slotsPerSection-1, r.End)
			free := 0
			for i := b; i <= e; i++ {
				if g.Free(i) {
					free++
				}
			}
			if free == 0 {
				continue
			}
			maxSlots := min(free, int(math.Floor(float64(free)*usage)))
			out = append(out, Section{
				Pos:         g.At((b + e) / 2).Pos,
				Edge:        r.Edge,
				Layer:       r.Layer,
				BeginSlot:   b,
				EndSlot:     e,
				NumSlots:    free,
				MaxSlots:    maxSlots,
				MirrorPairs: mirrorPairs(g, b, e),
			})
		}
	}
	return out
}

// mirrorPairs counts the free slots in [b, e] whose reflection is a free slot
// on the same layer.
func mirrorPairs(g *slots.Grid, b, e int) int {
	n := 0
	for i := b; i <= e; i++ {
		if !g.Free(i) {
			continue
		}
		if m, ok := g.MirrorIndex(i); ok && m != i && g.Free(m) {
			n++
		}
	}
	return n
}

// Partitioner assigns pins and groups to sections by wirelength.
type Partitioner struct {
	nl     *netlist.Netlist
	grid   *slots.Grid
	feas   netlist.Feasibility
	opts   Options
	logger *zap.Logger
}

// NewPartitioner builds a partitioner. feas may be nil; logger may be nil.
func NewPartitioner(nl *netlist.Netlist, g *slots.Grid, feas netlist.Feasibility, opts Options, logger *zap.Logger) *Partitioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Partitioner{nl: nl, grid: g, feas: feas, opts: opts, logger: logger}
}

type candidate struct {
	sec  int
	cost int
	ok   bool
}

// rank returns section indices ordered feasible first, then by cost, then by
// fill.
func rank(sections []Section, cost func(s *Section) (int, bool)) []candidate {
	out := make([]candidate, len(sections))
	for i := range sections {
		c, ok := cost(&sections[i])
		out[i] = candidate{sec: i, cost: c, ok: ok}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].ok != out[b].ok {
			return out[a].ok
		}
		if out[a].cost != out[b].cost {
			return out[a].cost < out[b].cost
		}
		return sections[out[a].sec].UsedSlots < sections[out[b].sec].UsedSlots
	})
	return out
}

// mirrorSection returns the section holding the reflection of sec's middle
// slot, or -1.
func (p *Partitioner) mirrorSection(sections []Section, sec int) int {
	s := &sections[sec]
	m, ok := p.grid.MirrorIndex((s.BeginSlot + s.EndSlot) / 2)
	if !ok {
		return -1
	}
	k := sort.Search(len(sections), func(i int) bool { return sections[i].EndSlot >= m })
	if k < len(sections) && sections[k].BeginSlot <= m {
		return k
	}
	return -1
}

// pinCost is the wirelength of pin at the section proxy plus, for a mirrored
// pin, the partner's wirelength at the reflected proxy. ok is false when
// either may not sit in the section, or when a mirrored pin finds no mirror
// pair left.
func (p *Partitioner) pinCost(pin int, s *Section) (int, bool) {
	c := p.nl.ComputeIONetHPWLChecked(pin, s.Pos, s.Edge, p.feas)
	if c >= netlist.Infeasible {
		return 0, false
	}
	if partner := p.nl.MirrorIndex(pin); partner >= 0 {
		if s.pairsUsed >= s.MirrorPairs {
			return 0, false
		}
		mp := p.grid.Region().Mirror(s.Pos)
		mc := p.nl.ComputeIONetHPWLChecked(partner, mp, s.Edge.Opposite(), p.feas)
		if mc >= netlist.Infeasible {
			return 0, false
		}
		c += mc
	}
	return c, true
}

// AssignPinsSections distributes groups, then mirrored pins, then the
// remaining pins over sections. It mutates sections and never touches pin
// state; Commit records a successful result.
//
// Stages:
//  1. each group goes to the cheapest section with enough capacity and
//     contiguous room; groups larger than half a section take it alone;
//  2. mirrored pins go to the cheapest section that still has a free mirror
//     pair and whose mirror section still has capacity, reserving a slot
//     there for the partner;
//  3. the rest go to the cheapest section with capacity left.
//
// With ForcePinSpread unset only the cheapest section is tried and the first
// failure ends stage 3.
//
// Complexity: O((G+P)·S·log S) for G groups, P pins and S sections.
func (p *Partitioner) AssignPinsSections(sections []Section, pins, groups []int) Result {
	res := Result{Sections: sections}
	claimed := make(map[int]struct{})

	// Stage 1
	for _, g := range groups {
		members := p.nl.Group(g).Pins
		k := len(members)
		order := rank(sections, func(s *Section) (int, bool) {
			total := 0
			for _, m := range members {
				c, ok := p.pinCost(m, s)
				if !ok {
					return 0, false
				}
				total += c
			}
			return total, true
		})
		placed := false
		for _, cand := range order {
			s := &sections[cand.sec]
			if !cand.ok {
				break
			}
			if p.groupFits(s, k) && p.reserveMirrored(sections, cand.sec, p.mirroredMembers(g)) {
				s.Groups = append(s.Groups, g)
				s.UsedSlots += k
				s.groupSlots += k
				if 2*k > s.NumSlots {
					s.exclusive = true
				}
				placed = true
				break
			}
			if !p.opts.ForcePinSpread {
				break
			}
		}
		if !placed {
			res.Fallback = append(res.Fallback, g)
		}
		for _, m := range members {
			claimed[m] = struct{}{}
			if partner := p.nl.MirrorIndex(m); partner >= 0 {
				claimed[partner] = struct{}{}
			}
		}
	}

	// Stage 2 and 3
	for _, mirroredPass := range []bool{true, false} {
		stop := false
		for _, pin := range pins {
			if _, ok := claimed[pin]; ok {
				continue
			}
			io := p.nl.Pin(pin)
			if io.InGroup || io.Placed || io.Mirrored != mirroredPass {
				continue
			}
			if stop {
				res.Unassigned = append(res.Unassigned, pin)
				continue
			}
			claimed[pin] = struct{}{}
			if io.Mirrored {
				claimed[io.MirrorIdx] = struct{}{}
			}
			if !p.assignPin(sections, pin, io.Mirrored) {
				res.Unassigned = append(res.Unassigned, pin)
				if !p.opts.ForcePinSpread && !mirroredPass {
					stop = true
				}
			}
		}
	}
	return res
}

// reserveMirrored books n mirror pairs of section sec and the partner slots
// in its mirror section. It books nothing and reports false when either side
// lacks room.
func (p *Partitioner) reserveMirrored(sections []Section, sec, n int) bool {
	if n == 0 {
		return true
	}
	s := &sections[sec]
	if s.pairsUsed+n > s.MirrorPairs {
		return false
	}
	ms := p.mirrorSection(sections, sec)
	if ms >= 0 && ms != sec && sections[ms].Free() < n {
		return false
	}
	s.pairsUsed += n
	if ms >= 0 && ms != sec {
		sections[ms].UsedSlots += n
		sections[ms].pairsUsed += n
	}
	return true
}

func (p *Partitioner) mirroredMembers(grp int) int {
	n := 0
	for _, m := range p.nl.Group(grp).Pins {
		if p.nl.Pin(m).Mirrored {
			n++
		}
	}
	return n
}

func (p *Partitioner) groupFits(s *Section, k int) bool {
	if s.exclusive || s.Free() < k {
		return false
	}
	if 2*k > s.NumSlots && len(s.Groups) > 0 {
		return false
	}
	return s.groupSlots+k <= p.grid.MaxContiguous(s.BeginSlot, s.EndSlot)
}

func (p *Partitioner) assignPin(sections []Section, pin int, mirrored bool) bool {
	order := rank(sections, func(s *Section) (int, bool) { return p.pinCost(pin, s) })
	for _, cand := range order {
		if !cand.ok {
			return false
		}
		s := &sections[cand.sec]
		if s.Free() > 0 {
			if !mirrored {
				s.Pins = append(s.Pins, pin)
				s.UsedSlots++
				return true
			}
			if p.reserveMirrored(sections, cand.sec, 1) {
				s.Pins = append(s.Pins, pin)
				s.UsedSlots++
				return true
			}
		}
		if !p.opts.ForcePinSpread {
			return false
		}
	}
	return false
}

// Commit flags every pin of res as assigned to a section.
func (p *Partitioner) Commit(res Result) {
	mark := func(pin int) {
		p.nl.Pin(pin).AssignedToSection = true
		if partner := p.nl.MirrorIndex(pin); partner >= 0 {
			p.nl.Pin(partner).AssignedToSection = true
		}
	}
	for i := range res.Sections {
		for _, pin := range res.Sections[i].Pins {
			mark(pin)
		}
		for _, g := range res.Sections[i].Groups {
			for _, m := range p.nl.Group(g).Pins {
				mark(m)
			}
		}
	}
}

// SetupSections repeats CreateSections and AssignPinsSections over ranges,
// growing usage and section size, until every pin fits.
func (p *Partitioner) SetupSections(ranges []slots.Range, pins, groups []int) (Result, error) {
	if err := p.opts.Validate(); err != nil {
		return Result{}, err
	}
	var (
		perSection = p.opts.SlotsPerSection
		usage      = p.opts.UsageFactor
	)
	for iter := 0; iter < p.opts.MaxSetupIterations; iter++ {
		sections := CreateSections(p.grid, ranges, perSection, usage)
		if len(sections) > SoftMaxSections {
			p.logger.Warn("number of sections above the recommended limit",
				zap.Int("sections", len(sections)), zap.Int("limit", SoftMaxSections))
		}
		if perSection > SoftMaxSlotsPerSection {
			p.logger.Warn("slots per section above the recommended limit",
				zap.Int("slots_per_section", perSection), zap.Int("limit", SoftMaxSlotsPerSection))
		}
		if usage > 1 {
			p.logger.Warn("section usage factor above 1", zap.Float64("usage", usage))
		}

		res := p.AssignPinsSections(sections, pins, groups)
		if len(res.Unassigned) == 0 {
			p.Commit(res)
			p.logger.Debug("sections ready",
				zap.Int("iteration", iter),
				zap.Int("sections", len(sections)),
				zap.Int("slots_per_section", perSection),
				zap.Float64("usage", usage))
			return res, nil
		}

		p.logger.Debug("growing sections",
			zap.Int("iteration", iter),
			zap.Int("unassigned", len(res.Unassigned)))
		usage *= p.opts.UsageGrowthFactor
		perSection = int(math.Ceil(float64(perSection) * p.opts.SlotsGrowthFactor))
	}
	return Result{}, fmt.Errorf("after %d iterations: %w", p.opts.MaxSetupIterations, ErrSectionsDiverged)
}
