package section_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/katalvlaran/pinplace/geom"
	"github.com/katalvlaran/pinplace/netlist"
	"github.com/katalvlaran/pinplace/section"
	"github.com/katalvlaran/pinplace/slots"
)

var region = geom.NewRect(0, 0, 1000, 1000)

func newGrid(t *testing.T) *slots.Grid {
	t.Helper()
	g, err := slots.Generate(region, []slots.Layer{
		{Index: 1, Pitch: 10},
		{Index: 2, Horizontal: true, Pitch: 10},
	}, slots.DefaultOptions())
	require.NoError(t, err)
	return g
}

// addPins registers n pins whose single sink sits at sink.
func addPins(t *testing.T, nl *netlist.Netlist, prefix string, n int, sink geom.Point) []int {
	t.Helper()
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		idx, err := nl.AddIONet(netlist.NewIOPin(fmt.Sprintf("%s%d", prefix, i), geom.Point{}, geom.Input),
			[]netlist.InstancePin{{Name: "u/A", Pos: sink}})
		require.NoError(t, err)
		out = append(out, idx)
	}
	return out
}

func smallOpts() section.Options {
	o := section.DefaultOptions()
	o.SlotsPerSection = 10
	return o
}

func TestCreateSections(t *testing.T) {
	g := newGrid(t)
	g.Block(0)
	secs := section.CreateSections(g, g.Ranges(), 10, 0.8)
	require.Len(t, secs, 20)

	first := secs[0]
	assert.Equal(t, geom.Bottom, first.Edge)
	assert.Equal(t, 0, first.BeginSlot)
	assert.Equal(t, 9, first.EndSlot)
	assert.Equal(t, 9, first.NumSlots)
	assert.Equal(t, 7, first.MaxSlots)
	assert.Equal(t, geom.Pt(100, 0), first.Pos)

	last := secs[4]
	assert.Equal(t, 40, last.BeginSlot)
	assert.Equal(t, 48, last.EndSlot)
	assert.Equal(t, 7, last.MaxSlots)

	assert.Equal(t, geom.Right, secs[5].Edge)
	assert.Equal(t, geom.Left, secs[19].Edge)

	// usage above one never exceeds the free slots
	for _, s := range section.CreateSections(g, g.Ranges(), 10, 3) {
		assert.Equal(t, s.NumSlots, s.MaxSlots)
	}
}

func TestAssignPinsNearestWithCapacity(t *testing.T) {
	g := newGrid(t)
	nl := netlist.New()
	pins := addPins(t, nl, "p", 9, geom.Pt(500, 10))

	p := section.NewPartitioner(nl, g, nil, smallOpts(), nil)
	secs := section.CreateSections(g, g.Ranges(), 10, 0.8)
	res := p.AssignPinsSections(secs, pins, nil)

	assert.Empty(t, res.Unassigned)
	assert.Equal(t, pins[:8], res.Sections[2].Pins)
	assert.Equal(t, 8, res.Sections[2].UsedSlots)
	// ties at x=300 and x=700 resolve to the earlier section
	assert.Equal(t, []int{pins[8]}, res.Sections[1].Pins)
	for _, pin := range pins {
		assert.False(t, nl.Pin(pin).AssignedToSection, "assign does not commit")
	}
}

func TestAssignPinsNoSpread(t *testing.T) {
	g := newGrid(t)
	nl := netlist.New()
	pins := addPins(t, nl, "p", 10, geom.Pt(500, 10))

	opts := smallOpts()
	opts.ForcePinSpread = false
	p := section.NewPartitioner(nl, g, nil, opts, nil)
	res := p.AssignPinsSections(section.CreateSections(g, g.Ranges(), 10, 0.8), pins, nil)
	assert.Equal(t, pins[8:], res.Unassigned)
}

func TestAssignGroups(t *testing.T) {
	g := newGrid(t)
	nl := netlist.New()
	small := addPins(t, nl, "s", 3, geom.Pt(100, 0))
	big := addPins(t, nl, "b", 6, geom.Pt(100, 0))
	other := addPins(t, nl, "o", 6, geom.Pt(100, 0))
	for _, grp := range [][]int{small, big, other} {
		names := make([]string, len(grp))
		for i, idx := range grp {
			names[i] = nl.Pin(idx).Name
		}
		n, err := nl.CreateIOGroup(names, false)
		require.NoError(t, err)
		require.Equal(t, len(grp), n)
	}

	opts := smallOpts()
	p := section.NewPartitioner(nl, g, nil, opts, nil)
	secs := section.CreateSections(g, g.Ranges(), 10, 1)
	res := p.AssignPinsSections(secs, nil, []int{0, 1, 2})

	assert.Empty(t, res.Fallback)
	assert.Equal(t, []int{0}, res.Sections[0].Groups)
	// group 1 needs more than half a section: it cannot join group 0
	assert.Equal(t, []int{1}, res.Sections[1].Groups)
	// group 2 cannot share with the exclusive group 1 either; the next
	// cheapest section is the lowest one on the left edge
	assert.Equal(t, []int{2}, res.Sections[19].Groups)
	assert.Equal(t, geom.Pt(0, 100), res.Sections[19].Pos)

	// a group that fits nowhere falls back
	wide := addPins(t, nl, "w", 12, geom.Pt(100, 0))
	names := make([]string, len(wide))
	for i, idx := range wide {
		names[i] = nl.Pin(idx).Name
	}
	_, err := nl.CreateIOGroup(names, false)
	require.NoError(t, err)
	res = p.AssignPinsSections(section.CreateSections(g, g.Ranges(), 10, 1), nil, []int{3})
	assert.Equal(t, []int{3}, res.Fallback)
}

func TestAssignFarGroup(t *testing.T) {
	g := newGrid(t)
	nl := netlist.New()
	// three members about 1e9 from their sinks sum past netlist.Infeasible
	far := addPins(t, nl, "f", 3, geom.Pt(500, 1_000_000_000))
	names := make([]string, len(far))
	for i, idx := range far {
		names[i] = nl.Pin(idx).Name
	}
	_, err := nl.CreateIOGroup(names, false)
	require.NoError(t, err)

	p := section.NewPartitioner(nl, g, nil, smallOpts(), nil)
	res := p.AssignPinsSections(section.CreateSections(g, g.Ranges(), 10, 1), nil, []int{0})
	assert.Empty(t, res.Fallback)
	for _, s := range res.Sections {
		if len(s.Groups) > 0 {
			assert.Equal(t, geom.Top, s.Edge)
		}
	}
}

func TestAssignMirroredReservesPartnerSection(t *testing.T) {
	g := newGrid(t)
	nl := netlist.New()
	a := addPins(t, nl, "a", 1, geom.Pt(500, 10))[0]
	b, err := nl.AddIONet(netlist.NewIOPin("b", geom.Point{}, geom.Input), nil)
	require.NoError(t, err)
	require.NoError(t, nl.SetMirrored(a, b))

	p := section.NewPartitioner(nl, g, nil, smallOpts(), nil)
	res := p.AssignPinsSections(section.CreateSections(g, g.Ranges(), 10, 0.8), []int{a, b}, nil)
	require.Empty(t, res.Unassigned)
	assert.Equal(t, []int{a}, res.Sections[2].Pins)
	// slot 24 mirrors to top slot 122, inside section 12 (slots 118..127)
	assert.Equal(t, 1, res.Sections[12].UsedSlots)
	assert.Empty(t, res.Sections[12].Pins)

	p.Commit(res)
	assert.True(t, nl.Pin(a).AssignedToSection)
	assert.True(t, nl.Pin(b).AssignedToSection)
}

// On a 300 wide region the pitch 14 layers put slots at 28..252, none of
// which reflects onto another slot.
func TestMirroredPinNeedsMirrorPair(t *testing.T) {
	g, err := slots.Generate(geom.NewRect(0, 0, 300, 300), []slots.Layer{
		{Index: 1, Pitch: 10},
		{Index: 2, Horizontal: true, Pitch: 10},
		{Index: 3, Pitch: 14},
		{Index: 4, Horizontal: true, Pitch: 14},
	}, slots.DefaultOptions())
	require.NoError(t, err)

	secs := section.CreateSections(g, g.Ranges(), 3, 1)
	for _, s := range secs {
		if s.Layer > 2 {
			assert.Zero(t, s.MirrorPairs, "layer %d slots %d..%d", s.Layer, s.BeginSlot, s.EndSlot)
		} else {
			assert.Equal(t, s.NumSlots, s.MirrorPairs, "layer %d slots %d..%d", s.Layer, s.BeginSlot, s.EndSlot)
		}
	}

	for _, spread := range []bool{true, false} {
		nl := netlist.New()
		a := addPins(t, nl, "a", 1, geom.Pt(56, 5))[0]
		b, err := nl.AddIONet(netlist.NewIOPin("b", geom.Point{}, geom.Input), nil)
		require.NoError(t, err)
		require.NoError(t, nl.SetMirrored(a, b))

		opts := section.DefaultOptions()
		opts.SlotsPerSection = 3
		opts.ForcePinSpread = spread
		p := section.NewPartitioner(nl, g, nil, opts, nil)
		res := p.AssignPinsSections(section.CreateSections(g, g.Ranges(), 3, 1), []int{a, b}, nil)
		require.Empty(t, res.Unassigned, "spread=%v", spread)

		// the layer 3 section at x=56 is cheaper but has no mirror pair
		var home section.Section
		for _, s := range res.Sections {
			if len(s.Pins) > 0 {
				home = s
			}
		}
		assert.Equal(t, []int{a}, home.Pins, "spread=%v", spread)
		assert.Equal(t, 1, home.Layer, "spread=%v", spread)
		assert.Equal(t, 0, home.BeginSlot, "spread=%v", spread)
	}
}

func TestSetupSectionsGrows(t *testing.T) {
	g := newGrid(t)
	nl := netlist.New()
	pins := addPins(t, nl, "p", 9, geom.Pt(500, 10))

	opts := smallOpts()
	opts.ForcePinSpread = false
	p := section.NewPartitioner(nl, g, nil, opts, nil)
	res, err := p.SetupSections(g.Ranges(), pins, nil)
	require.NoError(t, err)

	total := 0
	for _, s := range res.Sections {
		total += len(s.Pins)
		assert.LessOrEqual(t, s.UsedSlots, s.MaxSlots)
	}
	assert.Equal(t, 9, total)
	for _, pin := range pins {
		assert.True(t, nl.Pin(pin).AssignedToSection)
	}
}

func TestSetupSectionsDiverges(t *testing.T) {
	g := newGrid(t)
	nl := netlist.New()
	pins := addPins(t, nl, "p", g.Len()+4, geom.Pt(500, 10))

	opts := smallOpts()
	opts.MaxSetupIterations = 3
	p := section.NewPartitioner(nl, g, nil, opts, nil)
	_, err := p.SetupSections(g.Ranges(), pins, nil)
	assert.ErrorIs(t, err, section.ErrSectionsDiverged)
}

func TestSetupSectionsSoftLimitWarning(t *testing.T) {
	g := newGrid(t)
	nl := netlist.New()
	pins := addPins(t, nl, "p", 2, geom.Pt(500, 10))

	core, logs := observer.New(zap.WarnLevel)
	opts := smallOpts()
	opts.SlotsPerSection = 700
	p := section.NewPartitioner(nl, g, nil, opts, zap.New(core))
	_, err := p.SetupSections(g.Ranges(), pins, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("slots per section above the recommended limit").Len())

	opts.UsageFactor = 0
	_, err = section.NewPartitioner(nl, g, nil, opts, nil).SetupSections(g.Ranges(), pins, nil)
	assert.ErrorIs(t, err, section.ErrBadOptions)
}
