package slots_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/katalvlaran/pinplace/geom"
	"github.com/katalvlaran/pinplace/slots"
)

var testLayers = []slots.Layer{
	{Index: 1, Horizontal: false, Pitch: 10},
	{Index: 2, Horizontal: true, Pitch: 10},
}

var square = geom.NewRect(0, 0, 1000, 1000)

type GridSuite struct {
	suite.Suite
	grid *slots.Grid
}

func (s *GridSuite) SetupTest() {
	g, err := slots.Generate(square, testLayers, slots.DefaultOptions())
	require.NoError(s.T(), err)
	s.grid = g
}

func (s *GridSuite) TestWalkOrder() {
	g := s.grid
	// step 20, one step of corner avoidance: coordinates 20..980 on each edge.
	require.Equal(s.T(), 4*49, g.Len())
	require.Len(s.T(), g.Ranges(), 4)

	s.Equal(geom.Pt(20, 0), g.At(0).Pos)
	s.Equal(geom.Pt(980, 0), g.At(48).Pos)
	s.Equal(geom.Pt(1000, 20), g.At(49).Pos)
	s.Equal(geom.Pt(980, 1000), g.At(98).Pos)
	s.Equal(geom.Pt(20, 1000), g.At(146).Pos)
	s.Equal(geom.Pt(0, 980), g.At(147).Pos)
	s.Equal(geom.Pt(0, 20), g.At(195).Pos)

	for i := 0; i < g.Len(); i++ {
		sl := g.At(i)
		s.Equal(square.EdgeOf(sl.Pos), sl.Edge, "slot %d", i)
		s.Equal(slots.EdgeOwner(sl.Edge), sl.Owner)
		if sl.Edge.Horizontal() {
			s.Equal(1, sl.Layer)
		} else {
			s.Equal(2, sl.Layer)
		}
	}
}

func (s *GridSuite) TestLookups() {
	g := s.grid
	i, ok := g.IndexByPosition(geom.Pt(500, 0), 1)
	s.Require().True(ok)
	s.Equal(24, i)

	_, ok = g.IndexByPosition(geom.Pt(500, 0), 2)
	s.False(ok)

	m, ok := g.MirrorIndex(0)
	s.Require().True(ok)
	s.Equal(98, m)
	back, ok := g.MirrorIndex(m)
	s.Require().True(ok)
	s.Equal(0, back)

	r := g.RangeOf(60)
	s.Equal(geom.Right, r.Edge)
	s.Equal(49, r.Begin)
	s.Equal(97, r.End)

	r, ok = g.EdgeRange(geom.Left, 2)
	s.True(ok)
	s.Equal(147, r.Begin)
	_, ok = g.EdgeRange(geom.Left, 1)
	s.False(ok)
}

func (s *GridSuite) TestRunsAndCommit() {
	g := s.grid
	s.Equal(196, g.Available())

	g.Occupy(2, 7)
	s.Equal(slots.PinOwner(7), g.At(2).Owner)
	pin, ok := g.At(2).Owner.PinIndex()
	s.True(ok)
	s.Equal(7, pin)

	s.False(g.IsFreeRun(0, 3, false))
	s.True(g.IsFreeRun(3, 3, false))
	// run may not cross the bottom/right boundary
	s.False(g.IsFreeRun(47, 3, false))
	s.Equal(46, g.MaxContiguous(0, 48))

	start, ok := g.FirstFreeRun(0, 48, 3, false)
	s.True(ok)
	s.Equal(3, start)

	// mirror of bottom slot i is top slot 98+i.
	g.Occupy(101, 8)
	start, ok = g.FirstFreeRun(0, 48, 3, true)
	s.True(ok)
	s.Equal(4, start)

	g.Release(101)
	s.Equal(slots.EdgeOwner(geom.Top), g.At(101).Owner)

	g.CommitBlocked()
	s.True(g.At(2).Blocked)
	s.Equal(195, g.Available())
}

func TestGridSuite(t *testing.T) {
	suite.Run(t, new(GridSuite))
}

func TestGenerateBlockagesAndExclusions(t *testing.T) {
	opts := slots.DefaultOptions()
	opts.Blockages = []slots.Blockage{{Rect: geom.NewRect(1000, 0, 1000, 500), Layer: -1}}
	opts.Excluded = []geom.Interval{geom.NewInterval(geom.Bottom, 0, 1000, -1)}

	g, err := slots.Generate(square, testLayers, opts)
	require.NoError(t, err)

	bottom, ok := g.EdgeRange(geom.Bottom, 1)
	require.True(t, ok)
	for i := bottom.Begin; i <= bottom.End; i++ {
		assert.True(t, g.At(i).Blocked, "bottom slot %d", i)
	}
	assert.Equal(t, 0, g.MaxContiguous(bottom.Begin, bottom.End))

	right, _ := g.EdgeRange(geom.Right, 2)
	blockedRight := 0
	for i := right.Begin; i <= right.End; i++ {
		if g.At(i).Blocked {
			blockedRight++
		}
	}
	// y = 20..500
	assert.Equal(t, 25, blockedRight)
	assert.Equal(t, 196-49-25, g.Available())
}

func TestGenerateSpacing(t *testing.T) {
	opts := slots.DefaultOptions()
	opts.MinDistance = 45
	opts.CornerAvoidance = 0
	g, err := slots.Generate(geom.NewRect(0, 0, 100, 100), testLayers, opts)
	require.NoError(t, err)
	// ceil(45/10)*10 = 50 → 0, 50, 100 per edge.
	bottom, _ := g.EdgeRange(geom.Bottom, 1)
	assert.Equal(t, 3, bottom.Len())

	opts.MinDistance = 3
	opts.MinDistanceInTracks = true
	opts.BoundaryOffset = 5
	g, err = slots.Generate(geom.NewRect(0, 0, 100, 100), testLayers, opts)
	require.NoError(t, err)
	// step 30, usable span 5..95 → 30, 60, 90
	bottom, _ = g.EdgeRange(geom.Bottom, 1)
	require.Equal(t, 3, bottom.Len())
	assert.Equal(t, geom.Pt(30, 0), g.At(bottom.Begin).Pos)
}

func TestGenerateThicknessTruncates(t *testing.T) {
	layers := []slots.Layer{
		{Index: 1, Pitch: 10, MinWidth: 10},
		{Index: 2, Horizontal: true, Pitch: 10},
	}
	opts := slots.DefaultOptions()
	opts.VerticalThicknessMultiplier = 1.5
	opts.BoundaryOffset = 13
	g, err := slots.Generate(square, layers, opts)
	require.NoError(t, err)
	// half width 5 × 1.5 = 7; usable span 20..980 plus one corner step
	bottom, _ := g.EdgeRange(geom.Bottom, 1)
	assert.Equal(t, geom.Pt(40, 0), g.At(bottom.Begin).Pos)
	assert.Equal(t, geom.Pt(960, 0), g.At(bottom.End).Pos)
	assert.Equal(t, 47, bottom.Len())
}

func TestGenerateNumTracks(t *testing.T) {
	layers := []slots.Layer{
		{Index: 1, Pitch: 10, NumTracks: 11},
		{Index: 2, Horizontal: true, Pitch: 10},
	}
	g, err := slots.Generate(square, layers, slots.DefaultOptions())
	require.NoError(t, err)
	// tracks 0..100, step 20 → k in [1, 5-1]
	bottom, _ := g.EdgeRange(geom.Bottom, 1)
	assert.Equal(t, 4, bottom.Len())
}

func TestGenerateErrors(t *testing.T) {
	_, err := slots.Generate(geom.NewRect(0, 0, 0, 10), testLayers, slots.DefaultOptions())
	assert.ErrorIs(t, err, slots.ErrBadRegion)

	_, err = slots.Generate(square, []slots.Layer{{Index: 1, Pitch: 0}}, slots.DefaultOptions())
	assert.ErrorIs(t, err, slots.ErrBadPitch)

	_, err = slots.Generate(square, testLayers[:1], slots.DefaultOptions())
	assert.ErrorIs(t, err, slots.ErrMissingLayer)

	_, err = slots.Generate(square, append([]slots.Layer{{Index: 2, Pitch: 5}}, testLayers...), slots.DefaultOptions())
	assert.ErrorIs(t, err, slots.ErrDuplicateLayer)

	opts := slots.DefaultOptions()
	opts.MinDistance = -1
	opts.MinDistanceInTracks = true
	_, err = slots.Generate(square, testLayers, opts)
	assert.ErrorIs(t, err, slots.ErrBadStep)
}
