package netlist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pinplace/geom"
	"github.com/katalvlaran/pinplace/netlist"
)

type onlyBottom struct{}

func (onlyBottom) CheckSlotForPin(_ int, edge geom.Edge, _ geom.Point) bool {
	return edge == geom.Bottom
}

func build(t *testing.T) *netlist.Netlist {
	t.Helper()
	nl := netlist.New()
	_, err := nl.AddIONet(netlist.NewIOPin("a", geom.Pt(0, 0), geom.Input),
		[]netlist.InstancePin{{Name: "u1/A", Pos: geom.Pt(100, 100)}, {Name: "u2/A", Pos: geom.Pt(300, 50)}})
	require.NoError(t, err)
	_, err = nl.AddIONet(netlist.NewIOPin("b", geom.Pt(0, 0), geom.Output), nil)
	require.NoError(t, err)
	_, err = nl.AddIONet(netlist.NewIOPin("c", geom.Pt(0, 0), geom.Output),
		[]netlist.InstancePin{{Name: "u3/Z", Pos: geom.Pt(500, 500)}})
	require.NoError(t, err)
	return nl
}

func TestAddIONetCSR(t *testing.T) {
	nl := build(t)
	require.Equal(t, 3, nl.NumIOPins())
	assert.Len(t, nl.SinksOf(0), 2)
	assert.Empty(t, nl.SinksOf(1))
	assert.Equal(t, "u3/Z", nl.SinksOf(2)[0].Name)
	assert.Equal(t, 1, nl.ZeroSinkPins())

	idx, ok := nl.IndexOf("c")
	assert.True(t, ok)
	assert.Equal(t, 2, idx)

	_, err := nl.AddIONet(netlist.NewIOPin("a", geom.Pt(0, 0), geom.Input), nil)
	assert.ErrorIs(t, err, netlist.ErrDuplicatePin)
}

func TestComputeIONetHPWL(t *testing.T) {
	nl := build(t)
	// bbox (0,0)-(300,100)
	assert.Equal(t, 400, nl.ComputeIONetHPWL(0, geom.Pt(0, 0)))
	// inside the sink bbox
	assert.Equal(t, 250, nl.ComputeIONetHPWL(0, geom.Pt(200, 80)))
	assert.Equal(t, 0, nl.ComputeIONetHPWL(1, geom.Pt(10, 10)))

	assert.Equal(t, netlist.Infeasible, nl.ComputeIONetHPWLChecked(0, geom.Pt(0, 500), geom.Left, onlyBottom{}))
	assert.Equal(t, 400, nl.ComputeIONetHPWLChecked(0, geom.Pt(0, 0), geom.Bottom, onlyBottom{}))
	assert.Equal(t, 400, nl.ComputeIONetHPWLChecked(0, geom.Pt(0, 0), geom.Left, nil))

	nl.Pin(2).Pos = geom.Pt(500, 0)
	assert.Equal(t, int64(400+0+500), nl.TotalHPWL())
}

func TestCreateIOGroup(t *testing.T) {
	nl := build(t)

	n, err := nl.CreateIOGroup([]string{"a", "zz"}, false)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, nl.Groups())
	assert.False(t, nl.Pin(0).InGroup)

	n, err = nl.CreateIOGroup([]string{"a", "b"}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, nl.Pin(1).InGroup)
	assert.Equal(t, 0, nl.Pin(1).GroupIdx)

	_, err = nl.CreateIOGroup([]string{"b", "c"}, false)
	assert.ErrorIs(t, err, netlist.ErrPinInTwoGroups)

	_, err = nl.CreateIOGroup([]string{"c", "c"}, false)
	assert.ErrorIs(t, err, netlist.ErrPinInTwoGroups)
	assert.False(t, nl.Pin(2).InGroup)
	assert.Len(t, nl.Groups(), 1)

	assert.Equal(t, []int{2}, nl.LonePins())

	// Order reverses; top/left edges reverse again.
	assert.Equal(t, []int{1, 0}, nl.SortGroupForEdge(0, geom.Bottom))
	assert.Equal(t, []int{0, 1}, nl.SortGroupForEdge(0, geom.Top))
}

func TestSetMirrored(t *testing.T) {
	nl := build(t)
	require.NoError(t, nl.SetMirrored(0, 2))
	assert.Equal(t, 2, nl.MirrorIndex(0))
	assert.Equal(t, 0, nl.MirrorIndex(2))
	assert.Equal(t, -1, nl.MirrorIndex(1))

	// re-declaring the same pair is harmless
	assert.NoError(t, nl.SetMirrored(2, 0))

	assert.ErrorIs(t, nl.SetMirrored(0, 1), netlist.ErrBadMirror)
	assert.ErrorIs(t, nl.SetMirrored(1, 1), netlist.ErrBadMirror)
	assert.ErrorIs(t, nl.SetMirrored(1, 9), netlist.ErrPinIndex)
}
