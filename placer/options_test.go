package placer_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pinplace/geom"
	"github.com/katalvlaran/pinplace/placer"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadOptionsYAML(t *testing.T) {
	path := writeTemp(t, "ioplace.yaml", `
slots_per_section: 120
usage_factor: 0.5
random_seed: 42
corner_avoidance: 30
min_distance: 2
min_distance_in_tracks: true
excluded_regions:
  - {edge: top, begin: 0, end: 400}
  - {edge: Left, begin: 100, end: 200, layers: [2]}
blockages:
  - rect: {xmin: 0, ymin: 0, xmax: 100, ymax: 10}
annealing:
  max_iterations: 300
  alpha: 0.9
`)
	opts, err := placer.LoadOptions(path)
	require.NoError(t, err)

	assert.Equal(t, 120, opts.SlotsPerSection)
	assert.Equal(t, 0.5, opts.UsageFactor)
	assert.Equal(t, int64(42), opts.RandomSeed)
	assert.Equal(t, 30, opts.CornerAvoidance)
	assert.True(t, opts.MinDistanceInTracks)
	require.Len(t, opts.ExcludedRegions, 2)
	assert.Equal(t, geom.Top, opts.ExcludedRegions[0].Edge)
	assert.Equal(t, geom.Left, opts.ExcludedRegions[1].Edge)
	assert.Equal(t, []int{2}, opts.ExcludedRegions[1].Layers)
	require.Len(t, opts.Blockages, 1)
	assert.Equal(t, geom.NewRect(0, 0, 100, 10), opts.Blockages[0].Rect)
	assert.Equal(t, 300, opts.Annealing.MaxIterations)
	assert.Equal(t, 0.9, opts.Annealing.Alpha)

	// untouched keys keep their defaults
	def := placer.DefaultOptions()
	assert.Equal(t, def.SlotsGrowthFactor, opts.SlotsGrowthFactor)
	assert.Equal(t, def.ForcePinSpread, opts.ForcePinSpread)
	assert.Equal(t, def.Annealing.Temperature, opts.Annealing.Temperature)
}

func TestLoadOptionsTOML(t *testing.T) {
	path := writeTemp(t, "ioplace.toml", `
slots_per_section = 80
force_pin_spread = false
vertical_length = 40
pin_placement_file = "pins.tcl"

[[excluded_regions]]
edge = "bottom"
begin = 0
end = 500

[annealing]
temperature = 2.5
perturb_per_iter = 7
`)
	opts, err := placer.LoadOptions(path)
	require.NoError(t, err)

	assert.Equal(t, 80, opts.SlotsPerSection)
	assert.False(t, opts.ForcePinSpread)
	assert.Equal(t, 40, opts.VerticalLength)
	assert.Equal(t, "pins.tcl", opts.PinPlacementFile)
	require.Len(t, opts.ExcludedRegions, 1)
	assert.Equal(t, geom.Bottom, opts.ExcludedRegions[0].Edge)
	assert.Equal(t, 2.5, opts.Annealing.Temperature)
	assert.Equal(t, 7, opts.Annealing.PerturbPerIter)
	assert.Equal(t, placer.DefaultOptions().Annealing.Alpha, opts.Annealing.Alpha)
}

func TestLoadOptionsErrors(t *testing.T) {
	_, err := placer.LoadOptions(writeTemp(t, "ioplace.json", `{}`))
	assert.ErrorIs(t, err, placer.ErrUnknownFormat)

	_, err = placer.LoadOptions(writeTemp(t, "bad.yaml", "min_distance: -3\n"))
	assert.ErrorIs(t, err, placer.ErrBadOptions)

	_, err = placer.LoadOptions(writeTemp(t, "edge.yaml", "excluded_regions:\n  - {edge: middle}\n"))
	assert.Error(t, err)

	_, err = placer.LoadOptions(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadDesign(t *testing.T) {
	path := writeTemp(t, "design.yaml", `
region: {xmin: 0, ymin: 0, xmax: 1000, ymax: 1000}
manufacturing_grid: 5
layers:
  - {index: 1, pitch: 10, min_width: 0}
  - {index: 2, horizontal: true, pitch: 10}
pins:
  - name: a
    direction: input
    sinks:
      - {name: u1/A, pos: {x: 20, y: 5}}
  - name: b
    direction: output
    sinks:
      - {name: u2/Z, unplaced: true}
  - name: pad
    fixed: true
    layer: 1
    lower: {x: 495, y: 0}
    upper: {x: 505, y: 10}
groups:
  - {pins: [a, b], order: true}
constraints:
  - {name: west, pins: [a], edge: left, begin: 100, end: 900, layer: 2}
`)
	d, err := placer.LoadDesign(path)
	require.NoError(t, err)

	assert.Equal(t, geom.NewRect(0, 0, 1000, 1000), d.Region)
	assert.Equal(t, 5, d.ManufacturingGrid)
	require.Len(t, d.Layers, 2)
	assert.True(t, d.Layers[1].Horizontal)
	require.Len(t, d.Pins, 3)
	assert.True(t, d.Pins[1].Sinks[0].Unplaced)
	assert.True(t, d.Pins[2].Fixed)
	assert.True(t, d.Groups[0].Order)
	require.Len(t, d.Constraints, 1)
	assert.Equal(t, geom.Left, d.Constraints[0].Edge)
	require.NotNil(t, d.Constraints[0].Layer)
	assert.Equal(t, 2, *d.Constraints[0].Layer)

	_, err = placer.LoadDesign(writeTemp(t, "empty.yaml", "pins: []\n"))
	assert.ErrorIs(t, err, placer.ErrBadDesign)
}

func TestWritePinPlacement(t *testing.T) {
	res := &placer.Result{Placements: []placer.Placement{
		{Name: "left", Edge: geom.Left, Layer: 2, Lower: geom.Pt(0, 98), Upper: geom.Pt(10, 102)},
		{Name: "low", Edge: geom.Bottom, Layer: 1, Lower: geom.Pt(18, 0), Upper: geom.Pt(22, 30)},
	}}
	var buf bytes.Buffer
	require.NoError(t, placer.WritePinPlacement(&buf, res))
	assert.Equal(t, `#Edge: bottom
place_pin -pin_name low -layer 1 -location {20 15} -pin_size {4 30}
#Edge: right
#Edge: top
#Edge: left
place_pin -pin_name left -layer 2 -location {5 100} -pin_size {10 4}
`, buf.String())
}

func TestRunWritesPlacementFile(t *testing.T) {
	opts := placer.DefaultOptions()
	opts.PinPlacementFile = filepath.Join(t.TempDir(), "pins.tcl")
	p, err := placer.New(fourCorners(), opts, nil)
	require.NoError(t, err)
	_, err = p.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(opts.PinPlacementFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "place_pin -pin_name a -layer 1 -location {20 0}")
}

func TestShippedExample(t *testing.T) {
	opts, err := placer.LoadOptions("../examples/four_corners/ioplace.toml")
	require.NoError(t, err)
	d, err := placer.LoadDesign("../examples/four_corners/design.yaml")
	require.NoError(t, err)

	p, err := placer.New(d, opts, nil)
	require.NoError(t, err)
	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Placements, 11)
	layers := make(map[int]bool)
	for _, pl := range res.Placements {
		layers[pl.Layer] = true
		// the pad blocks (500, 0) on layer 1 only
		if pl.Layer == 1 {
			assert.NotEqual(t, geom.Pt(500, 0), pl.Pos, pl.Name)
		}
	}
	for l := range layers {
		assert.Contains(t, []int{1, 2, 3, 4}, l)
	}
}
