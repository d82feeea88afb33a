package placer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/pinplace/anneal"
	"github.com/katalvlaran/pinplace/geom"
	"github.com/katalvlaran/pinplace/pinshape"
	"github.com/katalvlaran/pinplace/section"
	"github.com/katalvlaran/pinplace/slots"
)

// AnnealingOptions is the annealing block of the configuration.
type AnnealingOptions struct {
	Temperature    float64 `yaml:"temperature" toml:"temperature"`
	MaxIterations  int     `yaml:"max_iterations" toml:"max_iterations"`
	PerturbPerIter int     `yaml:"perturb_per_iter" toml:"perturb_per_iter"`
	Alpha          float64 `yaml:"alpha" toml:"alpha"`
}

// BlockageOption forbids slots inside Rect on the listed layers; no layers
// means all of them.
type BlockageOption struct {
	Rect   geom.Rect `yaml:"rect" toml:"rect"`
	Layers []int     `yaml:"layers" toml:"layers"`
}

// ExcludedRegion forbids the open interval (Begin, End) of Edge on the listed
// layers; no layers means all of them.
type ExcludedRegion struct {
	Edge   geom.Edge `yaml:"edge" toml:"edge"`
	Begin  int       `yaml:"begin" toml:"begin"`
	End    int       `yaml:"end" toml:"end"`
	Layers []int     `yaml:"layers" toml:"layers"`
}

// Options is the flat configuration surface of a placement run.
type Options struct {
	SlotsPerSection   int     `yaml:"slots_per_section" toml:"slots_per_section"`
	SlotsGrowthFactor float64 `yaml:"slots_growth_factor" toml:"slots_growth_factor"`
	UsageFactor       float64 `yaml:"usage_factor" toml:"usage_factor"`
	UsageGrowthFactor float64 `yaml:"usage_growth_factor" toml:"usage_growth_factor"`
	ForcePinSpread    bool    `yaml:"force_pin_spread" toml:"force_pin_spread"`
	RandomSeed        int64   `yaml:"random_seed" toml:"random_seed"`
	RandomMode        bool    `yaml:"random_mode" toml:"random_mode"`

	HorizontalLength              int     `yaml:"horizontal_length" toml:"horizontal_length"`
	VerticalLength                int     `yaml:"vertical_length" toml:"vertical_length"`
	HorizontalLengthExtend        int     `yaml:"horizontal_length_extend" toml:"horizontal_length_extend"`
	VerticalLengthExtend          int     `yaml:"vertical_length_extend" toml:"vertical_length_extend"`
	HorizontalThicknessMultiplier float64 `yaml:"horizontal_thickness_multiplier" toml:"horizontal_thickness_multiplier"`
	VerticalThicknessMultiplier   float64 `yaml:"vertical_thickness_multiplier" toml:"vertical_thickness_multiplier"`

	CornerAvoidance     int  `yaml:"corner_avoidance" toml:"corner_avoidance"`
	BoundaryOffset      int  `yaml:"boundary_offset" toml:"boundary_offset"`
	MinDistance         int  `yaml:"min_distance" toml:"min_distance"`
	MinDistanceInTracks bool `yaml:"min_distance_in_tracks" toml:"min_distance_in_tracks"`

	Blockages        []BlockageOption `yaml:"blockages" toml:"blockages"`
	ExcludedRegions  []ExcludedRegion `yaml:"excluded_regions" toml:"excluded_regions"`
	PinPlacementFile string           `yaml:"pin_placement_file" toml:"pin_placement_file"`

	Annealing AnnealingOptions `yaml:"annealing" toml:"annealing"`
}

// DefaultOptions returns the defaults every configuration file is layered on.
func DefaultOptions() Options {
	var (
		so = section.DefaultOptions()
		ao = anneal.DefaultOptions()
		po = pinshape.DefaultOptions()
	)
	return Options{
		SlotsPerSection:               so.SlotsPerSection,
		SlotsGrowthFactor:             so.SlotsGrowthFactor,
		UsageFactor:                   so.UsageFactor,
		UsageGrowthFactor:             so.UsageGrowthFactor,
		ForcePinSpread:                so.ForcePinSpread,
		HorizontalLength:              po.HorizontalLength,
		VerticalLength:                po.VerticalLength,
		HorizontalLengthExtend:        po.HorizontalLengthExtend,
		VerticalLengthExtend:          po.VerticalLengthExtend,
		HorizontalThicknessMultiplier: 1,
		VerticalThicknessMultiplier:   1,
		CornerAvoidance:               -1,
		Annealing: AnnealingOptions{
			Temperature:    ao.Temperature,
			MaxIterations:  ao.MaxIterations,
			PerturbPerIter: ao.PerturbPerIter,
			Alpha:          ao.Alpha,
		},
	}
}

// Validate checks every option range, including those of the underlying
// components.
func (o Options) Validate() error {
	switch {
	case o.HorizontalThicknessMultiplier <= 0, o.VerticalThicknessMultiplier <= 0:
		return errors.Wrap(ErrBadOptions, "thickness multipliers must be positive")
	case o.MinDistance < 0:
		return errors.Wrap(ErrBadOptions, "min_distance must not be negative")
	case o.CornerAvoidance < -1:
		return errors.Wrap(ErrBadOptions, "corner_avoidance must be -1 or more")
	case o.BoundaryOffset < 0:
		return errors.Wrap(ErrBadOptions, "boundary_offset must not be negative")
	}
	for i, x := range o.ExcludedRegions {
		if !x.Edge.Valid() {
			return errors.Wrapf(ErrBadOptions, "excluded_regions[%d]: invalid edge", i)
		}
	}
	if err := o.sectionOptions().Validate(); err != nil {
		return errors.Wrap(err, "sections")
	}
	if err := o.annealOptions().Validate(); err != nil {
		return errors.Wrap(err, "annealing")
	}
	return nil
}

// LoadOptions reads a YAML (.yaml, .yml) or TOML (.toml) file on top of
// DefaultOptions and validates the result.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, errors.Wrapf(err, "read options %s", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &opts)
	case ".toml":
		_, err = toml.Decode(string(data), &opts)
	default:
		return opts, errors.Wrapf(ErrUnknownFormat, "options %s", path)
	}
	if err != nil {
		return opts, errors.Wrapf(err, "decode options %s", path)
	}
	if err = opts.Validate(); err != nil {
		return opts, errors.Wrapf(err, "options %s", path)
	}
	return opts, nil
}

func (o Options) sectionOptions() section.Options {
	so := section.DefaultOptions()
	so.SlotsPerSection = o.SlotsPerSection
	so.SlotsGrowthFactor = o.SlotsGrowthFactor
	so.UsageFactor = o.UsageFactor
	so.UsageGrowthFactor = o.UsageGrowthFactor
	so.ForcePinSpread = o.ForcePinSpread
	return so
}

func (o Options) annealOptions() anneal.Options {
	ao := anneal.DefaultOptions()
	ao.Temperature = o.Annealing.Temperature
	ao.MaxIterations = o.Annealing.MaxIterations
	ao.PerturbPerIter = o.Annealing.PerturbPerIter
	ao.Alpha = o.Annealing.Alpha
	return ao
}

func (o Options) shapeOptions(manufacturingGrid int) pinshape.Options {
	return pinshape.Options{
		HorizontalLength:              o.HorizontalLength,
		VerticalLength:                o.VerticalLength,
		HorizontalLengthExtend:        o.HorizontalLengthExtend,
		VerticalLengthExtend:          o.VerticalLengthExtend,
		HorizontalThicknessMultiplier: o.HorizontalThicknessMultiplier,
		VerticalThicknessMultiplier:   o.VerticalThicknessMultiplier,
		ManufacturingGrid:             manufacturingGrid,
	}
}

// slotOptions expands layer lists into one entry per layer, or -1 for all.
func (o Options) slotOptions(extra []slots.Blockage) slots.Options {
	so := slots.DefaultOptions()
	so.MinDistance = o.MinDistance
	so.MinDistanceInTracks = o.MinDistanceInTracks
	so.CornerAvoidance = o.CornerAvoidance
	so.BoundaryOffset = o.BoundaryOffset
	so.HorizontalThicknessMultiplier = o.HorizontalThicknessMultiplier
	so.VerticalThicknessMultiplier = o.VerticalThicknessMultiplier

	layersOrAll := func(ls []int) []int {
		if len(ls) == 0 {
			return []int{-1}
		}
		return ls
	}
	for _, b := range o.Blockages {
		for _, l := range layersOrAll(b.Layers) {
			so.Blockages = append(so.Blockages, slots.Blockage{Rect: b.Rect, Layer: l})
		}
	}
	so.Blockages = append(so.Blockages, extra...)
	for _, x := range o.ExcludedRegions {
		for _, l := range layersOrAll(x.Layers) {
			so.Excluded = append(so.Excluded, geom.NewInterval(x.Edge, x.Begin, x.End, l))
		}
	}
	return so
}
