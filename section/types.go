package section

import (
	"errors"

	"github.com/katalvlaran/pinplace/geom"
)

// Soft limits. Exceeding them is legal but makes the assignment matrices
// large; SetupSections logs a warning.
const (
	SoftMaxSections        = 600
	SoftMaxSlotsPerSection = 600
)

var (
	// ErrSectionsDiverged indicates the growth loop never found room for
	// every pin.
	ErrSectionsDiverged = errors.New("section: section setup did not converge")

	// ErrBadOptions indicates non-positive sizes or factors.
	ErrBadOptions = errors.New("section: invalid options")
)

// Section is a run of consecutive slots on one edge and layer, used to split
// one large assignment problem into many small ones.
type Section struct {
	// Pos is the position of the middle slot, the section's proxy for cost.
	Pos       geom.Point
	Edge      geom.Edge
	Layer     int
	BeginSlot int
	EndSlot   int
	// NumSlots counts free slots at creation time.
	NumSlots  int
	UsedSlots int
	MaxSlots  int
	// MirrorPairs counts free slots whose reflection is free too, at
	// creation; each mirrored pin placed here or reflected here uses one.
	MirrorPairs int

	Pins   []int
	Groups []int

	groupSlots int
	pairsUsed  int
	exclusive  bool
}

// Free returns how many more pins the section accepts.
func (s *Section) Free() int { return s.MaxSlots - s.UsedSlots }

// Options drives partitioning.
type Options struct {
	SlotsPerSection    int
	SlotsGrowthFactor  float64
	UsageFactor        float64
	UsageGrowthFactor  float64
	ForcePinSpread     bool
	MaxSetupIterations int
}

// DefaultOptions returns the partitioning defaults.
func DefaultOptions() Options {
	return Options{
		SlotsPerSection:    200,
		SlotsGrowthFactor:  1.5,
		UsageFactor:        0.8,
		UsageGrowthFactor:  1.2,
		ForcePinSpread:     true,
		MaxSetupIterations: 12,
	}
}

// Validate rejects options that would stall the growth loop.
func (o Options) Validate() error {
	switch {
	case o.SlotsPerSection <= 0,
		o.UsageFactor <= 0,
		o.SlotsGrowthFactor < 1,
		o.UsageGrowthFactor < 1,
		o.MaxSetupIterations <= 0:
		return ErrBadOptions
	}
	return nil
}

// Result is the outcome of one partitioning pass.
type Result struct {
	Sections []Section
	// Fallback lists groups no section could hold.
	Fallback []int
	// Unassigned lists pins left over when capacity ran out.
	Unassigned []int
}
