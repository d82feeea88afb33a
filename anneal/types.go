package anneal

import "errors"

var (
	// ErrBadOptions indicates a non-positive temperature, iteration budget or
	// cooling factor outside (0, 1], or probabilities outside [0, 1].
	ErrBadOptions = errors.New("anneal: invalid options")

	// ErrNoFreeSlot indicates a pin that found no legal slot in its range.
	ErrNoFreeSlot = errors.New("anneal: no free slot for pin")

	// ErrNoRoomForGroup indicates a group that found no contiguous run.
	ErrNoRoomForGroup = errors.New("anneal: no contiguous slots for group")
)

// Options controls the annealing schedule.
type Options struct {
	// Temperature is the starting temperature.
	Temperature float64
	// MaxIterations is the number of cooling steps.
	MaxIterations int
	// PerturbPerIter is the number of perturbations per cooling step.
	// Zero derives it from the instance: 0.8 × lone pins + 10 × groups.
	PerturbPerIter int
	// Alpha is the geometric cooling factor.
	Alpha float64
	// SwapPins is the probability of trying a swap before a move.
	SwapPins float64
	// GroupToFreeSlots is the probability that a group move jumps to a new
	// run instead of shifting in place.
	GroupToFreeSlots float64
}

// DefaultOptions returns the default schedule.
func DefaultOptions() Options {
	return Options{
		Temperature:      1.0,
		MaxIterations:    2000,
		PerturbPerIter:   0,
		Alpha:            0.985,
		SwapPins:         0.5,
		GroupToFreeSlots: 0.5,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	switch {
	case o.Temperature <= 0,
		o.MaxIterations < 0,
		o.PerturbPerIter < 0,
		o.Alpha <= 0 || o.Alpha > 1,
		o.SwapPins < 0 || o.SwapPins > 1,
		o.GroupToFreeSlots < 0 || o.GroupToFreeSlots > 1:
		return ErrBadOptions
	}
	return nil
}

// move relocates one pin; from is -1 for a pin that had no slot yet.
type move struct {
	pin  int
	from int
	to   int
}
