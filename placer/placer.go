package placer

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/katalvlaran/pinplace/anneal"
	"github.com/katalvlaran/pinplace/constraint"
	"github.com/katalvlaran/pinplace/netlist"
	"github.com/katalvlaran/pinplace/pinshape"
	"github.com/katalvlaran/pinplace/slots"
)

// Placer runs pin placement for one design. Every run starts from the design
// again, so a Placer can be run repeatedly.
type Placer struct {
	design *Design
	opts   Options
	logger *zap.Logger
}

// New validates opts and returns a placer for design. logger may be nil.
func New(design *Design, opts Options, logger *zap.Logger) (*Placer, error) {
	if design == nil || design.Region.Empty() {
		return nil, errors.Wrap(ErrBadDesign, "empty region")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Placer{design: design, opts: opts, logger: logger}, nil
}

// run is the mutable state of one placement run.
type run struct {
	opts   Options
	logger *zap.Logger
	nl     *netlist.Netlist
	grid   *slots.Grid
	reg    *constraint.Registry
	mfg    int
}

// prepare builds the netlist, the slot grid and the resolved constraints.
func (p *Placer) prepare() (*run, error) {
	m, err := buildModel(p.design, p.logger)
	if err != nil {
		return nil, err
	}
	g, err := slots.Generate(p.design.Region, p.design.Layers, p.opts.slotOptions(m.fixed))
	if err != nil {
		return nil, errors.Wrap(err, "slot grid")
	}
	if err = m.reg.Resolve(g); err != nil {
		return nil, errors.Wrap(err, "constraints")
	}
	r := &run{opts: p.opts, logger: p.logger, nl: m.nl, grid: g, reg: m.reg, mfg: p.design.ManufacturingGrid}
	for ci := 0; ci < m.reg.Len(); ci++ {
		c := m.reg.At(ci)
		p.logger.Debug("constraint resolved",
			zap.String("name", c.Name),
			zap.Int("slots", c.NumSlots),
			zap.Int("ranges", len(c.Ranges)),
			zap.Float64("pins_per_slot", c.PinsPerSlot),
			zap.Int("mirrored_pins", c.MirroredPins))
	}

	available := g.Available()
	if n := m.nl.NumIOPins(); n > available {
		return nil, errors.Wrapf(ErrTooManyPins, "%d pins, %d available slots", n, available)
	}
	p.logger.Info("placement setup",
		zap.Int("available_slots", available),
		zap.Int("pins", m.nl.NumIOPins()),
		zap.Int("pins_with_sinks", m.nl.NumIOPins()-m.nl.ZeroSinkPins()),
		zap.Int("pins_without_sinks", m.nl.ZeroSinkPins()),
		zap.Int("fixed_pins", m.numFixed),
		zap.Int("groups", len(m.nl.Groups())),
		zap.Int("constraints", m.reg.Len()))
	return r, nil
}

// degenerate reports a design without slack: every available slot is
// needed, so sections cannot trade pins.
func (r *run) degenerate() bool {
	return r.nl.NumIOPins() > 0 && r.grid.Available() == r.nl.NumIOPins()
}

// Run places every pin. Annealing is used in random mode and for designs
// without slack; the Hungarian flow otherwise. On success the placement file
// is written when one is configured.
func (p *Placer) Run(ctx context.Context) (*Result, error) {
	r, err := p.prepare()
	if err != nil {
		return nil, err
	}
	var res *Result
	if p.opts.RandomMode || r.degenerate() {
		res, err = r.annealing(ctx)
	} else {
		res, err = r.hungarian(ctx)
	}
	if err != nil {
		return nil, err
	}
	if p.opts.PinPlacementFile != "" {
		if err = writeFile(p.opts.PinPlacementFile, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// RunHungarian places every pin with section partitioning and exact
// per-section assignment.
func (p *Placer) RunHungarian(ctx context.Context) (*Result, error) {
	r, err := p.prepare()
	if err != nil {
		return nil, err
	}
	return r.hungarian(ctx)
}

// RunAnnealing places every pin with simulated annealing.
func (p *Placer) RunAnnealing(ctx context.Context) (*Result, error) {
	r, err := p.prepare()
	if err != nil {
		return nil, err
	}
	return r.annealing(ctx)
}

func (r *run) annealing(ctx context.Context) (*Result, error) {
	a, err := anneal.New(r.nl, r.grid, r.reg, r.opts.annealOptions(), anneal.NewRand(r.opts.RandomSeed), r.logger)
	if err != nil {
		return nil, errors.Wrap(err, "annealing")
	}
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	if err = a.Run(); err != nil {
		return nil, errors.Wrap(err, "annealing")
	}
	a.Assignment()
	return r.finish(Annealing)
}

// finish shapes the pins, checks the placement and builds the result.
func (r *run) finish(strategy Strategy) (*Result, error) {
	var (
		unplaced []string
		fallback int
	)
	for i := 0; i < r.nl.NumIOPins(); i++ {
		p := r.nl.Pin(i)
		if p.InFallback {
			fallback++
		}
		if !p.Placed {
			unplaced = append(unplaced, p.Name)
			r.logger.Warn("pin not placed",
				zap.String("pin", p.Name),
				zap.Bool("assigned_to_section", p.AssignedToSection),
				zap.Bool("in_fallback", p.InFallback))
		}
	}
	if len(unplaced) > 0 {
		return nil, errors.Wrapf(ErrUnplacedPins, "%d of %d pins: %v", len(unplaced), r.nl.NumIOPins(), unplaced)
	}

	pinshape.NewFinalizer(r.grid, r.opts.shapeOptions(r.mfg), r.logger).Finalize(r.nl)
	if err := r.check(); err != nil {
		return nil, err
	}

	res := &Result{
		Placements: make([]Placement, 0, r.nl.NumIOPins()),
		HPWL:       r.nl.TotalHPWL(),
		Strategy:   strategy,
	}
	for _, p := range r.nl.Pins() {
		res.Placements = append(res.Placements, Placement{
			Name:        p.Name,
			Pos:         p.Pos,
			Layer:       p.Layer,
			Edge:        p.Edge,
			Orientation: p.Orientation,
			Lower:       p.Lower,
			Upper:       p.Upper,
		})
	}
	r.logger.Info("pins placed",
		zap.String("strategy", string(strategy)),
		zap.Int("pins", len(res.Placements)),
		zap.Int("fallback_pins", fallback),
		zap.Int64("hpwl", res.HPWL))
	return res, nil
}

func writeFile(path string, res *Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err = WritePinPlacement(f, res); err != nil {
		f.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
