package placer

import (
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/pinplace/constraint"
	"github.com/katalvlaran/pinplace/geom"
	"github.com/katalvlaran/pinplace/netlist"
	"github.com/katalvlaran/pinplace/slots"
)

// Sink is an instance pin driven by or driving a boundary net. An unplaced
// sink is taken at the region centre.
type Sink struct {
	Name     string     `yaml:"name"`
	Pos      geom.Point `yaml:"pos"`
	Unplaced bool       `yaml:"unplaced"`
}

// Pin is a boundary terminal of the design. A fixed pin keeps its shape on
// Layer between Lower and Upper and blocks the slots under it.
type Pin struct {
	Name      string     `yaml:"name"`
	Direction string     `yaml:"direction"`
	NoNet     bool       `yaml:"no_net"`
	Fixed     bool       `yaml:"fixed"`
	Layer     int        `yaml:"layer"`
	Lower     geom.Point `yaml:"lower"`
	Upper     geom.Point `yaml:"upper"`
	Sinks     []Sink     `yaml:"sinks"`
}

// Group lists pins placed side by side; Order fills the block backward.
type Group struct {
	Pins  []string `yaml:"pins"`
	Order bool     `yaml:"order"`
}

// Mirror pairs two pins placed at reflected positions.
type Mirror struct {
	Pin    string `yaml:"pin"`
	Mirror string `yaml:"mirror"`
}

// Constraint confines pins, or every pin of a direction, to an edge interval
// or to the edge a region rectangle touches. A nil Layer means all layers.
type Constraint struct {
	Name      string     `yaml:"name"`
	Pins      []string   `yaml:"pins"`
	Direction string     `yaml:"direction"`
	Edge      geom.Edge  `yaml:"edge"`
	Begin     int        `yaml:"begin"`
	End       int        `yaml:"end"`
	Layer     *int       `yaml:"layer"`
	Region    *geom.Rect `yaml:"region"`
}

// Design is everything a run needs to know about the block.
type Design struct {
	Region            geom.Rect     `yaml:"region"`
	ManufacturingGrid int           `yaml:"manufacturing_grid"`
	Layers            []slots.Layer `yaml:"layers"`
	Pins              []Pin         `yaml:"pins"`
	Groups            []Group       `yaml:"groups"`
	Mirrors           []Mirror      `yaml:"mirrors"`
	Constraints       []Constraint  `yaml:"constraints"`
}

// LoadDesign reads a YAML design description.
func LoadDesign(path string) (*Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read design %s", path)
	}
	var d Design
	if err = yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrapf(err, "decode design %s", path)
	}
	if d.Region.Empty() {
		return nil, errors.Wrapf(ErrBadDesign, "design %s: empty region", path)
	}
	return &d, nil
}

// model is the run state derived from a design.
type model struct {
	nl       *netlist.Netlist
	reg      *constraint.Registry
	fixed    []slots.Blockage
	numFixed int
}

func pinDirection(p Pin, logger *zap.Logger) geom.Direction {
	if p.Direction == "" {
		return geom.Inout
	}
	dir, err := geom.ParseDirection(p.Direction)
	if err != nil || dir == geom.AnyDirection {
		logger.Warn("unknown pin direction, using inout",
			zap.String("pin", p.Name), zap.String("direction", p.Direction))
		return geom.Inout
	}
	return dir
}

// buildModel turns d into a netlist and a constraint registry. Problems a run
// can live with are logged and skipped; the rest are returned.
//
// Stages:
//  1. pins and nets (fixed pins become blockages, pins without a net are
//     dropped);
//  2. groups;
//  3. mirrored pairs;
//  4. constraints.
func buildModel(d *Design, logger *zap.Logger) (*model, error) {
	var (
		m = &model{nl: netlist.New()}
	)

	// Stage 1
	for _, p := range d.Pins {
		if p.Fixed {
			m.fixed = append(m.fixed, slots.Blockage{
				Rect:  geom.NewRect(p.Lower.X, p.Lower.Y, p.Upper.X, p.Upper.Y),
				Layer: p.Layer,
			})
			m.numFixed++
			continue
		}
		if p.NoNet {
			logger.Warn("pin without net", zap.String("pin", p.Name))
			continue
		}
		sinks := make([]netlist.InstancePin, 0, len(p.Sinks))
		for _, s := range p.Sinks {
			pos := s.Pos
			if s.Unplaced {
				pos = d.Region.Center()
			}
			sinks = append(sinks, netlist.InstancePin{Name: s.Name, Pos: pos})
		}
		if _, err := m.nl.AddIONet(netlist.NewIOPin(p.Name, geom.Point{}, pinDirection(p, logger)), sinks); err != nil {
			return nil, errors.Wrapf(err, "pin %q", p.Name)
		}
	}

	// Stage 2
	for i, g := range d.Groups {
		n, err := m.nl.CreateIOGroup(g.Pins, g.Order)
		if err != nil {
			return nil, errors.Wrapf(err, "group %d", i)
		}
		if n == 0 {
			logger.Warn("group names an unknown pin, skipped", zap.Int("group", i))
		}
	}

	// Stage 3
	for _, mp := range d.Mirrors {
		a, okA := m.nl.IndexOf(mp.Pin)
		b, okB := m.nl.IndexOf(mp.Mirror)
		if !okA || !okB {
			logger.Warn("mirrored pair names an unknown pin, skipped",
				zap.String("pin", mp.Pin), zap.String("mirror", mp.Mirror))
			continue
		}
		if err := m.nl.SetMirrored(a, b); err != nil {
			return nil, errors.Wrapf(err, "mirror %q/%q", mp.Pin, mp.Mirror)
		}
	}

	// Stage 4
	m.reg = constraint.NewRegistry(m.nl, d.Region)
	for _, c := range d.Constraints {
		dir := geom.AnyDirection
		if c.Direction != "" {
			parsed, err := geom.ParseDirection(c.Direction)
			if err != nil {
				logger.Warn("constraint skipped", zap.String("constraint", c.Name), zap.Error(err))
				continue
			}
			dir = parsed
		}
		layer := -1
		if c.Layer != nil {
			layer = *c.Layer
		}
		err := m.reg.Add(constraint.Constraint{
			Name:      c.Name,
			PinNames:  c.Pins,
			Direction: dir,
			Interval:  geom.NewInterval(c.Edge, c.Begin, c.End, layer),
			Region:    c.Region,
		})
		if err != nil {
			logger.Warn("constraint skipped", zap.String("constraint", c.Name), zap.Error(err))
		}
	}
	return m, nil
}
