package placer

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/katalvlaran/pinplace/hungarian"
	"github.com/katalvlaran/pinplace/section"
	"github.com/katalvlaran/pinplace/slots"
)

// hungarian runs the sectioned flow.
//
// Stages:
//  1. groups larger than a section go straight to a free run (fallback);
//  2. each constraint is partitioned on its own slot ranges and solved;
//  3. the remaining pins are partitioned over the whole grid and solved;
//  4. pins are shaped and checked.
func (r *run) hungarian(ctx context.Context) (*Result, error) {
	// Stage 1
	var big []int
	for gi, g := range r.nl.Groups() {
		if len(g.Pins) > r.opts.SlotsPerSection {
			r.logger.Debug("group larger than a section, placing in fallback mode",
				zap.Int("size", len(g.Pins)))
			big = append(big, gi)
		}
	}
	if err := r.placeFallbackGroups(big); err != nil {
		return nil, err
	}

	// Stage 2
	cons := r.opts.sectionOptions()
	cons.UsageFactor = 1
	for ci := 0; ci < r.reg.Len(); ci++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c := r.reg.At(ci)
		pins, groups := r.pending(c.Pins, c.Groups)
		if len(pins) == 0 && len(groups) == 0 {
			continue
		}
		part := section.NewPartitioner(r.nl, r.grid, r.reg, cons, r.logger)
		if err := r.partitionAndSolve(ctx, part, c.Ranges, pins, groups); err != nil {
			return nil, errors.Wrapf(err, "constraint %q", c.Name)
		}
		r.grid.CommitBlocked()
	}

	// Stage 3
	var all []int
	for i := 0; i < r.nl.NumIOPins(); i++ {
		all = append(all, i)
	}
	allGroups := make([]int, len(r.nl.Groups()))
	for gi := range allGroups {
		allGroups[gi] = gi
	}
	pins, groups := r.pending(all, allGroups)
	if len(pins) > 0 || len(groups) > 0 {
		part := section.NewPartitioner(r.nl, r.grid, r.reg, r.opts.sectionOptions(), r.logger)
		if err := r.partitionAndSolve(ctx, part, r.grid.Ranges(), pins, groups); err != nil {
			return nil, err
		}
	}

	// Stage 4
	return r.finish(Hungarian)
}

// pending filters pins and groups down to the unplaced ones.
func (r *run) pending(pins, groups []int) ([]int, []int) {
	var outPins, outGroups []int
	for _, p := range pins {
		if !r.nl.Pin(p).Placed {
			outPins = append(outPins, p)
		}
	}
	for _, g := range groups {
		if !r.nl.Pin(r.nl.Group(g).Pins[0]).Placed {
			outGroups = append(outGroups, g)
		}
	}
	return outPins, outGroups
}

// partitionAndSolve partitions pins and groups over ranges and solves every
// section. Groups no section could take are placed in fallback mode and the
// partitioning is redone for what is left.
func (r *run) partitionAndSolve(ctx context.Context, part *section.Partitioner, ranges []slots.Range, pins, groups []int) error {
	for {
		res, err := part.SetupSections(ranges, pins, groups)
		if err != nil {
			return errors.Wrap(err, "sections")
		}
		if len(res.Fallback) == 0 {
			return r.solve(ctx, res.Sections)
		}
		if err = r.placeFallbackGroups(res.Fallback); err != nil {
			return err
		}
		pins, groups = r.pending(pins, groups)
		if len(pins) == 0 && len(groups) == 0 {
			return nil
		}
	}
}

// solve assigns the pins of every section.
//
// Groups and mirrored pins touch slots outside their own section and are
// committed one section at a time. The remaining pins only read their own
// section, so those matchings are computed concurrently and committed in
// section order afterwards.
func (r *run) solve(ctx context.Context, sections []section.Section) error {
	matchings := make([]*hungarian.Matching, len(sections))
	for i := range sections {
		matchings[i] = hungarian.NewMatching(&sections[i], r.nl, r.grid, r.reg, r.logger)
	}

	for i, m := range matchings {
		if _, err := m.AssignGroups(); err != nil {
			return errors.Wrapf(err, "section %d", i)
		}
	}

	for i, m := range matchings {
		var mirrored []int
		for _, p := range sections[i].Pins {
			if r.nl.Pin(p).Mirrored {
				mirrored = append(mirrored, p)
			}
		}
		if len(mirrored) == 0 {
			continue
		}
		if err := m.FindAssignment(mirrored); err != nil {
			return errors.Wrapf(err, "section %d", i)
		}
		if _, err := m.Commit(); err != nil {
			return errors.Wrapf(err, "section %d", i)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(matchings))
	)
	for i := range matchings {
		var lone []int
		for _, p := range sections[i].Pins {
			if !r.nl.Pin(p).Mirrored {
				lone = append(lone, p)
			}
		}
		wg.Add(1)
		go func(i int, pins []int) {
			defer wg.Done()
			errs[i] = matchings[i].FindAssignment(pins)
		}(i, lone)
	}
	wg.Wait()

	for i, m := range matchings {
		if errs[i] != nil {
			return errors.Wrapf(errs[i], "section %d", i)
		}
		if _, err := m.Commit(); err != nil {
			return errors.Wrapf(err, "section %d", i)
		}
	}
	return nil
}
