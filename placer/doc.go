// Package placer drives a complete IO pin placement run.
//
// A run loads a Design (region, routing layers, pins with their sinks,
// groups, mirrored pairs, constraints) and Options (the flat configuration,
// read from YAML or TOML), then:
//
//  1. builds the netlist and the constraint registry; fixed pins become
//     blockages and pins without a net are dropped with a warning;
//  2. generates the slot grid and resolves the constraints on it;
//  3. assigns every pin, either with the sectioned Hungarian flow or with
//     simulated annealing;
//  4. shapes the pins and checks the placement.
//
// Soft problems are logged through zap and the run goes on. Anything that
// would leave pins unplaced or a placement illegal aborts the run with an
// error; no partial result is returned.
//
//	opts, err := placer.LoadOptions("ioplace.yaml")
//	design, err := placer.LoadDesign("design.yaml")
//	p, err := placer.New(design, opts, logger)
//	res, err := p.Run(ctx)
//	err = placer.WritePinPlacement(os.Stdout, res)
package placer
