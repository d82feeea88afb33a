// Package hungarian assigns pins to slots optimally inside one section.
//
// 🚀 What it does
//
//   - Solve: rectangular min-cost assignment (Kuhn–Munkres with row/column
//     potentials) over a gonum matrix; rows are slots, columns are pins.
//   - Matching: builds the cost matrix of a section (wirelength of each pin
//     at each free slot, plus the partner's wirelength for mirrored pins),
//     solves it and commits the result to the netlist and the slot grid.
//   - Groups: each group becomes one virtual column whose rows are the
//     starting slots of a free contiguous run; the chosen block is expanded
//     back into member bindings.
//
// ⚙️ Costs
//
// Cells that would violate a constraint or land a mirror on an unusable slot
// cost netlist.Infeasible. The solver never prefers such a cell while a
// feasible alternative exists; when it has to pick one anyway the commit
// goes through and a warning is logged.
//
// 🧵 Concurrency
//
// FindAssignment only reads the grid and the netlist, so independent
// sections can be solved in parallel. Commit and AssignGroups write and must
// run one at a time.
//
// Complexity: Solve is O(c²·r) for r rows and c columns.
package hungarian
