// Package slots builds the slot grid: every legal boundary position a pin may
// occupy, generated on the routing tracks of each layer along each edge of the
// placement region.
//
// The grid is an arena. Slots are addressed by index everywhere else in the
// module and are mutated only through Grid methods, so a run owns exactly one
// copy of the placement state.
//
// Walk order:
//
//   - Bottom, left to right
//   - Right, bottom to top
//   - Top, right to left
//   - Left, top to bottom
//
// Within an edge there is one contiguous block per layer, in layer order. Each
// block is described by a Range; neighbouring indices inside a Range are
// neighbouring positions on the boundary, which is what makes contiguous runs
// (pin groups) cheap to test.
//
// Pin-to-pin distance ("step") on a layer:
//
//	MinDistance == 0          → 2 × pitch
//	MinDistanceInTracks       → MinDistance × pitch
//	otherwise                 → ceil(MinDistance / pitch) × pitch
//
// Complexity: generation is O(S + S·B) for S slots and B blockages plus
// excluded intervals; position lookups are O(1) through a hash index.
package slots
