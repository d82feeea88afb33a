// Package constraint keeps the edge interval constraints of a run and answers
// whether a pin may sit at a given boundary position.
//
// A constraint names its pins explicitly or selects every pin of one
// direction. Explicit lists are resolved first; a direction constraint only
// takes the pins nobody claimed. Intervals on one edge may not overlap unless
// they sit on different layers.
//
// After Resolve, each constraint knows its slot span per layer (Ranges): one
// contiguous index run inside every edge block of its interval. Anything that
// places pins of a constraint works on those runs, never on the span from the
// first to the last constrained slot, which crosses layer blocks.
package constraint
