// Package anneal refines a pin assignment by simulated annealing.
//
// The annealer starts from a random legal assignment and repeatedly
// perturbs it:
//
//   - swap two lone pins (constrained pins only inside their constraint),
//   - move one pin to a random free slot (a mirrored partner follows),
//   - move a group to a fresh contiguous run, or shift it in place.
//
// Only the wirelength of the pins a perturbation touched is re-evaluated.
// A perturbation is kept when it does not increase the cost, or with
// probability exp(−Δ/T) otherwise; a rejected one is undone exactly from
// its move log. T cools geometrically by Alpha after every iteration.
//
// All randomness comes from the *rand.Rand handed to New, so a fixed seed
// reproduces a run bit for bit.
//
// Complexity: O(MaxIterations · PerturbPerIter · s) where s is the sink count
// of the perturbed pins.
package anneal
