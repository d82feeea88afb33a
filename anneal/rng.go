package anneal

import "math/rand"

// defaultSeed replaces a zero seed so that the default run is reproducible.
const defaultSeed int64 = 1

// NewRand returns the deterministic generator of a run.
// Policy: seed==0 ⇒ defaultSeed; otherwise the seed verbatim.
//
// A *rand.Rand is not safe for concurrent use; one run owns one generator.
//
// Complexity: O(1).
func NewRand(seed int64) *rand.Rand {
	s := seed
	if s == 0 {
		s = defaultSeed
	}
	return rand.New(rand.NewSource(s))
}

// shuffleInts is an in-place Fisher–Yates shuffle driven by rng.
//
// Complexity: O(n).
func shuffleInts(a []int, rng *rand.Rand) {
	var i, j int
	for i = len(a) - 1; i > 0; i-- {
		j = rng.Intn(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}

// permRange returns a shuffled 0..n-1.
//
// Complexity: O(n) time and space.
func permRange(n int, rng *rand.Rand) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	shuffleInts(p, rng)
	return p
}

// intBetween returns a uniform integer in [lo, hi].
func intBetween(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}
