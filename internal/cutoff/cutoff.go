// Package cutoff implements the acceptance threshold used when rolling up
// per-test pass/fail outcomes across a level's rounds: the maximum number of
// rounds any single IID test may fail, out of n rounds, while the level still
// counts as an overall pass.
//
// The table is a fixed step function of the number of rounds n, derived
// from (and reproduced rather than recomputed from) a binomial inverse over
// the target false-accept rate. See spec.md section 4.D.
package cutoff

// threshold pairs a round-count lower bound with the max-fails value that
// applies at and above it. Entries are in descending order of minTests;
// MaxFails returns the first entry whose bound n reaches.
type threshold struct {
	minTests int
	maxFails int
}

var table = []threshold{
	{1330 + 1, 7},
	{953, 6},
	{622, 5},
	{348, 4},
	{147, 3},
	{32, 2},
	{2, 1},
	{0, 0},
}

// MaxFails returns the maximum number of rounds, out of n rounds, that any
// single test may fail while the level is still recorded as an overall pass.
// n is clamped to 0 for negative input.
func MaxFails(n int) int {
	if n < 0 {
		n = 0
	}

	for _, t := range table {
		if n >= t.minTests {
			return t.maxFails
		}
	}

	return 0
}
