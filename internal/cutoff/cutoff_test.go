package cutoff_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teronlabs/decimate/internal/cutoff"
)

// TestMaxFails_Boundaries checks every step boundary of the table in
// spec.md section 4.D bit for bit.
func TestMaxFails_Boundaries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		n    int
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{31, 1},
		{32, 2},
		{146, 2},
		{147, 3},
		{347, 3},
		{348, 4},
		{621, 4},
		{622, 5},
		{952, 5},
		{953, 6},
		{1330, 6},
		{1331, 7},
		{10000, 7},
	}

	for _, tc := range cases {
		require.Equalf(t, tc.want, cutoff.MaxFails(tc.n), "MaxFails(%d)", tc.n)
	}
}

func TestMaxFails_NegativeClampsToZero(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, cutoff.MaxFails(-5))
}
