package reshuffle_test

import (
	"encoding/binary"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teronlabs/decimate/internal/codec"
	"github.com/teronlabs/decimate/internal/reshuffle"
	"github.com/teronlabs/decimate/pkg/fs"
)

func writeInput(t *testing.T, fsys fs.FS, path string, values []byte) {
	t.Helper()

	require.NoError(t, fsys.WriteFile(path, values, 0o644))
}

// TestReshuffle_S1SmallInput reproduces spec.md scenario S1 exactly: a
// 1-byte identity reshuffle at d=4, numSets=5, setSize=3.
func TestReshuffle_S1SmallInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fsys := fs.NewReal()

	input := []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 54, 57, 52, 53, 51, 58, 59, 50, 47, 42, 45, 43, 49, 44, 32, 39, 33, 35}
	inPath := filepath.Join(dir, "in.bin")
	outPath := filepath.Join(dir, "out.bin")
	writeInput(t, fsys, inPath, input)

	stats, err := reshuffle.Reshuffle(fsys, inPath, outPath, reshuffle.Options{
		Dec:         4,
		NumSets:     5,
		SetSize:     3,
		Transform:   codec.Identity,
		InputWidth:  1,
		OutputWidth: 1,
		Order:       binary.LittleEndian,
	})
	require.NoError(t, err)
	require.Equal(t, 2, stats.Rounds)
	require.Equal(t, 24, stats.DataNeeded)

	got, err := fsys.ReadFile(outPath)
	require.NoError(t, err)

	want := []byte{0, 4, 8, 57, 58, 42, 1, 5, 9, 52, 59, 45, 2, 6, 10, 53, 50, 43, 3, 7, 54, 51, 47, 49}
	require.Equal(t, want, got)
}

func TestReshuffle_InsufficientInput_LeavesOutputUntouched(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fsys := fs.NewReal()

	inPath := filepath.Join(dir, "in.bin")
	outPath := filepath.Join(dir, "out.bin")
	writeInput(t, fsys, inPath, []byte{1, 2, 3})

	_, err := reshuffle.Reshuffle(fsys, inPath, outPath, reshuffle.Options{
		Dec:         4,
		NumSets:     5,
		SetSize:     3,
		Transform:   codec.Identity,
		InputWidth:  1,
		OutputWidth: 1,
		Order:       binary.LittleEndian,
	})
	require.True(t, errors.Is(err, reshuffle.ErrInsufficientInput))

	exists, err := fsys.Exists(outPath)
	require.NoError(t, err)
	require.False(t, exists)

	tmpExists, err := fsys.Exists(outPath + ".reshuffle-tmp")
	require.NoError(t, err)
	require.False(t, tmpExists)
}

// TestReshuffle_PositionIsBijection checks invariant 1 from spec.md section
// 8: the position mapping covers every output slot in [0, dataNeeded)
// exactly once.
func TestReshuffle_PositionIsBijection(t *testing.T) {
	t.Parallel()

	const d, setSize, numSets = 5, 7, 13
	rounds := reshuffle.Rounds(numSets, d)
	dataNeeded := reshuffle.DataNeeded(d, rounds, setSize)

	seen := make([]bool, dataNeeded)

	for i := 0; i < dataNeeded; i++ {
		pos := reshuffle.Position(i, d, rounds, setSize)
		require.GreaterOrEqual(t, pos, 0)
		require.Lessf(t, pos, dataNeeded, "position %d out of range for i=%d", pos, i)
		require.Falsef(t, seen[pos], "position %d hit twice, second time by i=%d", pos, i)
		seen[pos] = true
	}

	for pos, ok := range seen {
		require.Truef(t, ok, "position %d never written", pos)
	}
}

func TestReshuffle_RejectsInvalidDec(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fsys := fs.NewReal()

	_, err := reshuffle.Reshuffle(fsys, filepath.Join(dir, "in.bin"), filepath.Join(dir, "out.bin"), reshuffle.Options{
		Dec:         0,
		NumSets:     1,
		SetSize:     1,
		Transform:   codec.Identity,
		InputWidth:  1,
		OutputWidth: 1,
		Order:       binary.LittleEndian,
	})
	require.Error(t, err)
}
