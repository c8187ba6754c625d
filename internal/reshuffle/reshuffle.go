// Package reshuffle implements the decimating reshuffler: it reorders a
// stream of fixed-width input deltas so that class c = i mod d samples
// appear as a contiguous run, classes concatenated in class-index order.
// See spec.md section 4.B.
package reshuffle

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/teronlabs/decimate/internal/codec"
	"github.com/teronlabs/decimate/internal/decimate"
	"github.com/teronlabs/decimate/pkg/fs"
)

// ErrInsufficientInput is returned when fewer than dataNeeded deltas could
// be read from the input before it ended.
var ErrInsufficientInput = decimate.ErrInsufficientInput

// Options configures one reshuffle run.
type Options struct {
	// Dec is the decimation level d.
	Dec int
	// NumSets is the number of setSize windows requested across all
	// classes.
	NumSets int
	// SetSize is the size, in transformed samples, of one IID test window.
	SetSize int
	// Transform maps each raw input delta to an output sample.
	Transform codec.Transform
	// InputWidth is the byte width of one input delta.
	InputWidth int
	// OutputWidth is the byte width of one output sample.
	OutputWidth int
	// Order is the byte order used for both input and output encoding.
	Order binary.ByteOrder
}

// Stats reports the shape of a completed reshuffle.
type Stats struct {
	Rounds     int
	DataNeeded int
}

// Rounds returns ceil(numSets/dec).
func Rounds(numSets, dec int) int {
	if dec <= 0 {
		return 0
	}

	return (numSets + dec - 1) / dec
}

// DataNeeded returns dec*rounds*setSize, the number of input deltas a
// reshuffle at this decimation level consumes.
func DataNeeded(dec, rounds, setSize int) int {
	return dec * rounds * setSize
}

// Position maps input index i to its output slot under decimation level d,
// per spec.md section 3: (i mod d)*rounds*setSize + (i div d).
func Position(i, d, rounds, setSize int) int {
	return (i%d)*rounds*setSize + i/d
}

func validate(opts Options) error {
	if opts.Dec < 1 {
		return fmt.Errorf("%w: dec %d must be >= 1", decimate.ErrInvalidArgument, opts.Dec)
	}

	if opts.NumSets < 1 {
		return fmt.Errorf("%w: numSets %d must be >= 1", decimate.ErrInvalidArgument, opts.NumSets)
	}

	if opts.SetSize < 1 {
		return fmt.Errorf("%w: setSize %d must be >= 1", decimate.ErrInvalidArgument, opts.SetSize)
	}

	if err := codec.ValidateWidth(opts.InputWidth); err != nil {
		return err
	}

	if err := codec.ValidateWidth(opts.OutputWidth); err != nil {
		return err
	}

	if opts.Transform == nil {
		return fmt.Errorf("%w: transform is required", decimate.ErrInvalidArgument)
	}

	if opts.Order == nil {
		return fmt.Errorf("%w: byte order is required", decimate.ErrInvalidArgument)
	}

	return nil
}

// Reshuffle reads input deltas from inPath and writes the decimated,
// reordered output to outPath. It streams: the input is read once
// sequentially, and each transformed sample is written with a single
// positioned write to its destination slot, since the position mapping is
// a bijection onto [0, dataNeeded) and every output byte is written
// exactly once.
//
// On ErrInsufficientInput, outPath is left untouched: the reshuffler never
// leaves a partially written file a caller could mistake for a complete
// one.
func Reshuffle(fsys fs.FS, inPath, outPath string, opts Options) (Stats, error) {
	if err := validate(opts); err != nil {
		return Stats{}, err
	}

	rounds := Rounds(opts.NumSets, opts.Dec)
	dataNeeded := DataNeeded(opts.Dec, rounds, opts.SetSize)
	stats := Stats{Rounds: rounds, DataNeeded: dataNeeded}

	in, err := fsys.Open(inPath)
	if err != nil {
		return Stats{}, fmt.Errorf("reshuffle: open input: %w", err)
	}
	defer in.Close()

	reader := bufio.NewReaderSize(in, 64*1024)

	tmpPath := outPath + ".reshuffle-tmp"

	out, err := fsys.Create(tmpPath)
	if err != nil {
		return Stats{}, fmt.Errorf("reshuffle: create scratch output: %w", err)
	}

	cleanup := func() {
		out.Close()
		_ = fsys.Remove(tmpPath)
	}

	for i := 0; i < dataNeeded; i++ {
		raw, err := codec.ReadDelta(reader, opts.InputWidth, opts.Order)
		if err != nil {
			cleanup()

			return Stats{}, fmt.Errorf("%w: needed %d deltas, read %d: %v", ErrInsufficientInput, dataNeeded, i, err)
		}

		sample := opts.Transform(raw)
		pos := Position(i, opts.Dec, rounds, opts.SetSize)

		if _, err := out.Seek(int64(pos)*int64(opts.OutputWidth), io.SeekStart); err != nil {
			cleanup()

			return Stats{}, fmt.Errorf("reshuffle: seek output: %w", err)
		}

		if err := codec.WriteDelta(out, sample, opts.OutputWidth, opts.Order); err != nil {
			cleanup()

			return Stats{}, fmt.Errorf("reshuffle: write output: %w", err)
		}
	}

	if err := out.Sync(); err != nil {
		cleanup()

		return Stats{}, fmt.Errorf("reshuffle: sync output: %w", err)
	}

	if err := out.Close(); err != nil {
		_ = fsys.Remove(tmpPath)

		return Stats{}, fmt.Errorf("reshuffle: close output: %w", err)
	}

	if err := fsys.Rename(tmpPath, outPath); err != nil {
		_ = fsys.Remove(tmpPath)

		return Stats{}, fmt.Errorf("reshuffle: rename into place: %w", err)
	}

	return stats, nil
}
