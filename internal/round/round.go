// Package round implements the round driver: it consumes a decimated
// stream in setSize-byte windows, invokes the external IID battery once
// per window, accumulates per-test tallies, persists incremental results,
// and honors early-fail. See spec.md section 4.E.
package round

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/teronlabs/decimate/internal/battery"
	"github.com/teronlabs/decimate/internal/decimate"
	"github.com/teronlabs/decimate/internal/store"
	"github.com/teronlabs/decimate/pkg/fs"
)

// ScratchFileName is the deterministic per-round scratch path, per spec.md
// section 5.
const ScratchFileName = "temp_test_decimated_file.bin"

// MaxFailsFunc computes the cutoff for a given number of tests; normally
// cutoff.MaxFails, passed as a func so this package doesn't need to import
// cutoff for the single call site.
type MaxFailsFunc func(numTests int) int

// Config configures one call to Run.
type Config struct {
	DecimatedPath string
	ScratchDir    string
	ResultsPath   string
	Overwrite     bool
	Platform      string
	Dec           int
	NumTests      int
	SetSize       int
	FailEarly     bool
	IIDTestsArgs  string
	MaxFails      MaxFailsFunc
	Battery       battery.Battery
}

// Outcome is the accumulated result of running Config.NumTests rounds (or
// fewer, if FailEarly stopped the loop early).
type Outcome struct {
	Record  store.Record
	Failed  bool
	Aborted bool // true if FailEarly or a cancelled ctx stopped the loop before NumTests rounds
}

func validate(cfg Config) error {
	if cfg.SetSize < 1 {
		return fmt.Errorf("%w: setSize %d must be >= 1", decimate.ErrInvalidArgument, cfg.SetSize)
	}

	if cfg.NumTests < 0 {
		return fmt.Errorf("%w: numTests %d must be >= 0", decimate.ErrInvalidArgument, cfg.NumTests)
	}

	if cfg.Battery == nil {
		return fmt.Errorf("%w: battery is required", decimate.ErrInvalidArgument)
	}

	if cfg.MaxFails == nil {
		return fmt.Errorf("%w: maxFails is required", decimate.ErrInvalidArgument)
	}

	return nil
}

// Run executes Config.NumTests rounds against the decimated file,
// persisting results through internal/store after every round so a crash
// mid-run loses at most the in-flight round.
func Run(ctx context.Context, fsys fs.FS, cfg Config, filename, datestamp string) (Outcome, error) {
	if err := validate(cfg); err != nil {
		return Outcome{}, err
	}

	rec := store.NewRecord(cfg.Dec, cfg.Platform, filename, datestamp)

	scratchPath := filepath.Join(cfg.ScratchDir, ScratchFileName)
	defer fsys.Remove(scratchPath) //nolint:errcheck // best-effort cleanup

	in, err := fsys.Open(cfg.DecimatedPath)
	if err != nil {
		return Outcome{}, fmt.Errorf("round: open decimated file: %w", err)
	}
	defer in.Close()

	outcome := Outcome{Record: rec}

	for i := 0; i < cfg.NumTests; i++ {
		if err := ctx.Err(); err != nil {
			outcome.Aborted = true

			return outcome, nil
		}

		if err := writeWindow(fsys, in, scratchPath, cfg.SetSize); err != nil {
			return Outcome{}, err
		}

		verdicts, err := cfg.Battery.Run(ctx, battery.BuildArgs(cfg.IIDTestsArgs, scratchPath))
		if err != nil {
			return Outcome{}, fmt.Errorf("round: battery invocation %d: %w", i, err)
		}

		roundPassed := true

		for name, verdict := range verdicts {
			tally := outcome.Record.PassList[name]
			tally.Totals++

			if verdict == "pass" {
				tally.Passes++
			} else {
				roundPassed = false
			}

			outcome.Record.SetTally(name, tally)
		}

		outcome.Record.RoundTotal++
		if roundPassed {
			outcome.Record.RoundPass++
		}

		outcome.Failed = roundFailed(outcome.Record, cfg.NumTests, cfg.MaxFails)

		if err := persist(fsys, cfg, outcome.Record, i == 0); err != nil {
			return Outcome{}, err
		}

		if cfg.FailEarly && outcome.Failed {
			outcome.Aborted = true

			break
		}
	}

	return outcome, nil
}

// roundFailed reports whether any test's fails exceed MaxFails(numTests),
// numTests being the fixed requested round count rather than the rounds
// executed so far, per spec.md section 4.E step 2d.
func roundFailed(rec store.Record, numTests int, maxFails MaxFailsFunc) bool {
	cutoff := maxFails(numTests)

	for _, tally := range rec.PassList {
		if tally.Totals-tally.Passes > cutoff {
			return true
		}
	}

	return false
}

func persist(fsys fs.FS, cfg Config, rec store.Record, firstRound bool) error {
	if firstRound {
		if err := store.Append(fsys, cfg.ResultsPath, cfg.Overwrite, rec); err != nil {
			return fmt.Errorf("round: persist: %w", err)
		}

		return nil
	}

	if err := store.OverwriteLast(fsys, cfg.ResultsPath, rec); err != nil {
		return fmt.Errorf("round: persist: %w", err)
	}

	return nil
}

// writeWindow copies exactly setSize bytes from in to a fresh scratch
// file at scratchPath. ErrInsufficientInput is returned, wrapping
// decimate.ErrInsufficientInput, if in ends before setSize bytes are read.
func writeWindow(fsys fs.FS, in fs.File, scratchPath string, setSize int) error {
	buf := make([]byte, setSize)

	n, err := readFull(in, buf)
	if err != nil {
		return fmt.Errorf("round: read window: %w", err)
	}

	if n < setSize {
		return fmt.Errorf("%w: window needs %d bytes, only %d available", decimate.ErrInsufficientInput, setSize, n)
	}

	scratch, err := fsys.Create(scratchPath)
	if err != nil {
		return fmt.Errorf("round: create scratch file: %w", err)
	}
	defer scratch.Close()

	if _, err := scratch.Write(buf); err != nil {
		return fmt.Errorf("round: write scratch file: %w", err)
	}

	if err := scratch.Sync(); err != nil {
		return fmt.Errorf("round: sync scratch file: %w", err)
	}

	return nil
}

// readFull reads up to len(buf) bytes from in, stopping early on EOF or
// any other read error. The caller distinguishes a short read from a full
// one by comparing the returned count against len(buf).
func readFull(in fs.File, buf []byte) (int, error) {
	total := 0

	for total < len(buf) {
		n, err := in.Read(buf[total:])
		total += n

		if n == 0 || err != nil {
			break
		}
	}

	return total, nil
}
