package search

import (
	"context"
	"encoding/binary"
	"fmt"
	"path/filepath"
	"time"

	"github.com/teronlabs/decimate/internal/battery"
	"github.com/teronlabs/decimate/internal/codec"
	"github.com/teronlabs/decimate/internal/decimate"
	"github.com/teronlabs/decimate/internal/reshuffle"
	"github.com/teronlabs/decimate/internal/round"
	"github.com/teronlabs/decimate/internal/store"
	"github.com/teronlabs/decimate/pkg/fs"
)

// DecimatedScratchName is the deterministic scratch path for the reshuffled
// file a search level tests against, per spec.md section 5.
const DecimatedScratchName = "temp_decimated_binary_search_data.bin"

// Clock returns the current time; injectable so tests get deterministic
// datestamps instead of depending on wall-clock time, the same role the
// teacher's internal/testutil.Clock plays for its own fuzz harness.
type Clock func() time.Time

// DatestampFormat matches the original implementation's
// str(datetime.datetime.now()) rendering closely enough to stay
// lexicographically sortable: "2006-01-02 15:04:05.000000".
const DatestampFormat = "2006-01-02 15:04:05.000000"

// Config configures one search or range-scan session.
type Config struct {
	Fsys fs.FS

	DeltaPath   string
	ResultsPath string
	ScratchDir  string
	Overwrite   bool
	Platform    string

	MaxDec            int
	MinDec            int
	DecMultiplier     int // stride s
	NumTestsRequested int
	SetSize           int
	InputDeltaBytes   int
	OutputDeltaBytes  int
	Transform         codec.Transform
	Order             binary.ByteOrder
	FailEarly         bool
	IIDTestsArgs      string
	Battery           battery.Battery
	MaxFails          round.MaxFailsFunc
	Clock             Clock
}

func (cfg Config) clock() time.Time {
	if cfg.Clock == nil {
		return time.Now()
	}

	return cfg.Clock()
}

func validate(cfg Config) error {
	if cfg.DecMultiplier < 1 {
		return fmt.Errorf("%w: decMultiplier %d must be >= 1", decimate.ErrInvalidArgument, cfg.DecMultiplier)
	}

	if cfg.MinDec < 1 || cfg.MaxDec < cfg.MinDec {
		return fmt.Errorf("%w: minDec=%d maxDec=%d must satisfy 1 <= minDec <= maxDec", decimate.ErrInvalidArgument, cfg.MinDec, cfg.MaxDec)
	}

	if cfg.Battery == nil {
		return fmt.Errorf("%w: battery is required", decimate.ErrInvalidArgument)
	}

	if cfg.MaxFails == nil {
		return fmt.Errorf("%w: maxFails is required", decimate.ErrInvalidArgument)
	}

	return nil
}

func minV(minDec, stride int) int {
	return (minDec + stride - 1) / stride
}

func maxV(maxDec, stride int) int {
	return maxDec / stride
}

// Search runs the binary search described in spec.md section 4.F: starting
// at v = maxV, it tests a level, then transitions left on fail (toward
// larger decimation) or right on pass (toward smaller decimation), until it
// revisits an already-tested slot.
func Search(ctx context.Context, cfg Config) (Tree, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	lo, hi := minV(cfg.MinDec, cfg.DecMultiplier), maxV(cfg.MaxDec, cfg.DecMultiplier)

	tree, err := BuildTree(hi, lo)
	if err != nil {
		return nil, err
	}

	overwrite := cfg.Overwrite
	v := hi

	for {
		if err := ctx.Err(); err != nil {
			return tree, nil
		}

		if tree[v].Tested {
			return tree, nil
		}

		rec, failed, noData, err := testLevel(ctx, cfg, v, overwrite)
		if err != nil {
			return tree, err
		}

		overwrite = false

		node := tree[v]
		node.Tested = true
		node.NoData = noData
		node.Record = rec
		tree[v] = node

		if noData {
			v = tree[v].Right

			continue
		}

		if failed {
			v = tree[v].Left
		} else {
			v = tree[v].Right
		}
	}
}

// RangeScan exhaustively tests every level from maxV down to minV, without
// using the tree's search order. Used for a full sweep instead of a
// search, per spec.md section 4.F's "alternative mode".
func RangeScan(ctx context.Context, cfg Config) ([]store.Record, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	lo, hi := minV(cfg.MinDec, cfg.DecMultiplier), maxV(cfg.MaxDec, cfg.DecMultiplier)

	overwrite := cfg.Overwrite

	records := make([]store.Record, 0, hi-lo+1)

	for v := hi; v >= lo; v-- {
		if err := ctx.Err(); err != nil {
			break
		}

		rec, _, _, err := testLevel(ctx, cfg, v, overwrite)
		if err != nil {
			return records, err
		}

		overwrite = false

		records = append(records, rec)
	}

	return records, nil
}

// testLevel tests one scaled decimation level v, reducing the requested
// test count (or recording a no-data result) when the delta file doesn't
// have enough data, per spec.md section 4.F step 2.
func testLevel(ctx context.Context, cfg Config, v int, overwrite bool) (rec store.Record, failed, noData bool, err error) {
	dec := v * cfg.DecMultiplier
	datestamp := cfg.clock().Format(DatestampFormat)

	info, err := cfg.Fsys.Stat(cfg.DeltaPath)
	if err != nil {
		return store.Record{}, false, false, fmt.Errorf("search: stat delta file: %w", err)
	}

	numDeltasAvail := int(info.Size()) / cfg.InputDeltaBytes

	numTests := cfg.NumTestsRequested
	rounds := reshuffle.Rounds(numTests, dec)
	numDeltasNeeded := reshuffle.DataNeeded(dec, rounds, cfg.SetSize)

	if numDeltasAvail < numDeltasNeeded {
		numTests = (numDeltasAvail / (dec * cfg.SetSize)) * dec

		if numTests == 0 {
			rec = store.NewRecord(dec, cfg.Platform, cfg.DeltaPath, datestamp)

			if err := store.Append(cfg.Fsys, cfg.ResultsPath, overwrite, rec); err != nil {
				return store.Record{}, false, false, fmt.Errorf("search: persist no-data level: %w", err)
			}

			return rec, false, true, nil
		}
	}

	decimatedPath := filepath.Join(cfg.ScratchDir, DecimatedScratchName)
	defer cfg.Fsys.Remove(decimatedPath) //nolint:errcheck // best-effort cleanup

	_, err = reshuffle.Reshuffle(cfg.Fsys, cfg.DeltaPath, decimatedPath, reshuffle.Options{
		Dec:         dec,
		NumSets:     numTests,
		SetSize:     cfg.SetSize,
		Transform:   cfg.Transform,
		InputWidth:  cfg.InputDeltaBytes,
		OutputWidth: cfg.OutputDeltaBytes,
		Order:       cfg.Order,
	})
	if err != nil {
		return store.Record{}, false, false, fmt.Errorf("search: reshuffle level %d: %w", dec, err)
	}

	outcome, err := round.Run(ctx, cfg.Fsys, round.Config{
		DecimatedPath: decimatedPath,
		ScratchDir:    cfg.ScratchDir,
		ResultsPath:   cfg.ResultsPath,
		Overwrite:     overwrite,
		Platform:      cfg.Platform,
		Dec:           dec,
		NumTests:      numTests,
		SetSize:       cfg.SetSize,
		FailEarly:     cfg.FailEarly,
		IIDTestsArgs:  cfg.IIDTestsArgs,
		MaxFails:      cfg.MaxFails,
		Battery:       cfg.Battery,
	}, cfg.DeltaPath, datestamp)
	if err != nil {
		return store.Record{}, false, false, fmt.Errorf("search: round at level %d: %w", dec, err)
	}

	return outcome.Record, outcome.Failed, false, nil
}
