package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/teronlabs/decimate/internal/battery"
	"github.com/teronlabs/decimate/internal/codec"
	"github.com/teronlabs/decimate/internal/cutoff"
	"github.com/teronlabs/decimate/internal/search"
	"github.com/teronlabs/decimate/pkg/fs"

	flag "github.com/spf13/pflag"
)

// RangeCmd returns the range command: an exhaustive sweep over every
// decimation level, per spec.md section 4.F's alternative mode.
func RangeCmd(globalConfigPath *string) *Command {
	flags := flag.NewFlagSet("range", flag.ContinueOnError)
	addConfigFlags(flags)
	flags.String("scratch-dir", ".", "Directory for scratch files written during the scan")

	return &Command{
		Flags: flags,
		Usage: "range [flags]",
		Short: "Exhaustively test every decimation level from max-dec down to min-dec",
		Long:  "Tests every level in range instead of stopping at the first narrowing binary search would find, useful for building a full pass/fail picture.",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execRange(ctx, io, flags, *globalConfigPath)
		},
	}
}

func execRange(ctx context.Context, io *IO, flags *flag.FlagSet, globalConfigPath string) error {
	cfg, err := resolveConfig(flags, globalConfigPath)
	if err != nil {
		return err
	}

	scratchDir, _ := flags.GetString("scratch-dir")
	overwrite, _ := flags.GetBool("overwrite")

	order, err := codec.ByteOrderByName(cfg.ByteOrder)
	if err != nil {
		return err
	}

	transform, err := codec.TransformByName(cfg.Transform)
	if err != nil {
		return err
	}

	if err := codec.ValidateTransform(transform, cfg.InputDeltaBytes, cfg.OutputDeltaBytes); err != nil {
		return err
	}

	shell, err := battery.NewShell(cfg.BatteryPath)
	if err != nil {
		return err
	}

	realFS := fs.NewReal()

	sessionStart := time.Now().Format(search.DatestampFormat)

	records, err := search.RangeScan(ctx, search.Config{
		Fsys:              realFS,
		DeltaPath:         cfg.DeltaPath,
		ResultsPath:       cfg.ResultsPath,
		ScratchDir:        scratchDir,
		Overwrite:         overwrite,
		Platform:          cfg.Platform,
		MaxDec:            cfg.MaxDec,
		MinDec:            cfg.MinDec,
		DecMultiplier:     cfg.DecMultiplier,
		NumTestsRequested: cfg.NumTests,
		SetSize:           cfg.SetSize,
		InputDeltaBytes:   cfg.InputDeltaBytes,
		OutputDeltaBytes:  cfg.OutputDeltaBytes,
		Transform:         transform,
		Order:             order,
		FailEarly:         cfg.FailEarly,
		IIDTestsArgs:      cfg.IIDTestsArgs,
		Battery:           shell,
		MaxFails:          cutoff.MaxFails,
	})

	sessionEnd := time.Now().Format(search.DatestampFormat)
	if err != nil {
		return fmt.Errorf("range: %w", err)
	}

	for _, rec := range records {
		if rec.RoundTotal == 0 {
			io.Println(fmt.Sprintf("dec=%d: no data", rec.Dec))

			continue
		}

		outcome, _ := search.RecordOutcome(rec, cfg.NumTests, cutoff.MaxFails)
		io.Println(fmt.Sprintf("dec=%d: %s (%d/%d rounds passed)", rec.Dec, outcome, rec.RoundPass, rec.RoundTotal))
	}

	passLevel, passStarLevel := search.MinPassLevel(records, cfg.NumTests, cutoff.MaxFails, []string{cfg.Platform}, sessionStart, sessionEnd)
	printMinPassLevel(io, passLevel, passStarLevel)

	return nil
}
