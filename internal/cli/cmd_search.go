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

// SearchCmd returns the search command: a binary search over decimation
// levels, per spec.md section 4.F's default mode.
func SearchCmd(globalConfigPath *string) *Command {
	flags := flag.NewFlagSet("search", flag.ContinueOnError)
	addConfigFlags(flags)
	flags.String("scratch-dir", ".", "Directory for scratch files written during the search")

	return &Command{
		Flags: flags,
		Usage: "search [flags]",
		Short: "Binary search for the minimum passing decimation level",
		Long:  "Walks the decimation level tree, testing the fewest levels needed to find the smallest level whose IID tests pass.",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execSearch(ctx, io, flags, *globalConfigPath)
		},
	}
}

func execSearch(ctx context.Context, io *IO, flags *flag.FlagSet, globalConfigPath string) error {
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

	searchCfg := search.Config{
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
	}

	sessionStart := time.Now().Format(search.DatestampFormat)

	tree, err := search.Search(ctx, searchCfg)

	sessionEnd := time.Now().Format(search.DatestampFormat)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	for v, node := range tree {
		if !node.Tested {
			continue
		}

		dec := v * cfg.DecMultiplier

		if node.NoData {
			io.Println(fmt.Sprintf("dec=%d: no data", dec))

			continue
		}

		outcome, _ := search.RecordOutcome(node.Record, cfg.NumTests, cutoff.MaxFails)
		io.Println(fmt.Sprintf("dec=%d: %s (%d/%d rounds passed)", dec, outcome, node.Record.RoundPass, node.Record.RoundTotal))
	}

	records, err := readResultsForReport(realFS, cfg.ResultsPath)
	if err != nil {
		return err
	}

	passLevel, passStarLevel := search.MinPassLevel(records, cfg.NumTests, cutoff.MaxFails, []string{cfg.Platform}, sessionStart, sessionEnd)
	printMinPassLevel(io, passLevel, passStarLevel)

	return nil
}

func printMinPassLevel(io *IO, passLevel, passStarLevel *int) {
	if passLevel != nil {
		io.Println(fmt.Sprintf("min passing level: %d", *passLevel))
	} else {
		io.Println("min passing level: none")
	}

	if passStarLevel != nil {
		io.Println(fmt.Sprintf("min passing level (with fewer than requested rounds): %d", *passStarLevel))
	} else {
		io.Println("min passing level (with fewer than requested rounds): none")
	}
}
