package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/teronlabs/decimate/internal/battery"
	"github.com/teronlabs/decimate/internal/cutoff"
	"github.com/teronlabs/decimate/internal/decimate"
	"github.com/teronlabs/decimate/internal/round"
	"github.com/teronlabs/decimate/internal/search"
	"github.com/teronlabs/decimate/pkg/fs"

	flag "github.com/spf13/pflag"
)

// RoundCmd returns the round command, which runs the round driver on its
// own against an already-decimated file, exposing the section 4.E
// contract directly for scripting against a battery without the search
// driver.
func RoundCmd() *Command {
	flags := flag.NewFlagSet("round", flag.ContinueOnError)
	flags.String("decimated-path", "", "Path to an already-decimated file")
	flags.String("results-path", "results.json", "Path to the result store")
	flags.String("scratch-dir", ".", "Directory for the per-round scratch window")
	flags.Bool("overwrite", false, "Start this session's result store from empty instead of appending")
	flags.String("platform", "", "Platform label recorded with the result")
	flags.Int("dec", 0, "Decimation level recorded with the result")
	flags.Int("num-tests", 1, "Number of rounds to run")
	flags.Int("set-size", 0, "Samples per round")
	flags.Bool("fail-early", false, "Stop as soon as the cutoff is exceeded")
	flags.String("iid-tests-args", "", "Extra arguments forwarded to the battery")
	flags.String("battery-path", "", "Path to the IID test battery executable")
	flags.String("filename", "", "Filename recorded with the result (defaults to decimated-path)")

	return &Command{
		Flags: flags,
		Usage: "round [flags]",
		Short: "Run the round driver against an already-decimated file",
		Long:  "Exposes the section 4.E round driver directly: reads set-size windows, invokes the battery, and persists results.",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execRound(ctx, io, flags)
		},
	}
}

func execRound(ctx context.Context, io *IO, flags *flag.FlagSet) error {
	decimatedPath, _ := flags.GetString("decimated-path")
	if decimatedPath == "" {
		return fmt.Errorf("%w: --decimated-path is required", decimate.ErrInvalidArgument)
	}

	batteryPath, _ := flags.GetString("battery-path")

	shell, err := battery.NewShell(batteryPath)
	if err != nil {
		return err
	}

	resultsPath, _ := flags.GetString("results-path")
	scratchDir, _ := flags.GetString("scratch-dir")
	overwrite, _ := flags.GetBool("overwrite")
	platform, _ := flags.GetString("platform")
	dec, _ := flags.GetInt("dec")
	numTests, _ := flags.GetInt("num-tests")
	setSize, _ := flags.GetInt("set-size")
	failEarly, _ := flags.GetBool("fail-early")
	iidArgs, _ := flags.GetString("iid-tests-args")
	filename, _ := flags.GetString("filename")

	if filename == "" {
		filename = decimatedPath
	}

	outcome, err := round.Run(ctx, fs.NewReal(), round.Config{
		DecimatedPath: decimatedPath,
		ScratchDir:    scratchDir,
		ResultsPath:   resultsPath,
		Overwrite:     overwrite,
		Platform:      platform,
		Dec:           dec,
		NumTests:      numTests,
		SetSize:       setSize,
		FailEarly:     failEarly,
		IIDTestsArgs:  iidArgs,
		MaxFails:      cutoff.MaxFails,
		Battery:       shell,
	}, filename, time.Now().Format(search.DatestampFormat))
	if err != nil {
		return fmt.Errorf("round: %w", err)
	}

	outcomeName, _ := search.RecordOutcome(outcome.Record, numTests, cutoff.MaxFails)
	io.Println(fmt.Sprintf("%s (%d/%d rounds passed, aborted=%v)", outcomeName, outcome.Record.RoundPass, outcome.Record.RoundTotal, outcome.Aborted))

	return nil
}
