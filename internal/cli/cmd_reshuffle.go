package cli

import (
	"context"
	"fmt"

	"github.com/teronlabs/decimate/internal/codec"
	"github.com/teronlabs/decimate/internal/decimate"
	"github.com/teronlabs/decimate/internal/reshuffle"
	"github.com/teronlabs/decimate/pkg/fs"

	flag "github.com/spf13/pflag"
)

// ReshuffleCmd returns the reshuffle command, which runs the decimating
// reshuffler on its own against an explicit input/output pair, for
// inspecting the decimated layout without running the battery.
func ReshuffleCmd() *Command {
	flags := flag.NewFlagSet("reshuffle", flag.ContinueOnError)
	flags.String("in", "", "Input delta file")
	flags.String("out", "", "Output path for the reshuffled file")
	flags.Int("dec", 0, "Decimation level d")
	flags.Int("num-sets", 0, "Number of setSize windows requested across all classes")
	flags.Int("set-size", 0, "Samples per window")
	flags.Int("input-delta-bytes", 1, "Byte width of one input delta")
	flags.Int("output-delta-bytes", 1, "Byte width of one output sample")
	flags.String("byte-order", "little", `Byte order ("little" or "big")`)
	flags.String("transform", "identity", `Delta transform ("identity", "mod256", "shr1mod256", "shr1mod255")`)

	return &Command{
		Flags: flags,
		Usage: "reshuffle [flags]",
		Short: "Decimate and reorder a delta file without running the battery",
		Long:  "Exposes the section 4.B reshuffler directly, for inspecting a decimated layout or scripting against it.",
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execReshuffle(io, flags)
		},
	}
}

func execReshuffle(io *IO, flags *flag.FlagSet) error {
	inPath, _ := flags.GetString("in")
	outPath, _ := flags.GetString("out")

	if inPath == "" || outPath == "" {
		return fmt.Errorf("%w: --in and --out are required", decimate.ErrInvalidArgument)
	}

	dec, _ := flags.GetInt("dec")
	numSets, _ := flags.GetInt("num-sets")
	setSize, _ := flags.GetInt("set-size")
	inputWidth, _ := flags.GetInt("input-delta-bytes")
	outputWidth, _ := flags.GetInt("output-delta-bytes")
	byteOrder, _ := flags.GetString("byte-order")
	transformName, _ := flags.GetString("transform")

	order, err := codec.ByteOrderByName(byteOrder)
	if err != nil {
		return err
	}

	transform, err := codec.TransformByName(transformName)
	if err != nil {
		return err
	}

	if err := codec.ValidateTransform(transform, inputWidth, outputWidth); err != nil {
		return err
	}

	stats, err := reshuffle.Reshuffle(fs.NewReal(), inPath, outPath, reshuffle.Options{
		Dec:         dec,
		NumSets:     numSets,
		SetSize:     setSize,
		Transform:   transform,
		InputWidth:  inputWidth,
		OutputWidth: outputWidth,
		Order:       order,
	})
	if err != nil {
		return fmt.Errorf("reshuffle: %w", err)
	}

	io.Println(fmt.Sprintf("rounds=%d dataNeeded=%d wrote %s", stats.Rounds, stats.DataNeeded, outPath))

	return nil
}
