package cli

import (
	"github.com/teronlabs/decimate/internal/config"

	flag "github.com/spf13/pflag"
)

// addConfigFlags registers the parameter flags shared by search and range,
// mirroring internal/config.Config's fields.
func addConfigFlags(fs *flag.FlagSet) {
	fs.String("platform", "", "Platform label recorded with each result")
	fs.String("delta-path", "", "Path to the raw delta file")
	fs.String("results-path", "", "Path to the result store (default: results.json)")
	fs.Int("min-dec", 0, "Minimum decimation level to test")
	fs.Int("max-dec", 0, "Maximum decimation level to test")
	fs.Int("dec-multiplier", 0, "Stride between tested decimation levels")
	fs.Int("num-tests", 0, "Number of test rounds requested per level")
	fs.Int("set-size", 0, "Samples per IID test window")
	fs.Int("input-delta-bytes", 0, "Byte width of one input delta")
	fs.Int("output-delta-bytes", 0, "Byte width of one output sample")
	fs.String("byte-order", "", `Byte order for input/output deltas ("little" or "big")`)
	fs.String("transform", "", `Delta transform ("identity", "mod256", "shr1mod256", "shr1mod255")`)
	fs.Bool("fail-early", false, "Stop a level's rounds as soon as the cutoff is exceeded")
	fs.String("iid-tests-args", "", "Extra arguments forwarded to the battery")
	fs.String("battery-path", "", "Path to the IID test battery executable")
	fs.Bool("overwrite", false, "Start this session's result store from empty instead of appending")
}

// overridesFromFlags builds a config.Config carrying only the flags the
// caller actually set, plus the set map applyOverrides/config.Load needs
// to distinguish "not provided" from "provided as the zero value".
func overridesFromFlags(fs *flag.FlagSet) (config.Config, map[string]bool) {
	var cfg config.Config

	set := map[string]bool{}

	for _, name := range []string{
		"platform", "delta-path", "results-path", "min-dec", "max-dec",
		"dec-multiplier", "num-tests", "set-size", "input-delta-bytes",
		"output-delta-bytes", "byte-order", "transform", "fail-early",
		"iid-tests-args", "battery-path",
	} {
		if fs.Changed(name) {
			set[flagToField(name)] = true
		}
	}

	cfg.Platform, _ = fs.GetString("platform")
	cfg.DeltaPath, _ = fs.GetString("delta-path")
	cfg.ResultsPath, _ = fs.GetString("results-path")
	cfg.MinDec, _ = fs.GetInt("min-dec")
	cfg.MaxDec, _ = fs.GetInt("max-dec")
	cfg.DecMultiplier, _ = fs.GetInt("dec-multiplier")
	cfg.NumTests, _ = fs.GetInt("num-tests")
	cfg.SetSize, _ = fs.GetInt("set-size")
	cfg.InputDeltaBytes, _ = fs.GetInt("input-delta-bytes")
	cfg.OutputDeltaBytes, _ = fs.GetInt("output-delta-bytes")
	cfg.ByteOrder, _ = fs.GetString("byte-order")
	cfg.Transform, _ = fs.GetString("transform")
	cfg.FailEarly, _ = fs.GetBool("fail-early")
	cfg.IIDTestsArgs, _ = fs.GetString("iid-tests-args")
	cfg.BatteryPath, _ = fs.GetString("battery-path")

	return cfg, set
}

// flagToField maps a kebab-case flag name to the snake_case key
// applyOverrides expects.
func flagToField(flagName string) string {
	field := make([]byte, 0, len(flagName))

	for i := 0; i < len(flagName); i++ {
		if flagName[i] == '-' {
			field = append(field, '_')

			continue
		}

		field = append(field, flagName[i])
	}

	return string(field)
}

func resolveConfig(fs *flag.FlagSet, globalConfigPath string) (config.Config, error) {
	overrides, set := overridesFromFlags(fs)

	return config.Load(globalConfigPath, overrides, set)
}
