// Package config loads decimate's run configuration from an optional JSONC
// file, merged under CLI flag overrides. Grounded on the teacher's root
// config.go: hujson-standardized JSONC parsing, a DefaultConfig/mergeConfig
// pair, and FormatConfig for round-tripping the active configuration back
// to JSON for inspection.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/teronlabs/decimate/internal/decimate"
)

// Config holds every parameter a search, range scan, reshuffle, or round
// invocation needs. Field names match spec.md section 7's parameter list.
type Config struct {
	Platform        string `json:"platform,omitempty"`
	DeltaPath       string `json:"delta_path,omitempty"`       //nolint:tagliatelle // snake_case for config file
	ResultsPath     string `json:"results_path,omitempty"`     //nolint:tagliatelle // snake_case for config file
	MinDec          int    `json:"min_dec,omitempty"`          //nolint:tagliatelle // snake_case for config file
	MaxDec          int    `json:"max_dec,omitempty"`          //nolint:tagliatelle // snake_case for config file
	DecMultiplier   int    `json:"dec_multiplier,omitempty"`   //nolint:tagliatelle // snake_case for config file
	NumTests        int    `json:"num_tests,omitempty"`        //nolint:tagliatelle // snake_case for config file
	SetSize         int    `json:"set_size,omitempty"`         //nolint:tagliatelle // snake_case for config file
	InputDeltaBytes int    `json:"input_delta_bytes,omitempty"` //nolint:tagliatelle // snake_case for config file
	OutputDeltaBytes int   `json:"output_delta_bytes,omitempty"` //nolint:tagliatelle // snake_case for config file
	ByteOrder       string `json:"byte_order,omitempty"`        //nolint:tagliatelle // snake_case for config file
	Transform       string `json:"transform,omitempty"`
	FailEarly       bool   `json:"fail_early,omitempty"`  //nolint:tagliatelle // snake_case for config file
	IIDTestsArgs    string `json:"iid_tests_args,omitempty"` //nolint:tagliatelle // snake_case for config file
	BatteryPath     string `json:"battery_path,omitempty"` //nolint:tagliatelle // snake_case for config file
}

// DefaultConfig returns the baseline configuration before any config file
// or CLI flags are applied.
func DefaultConfig() Config {
	return Config{
		MinDec:           1,
		MaxDec:           1,
		DecMultiplier:    1,
		NumTests:         1,
		SetSize:          1000000,
		InputDeltaBytes:  1,
		OutputDeltaBytes: 1,
		ByteOrder:        "little",
		Transform:        "identity",
		IIDTestsArgs:     "",
		ResultsPath:      "results.json",
	}
}

// ErrConfigFileNotFound is returned when an explicitly named config path
// doesn't exist.
var ErrConfigFileNotFound = errors.New("config: file not found")

// ErrConfigInvalid marks malformed JSONC or a value that fails validation.
var ErrConfigInvalid = errors.New("config: invalid")

// Load resolves the active configuration with precedence defaults <
// config file < CLI overrides, following the teacher's LoadConfig/
// mergeConfig shape. configPath may be empty, meaning no config file is
// read. overrides carries only the fields the caller's CLI flags actually
// set; set names which of those fields were explicitly provided so a
// zero-value override (like NumTests: 0) isn't mistaken for "not set".
func Load(configPath string, overrides Config, set map[string]bool) (Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		fileCfg, err := loadFile(configPath)
		if err != nil {
			return Config{}, err
		}

		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg = applyOverrides(cfg, overrides, set)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}

		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrConfigInvalid, path, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %v", ErrConfigInvalid, path, err)
	}

	return cfg, nil
}

func mergeConfig(base, overlay Config) Config {
	if overlay.Platform != "" {
		base.Platform = overlay.Platform
	}

	if overlay.DeltaPath != "" {
		base.DeltaPath = overlay.DeltaPath
	}

	if overlay.ResultsPath != "" {
		base.ResultsPath = overlay.ResultsPath
	}

	if overlay.MinDec != 0 {
		base.MinDec = overlay.MinDec
	}

	if overlay.MaxDec != 0 {
		base.MaxDec = overlay.MaxDec
	}

	if overlay.DecMultiplier != 0 {
		base.DecMultiplier = overlay.DecMultiplier
	}

	if overlay.NumTests != 0 {
		base.NumTests = overlay.NumTests
	}

	if overlay.SetSize != 0 {
		base.SetSize = overlay.SetSize
	}

	if overlay.InputDeltaBytes != 0 {
		base.InputDeltaBytes = overlay.InputDeltaBytes
	}

	if overlay.OutputDeltaBytes != 0 {
		base.OutputDeltaBytes = overlay.OutputDeltaBytes
	}

	if overlay.ByteOrder != "" {
		base.ByteOrder = overlay.ByteOrder
	}

	if overlay.Transform != "" {
		base.Transform = overlay.Transform
	}

	base.FailEarly = base.FailEarly || overlay.FailEarly

	if overlay.IIDTestsArgs != "" {
		base.IIDTestsArgs = overlay.IIDTestsArgs
	}

	if overlay.BatteryPath != "" {
		base.BatteryPath = overlay.BatteryPath
	}

	return base
}

// applyOverrides is mergeConfig's CLI-flag counterpart: it only overwrites
// fields the caller marked as explicitly set in set, so a flag left at its
// zero value never masks a config-file value.
func applyOverrides(cfg, overrides Config, set map[string]bool) Config {
	if set["platform"] {
		cfg.Platform = overrides.Platform
	}

	if set["delta_path"] {
		cfg.DeltaPath = overrides.DeltaPath
	}

	if set["results_path"] {
		cfg.ResultsPath = overrides.ResultsPath
	}

	if set["min_dec"] {
		cfg.MinDec = overrides.MinDec
	}

	if set["max_dec"] {
		cfg.MaxDec = overrides.MaxDec
	}

	if set["dec_multiplier"] {
		cfg.DecMultiplier = overrides.DecMultiplier
	}

	if set["num_tests"] {
		cfg.NumTests = overrides.NumTests
	}

	if set["set_size"] {
		cfg.SetSize = overrides.SetSize
	}

	if set["input_delta_bytes"] {
		cfg.InputDeltaBytes = overrides.InputDeltaBytes
	}

	if set["output_delta_bytes"] {
		cfg.OutputDeltaBytes = overrides.OutputDeltaBytes
	}

	if set["byte_order"] {
		cfg.ByteOrder = overrides.ByteOrder
	}

	if set["transform"] {
		cfg.Transform = overrides.Transform
	}

	if set["fail_early"] {
		cfg.FailEarly = overrides.FailEarly
	}

	if set["iid_tests_args"] {
		cfg.IIDTestsArgs = overrides.IIDTestsArgs
	}

	if set["battery_path"] {
		cfg.BatteryPath = overrides.BatteryPath
	}

	return cfg
}

// Validate checks the parameter bounds spec.md section 7 requires before
// any I/O happens.
func Validate(cfg Config) error {
	if cfg.MinDec < 1 || cfg.MaxDec < cfg.MinDec {
		return fmt.Errorf("%w: min_dec=%d max_dec=%d must satisfy 1 <= min_dec <= max_dec", decimate.ErrInvalidArgument, cfg.MinDec, cfg.MaxDec)
	}

	if cfg.DecMultiplier < 1 {
		return fmt.Errorf("%w: dec_multiplier %d must be >= 1", decimate.ErrInvalidArgument, cfg.DecMultiplier)
	}

	if cfg.SetSize < 1 {
		return fmt.Errorf("%w: set_size %d must be >= 1", decimate.ErrInvalidArgument, cfg.SetSize)
	}

	if cfg.DeltaPath == "" {
		return fmt.Errorf("%w: delta_path is required", decimate.ErrInvalidArgument)
	}

	if cfg.BatteryPath == "" {
		return fmt.Errorf("%w: battery_path is required", decimate.ErrInvalidArgument)
	}

	return nil
}

// FormatConfig renders cfg as indented JSON.
func FormatConfig(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("config: format: %w", err)
	}

	return string(data), nil
}
