package battery_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teronlabs/decimate/internal/battery"
)

// writeFakeBattery writes a tiny shell script that stands in for the real
// IID battery, so Shell's process-invocation and decoding can be exercised
// without a real battery binary.
func writeFakeBattery(t *testing.T, script string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("fake battery script is a POSIX shell script")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "fake-battery")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))

	return path
}

func TestShell_Run_DecodesPassFailLines(t *testing.T) {
	t.Parallel()

	path := writeFakeBattery(t, `printf 'excursion\tpass\nchiSqIndependence\tfail\n'`)

	shell, err := battery.NewShell(path)
	require.NoError(t, err)

	got, err := shell.Run(context.Background(), "-q -r all /tmp/scratch.bin")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"excursion": "pass", "chiSqIndependence": "fail"}, got)
}

func TestShell_Run_MalformedLineIsBatteryProtocolError(t *testing.T) {
	t.Parallel()

	path := writeFakeBattery(t, `printf 'not a valid line\n'`)

	shell, err := battery.NewShell(path)
	require.NoError(t, err)

	_, err = shell.Run(context.Background(), "-q -r all /tmp/scratch.bin")
	require.True(t, errors.Is(err, battery.ErrBatteryProtocol))
}

func TestShell_Run_NonZeroExitIsBatteryProtocolError(t *testing.T) {
	t.Parallel()

	path := writeFakeBattery(t, `exit 3`)

	shell, err := battery.NewShell(path)
	require.NoError(t, err)

	_, err = shell.Run(context.Background(), "-q -r all /tmp/scratch.bin")
	require.True(t, errors.Is(err, battery.ErrBatteryProtocol))
}

func TestNewShell_UnresolvableExecutableErrors(t *testing.T) {
	t.Parallel()

	_, err := battery.NewShell("this-executable-does-not-exist-anywhere")
	require.Error(t, err)
}

func TestBuildArgs(t *testing.T) {
	t.Parallel()

	require.Equal(t, "-q -r all /tmp/x.bin", battery.BuildArgs("", "/tmp/x.bin"))
	require.Equal(t, "-q -c 3 /tmp/x.bin", battery.BuildArgs("-c 3", "/tmp/x.bin"))
}
