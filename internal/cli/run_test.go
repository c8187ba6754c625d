package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teronlabs/decimate/internal/cli"
	"github.com/teronlabs/decimate/internal/store"
	"github.com/teronlabs/decimate/pkg/fs"
)

func TestRun_HelpLists(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{"decimate"},
		{"decimate", "--help"},
		{"decimate", "-h"},
	} {
		var stdout, stderr bytes.Buffer

		exitCode := cli.Run(nil, &stdout, &stderr, args, nil)

		require.Equal(t, 0, exitCode)
		require.Empty(t, stderr.String())

		out := stdout.String()
		require.Contains(t, out, "decimate - NIST SP 800-90B decimation level search")
		require.Contains(t, out, "search")
		require.Contains(t, out, "range")
		require.Contains(t, out, "reshuffle")
		require.Contains(t, out, "round")
		require.Contains(t, out, "results")
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	exitCode := cli.Run(nil, &stdout, &stderr, []string{"decimate", "frobnicate"}, nil)

	require.Equal(t, 1, exitCode)
	require.Contains(t, stderr.String(), "unknown command")
}

func TestRun_ReshuffleMissingFlagsErrors(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer

	exitCode := cli.Run(nil, &stdout, &stderr, []string{"decimate", "reshuffle"}, nil)

	require.Equal(t, 1, exitCode)
	require.True(t, strings.Contains(stderr.String(), "--in and --out are required"))
}

func TestRun_ResultsJSONSnapshotWritesOutFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	resultsPath := filepath.Join(dir, "results.json")
	outPath := filepath.Join(dir, "snapshot.json")

	rec := store.NewRecord(4, "x86", "deltas.bin", "2026-08-01 00:00:00.000000")
	rec.SetTally("excursion", store.Tally{Passes: 10, Totals: 10})
	rec.RoundTotal = 10
	rec.RoundPass = 10
	require.NoError(t, store.Append(fs.NewReal(), resultsPath, true, rec))

	var stdout, stderr bytes.Buffer

	exitCode := cli.Run(nil, &stdout, &stderr, []string{
		"decimate", "results", "--results-path", resultsPath, "--json", "--out", outPath,
	}, nil)

	require.Equal(t, 0, exitCode)
	require.Empty(t, stderr.String())
	require.Empty(t, stdout.String())

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(data), `"platform":"x86"`)
}

func TestRun_ResultsOnMissingStoreIsEmpty(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var stdout, stderr bytes.Buffer

	exitCode := cli.Run(nil, &stdout, &stderr, []string{
		"decimate", "results", "--results-path", dir + "/results.json",
	}, nil)

	require.Equal(t, 0, exitCode)
	require.Empty(t, stderr.String())
	require.Empty(t, stdout.String())
}
