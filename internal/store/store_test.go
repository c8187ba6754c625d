package store_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/teronlabs/decimate/internal/store"
	"github.com/teronlabs/decimate/pkg/fs"
)

func mkRecord(dec int, platform string, roundTotal int) store.Record {
	rec := store.NewRecord(dec, platform, "deltas.bin", "2026-08-01 00:00:00.000000")
	rec.SetTally("excursion", store.Tally{Passes: 5, Totals: 5})
	rec.SetTally("chiSqIndependence", store.Tally{Passes: 4, Totals: 5})
	rec.RoundTotal = roundTotal
	rec.RoundPass = 4

	return rec
}

func TestOpen_MissingFileReturnsEmpty(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	dir := t.TempDir()

	records, err := store.Open(fsys, filepath.Join(dir, "results.json"), false)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestOpen_OverwriteIgnoresExistingFile(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	require.NoError(t, store.Write(fsys, path, []store.Record{mkRecord(4, "x86", 10)}))

	records, err := store.Open(fsys, path, true)
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestOpen_CorruptFileReturnsErrCorruptStore(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")
	require.NoError(t, fsys.WriteFile(path, []byte("not json"), 0o644))

	_, err := store.Open(fsys, path, false)
	require.ErrorIs(t, err, store.ErrCorruptStore)
}

func TestOpen_MissingRequiredFieldIsCorrupt(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")
	require.NoError(t, fsys.WriteFile(path, []byte(`[{"dec": 4}]`), 0o644))

	_, err := store.Open(fsys, path, false)
	require.ErrorIs(t, err, store.ErrCorruptStore)
}

func TestAppendThenOverwriteLast_PreservesOrderAndUpdatesLatest(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	require.NoError(t, store.Append(fsys, path, true, mkRecord(4, "x86", 1)))
	require.NoError(t, store.Append(fsys, path, false, mkRecord(8, "x86", 1)))

	updated := mkRecord(8, "x86", 2)
	require.NoError(t, store.OverwriteLast(fsys, path, updated))

	records, err := store.Open(fsys, path, false)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 4, records[0].Dec)
	require.Equal(t, 8, records[1].Dec)
	require.Equal(t, 2, records[1].RoundTotal)
}

func TestOverwriteLast_EmptyListIsError(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	err := store.OverwriteLast(fsys, path, mkRecord(4, "x86", 1))
	require.ErrorIs(t, err, store.ErrNoRecordToOverwrite)
}

// TestPassListRoundTripsInInsertionOrder checks the ordered-map invariant:
// encoding/json's default map marshaling is alphabetical, which would
// silently reorder passList across a save/load cycle.
func TestPassListRoundTripsInInsertionOrder(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	rec := store.NewRecord(4, "x86", "deltas.bin", "2026-08-01 00:00:00.000000")
	rec.SetTally("zRunsTest", store.Tally{Passes: 1, Totals: 1})
	rec.SetTally("aCompressionTest", store.Tally{Passes: 1, Totals: 1})
	rec.SetTally("mExcursion", store.Tally{Passes: 1, Totals: 1})

	require.NoError(t, store.Append(fsys, path, true, rec))

	records, err := store.Open(fsys, path, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, []string{"zRunsTest", "aCompressionTest", "mExcursion"}, records[0].PassOrder)
}

// TestTally_MarshalsAsTwoElementArray pins the wire format spec.md section
// 6.2 specifies for passList values: name -> [passes, totals], not the
// {"passes":N,"totals":M} object encoding/json's default struct tags would
// produce.
func TestTally_MarshalsAsTwoElementArray(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	rec := store.NewRecord(4, "x86", "deltas.bin", "2026-08-01 00:00:00.000000")
	rec.SetTally("excursion", store.Tally{Passes: 9, Totals: 10})

	require.NoError(t, store.Append(fsys, path, true, rec))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"excursion":[9,10]`)
}

// TestRecord_RoundTripsStructurally uses go-cmp instead of a field-by-field
// require.Equal to catch any field the JSON round trip silently drops or
// zeroes, the same structural-diff role go-cmp plays in the teacher's
// property tests.
func TestRecord_RoundTripsStructurally(t *testing.T) {
	t.Parallel()

	fsys := fs.NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	original := store.NewRecord(8, "arm", "deltas.bin", "2026-08-01 00:00:00.000000")
	original.SetTally("excursion", store.Tally{Passes: 9, Totals: 10})
	original.SetTally("runs", store.Tally{Passes: 10, Totals: 10})
	original.RoundTotal = 10
	original.RoundPass = 9

	require.NoError(t, store.Append(fsys, path, true, original))

	records, err := store.Open(fsys, path, false)
	require.NoError(t, err)
	require.Len(t, records, 1)

	if diff := cmp.Diff(original, records[0]); diff != "" {
		t.Errorf("record round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSort_OrdersByPlatformDecRoundTotalThenPasses(t *testing.T) {
	t.Parallel()

	low := mkRecord(4, "x86", 10)
	low.PassList["excursion"] = store.Tally{Passes: 1, Totals: 5}

	high := mkRecord(4, "x86", 10)
	high.PassList["excursion"] = store.Tally{Passes: 5, Totals: 5}

	other := mkRecord(2, "arm", 10)

	records := []store.Record{high, other, low}
	store.Sort(records)

	require.Equal(t, "arm", records[0].Platform)
	require.Equal(t, 1, records[1].PassList["excursion"].Passes)
	require.Equal(t, 5, records[2].PassList["excursion"].Passes)
}

func TestFilterByDate(t *testing.T) {
	t.Parallel()

	records := []store.Record{
		mkRecord(4, "x86", 1),
		mkRecord(8, "x86", 1),
		mkRecord(16, "x86", 1),
	}
	records[0].Datestamp = "2026-01-01 00:00:00.000000"
	records[1].Datestamp = "2026-06-01 00:00:00.000000"
	records[2].Datestamp = "2026-12-01 00:00:00.000000"

	filtered := store.FilterByDate(records, "2026-03-01", "2026-09-01")
	require.Len(t, filtered, 1)
	require.Equal(t, 8, filtered[0].Dec)

	require.Len(t, store.FilterByDate(records, "earliest", "latest"), 3)
	require.Len(t, store.FilterByDate(records, "", ""), 3)
}

// TestWrite_CrashMidWriteLeavesPreviousRecordsIntact exercises invariant 5
// from spec.md section 8: re-opening the store after an abrupt failure
// during a write yields the prior committed state, never a torn file.
func TestWrite_CrashMidWriteLeavesPreviousRecordsIntact(t *testing.T) {
	t.Parallel()

	real := fs.NewReal()
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	require.NoError(t, store.Append(real, path, true, mkRecord(4, "x86", 1)))

	chaos := fs.NewChaos(real, 7, &fs.ChaosConfig{WriteFailRate: 1})
	err := store.Append(chaos, path, false, mkRecord(8, "x86", 1))
	require.Error(t, err)

	records, err := store.Open(real, path, false)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 4, records[0].Dec)
}
