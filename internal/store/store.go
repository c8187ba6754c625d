package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/teronlabs/decimate/pkg/fs"
)

// Open loads the result list at path. If overwrite is true, or the file
// does not exist, or it exists but is empty, Open returns an empty list --
// matching the round driver's "respecting overwrite for the first call of
// a session" rule in spec.md section 4.E.
func Open(fsys fs.FS, path string, overwrite bool) ([]Record, error) {
	if overwrite {
		return nil, nil
	}

	exists, err := fsys.Exists(path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	if !exists {
		return nil, nil
	}

	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptStore, path, err)
	}

	return records, nil
}

// Write durably persists records to path, replacing its entire contents.
// Field order within each record is deterministic (see Record's
// MarshalJSON), and the write goes through an atomic temp-file-then-rename
// so a crash mid-write never leaves path partially overwritten.
func Write(fsys fs.FS, path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("store: write: %w", err)
	}

	data = append(data, '\n')

	writer := fs.NewAtomicWriter(fsys)
	if err := writer.WriteWithDefaults(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}

	return nil
}

// Append loads the current list (honoring overwrite), adds rec at the end,
// and durably persists the result. Used for round 0 of a decimation
// level's testing, per spec.md section 4.E step 2e.
func Append(fsys fs.FS, path string, overwrite bool, rec Record) error {
	records, err := Open(fsys, path, overwrite)
	if err != nil {
		return err
	}

	records = append(records, rec)

	return Write(fsys, path, records)
}

// ErrNoRecordToOverwrite is returned by OverwriteLast when the list is
// empty -- calling it before a prior Append on the same session is a
// caller bug, per spec.md section 9's open question 3.
var ErrNoRecordToOverwrite = errors.New("store: no record to overwrite")

// OverwriteLast replaces the most recently appended record in place and
// persists the result, used to update the in-flight record as rounds
// accumulate within one decimation level's testing.
func OverwriteLast(fsys fs.FS, path string, rec Record) error {
	records, err := Open(fsys, path, false)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return ErrNoRecordToOverwrite
	}

	records[len(records)-1] = rec

	return Write(fsys, path, records)
}

// Sort stably orders records by (platform, dec, roundTotal, sum of
// passes), ascending. This is the tuple-comparison route spec.md section 9
// recommends over the original implementation's string-concatenation sort
// key.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]

		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}

		if a.Dec != b.Dec {
			return a.Dec < b.Dec
		}

		if a.RoundTotal != b.RoundTotal {
			return a.RoundTotal < b.RoundTotal
		}

		return sumPasses(a) < sumPasses(b)
	})
}

func sumPasses(r Record) int {
	total := 0
	for _, t := range r.PassList {
		total += t.Passes
	}

	return total
}

// FilterByDate returns the subset of records whose Datestamp falls within
// [start, end], using direct lexicographic comparison against the
// datestamp strings -- safe because spec.md section 2 requires Datestamp
// to be a lexicographically sortable ISO-like timestamp.
//
// An empty or "earliest" start means no lower bound; an empty or "latest"
// end means no upper bound.
func FilterByDate(records []Record, start, end string) []Record {
	hasStart := start != "" && start != "earliest"
	hasEnd := end != "" && end != "latest"

	filtered := make([]Record, 0, len(records))

	for _, r := range records {
		if hasStart && strings.Compare(r.Datestamp, start) < 0 {
			continue
		}

		if hasEnd && strings.Compare(r.Datestamp, end) > 0 {
			continue
		}

		filtered = append(filtered, r)
	}

	return filtered
}
