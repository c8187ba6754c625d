package cli

import (
	"fmt"

	"github.com/teronlabs/decimate/internal/store"
	"github.com/teronlabs/decimate/pkg/fs"
)

// readResultsForReport loads the result store for display purposes (never
// with overwrite, since a report should reflect whatever a prior run left
// behind).
func readResultsForReport(fsys fs.FS, path string) ([]store.Record, error) {
	records, err := store.Open(fsys, path, false)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}

	return records, nil
}
