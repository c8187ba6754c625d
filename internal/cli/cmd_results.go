package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/teronlabs/decimate/internal/cutoff"
	"github.com/teronlabs/decimate/internal/search"
	"github.com/teronlabs/decimate/internal/store"
	"github.com/teronlabs/decimate/pkg/fs"

	flag "github.com/spf13/pflag"
)

// ResultsCmd returns the results command: an ls-style listing of the
// result store, plain text or --json, mirroring the teacher's
// internal/cli/ls.go two output modes. Full tabular report formatting is
// out of scope; this is the minimal listing spec.md section 7 calls for.
func ResultsCmd() *Command {
	flags := flag.NewFlagSet("results", flag.ContinueOnError)
	flags.String("results-path", "results.json", "Path to the result store")
	flags.String("platform", "", "Comma-separated list of platforms to include (default: all)")
	flags.String("start-date", "", "Earliest datestamp to include (inclusive)")
	flags.String("end-date", "", "Latest datestamp to include (inclusive)")
	flags.Int("min-tests", 0, "Rounds-requested threshold used to classify pass/pass* outcomes")
	flags.Bool("json", false, "Output as a JSON array")
	flags.Bool("summary", false, "Print only the minimum passing level summary")
	flags.String("out", "", "Write the --json snapshot to this file atomically instead of stdout")

	return &Command{
		Flags: flags,
		Usage: "results [flags]",
		Short: "List, sort, and filter the result store",
		Long:  "Lists stored decimation-level outcomes sorted by platform, decimation level, round total, and pass count.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execResults(io, flags)
		},
	}
}

func execResults(io *IO, flags *flag.FlagSet) error {
	resultsPath, _ := flags.GetString("results-path")
	platformFilter, _ := flags.GetString("platform")
	startDate, _ := flags.GetString("start-date")
	endDate, _ := flags.GetString("end-date")
	minTests, _ := flags.GetInt("min-tests")
	jsonOutput, _ := flags.GetBool("json")
	summaryOnly, _ := flags.GetBool("summary")
	outPath, _ := flags.GetString("out")

	records, err := readResultsForReport(fs.NewReal(), resultsPath)
	if err != nil {
		return err
	}

	records = store.FilterByDate(records, startDate, endDate)

	var platforms []string
	if platformFilter != "" {
		platforms = strings.Split(platformFilter, ",")
		records = filterByPlatform(records, platforms)
	}

	store.Sort(records)

	if summaryOnly {
		passLevel, passStarLevel := search.MinPassLevel(records, minTests, cutoff.MaxFails, platforms, startDate, endDate)
		printMinPassLevel(io, passLevel, passStarLevel)

		return nil
	}

	if jsonOutput {
		if outPath != "" {
			return writeResultsSnapshot(outPath, records)
		}

		return outputResultsJSON(io, records)
	}

	for _, rec := range records {
		io.Println(formatResultLine(rec, minTests))
	}

	return nil
}

func filterByPlatform(records []store.Record, platforms []string) []store.Record {
	allowed := make(map[string]bool, len(platforms))
	for _, p := range platforms {
		allowed[p] = true
	}

	kept := make([]store.Record, 0, len(records))

	for _, r := range records {
		if allowed[r.Platform] {
			kept = append(kept, r)
		}
	}

	return kept
}

func formatResultLine(rec store.Record, minTests int) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "%s dec=%d [%s] %s", rec.Datestamp, rec.Dec, rec.Platform, rec.Filename)

	if rec.RoundTotal == 0 || len(rec.PassList) == 0 {
		builder.WriteString(" - no data")

		return builder.String()
	}

	outcome, _ := search.RecordOutcome(rec, minTests, cutoff.MaxFails)
	fmt.Fprintf(&builder, " - %s (%d/%d rounds passed)", outcome, rec.RoundPass, rec.RoundTotal)

	return builder.String()
}

// resultJSON is the JSON representation of one record in results --json
// output.
type resultJSON struct {
	Dec        int              `json:"dec"`
	Platform   string           `json:"platform"`
	Filename   string           `json:"filename"`
	Datestamp  string           `json:"datestamp"`
	RoundPass  int              `json:"roundPass"`
	RoundTotal int              `json:"roundTotal"`
	PassList   map[string]store.Tally `json:"passList"`
}

func outputResultsJSON(io *IO, records []store.Record) error {
	data, err := json.Marshal(resultsJSON(records))
	if err != nil {
		return fmt.Errorf("results: marshal json: %w", err)
	}

	io.Println(string(data))

	return nil
}

// writeResultsSnapshot durably writes the --json snapshot to outPath using
// natefinch/atomic's temp-file-then-rename, the library the teacher's own
// internal/fs.Real used for single-shot durable writes before this repo's
// crash-safety needs grew into pkg/fs.AtomicWriter's richer fault-injection
// surface. A one-off snapshot file has no ongoing crash-recovery
// requirement, so the lighter library fits here.
func writeResultsSnapshot(outPath string, records []store.Record) error {
	data, err := json.Marshal(resultsJSON(records))
	if err != nil {
		return fmt.Errorf("results: marshal json: %w", err)
	}

	if err := atomic.WriteFile(outPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("results: write snapshot %s: %w", outPath, err)
	}

	return nil
}

func resultsJSON(records []store.Record) []resultJSON {
	out := make([]resultJSON, 0, len(records))

	for _, r := range records {
		out = append(out, resultJSON{
			Dec:        r.Dec,
			Platform:   r.Platform,
			Filename:   r.Filename,
			Datestamp:  r.Datestamp,
			RoundPass:  r.RoundPass,
			RoundTotal: r.RoundTotal,
			PassList:   r.PassList,
		})
	}

	return out
}
