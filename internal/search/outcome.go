package search

import (
	"github.com/teronlabs/decimate/internal/round"
	"github.com/teronlabs/decimate/internal/store"
)

// Outcome categories, matching the original implementation's four-way
// result_outcome classification exactly (see
// original_source/src/decimate/deci.py).
const (
	OutcomeFail     = "FAIL"
	OutcomeFailStar = "FAIL *"
	OutcomePass     = "pass"
	OutcomePassStar = "pass *"
)

// RecordOutcome classifies rec's worst-performing test against minTests
// requested rounds, per spec.md section 4.F's "minimum passing level
// report": the worst test is the one with the fewest passes, ties broken
// by the largest totals among those tied. needStar reports whether the
// outcome is qualified by running fewer than minTests rounds.
func RecordOutcome(rec store.Record, minTests int, maxFails round.MaxFailsFunc) (outcome string, needStar bool) {
	if len(rec.PassList) == 0 {
		return "", false
	}

	passing := -1

	for _, tally := range rec.PassList {
		if passing == -1 || tally.Passes < passing {
			passing = tally.Passes
		}
	}

	total := 0

	for _, tally := range rec.PassList {
		if tally.Passes == passing && tally.Totals > total {
			total = tally.Totals
		}
	}

	thisMaxFails := maxFails(total)
	maxMaxFails := maxFails(minTests)
	thisFails := total - passing

	if thisFails > thisMaxFails {
		if thisFails > maxMaxFails {
			return OutcomeFail, false
		}

		return OutcomeFailStar, true
	}

	if total < minTests {
		return OutcomePassStar, true
	}

	return OutcomePass, false
}

// MinPassLevel scans records (after filtering by platform and datestamp
// range) and reports the smallest decimation level that passes, both with
// and without the roundTotal >= minTests requirement. A nil return means
// no level passed.
func MinPassLevel(records []store.Record, minTests int, maxFails round.MaxFailsFunc, platforms []string, startDate, endDate string) (passLevel, passStarLevel *int) {
	filtered := store.FilterByDate(records, startDate, endDate)

	if len(platforms) > 0 {
		allowed := make(map[string]bool, len(platforms))
		for _, p := range platforms {
			allowed[p] = true
		}

		kept := make([]store.Record, 0, len(filtered))

		for _, r := range filtered {
			if allowed[r.Platform] {
				kept = append(kept, r)
			}
		}

		filtered = kept
	}

	passingDec := map[int]bool{}
	passingStarDec := map[int]bool{}

	for _, r := range filtered {
		if r.RoundTotal == 0 || len(r.PassList) == 0 {
			continue // "NO DATA"
		}

		totalTests := 0
		for _, t := range r.PassList {
			totalTests += t.Totals
		}

		if totalTests == 0 {
			continue // "0 TESTS"
		}

		switch outcome, _ := RecordOutcome(r, minTests, maxFails); outcome {
		case OutcomePass:
			passingDec[r.Dec] = true
			passingStarDec[r.Dec] = true
		case OutcomePassStar:
			passingStarDec[r.Dec] = true
		}
	}

	return minKey(passingDec), minKey(passingStarDec)
}

func minKey(set map[int]bool) *int {
	if len(set) == 0 {
		return nil
	}

	min := 0
	first := true

	for k := range set {
		if first || k < min {
			min = k
			first = false
		}
	}

	return &min
}
