// Package batterytest provides an in-memory battery.Battery for round and
// search tests, following the teacher's convention of splitting test-only
// helpers into their own package (see internal/testutil in the teacher
// repo) rather than exporting test doubles from the production package.
package batterytest

import (
	"context"
	"sync"
)

// Fake is a configurable, in-memory battery.Battery. Verdicts are supplied
// per invocation via Script, or fall back to Default if Script is
// exhausted.
type Fake struct {
	mu sync.Mutex

	// Script supplies one verdict map per call to Run, in order.
	Script []map[string]string

	// Default is returned once Script is exhausted.
	Default map[string]string

	// Err, if set, is returned by every call instead of a verdict map.
	Err error

	calls []string
}

// NewFake returns a Fake with no Script that returns defaultVerdicts for
// every call. A nil defaultVerdicts is stored as is.
func NewFake(defaultVerdicts map[string]string) *Fake {
	return &Fake{Default: defaultVerdicts}
}

// Run implements battery.Battery.
func (f *Fake) Run(_ context.Context, args string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, args)

	if f.Err != nil {
		return nil, f.Err
	}

	if len(f.Script) > 0 {
		next := f.Script[0]
		f.Script = f.Script[1:]

		return next, nil
	}

	return f.Default, nil
}

// Calls returns the args string passed to every Run call so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.calls))
	copy(out, f.calls)

	return out
}
