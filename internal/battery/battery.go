// Package battery invokes the external NIST SP 800-90B IID statistical
// test battery as a subprocess and decodes its verdicts. The battery
// itself -- its statistical methodology -- is out of scope; this package
// only knows how to run it and parse what it prints. See spec.md section
// 6.1 and 6.2.
package battery

import (
	"context"
	"errors"
	"fmt"
)

// ErrBatteryProtocol marks a battery invocation that ran but whose output
// could not be decoded into test-name/verdict pairs.
var ErrBatteryProtocol = errors.New("battery protocol error")

// Battery runs the IID test suite against a scratch file, returning a
// mapping from test name to verdict ("pass" or anything else for a
// failure), per spec.md section 4.E step 2b.
type Battery interface {
	Run(ctx context.Context, args string) (map[string]string, error)
}

// DefaultArgs is used when the caller's configured IIDTestsArgs is empty,
// matching spec.md section 4.E's `"-r all"` fallback.
const DefaultArgs = "-r all"

// BuildArgs assembles the argument string passed to the battery: "-q " +
// IIDTestsArgs (or DefaultArgs if empty) + " " + scratchPath.
func BuildArgs(iidTestsArgs, scratchPath string) string {
	if iidTestsArgs == "" {
		iidTestsArgs = DefaultArgs
	}

	return fmt.Sprintf("-q %s %s", iidTestsArgs, scratchPath)
}
