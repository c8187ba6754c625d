// Package decimate holds the error sentinels shared across the core
// packages (codec, config, reshuffle, round, search) so callers can test
// error kinds with errors.Is regardless of which package produced them.
package decimate

import "errors"

// ErrInvalidArgument marks an out-of-range or malformed parameter
// (d < 1, minDec > maxDec, setSize < 1, a transform producing a value
// wider than output_delta_bytes, ...). Surfaced before any I/O.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrInsufficientInput marks a data source that ended before the number of
// deltas or bytes a caller needed were available. Both the reshuffler
// (section 4.B) and the round driver (section 4.E step 2a) raise this
// sentinel so callers can test the error kind with errors.Is regardless of
// which stage produced it.
var ErrInsufficientInput = errors.New("insufficient input")
