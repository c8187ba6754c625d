package codec

import (
	"fmt"

	"github.com/teronlabs/decimate/internal/decimate"
)

// Transform maps a raw input delta to a value representable in
// output_delta_bytes. Transforms are pure and deterministic.
type Transform func(uint64) uint64

// Identity passes the delta through unchanged.
func Identity(x uint64) uint64 { return x }

// Mod256 keeps the least significant byte of the delta.
func Mod256(x uint64) uint64 { return x % 256 }

// ShiftRightMod256 drops the least significant bit, then keeps the least
// significant byte of the result.
func ShiftRightMod256(x uint64) uint64 { return (x >> 1) % 256 }

// ShiftRightMod255 drops the least significant bit, then reduces modulo 255.
func ShiftRightMod255(x uint64) uint64 { return (x >> 1) % 255 }

// namedTransforms lists the conformance transforms required by spec.md
// section 4.A, keyed by the name used in configuration files and CLI flags.
var namedTransforms = map[string]Transform{
	"identity":   Identity,
	"mod256":     Mod256,
	"shr1mod256": ShiftRightMod256,
	"shr1mod255": ShiftRightMod255,
}

// TransformByName resolves a configured transform name.
func TransformByName(name string) (Transform, error) {
	t, ok := namedTransforms[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown transform %q", decimate.ErrInvalidArgument, name)
	}

	return t, nil
}

// ValidateTransform checks that t never produces a value wider than
// outputWidth bytes, by probing it against the widest possible input for
// inputWidth. Transforms in this package are all monotonic-safe range
// reductions, so this is checked once at configuration time rather than on
// every call.
func ValidateTransform(t Transform, inputWidth, outputWidth int) error {
	maxInput := uint64(0)
	if inputWidth >= 8 {
		maxInput = ^uint64(0)
	} else {
		maxInput = uint64(1)<<(uint(inputWidth)*8) - 1
	}

	out := t(maxInput)
	if !fitsInWidth(out, outputWidth) {
		return fmt.Errorf("%w: transform of max %d-byte input (%d) produced %d, which does not fit in %d bytes",
			decimate.ErrInvalidArgument, inputWidth, maxInput, out, outputWidth)
	}

	return nil
}
