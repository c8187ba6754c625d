// Package codec reads and writes fixed-width unsigned integer deltas and
// provides the named delta transforms required by the decimation pipeline.
//
// A delta is a non-negative integer of fixed byte width (1..8), read with a
// stated byte order. Width and order are never inferred from the data
// itself -- they're configuration, matching the raw, header-less wire
// format in spec.md section 6.3.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/teronlabs/decimate/internal/decimate"
)

// MinWidth and MaxWidth bound the fixed byte width of an input delta.
const (
	MinWidth = 1
	MaxWidth = 8
)

// ValidateWidth returns decimate.ErrInvalidArgument if width is outside
// [MinWidth, MaxWidth].
func ValidateWidth(width int) error {
	if width < MinWidth || width > MaxWidth {
		return fmt.Errorf("%w: delta width %d outside [%d, %d]", decimate.ErrInvalidArgument, width, MinWidth, MaxWidth)
	}

	return nil
}

// ReadDelta reads exactly width bytes from r and decodes them as an
// unsigned integer using order. Returns io.EOF if no bytes could be read at
// all, io.ErrUnexpectedEOF if a read started but width bytes weren't
// available.
func ReadDelta(r io.Reader, width int, order binary.ByteOrder) (uint64, error) {
	buf := make([]byte, MaxWidth)

	n, err := io.ReadFull(r, buf[:width])
	if err != nil {
		if n == 0 && errors.Is(err, io.EOF) {
			return 0, io.EOF
		}

		return 0, fmt.Errorf("read delta: %w", err)
	}

	return decodeWidth(buf[:width], order), nil
}

// WriteDelta encodes value into width bytes using order and writes them to
// w. Panics if value does not fit in width bytes -- per spec.md section
// 4.A this is a programming error in the caller, not a data error.
func WriteDelta(w io.Writer, value uint64, width int, order binary.ByteOrder) error {
	if !fitsInWidth(value, width) {
		panic(fmt.Sprintf("codec: value %d does not fit in %d bytes", value, width))
	}

	buf := make([]byte, MaxWidth)
	encodeWidth(buf, value, width, order)

	_, err := w.Write(buf[:width])
	if err != nil {
		return fmt.Errorf("write delta: %w", err)
	}

	return nil
}

// fitsInWidth reports whether value can be represented in width bytes.
func fitsInWidth(value uint64, width int) bool {
	if width >= 8 {
		return true
	}

	return value < uint64(1)<<(uint(width)*8)
}

func decodeWidth(b []byte, order binary.ByteOrder) uint64 {
	var padded [8]byte

	if order == binary.BigEndian {
		copy(padded[8-len(b):], b)

		return binary.BigEndian.Uint64(padded[:])
	}

	copy(padded[:len(b)], b)

	return binary.LittleEndian.Uint64(padded[:])
}

func encodeWidth(dst []byte, value uint64, width int, order binary.ByteOrder) {
	var full [8]byte

	if order == binary.BigEndian {
		binary.BigEndian.PutUint64(full[:], value)
		copy(dst, full[8-width:])

		return
	}

	binary.LittleEndian.PutUint64(full[:], value)
	copy(dst, full[:width])
}

// ByteOrderByName resolves the config strings "little" / "big" to a
// binary.ByteOrder, matching spec.md's byte_order parameter.
func ByteOrderByName(name string) (binary.ByteOrder, error) {
	switch name {
	case "little", "":
		return binary.LittleEndian, nil
	case "big":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("%w: unknown byte order %q", decimate.ErrInvalidArgument, name)
	}
}
