package codec_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teronlabs/decimate/internal/codec"
	"github.com/teronlabs/decimate/internal/decimate"
)

func TestReadWriteDelta_RoundTrips(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		width int
		order binary.ByteOrder
		value uint64
	}{
		{"1 byte little", 1, binary.LittleEndian, 0xAB},
		{"1 byte big", 1, binary.BigEndian, 0xAB},
		{"4 byte little", 4, binary.LittleEndian, 0x01020304},
		{"4 byte big", 4, binary.BigEndian, 0x01020304},
		{"8 byte little max", 8, binary.LittleEndian, ^uint64(0)},
		{"8 byte big max", 8, binary.BigEndian, ^uint64(0)},
		{"3 byte little", 3, binary.LittleEndian, 0xABCDEF},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			err := codec.WriteDelta(&buf, tc.value, tc.width, tc.order)
			require.NoError(t, err)
			require.Equal(t, tc.width, buf.Len())

			got, err := codec.ReadDelta(&buf, tc.width, tc.order)
			require.NoError(t, err)
			require.Equal(t, tc.value, got)
		})
	}
}

func TestWriteDelta_PanicsOnOverflow(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		_ = codec.WriteDelta(&bytes.Buffer{}, 256, 1, binary.LittleEndian)
	})
}

func TestReadDelta_EOF(t *testing.T) {
	t.Parallel()

	_, err := codec.ReadDelta(bytes.NewReader(nil), 1, binary.LittleEndian)
	require.ErrorIs(t, err, io.EOF)
}

func TestReadDelta_PartialReadIsUnexpectedEOF(t *testing.T) {
	t.Parallel()

	_, err := codec.ReadDelta(bytes.NewReader([]byte{0x01, 0x02}), 4, binary.LittleEndian)
	require.Error(t, err)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestByteOrderByName(t *testing.T) {
	t.Parallel()

	little, err := codec.ByteOrderByName("little")
	require.NoError(t, err)
	require.Equal(t, binary.LittleEndian, little)

	big, err := codec.ByteOrderByName("big")
	require.NoError(t, err)
	require.Equal(t, binary.BigEndian, big)

	_, err = codec.ByteOrderByName("middle")
	require.True(t, errors.Is(err, decimate.ErrInvalidArgument))
}

// TestNamedTransforms matches spec.md section 4.A's four required
// conformance transforms exactly.
func TestNamedTransforms(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input uint64
		want  uint64
	}{
		{"identity", 12345, 12345},
		{"mod256", 511, 255},
		{"mod256", 256, 0},
		{"shr1mod256", 511, (511 >> 1) % 256},
		{"shr1mod255", 511, (511 >> 1) % 255},
	}

	for _, tc := range cases {
		transform, err := codec.TransformByName(tc.name)
		require.NoError(t, err)
		require.Equalf(t, tc.want, transform(tc.input), "%s(%d)", tc.name, tc.input)
	}
}

func TestTransformByName_Unknown(t *testing.T) {
	t.Parallel()

	_, err := codec.TransformByName("nope")
	require.True(t, errors.Is(err, decimate.ErrInvalidArgument))
}

func TestValidateTransform(t *testing.T) {
	t.Parallel()

	identity, err := codec.TransformByName("identity")
	require.NoError(t, err)

	// identity on an 8-byte input can exceed a single output byte.
	require.Error(t, codec.ValidateTransform(identity, 8, 1))

	mod256, err := codec.TransformByName("mod256")
	require.NoError(t, err)
	require.NoError(t, codec.ValidateTransform(mod256, 8, 1))
}
