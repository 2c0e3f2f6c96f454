package execdata

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVarIntEncoding(t *testing.T) {
	for _, test := range []struct {
		value   uint32
		encoded []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{0x1234, []byte{0xB4, 0x24}},
		{16384, []byte{0x80, 0x80, 0x01}},
		{0xFFFFFFFF, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
	} {
		t.Run(fmt.Sprintf("varint/%d", test.value), func(t *testing.T) {
			var buf bytes.Buffer
			enc := compactEncoder{wr: &buf}
			enc.writeVarInt(test.value)
			require.NoError(t, enc.error())
			require.Equal(t, test.encoded, buf.Bytes())

			dec := compactDecoder{rd: &buf}
			value, ok := dec.readVarInt("test")
			require.True(t, ok)
			require.Equal(t, test.value, value)
		})
	}
}

func TestVarIntTooLong(t *testing.T) {
	dec := compactDecoder{rd: bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})}
	_, ok := dec.readVarInt("test")
	require.False(t, ok)
	require.ErrorIs(t, dec.error(), ErrMalformed)
}

func TestBooleanArrayRoundTrip(t *testing.T) {
	for _, size := range []int{0, 1, 7, 8, 9, 64, 100} {
		t.Run(fmt.Sprintf("probes/%d", size), func(t *testing.T) {
			probes := make([]bool, size)
			for i := range probes {
				probes[i] = i%3 == 0
			}

			var buf bytes.Buffer
			enc := compactEncoder{wr: &buf}
			enc.writeBooleanArray(probes)
			require.NoError(t, enc.error())

			dec := compactDecoder{rd: &buf}
			decoded, ok := dec.readBooleanArray("test")
			require.True(t, ok)
			require.Equal(t, probes, decoded)
		})
	}
}

func TestBooleanArrayPacking(t *testing.T) {
	var buf bytes.Buffer
	enc := compactEncoder{wr: &buf}
	enc.writeBooleanArray([]bool{true, false, true})
	require.NoError(t, enc.error())

	// count 3, then one byte with bits 0 and 2 set (LSB first).
	require.Equal(t, []byte{0x03, 0x05}, buf.Bytes())
}

func TestUTFRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := compactEncoder{wr: &buf}
	enc.writeUTF("org/example/Foo")
	require.NoError(t, enc.error())
	require.Equal(t, byte(0x00), buf.Bytes()[0])
	require.Equal(t, byte(0x0F), buf.Bytes()[1])

	dec := compactDecoder{rd: &buf}
	s, ok := dec.readUTF("test")
	require.True(t, ok)
	require.Equal(t, "org/example/Foo", s)
}

func TestTruncatedBlockIsMalformed(t *testing.T) {
	dec := compactDecoder{rd: bytes.NewReader([]byte{0x00})}
	_, ok := dec.readU64("execution data block")
	require.False(t, ok)
	require.ErrorIs(t, dec.error(), ErrMalformed)
}
