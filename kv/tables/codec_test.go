package tables

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeUint64RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 255, 256, 1 << 40, ^uint64(0)} {
		enc := EncodeUint64(v)
		require.Len(t, enc, 8)
		got, err := DecodeUint64(enc)
		require.NoError(t, err)
		require.Equal(t, v, got)
	}
}

func TestEncodeUint64PreservesOrder(t *testing.T) {
	a := EncodeUint64(1)
	b := EncodeUint64(2)
	require.Less(t, string(a), string(b))
}

func TestDecodeUint64RejectsWrongWidth(t *testing.T) {
	_, err := DecodeUint64([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestWrapUnwrapVersioned(t *testing.T) {
	payload := []byte("payload-bytes")
	wrapped := WrapVersioned(payload)
	require.Equal(t, byte(CurrentVersion), wrapped[0])

	tag, got, err := UnwrapVersioned(wrapped)
	require.NoError(t, err)
	require.Equal(t, CurrentVersion, tag)
	require.Equal(t, payload, got)
}

func TestUnwrapVersionedRejectsEmpty(t *testing.T) {
	_, _, err := UnwrapVersioned(nil)
	require.Error(t, err)
}

func TestConcatKeys(t *testing.T) {
	got := ConcatKeys(EncodeUint64(1), []byte{0xAB})
	require.Equal(t, append(EncodeUint64(1), 0xAB), got)
}

func TestZstdCompressorRoundTrip(t *testing.T) {
	c := ZstdCompressor{}
	in := []byte("the quick brown fox jumps over the lazy dog, repeated: the quick brown fox jumps over the lazy dog")
	compressed := c.Compress(in)
	out, err := c.Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, in, out)
}
