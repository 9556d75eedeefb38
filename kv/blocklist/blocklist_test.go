package blocklist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloorLE(t *testing.T) {
	bl := FromBlocks(2, 5, 9, 20)

	v, ok := bl.FloorLE(9)
	require.True(t, ok)
	require.Equal(t, uint64(9), v)

	v, ok = bl.FloorLE(8)
	require.True(t, ok)
	require.Equal(t, uint64(5), v)

	v, ok = bl.FloorLE(100)
	require.True(t, ok)
	require.Equal(t, uint64(20), v)

	_, ok = bl.FloorLE(1)
	require.False(t, ok)
}

func TestRemoveRangeEmptiesList(t *testing.T) {
	bl := FromBlocks(1, 2, 3)
	bl.RemoveRange(0, 3)
	require.True(t, bl.IsEmpty())
}

func TestRemoveRangePartial(t *testing.T) {
	bl := FromBlocks(1, 2, 3, 10)
	bl.RemoveRange(0, 3)
	require.Equal(t, []uint64{10}, bl.Blocks())
}

func TestRemoveRangeNoOpWhenHiLessThanLo(t *testing.T) {
	bl := FromBlocks(1, 2, 3)
	bl.RemoveRange(5, 2)
	require.Equal(t, 3, bl.Len())
}

func TestMinOnEmpty(t *testing.T) {
	bl := New()
	_, ok := bl.Min()
	require.False(t, ok)
}

func TestSelect(t *testing.T) {
	bl := FromBlocks(7, 3, 5)
	v, ok := bl.Select(0)
	require.True(t, ok)
	require.Equal(t, uint64(3), v)

	_, ok = bl.Select(10)
	require.False(t, ok)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	bl := FromBlocks(1, 100, 1000, 99999)
	decoded, err := Decode(bl.Encode())
	require.NoError(t, err)
	require.Equal(t, bl.Blocks(), decoded.Blocks())
}

func TestDecodeEmpty(t *testing.T) {
	decoded, err := Decode(nil)
	require.NoError(t, err)
	require.True(t, decoded.IsEmpty())
}
