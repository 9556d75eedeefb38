package felt

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromHexRoundTrip(t *testing.T) {
	f, err := FromHex("0x1a2b3c")
	require.NoError(t, err)
	require.Equal(t, "0x1a2b3c", f.Hex())
}

func TestFromHexAcceptsOddLengthAndNoPrefix(t *testing.T) {
	f, err := FromHex("1a2")
	require.NoError(t, err)
	require.Equal(t, "0x1a2", f.Hex())
}

func TestFromHexRejectsOverflow(t *testing.T) {
	// 66 hex digits is 33 bytes, one over the 32-byte Felt width.
	long := "0x"
	for i := 0; i < 66; i++ {
		long += "f"
	}
	_, err := FromHex(long)
	require.Error(t, err)
}

func TestSetBytesLeftPads(t *testing.T) {
	var f Felt
	f.SetBytes([]byte{0x01, 0x02})
	require.Equal(t, byte(0x01), f[Size-2])
	require.Equal(t, byte(0x02), f[Size-1])
	for i := 0; i < Size-2; i++ {
		require.Equal(t, byte(0), f[i])
	}
}

func TestSetBytesTruncatesOverlong(t *testing.T) {
	in := make([]byte, Size+4)
	in[len(in)-1] = 0x42
	var f Felt
	f.SetBytes(in)
	require.Equal(t, byte(0x42), f[Size-1])
}

func TestCmpTotalOrder(t *testing.T) {
	a := FromUint64(1)
	b := FromUint64(2)
	require.Equal(t, -1, a.Cmp(b))
	require.Equal(t, 1, b.Cmp(a))
	require.Equal(t, 0, a.Cmp(a))
}

func TestIsZero(t *testing.T) {
	require.True(t, Zero.IsZero())
	require.False(t, One.IsZero())
}

func TestAddWrapsModPrime(t *testing.T) {
	almostPrime := FromBigInt(new(big.Int).Sub(Prime, big.NewInt(1)))
	sum := almostPrime.Add(FromUint64(2))
	require.Equal(t, FromUint64(1), sum)
}

func TestSubUnderflowsModPrime(t *testing.T) {
	diff := Zero.Sub(One)
	want := FromBigInt(new(big.Int).Sub(Prime, big.NewInt(1)))
	require.Equal(t, want, diff)
}

func TestShortStringPacksASCII(t *testing.T) {
	f := ShortString("abc")
	require.Equal(t, "abc", string(f.Big().Bytes()))
}

func TestShortStringTruncatesOverlong(t *testing.T) {
	long := ""
	for i := 0; i < 40; i++ {
		long += "x"
	}
	f := ShortString(long)
	require.Len(t, f.Big().Bytes(), 31)
}

func TestIsValidAddress(t *testing.T) {
	require.True(t, IsValidAddress(Zero))
	require.True(t, IsValidAddress(FromBigInt(reducedAddressBound)))

	over := new(big.Int).Add(reducedAddressBound, big.NewInt(1))
	require.False(t, IsValidAddress(FromBigInt(over)))
}
