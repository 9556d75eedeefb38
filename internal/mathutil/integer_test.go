package mathutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaturatingSub(t *testing.T) {
	require.Equal(t, uint64(5), SaturatingSub(10, 5))
	require.Equal(t, uint64(0), SaturatingSub(5, 10))
	require.Equal(t, uint64(0), SaturatingSub(5, 5))
}

func TestCeilDiv(t *testing.T) {
	require.Equal(t, uint64(3), CeilDiv(7, 3))
	require.Equal(t, uint64(2), CeilDiv(6, 3))
	require.Equal(t, uint64(0), CeilDiv(7, 0))
}
