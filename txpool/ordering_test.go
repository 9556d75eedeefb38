package txpool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starknet-sequencer/sequencer/types"
)

func TestFIFOOrdEarlierSeqWinsHigherPriority(t *testing.T) {
	var ord FIFOOrd
	early := ord.Priority(types.Transaction{}, 1)
	late := ord.Priority(types.Transaction{}, 2)
	require.Greater(t, early, late)
}

func TestTipOrdOrdersByTip(t *testing.T) {
	var ord TipOrd
	low := ord.Priority(types.Transaction{Tip: 5}, 0)
	high := ord.Priority(types.Transaction{Tip: 50}, 0)
	require.Greater(t, high, low)
}
