package producer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starknet-sequencer/sequencer/executor"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

func TestNextL1DataGasPriceFloorsAtMinimumWithNoExcess(t *testing.T) {
	price, err := NextL1DataGasPrice(0, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(minL1DataGasPrice), price)
}

func TestNextL1DataGasPriceRisesWithExcess(t *testing.T) {
	low, err := NextL1DataGasPrice(0, 100)
	require.NoError(t, err)
	high, err := NextL1DataGasPrice(10_000_000, 100)
	require.NoError(t, err)
	require.Greater(t, high, low)
}

func TestNextExcessL1DataGasBelowTargetResetsToZero(t *testing.T) {
	require.Equal(t, uint64(0), NextExcessL1DataGas(10, 20, 100))
}

func TestNextExcessL1DataGasAboveTargetCarriesRemainder(t *testing.T) {
	require.Equal(t, uint64(30), NextExcessL1DataGas(100, 30, 100))
}

func TestEstimateFeeUsesStrkPriceForFRIUnit(t *testing.T) {
	env := executor.BlockEnv{
		L1GasPrice:     types.GasPricePair{PriceInEth: felt.FromUint64(1), PriceInStrk: felt.FromUint64(2)},
		L2GasPrice:     types.GasPricePair{PriceInEth: felt.FromUint64(1), PriceInStrk: felt.FromUint64(2)},
		L1DataGasPrice: types.GasPricePair{PriceInEth: felt.FromUint64(1), PriceInStrk: felt.FromUint64(2)},
	}
	resources := types.ExecutionResources{Steps: 100, MemoryHoles: 5}

	wei := EstimateFee(env, resources, "WEI")
	fri := EstimateFee(env, resources, "FRI")

	require.Equal(t, felt.FromUint64(1), wei.L1GasPrice)
	require.Equal(t, felt.FromUint64(2), fri.L1GasPrice)
	require.NotEqual(t, wei.OverallFee, fri.OverallFee)
}

func TestEstimateFeeConsumedSplit(t *testing.T) {
	env := executor.BlockEnv{
		L1GasPrice:     types.GasPricePair{PriceInEth: felt.FromUint64(1)},
		L2GasPrice:     types.GasPricePair{PriceInEth: felt.FromUint64(1)},
		L1DataGasPrice: types.GasPricePair{PriceInEth: felt.FromUint64(1)},
	}
	resources := types.ExecutionResources{Steps: 100, MemoryHoles: 7}
	est := EstimateFee(env, resources, "WEI")

	require.Equal(t, uint64(10), est.L1GasConsumed)
	require.Equal(t, uint64(100), est.L2GasConsumed)
	require.Equal(t, uint64(7), est.L1DataGasConsumed)
}
