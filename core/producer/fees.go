package producer

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/starknet-sequencer/sequencer/executor"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// l1DataGasPriceUpdateFraction plays the role of EIP-4844's blob base fee
// update fraction: it controls how sharply l1_data_gas price escalates as
// the chain's L1-data backlog grows.
const l1DataGasPriceUpdateFraction = 3_338_477

// minL1DataGasPrice is the price floor below which l1_data_gas never drops,
// mirroring EIP-4844's MIN_BLOB_GASPRICE.
const minL1DataGasPrice = 1

// NextL1DataGasPrice derives the next block's l1_data_gas price from the
// excess backlog left over from the previous block, the same fake-
// exponential curve EIP-4844 uses for its blob base fee, adapted from
// "excess blob gas" to "excess L1 data-gas backlog" since this chain has no
// block-level data-gas target of its own — callers supply it via
// cfg.targetL1DataGasPerBlock.
func NextL1DataGasPrice(excessL1DataGas, targetL1DataGasPerBlock uint64) (uint64, error) {
	factor := uint256.NewInt(minL1DataGasPrice)
	denom := uint256.NewInt(l1DataGasPriceUpdateFraction)
	price, err := fakeExponential(factor, denom, excessL1DataGas)
	if err != nil {
		return 0, err
	}
	if price.IsUint64() {
		return price.Uint64(), nil
	}
	return ^uint64(0), nil
}

// NextExcessL1DataGas folds the previous block's excess and consumption
// into the new excess backlog, the adapted form of CalcExcessBlobGas.
func NextExcessL1DataGas(prevExcess, prevConsumed, targetL1DataGasPerBlock uint64) uint64 {
	total := prevExcess + prevConsumed
	if total < targetL1DataGasPerBlock {
		return 0
	}
	return total - targetL1DataGasPerBlock
}

// fakeExponential approximates factor * e**(num/denom) via the Taylor
// expansion EIP-4844 specifies for its blob base fee; only the domain (L1
// data-gas backlog, not blob gas) differs here.
func fakeExponential(factor, denom *uint256.Int, num uint64) (*uint256.Int, error) {
	numerator := uint256.NewInt(num)
	output := uint256.NewInt(0)
	numeratorAccum := new(uint256.Int)
	if _, overflow := numeratorAccum.MulOverflow(factor, denom); overflow {
		return nil, errOverflow("factor*denom")
	}
	divisor := new(uint256.Int)
	for i := 1; numeratorAccum.Sign() > 0; i++ {
		if _, overflow := output.AddOverflow(output, numeratorAccum); overflow {
			return nil, errOverflow("output+numeratorAccum")
		}
		if _, overflow := divisor.MulOverflow(denom, uint256.NewInt(uint64(i))); overflow {
			return nil, errOverflow("denom*i")
		}
		if _, overflow := numeratorAccum.MulDivOverflow(numeratorAccum, numerator, divisor); overflow {
			return nil, errOverflow("numeratorAccum*numerator/divisor")
		}
	}
	return output.Div(output, denom), nil
}

type overflowError string

func (e overflowError) Error() string { return "producer: fee curve overflow in " + string(e) }

func errOverflow(where string) error { return overflowError(where) }

// EstimateFee computes the overall fee, the three gas-price tiers, and the
// three gas-consumed tiers for a transaction's execution resources.
func EstimateFee(env executor.BlockEnv, resources types.ExecutionResources, unit string) types.FeeEstimate {
	l1Price := gasPriceForUnit(env.L1GasPrice, unit)
	l2Price := gasPriceForUnit(env.L2GasPrice, unit)
	dataPrice := gasPriceForUnit(env.L1DataGasPrice, unit)

	l1Consumed := resources.Steps / 10
	l2Consumed := resources.Steps
	dataConsumed := resources.MemoryHoles

	overall := new(uint256FeltAccumulator)
	overall.addProduct(l1Price, l1Consumed)
	overall.addProduct(l2Price, l2Consumed)
	overall.addProduct(dataPrice, dataConsumed)

	return types.FeeEstimate{
		OverallFee:        overall.total,
		L1GasPrice:        l1Price,
		L2GasPrice:        l2Price,
		L1DataGasPrice:    dataPrice,
		L1GasConsumed:     l1Consumed,
		L2GasConsumed:     l2Consumed,
		L1DataGasConsumed: dataConsumed,
	}
}

func gasPriceForUnit(pair types.GasPricePair, unit string) felt.Felt {
	if unit == "FRI" {
		return pair.PriceInStrk
	}
	return pair.PriceInEth
}

// uint256FeltAccumulator sums price*consumed across the three resources.
type uint256FeltAccumulator struct{ total felt.Felt }

func (a *uint256FeltAccumulator) addProduct(price felt.Felt, consumed uint64) {
	product := new(big.Int).Mul(price.Big(), new(big.Int).SetUint64(consumed))
	a.total = a.total.Add(felt.FromBigInt(product))
}
