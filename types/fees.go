package types

import "github.com/starknet-sequencer/sequencer/felt"

// ResourceBoundsKind distinguishes the current three-resource bound form
// from the legacy two-resource one.
type ResourceBoundsKind uint8

const (
	AllResourceBoundsKind ResourceBoundsKind = iota
	L1GasOnlyKind
)

// ResourceBound is a (max_amount, max_price_per_unit) pair for one resource.
type ResourceBound struct {
	MaxAmount uint64
	MaxPricePerUnit felt.Felt
}

// ResourceBoundsMapping is the tagged union of the two wire shapes:
// AllResourceBounds{l1_gas, l2_gas, l1_data_gas} or the legacy
// L1GasOnly{l1_gas, l2_gas}. When serializing the legacy form,
// l1_data_gas is omitted (see MarshalWire).
type ResourceBoundsMapping struct {
	Kind ResourceBoundsKind
	L1Gas ResourceBound
	L2Gas ResourceBound
	L1DataGas ResourceBound // only meaningful when Kind == AllResourceBoundsKind
}

// WireResourceBounds is the JSON-RPC wire shape; l1_data_gas is present
// only for the current (AllResourceBounds) form.
type WireResourceBounds struct {
	L1Gas *WireBound `json:"l1_gas"`
	L2Gas *WireBound `json:"l2_gas"`
	L1DataGas *WireBound `json:"l1_data_gas,omitempty"`
}

type WireBound struct {
	MaxAmount uint64 `json:"max_amount"`
	MaxPricePerUnit string `json:"max_price_per_unit"`
}

// MarshalWire renders the resource bounds for the wire, omitting
// l1_data_gas for the legacy form.
func (r ResourceBoundsMapping) MarshalWire() WireResourceBounds {
	out := WireResourceBounds{
		L1Gas: &WireBound{MaxAmount: r.L1Gas.MaxAmount, MaxPricePerUnit: r.L1Gas.MaxPricePerUnit.Hex()},
		L2Gas: &WireBound{MaxAmount: r.L2Gas.MaxAmount, MaxPricePerUnit: r.L2Gas.MaxPricePerUnit.Hex()},
	}
	if r.Kind == AllResourceBoundsKind {
		out.L1DataGas = &WireBound{MaxAmount: r.L1DataGas.MaxAmount, MaxPricePerUnit: r.L1DataGas.MaxPricePerUnit.Hex()}
	}
	return out
}

// FeeEstimate reports the overall fee, the three gas-price tiers, and the
// three gas-consumed tiers.
type FeeEstimate struct {
	OverallFee felt.Felt
	L1GasPrice felt.Felt
	L2GasPrice felt.Felt
	L1DataGasPrice felt.Felt
	L1GasConsumed uint64
	L2GasConsumed uint64
	L1DataGasConsumed uint64
}
