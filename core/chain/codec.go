// Package chain persists sealed blocks, transactions, and receipts into the
// block/transaction-index table group and reconstructs them on read. Header
// encoding uses erigon-lib/rlp directly. Transaction and Receipt are tagged
// unions with map and pointer fields RLP's reflection path does not
// traverse cleanly, so they get a small hand-rolled length-prefixed encoder
// instead (see DESIGN.md).
package chain

import (
	"encoding/binary"
	"fmt"

	"github.com/erigontech/erigon-lib/rlp"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/kv/tables"
	"github.com/starknet-sequencer/sequencer/types"
)

// EncodeHeader produces the VersionedHeader table value.
func EncodeHeader(h types.Header) ([]byte, error) {
	payload, err := rlp.EncodeToBytes(&h)
	if err != nil {
		return nil, fmt.Errorf("chain: encode header: %w", err)
	}
	return tables.WrapVersioned(payload), nil
}

// DecodeHeader is the inverse of EncodeHeader.
func DecodeHeader(b []byte) (types.Header, error) {
	_, payload, err := tables.UnwrapVersioned(b)
	if err != nil {
		return types.Header{}, err
	}
	var h types.Header
	if err := rlp.DecodeBytes(payload, &h); err != nil {
		return types.Header{}, fmt.Errorf("chain: decode header: %w", err)
	}
	return h, nil
}

// --- Transaction -----------------------------------------------------------

type byteWriter struct{ b []byte }

func (w *byteWriter) u8(v uint8) { w.b = append(w.b, v) }
func (w *byteWriter) u64(v uint64) { var t [8]byte; binary.BigEndian.PutUint64(t[:], v); w.b = append(w.b, t[:]...) }
func (w *byteWriter) felt(f felt.Felt) { w.b = append(w.b, f.Bytes()...) }
func (w *byteWriter) bytes(b []byte) {
	w.u64(uint64(len(b)))
	w.b = append(w.b, b...)
}
func (w *byteWriter) feltSlice(fs []felt.Felt) {
	w.u64(uint64(len(fs)))
	for _, f := range fs {
		w.felt(f)
	}
}

type byteReader struct {
	b []byte
	pos int
}

func (r *byteReader) u8() (uint8, error) {
	if r.pos+1 > len(r.b) {
		return 0, fmt.Errorf("chain: truncated u8")
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *byteReader) u64() (uint64, error) {
	if r.pos+8 > len(r.b) {
		return 0, fmt.Errorf("chain: truncated u64")
	}
	v := binary.BigEndian.Uint64(r.b[r.pos : r.pos+8])
	r.pos += 8
	return v, nil
}

func (r *byteReader) felt() (felt.Felt, error) {
	if r.pos+felt.Size > len(r.b) {
		return felt.Zero, fmt.Errorf("chain: truncated felt")
	}
	var f felt.Felt
	f.SetBytes(r.b[r.pos : r.pos+felt.Size])
	r.pos += felt.Size
	return f, nil
}

func (r *byteReader) bytes() ([]byte, error) {
	n, err := r.u64()
	if err != nil {
		return nil, err
	}
	if r.pos+int(n) > len(r.b) {
		return nil, fmt.Errorf("chain: truncated bytes")
	}
	out := r.b[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return out, nil
}

func (r *byteReader) feltSlice() ([]felt.Felt, error) {
	n, err := r.u64()
	if err != nil {
		return nil, err
	}
	out := make([]felt.Felt, n)
	for i := range out {
		f, err := r.felt()
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// EncodeTx produces the VersionedTx table value.
func EncodeTx(tx types.Transaction) []byte {
	w := &byteWriter{}
	w.u8(uint8(tx.Kind))
	w.u8(tx.Version)
	w.felt(tx.Sender)
	w.felt(tx.Nonce)
	w.feltSlice(tx.Calldata)
	w.feltSlice(tx.Signature)
	w.u8(uint8(tx.ResourceBounds.Kind))
	w.u64(tx.ResourceBounds.L1Gas.MaxAmount)
	w.felt(tx.ResourceBounds.L1Gas.MaxPricePerUnit)
	w.u64(tx.ResourceBounds.L2Gas.MaxAmount)
	w.felt(tx.ResourceBounds.L2Gas.MaxPricePerUnit)
	w.u64(tx.ResourceBounds.L1DataGas.MaxAmount)
	w.felt(tx.ResourceBounds.L1DataGas.MaxPricePerUnit)
	w.u64(tx.Tip)
	if tx.Paymaster != nil {
		w.u8(1)
		w.felt(tx.Paymaster.PaymasterAddress)
		w.feltSlice(tx.Paymaster.Data)
	} else {
		w.u8(0)
	}
	w.felt(tx.ClassHash)
	w.felt(tx.CompiledClassHash)
	w.felt(tx.ContractAddressSalt)
	w.feltSlice(tx.ConstructorCalldata)
	w.u64(tx.L1HandlerNonce)
	return tables.WrapVersioned(w.b)
}

// DecodeTx is the inverse of EncodeTx.
func DecodeTx(b []byte) (types.Transaction, error) {
	_, payload, err := tables.UnwrapVersioned(b)
	if err != nil {
		return types.Transaction{}, err
	}
	r := &byteReader{b: payload}
	var tx types.Transaction
	kind, err := r.u8()
	if err != nil {
		return tx, err
	}
	tx.Kind = types.TxKind(kind)
	if tx.Version, err = r.u8(); err != nil {
		return tx, err
	}
	if tx.Sender, err = r.felt(); err != nil {
		return tx, err
	}
	if tx.Nonce, err = r.felt(); err != nil {
		return tx, err
	}
	if tx.Calldata, err = r.feltSlice(); err != nil {
		return tx, err
	}
	if tx.Signature, err = r.feltSlice(); err != nil {
		return tx, err
	}
	kindByte, err := r.u8()
	if err != nil {
		return tx, err
	}
	tx.ResourceBounds.Kind = types.ResourceBoundsKind(kindByte)
	if tx.ResourceBounds.L1Gas.MaxAmount, err = r.u64(); err != nil {
		return tx, err
	}
	if tx.ResourceBounds.L1Gas.MaxPricePerUnit, err = r.felt(); err != nil {
		return tx, err
	}
	if tx.ResourceBounds.L2Gas.MaxAmount, err = r.u64(); err != nil {
		return tx, err
	}
	if tx.ResourceBounds.L2Gas.MaxPricePerUnit, err = r.felt(); err != nil {
		return tx, err
	}
	if tx.ResourceBounds.L1DataGas.MaxAmount, err = r.u64(); err != nil {
		return tx, err
	}
	if tx.ResourceBounds.L1DataGas.MaxPricePerUnit, err = r.felt(); err != nil {
		return tx, err
	}
	if tx.Tip, err = r.u64(); err != nil {
		return tx, err
	}
	hasPaymaster, err := r.u8()
	if err != nil {
		return tx, err
	}
	if hasPaymaster == 1 {
		var pm types.PaymasterData
		if pm.PaymasterAddress, err = r.felt(); err != nil {
			return tx, err
		}
		if pm.Data, err = r.feltSlice(); err != nil {
			return tx, err
		}
		tx.Paymaster = &pm
	}
	if tx.ClassHash, err = r.felt(); err != nil {
		return tx, err
	}
	if tx.CompiledClassHash, err = r.felt(); err != nil {
		return tx, err
	}
	if tx.ContractAddressSalt, err = r.felt(); err != nil {
		return tx, err
	}
	if tx.ConstructorCalldata, err = r.feltSlice(); err != nil {
		return tx, err
	}
	if tx.L1HandlerNonce, err = r.u64(); err != nil {
		return tx, err
	}
	return tx, nil
}

// EncodeReceipt encodes a Receipt for the Receipts table.
func EncodeReceipt(rcpt types.Receipt) []byte {
	w := &byteWriter{}
	w.felt(rcpt.TxHash)
	w.felt(rcpt.ActualFee)
	w.bytes([]byte(rcpt.FeeUnit))
	w.u64(uint64(len(rcpt.Events)))
	for _, e := range rcpt.Events {
		w.felt(e.FromAddress)
		w.feltSlice(e.Keys)
		w.feltSlice(e.Data)
	}
	w.u64(uint64(len(rcpt.Messages)))
	for _, m := range rcpt.Messages {
		w.felt(m.FromAddress)
		w.felt(m.ToAddress)
		w.feltSlice(m.Payload)
	}
	w.u64(rcpt.Resources.Steps)
	w.u64(rcpt.Resources.MemoryHoles)
	w.u64(uint64(len(rcpt.Resources.BuiltinCounters)))
	for name, count := range rcpt.Resources.BuiltinCounters {
		w.bytes([]byte(name))
		w.u64(count)
	}
	w.u8(uint8(rcpt.ExecutionResult.Status))
	w.bytes([]byte(rcpt.ExecutionResult.RevertReason))
	for _, gp := range rcpt.GasPrices {
		w.felt(gp.PriceInEth)
		w.felt(gp.PriceInStrk)
	}
	return w.b
}

// DecodeReceipt is the inverse of EncodeReceipt.
func DecodeReceipt(b []byte) (types.Receipt, error) {
	r := &byteReader{b: b}
	var rcpt types.Receipt
	var err error
	if rcpt.TxHash, err = r.felt(); err != nil {
		return rcpt, err
	}
	if rcpt.ActualFee, err = r.felt(); err != nil {
		return rcpt, err
	}
	feeUnit, err := r.bytes()
	if err != nil {
		return rcpt, err
	}
	rcpt.FeeUnit = string(feeUnit)

	nEvents, err := r.u64()
	if err != nil {
		return rcpt, err
	}
	rcpt.Events = make([]types.Event, nEvents)
	for i := range rcpt.Events {
		if rcpt.Events[i].FromAddress, err = r.felt(); err != nil {
			return rcpt, err
		}
		if rcpt.Events[i].Keys, err = r.feltSlice(); err != nil {
			return rcpt, err
		}
		if rcpt.Events[i].Data, err = r.feltSlice(); err != nil {
			return rcpt, err
		}
	}

	nMsgs, err := r.u64()
	if err != nil {
		return rcpt, err
	}
	rcpt.Messages = make([]types.L2ToL1Message, nMsgs)
	for i := range rcpt.Messages {
		if rcpt.Messages[i].FromAddress, err = r.felt(); err != nil {
			return rcpt, err
		}
		if rcpt.Messages[i].ToAddress, err = r.felt(); err != nil {
			return rcpt, err
		}
		if rcpt.Messages[i].Payload, err = r.feltSlice(); err != nil {
			return rcpt, err
		}
	}

	if rcpt.Resources.Steps, err = r.u64(); err != nil {
		return rcpt, err
	}
	if rcpt.Resources.MemoryHoles, err = r.u64(); err != nil {
		return rcpt, err
	}
	nBuiltins, err := r.u64()
	if err != nil {
		return rcpt, err
	}
	rcpt.Resources.BuiltinCounters = make(map[string]uint64, nBuiltins)
	for i := uint64(0); i < nBuiltins; i++ {
		name, err := r.bytes()
		if err != nil {
			return rcpt, err
		}
		count, err := r.u64()
		if err != nil {
			return rcpt, err
		}
		rcpt.Resources.BuiltinCounters[string(name)] = count
	}

	status, err := r.u8()
	if err != nil {
		return rcpt, err
	}
	rcpt.ExecutionResult.Status = types.ExecutionStatus(status)
	reason, err := r.bytes()
	if err != nil {
		return rcpt, err
	}
	rcpt.ExecutionResult.RevertReason = string(reason)

	for i := range rcpt.GasPrices {
		if rcpt.GasPrices[i].PriceInEth, err = r.felt(); err != nil {
			return rcpt, err
		}
		if rcpt.GasPrices[i].PriceInStrk, err = r.felt(); err != nil {
			return rcpt, err
		}
	}
	return rcpt, nil
}
