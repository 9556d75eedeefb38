package state

import (
	"encoding/binary"
	"fmt"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// contractInfo is the ContractInfo table value: {nonce, class_hash}.
type contractInfo struct {
	Nonce felt.Felt
	ClassHash felt.ClassHash
}

func (c contractInfo) encode() []byte {
	out := make([]byte, felt.Size*2)
	copy(out[:felt.Size], c.Nonce[:])
	copy(out[felt.Size:], c.ClassHash[:])
	return out
}

func decodeContractInfo(b []byte) (contractInfo, error) {
	if len(b) != felt.Size*2 {
		return contractInfo{}, fmt.Errorf("state: malformed ContractInfo value (%d bytes)", len(b))
	}
	var c contractInfo
	c.Nonce.SetBytes(b[:felt.Size])
	c.ClassHash.SetBytes(b[felt.Size:])
	return c, nil
}

// encodeContractClass / decodeContractClass give ContractClass a minimal
// self-describing binary form: [1-byte kind][4-byte ABI len][ABI][bytecode].
func encodeContractClass(c types.ContractClass) []byte {
	out := make([]byte, 0, 5+len(c.ABI)+len(c.Bytecode))
	out = append(out, byte(c.Kind))
	var abiLen [4]byte
	binary.BigEndian.PutUint32(abiLen[:], uint32(len(c.ABI)))
	out = append(out, abiLen[:]...)
	out = append(out, c.ABI...)
	out = append(out, c.Bytecode...)
	return out
}

func decodeContractClass(b []byte) (*types.ContractClass, error) {
	if len(b) < 5 {
		return nil, fmt.Errorf("state: malformed ContractClass value")
	}
	kind := types.ClassKind(b[0])
	abiLen := binary.BigEndian.Uint32(b[1:5])
	if uint32(len(b)-5) < abiLen {
		return nil, fmt.Errorf("state: truncated ContractClass ABI")
	}
	abi := b[5 : 5+abiLen]
	bytecode := b[5+abiLen:]
	return &types.ContractClass{Kind: kind, ABI: append([]byte{}, abi...), Bytecode: append([]byte{}, bytecode...)}, nil
}
