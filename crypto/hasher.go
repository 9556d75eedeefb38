// Package crypto exposes the cryptographic primitives the execution core
// consumes but does not own: field-element hashing. It treats the chain's
// Poseidon/Pedersen arithmetic as an external collaborator ("assumed
// available"); this package defines the capability boundary and a
// deterministic stand-in so the rest of the module is independently
// exercisable and testable without a production SNARK-friendly hash.
package crypto

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/starknet-sequencer/sequencer/felt"
)

// Hasher computes domain-specific hashes over ordered Felt vectors. Real
// deployments wire a Poseidon or Pedersen implementation here; it is
// consumed, not re-specified.
type Hasher interface {
	Poseidon(inputs...felt.Felt) felt.Felt
	Pedersen(inputs...felt.Felt) felt.Felt
}

// StubHasher implements Hasher with a SHA-256-based sponge reduced into the
// field. It is bit-reproducible: two independent computations of the same
// Header agree bit-exactly, without claiming SNARK-friendliness.
type StubHasher struct{}

var _ Hasher = StubHasher{}

func (StubHasher) Poseidon(inputs...felt.Felt) felt.Felt { return sponge("poseidon", inputs) }
func (StubHasher) Pedersen(inputs...felt.Felt) felt.Felt { return sponge("pedersen", inputs) }

func sponge(domain string, inputs []felt.Felt) felt.Felt {
	h := sha256.New()
	h.Write([]byte(domain))
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(inputs)))
	h.Write(lenBuf[:])
	for _, in := range inputs {
		h.Write(in.Bytes())
	}
	sum := h.Sum(nil)
	var f felt.Felt
	f.SetBytes(sum)
	// Reduce into the field so downstream big.Int arithmetic stays valid.
	return felt.FromBigInt(f.Big())
}
