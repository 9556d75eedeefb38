package felt

// ContractAddress is a Felt in the reduced address range (<= 2**251 - 256).
type ContractAddress = Felt

// IsValidAddress reports whether f falls in the reduced address range.
func IsValidAddress(f Felt) bool {
	return f.Big().Cmp(reducedAddressBound) <= 0
}

// Hash is a Felt produced by a domain-specific hash (Poseidon or Pedersen)
// over an ordered input vector
type Hash = Felt

// ClassHash identifies a contract class.
type ClassHash = Felt

// CompiledClassHash identifies the compiled (Sierra -> CASM) form of a class.
type CompiledClassHash = Felt

// StorageKey addresses a single storage slot within a contract.
type StorageKey = Felt

// StorageValue is the value stored at a StorageKey.
type StorageValue = Felt
