// Package felt implements the 252-bit field element that is the universal
// word size of the Starknet state machine.
package felt

import (
	"encoding/hex"
	"errors"
	"math/big"
)

// Size is the fixed-width encoding length of a Felt: 32 bytes, big-endian.
const Size = 32

// Prime is the Starknet field modulus 2**251 + 17*2**192 + 1.
var Prime, _ = new(big.Int).SetString("800000000000011000000000000000000000000000000000000000000000001", 16)

// reducedAddressBound is the ContractAddress upper bound: 2**251 - 256.
var reducedAddressBound = func() *big.Int {
	b := new(big.Int).Lsh(big.NewInt(1), 251)
	return b.Sub(b, big.NewInt(256))
}()

// Felt is a 252-bit unsigned field element with a constant-size 32-byte
// big-endian encoding and total order.
type Felt [Size]byte

// Zero is the additive identity.
var Zero = Felt{}

// One is the multiplicative identity.
var One = feltFromUint64(1)

func feltFromUint64(v uint64) Felt {
	var f Felt
	big.NewInt(0).SetUint64(v).FillBytes(f[:])
	return f
}

// FromBigInt reduces b modulo Prime and encodes it as a Felt.
func FromBigInt(b *big.Int) Felt {
	r := new(big.Int).Mod(b, Prime)
	var f Felt
	r.FillBytes(f[:])
	return f
}

// FromUint64 encodes a small unsigned integer as a Felt.
func FromUint64(v uint64) Felt { return feltFromUint64(v) }

// Big returns the big.Int value of f.
func (f Felt) Big() *big.Int { return new(big.Int).SetBytes(f[:]) }

// IsZero reports whether f is the additive identity.
func (f Felt) IsZero() bool { return f == Zero }

// Cmp gives the total order the (sender, nonce) pool key and block-ordering
// comparisons rely on.
func (f Felt) Cmp(other Felt) int {
	for i := range f {
		if f[i] != other[i] {
			if f[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Bytes returns the 32-byte big-endian encoding.
func (f Felt) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, f[:])
	return out
}

// SetBytes decodes a big-endian byte slice, left-padding with zeros.
func (f *Felt) SetBytes(b []byte) {
	var tmp Felt
	if len(b) > Size {
		b = b[len(b)-Size:]
	}
	copy(tmp[Size-len(b):], b)
	*f = tmp
}

// Hex renders the canonical "0x..." representation, trimming leading zeros.
func (f Felt) Hex() string {
	b := new(big.Int).SetBytes(f[:])
	return "0x" + b.Text(16)
}

// FromHex parses a "0x"-prefixed hex string into a Felt.
func FromHex(s string) (Felt, error) {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Felt{}, err
	}
	if len(b) > Size {
		return Felt{}, errors.New("felt: value overflows 32 bytes")
	}
	var f Felt
	f.SetBytes(b)
	return f, nil
}

// Add returns f + other mod Prime.
func (f Felt) Add(other Felt) Felt {
	r := new(big.Int).Add(f.Big(), other.Big())
	return FromBigInt(r)
}

// Sub returns f - other mod Prime.
func (f Felt) Sub(other Felt) Felt {
	r := new(big.Int).Sub(f.Big(), other.Big())
	return FromBigInt(r)
}

// ShortString packs up to 31 ASCII bytes into a Felt, matching Starknet's
// `short_string` convention used by the block-hash domain separator.
func ShortString(s string) Felt {
	if len(s) > 31 {
		s = s[:31]
	}
	return FromBigInt(new(big.Int).SetBytes([]byte(s)))
}
