package tables

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Encoder/Decoder give each Go type a deterministic, self-describing binary
// encoding for use as a table key or value. Keys stay
// fixed-width so prefix ordering is meaningful; values may use heavier,
// versioned codecs via Compressor below.
type Encoder interface {
	EncodeKV() []byte
}

type Decoder interface {
	DecodeKV([]byte) error
}

// Compressor separates value compression from encoding
// so headers/transactions/classes can grow heavier codecs without
// disturbing key ordering.
type Compressor interface {
	Compress([]byte) []byte
	Decompress([]byte) ([]byte, error)
}

// ZstdCompressor wraps klauspost/compress/zstd, used for the Classes table,
// whose class bodies are large enough to benefit.
type ZstdCompressor struct{}

func (ZstdCompressor) Compress(b []byte) []byte {
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	defer enc.Close()
	return enc.EncodeAll(b, nil)
}

func (ZstdCompressor) Decompress(b []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(b, nil)
}

// EncodeUint64 produces the fixed-width 8-byte big-endian key encoding
// used for BlockNumber/TxNumber throughout the table set.
func EncodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// DecodeUint64 is the inverse of EncodeUint64.
func DecodeUint64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("tables: expected 8-byte uint64 key, got %d bytes", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// VersionTag is the 1-byte prefix carried ahead of the RLP-style payload
// for Headers and Transactions, so new fields can be added without a
// migration.
type VersionTag byte

const CurrentVersion VersionTag = 1

// WrapVersioned prepends the current version tag to an already-encoded
// payload.
func WrapVersioned(payload []byte) []byte {
	out := make([]byte, 1+len(payload))
	out[0] = byte(CurrentVersion)
	copy(out[1:], payload)
	return out
}

// UnwrapVersioned splits a versioned value back into its tag and payload.
func UnwrapVersioned(b []byte) (VersionTag, []byte, error) {
	if len(b) < 1 {
		return 0, nil, io.ErrUnexpectedEOF
	}
	return VersionTag(b[0]), b[1:], nil
}

// ConcatKeys joins fixed-width key parts (e.g. BlockNumber + TrieKey) the
// way every composite key in this table set is built.
func ConcatKeys(parts...[]byte) []byte {
	var buf bytes.Buffer
	for _, p := range parts {
		buf.Write(p)
	}
	return buf.Bytes()
}
