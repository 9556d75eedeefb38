// Package blocklist implements BlockList: a sorted set of block numbers kept
// alongside every "...ChangeSet" table to index the blocks at which an
// entity changed. It is backed by a Roaring bitmap, a compact shard format
// well suited to this "list of blocks where it changed" shape.
package blocklist

import (
	"bytes"

	"github.com/RoaringBitmap/roaring/v2"
)

// BlockList is a sorted integer set of block numbers.
type BlockList struct {
	bm *roaring.Bitmap
}

// New creates an empty BlockList.
func New() *BlockList { return &BlockList{bm: roaring.New()} }

// FromBlocks builds a BlockList containing exactly the given block numbers.
func FromBlocks(blocks...uint64) *BlockList {
	bl := New()
	for _, b := range blocks {
		bl.Insert(b)
	}
	return bl
}

// Insert adds a block number to the set.
func (bl *BlockList) Insert(block uint64) { bl.bm.Add(uint32(block)) }

// Len returns the number of elements.
func (bl *BlockList) Len() int { return int(bl.bm.GetCardinality()) }

// IsEmpty reports whether the set has no elements.
func (bl *BlockList) IsEmpty() bool { return bl.bm.IsEmpty() }

// Select returns the i-th smallest element (0-indexed).
func (bl *BlockList) Select(i uint32) (uint64, bool) {
	if uint64(i) >= bl.bm.GetCardinality() {
		return 0, false
	}
	v, err := bl.bm.Select(i)
	if err != nil {
		return 0, false
	}
	return uint64(v), true
}

// Min returns the smallest element, or ok=false if the set is empty.
func (bl *BlockList) Min() (uint64, bool) {
	if bl.bm.IsEmpty() {
		return 0, false
	}
	return uint64(bl.bm.Minimum()), true
}

// FloorLE returns the largest element <= n, the floor lookup (largest
// block b <= N) used by every historical read.
func (bl *BlockList) FloorLE(n uint64) (uint64, bool) {
	it := bl.bm.ReverseIterator()
	for it.HasNext() {
		v := it.Next()
		if uint64(v) <= n {
			return uint64(v), true
		}
	}
	return 0, false
}

// RemoveRange deletes every element in [lo, hi] inclusive, used by the
// pruner's changeset trimming ( "remove_range(0..=cutoff)").
func (bl *BlockList) RemoveRange(lo, hi uint64) {
	if hi < lo {
		return
	}
	bl.bm.RemoveRange(uint64(lo), uint64(hi)+1)
}

// Blocks materializes the set in ascending order.
func (bl *BlockList) Blocks() []uint64 {
	out := make([]uint64, 0, bl.bm.GetCardinality())
	it := bl.bm.Iterator()
	for it.HasNext() {
		out = append(out, uint64(it.Next()))
	}
	return out
}

// Encode serializes the BlockList for storage as a table value.
func (bl *BlockList) Encode() []byte {
	var buf bytes.Buffer
	_, _ = bl.bm.WriteTo(&buf)
	return buf.Bytes()
}

// Decode deserializes a BlockList previously produced by Encode.
func Decode(b []byte) (*BlockList, error) {
	bm := roaring.New()
	if len(b) > 0 {
		if _, err := bm.ReadFrom(bytes.NewReader(b)); err != nil {
			return nil, err
		}
	}
	return &BlockList{bm: bm}, nil
}
