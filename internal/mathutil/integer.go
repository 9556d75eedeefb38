// Package mathutil holds the small overflow-aware integer helpers the node
// needs in a few unrelated corners (pruning cutoffs). This
// is the kind of package erigon itself keeps under erigon-lib/common/math
// rather than duplicating saturating-subtract logic at each call site.
package mathutil

// SaturatingSub returns a-b, or 0 if b >= a, instead of wrapping around
// uint64's zero boundary. Used wherever a count of "blocks to keep" can
// legitimately exceed the chain's current height.
func SaturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

// CeilDiv returns ceil(a/b) for positive b, and 0 when b is 0.
func CeilDiv(a, b uint64) uint64 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
