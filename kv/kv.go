// Package kv defines the typed, transactional, ordered key-value capability
// the rest of the node is built on: a small raw byte-oriented capability
// surface here, with duplicate-key ("DupSort") support for tables where one
// key maps to a sorted sequence of sub-values, and a generics-based typed
// layer in kv/tables built on top of it.
package kv

import (
	"context"
	"errors"
)

// Sentinel storage errors.
var (
	ErrKeyNotFound = errors.New("kv: key not found")
	ErrTableNotFound = errors.New("kv: table not registered")
	ErrTxClosed = errors.New("kv: transaction already closed")
	ErrNotDupSort = errors.New("kv: table is not configured for duplicate keys")
	ErrMissingLatestBlockNum = errors.New("kv: missing latest block number")
)

// RwDB is the embedded, ordered, transactional key-value store. Two
// implementations satisfy it: kv/mdbx and kv/bbolt
// (go.etcd.io/bbolt, pure Go, used for tests and cgo-free builds).
type RwDB interface {
	// View runs f inside a read-only transaction.
	View(ctx context.Context, f func(tx Tx) error) error
	// Update runs f inside a read-write transaction and commits on success.
	// commit() is all-or-nothing: if f or the commit fails, none of the
	// writes are durable ( commit()).
	Update(ctx context.Context, f func(tx RwTx) error) error
	// BeginRo/BeginRw hand the caller an explicit transaction handle, used
	// by state snapshots that must own a read transaction across calls and
	// release it on Close.
	BeginRo(ctx context.Context) (Tx, error)
	BeginRw(ctx context.Context) (RwTx, error)
	Close() error
}

// Tx is a read-only transaction (tx()).
type Tx interface {
	GetOne(table string, key []byte) ([]byte, error)
	Has(table string, key []byte) (bool, error)
	Cursor(table string) (Cursor, error)
	CursorDupSort(table string) (CursorDupSort, error)
	Commit() error // read transactions commit trivially (release the snapshot)
	Rollback()
}

// RwTx is a read-write transaction (tx_mut()).
type RwTx interface {
	Tx
	Put(table string, key, value []byte) error
	Delete(table string, key []byte) error
	ClearTable(table string) error
	RwCursor(table string) (RwCursor, error)
	RwCursorDupSort(table string) (RwCursorDupSort, error)
}

// Cursor is a positioned, read-only iterator (cursor<T>()).
type Cursor interface {
	First() (k, v []byte, err error)
	Next() (k, v []byte, err error)
	Last() (k, v []byte, err error)
	Seek(seek []byte) (k, v []byte, err error)
	Close()
}

// RwCursor additionally supports in-place mutation (cursor_mut<T>()).
type RwCursor interface {
	Cursor
	Put(k, v []byte) error
	Delete(k []byte) error
	DeleteCurrent() error
}

// CursorDupSort walks the sorted sub-value sequence for one key
// (cursor_dup<T>()).
type CursorDupSort interface {
	Cursor
	SeekBothRange(key, value []byte) (v []byte, err error)
	FirstDup() (v []byte, err error)
	NextDup() (k, v []byte, err error)
	LastDup() (v []byte, err error)
	CountDuplicates() (uint64, error)
}

// RwCursorDupSort is the read-write form (cursor_dup_mut<T>()).
type RwCursorDupSort interface {
	CursorDupSort
	RwCursor
	PutNoDupData(k, v []byte) error
	DeleteCurrentDuplicates() error
	AppendDup(k, v []byte) error
}

// WalkFunc is invoked once per (key, value) pair during a walk; returning
// false stops the walk early.
type WalkFunc func(k, v []byte) (more bool, err error)

// Walk iterates a plain table from the first key >= from (or the very
// first key if from is nil).
func Walk(c Cursor, from []byte, walker WalkFunc) error {
	var k, v []byte
	var err error
	if from == nil {
		k, v, err = c.First()
	} else {
		k, v, err = c.Seek(from)
	}
	for ; k != nil; k, v, err = c.Next() {
		if err != nil {
			return err
		}
		more, err := walker(k, v)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return err
}

// WalkDup iterates every duplicate of every key in a DupSort table.
func WalkDup(c CursorDupSort, from []byte, walker WalkFunc) error {
	var k, v []byte
	var err error
	if from == nil {
		k, v, err = c.First()
	} else {
		k, v, err = c.Seek(from)
	}
	for ; k != nil; {
		if err != nil {
			return err
		}
		more, err := walker(k, v)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		k, v, err = c.NextDup()
		if k == nil && err == nil {
			k, v, err = c.Next()
		}
	}
	return err
}
