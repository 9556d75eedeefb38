package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/bbolt"
	"github.com/starknet-sequencer/sequencer/kv/tables"
	"github.com/starknet-sequencer/sequencer/types"
)

func openTestDB(t *testing.T) kv.RwDB {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedHeader(t *testing.T, db kv.RwDB, block uint64) {
	t.Helper()
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return tx.Put(tables.Headers, tables.EncodeUint64(block), []byte("header"))
	}))
}

func addr(b byte) felt.ContractAddress {
	var a felt.ContractAddress
	a[felt.Size-1] = b
	return a
}

func TestLatestStateProviderReadsWrittenNonceAndClass(t *testing.T) {
	db := openTestDB(t)
	seedHeader(t, db, 0)

	writer := NewDBStateWriter(db)
	updates := types.NewStateUpdates()
	updates.NonceUpdates[addr(1)] = felt.FromUint64(5)
	updates.DeployedContracts[addr(1)] = felt.FromUint64(0xAB)
	require.NoError(t, writer.ApplyStateUpdates(context.Background(), 0, updates))

	roTx, err := db.BeginRo(context.Background())
	require.NoError(t, err)
	sp := NewLatestStateProvider(roTx)
	defer sp.Close()

	n, err := sp.Nonce(context.Background(), addr(1))
	require.NoError(t, err)
	require.Equal(t, felt.FromUint64(5), n)

	ch, err := sp.ClassHash(context.Background(), addr(1))
	require.NoError(t, err)
	require.Equal(t, felt.FromUint64(0xAB), ch)
}

func TestLatestStateProviderUnknownAddressReturnsZero(t *testing.T) {
	db := openTestDB(t)
	seedHeader(t, db, 0)

	roTx, err := db.BeginRo(context.Background())
	require.NoError(t, err)
	sp := NewLatestStateProvider(roTx)
	defer sp.Close()

	n, err := sp.Nonce(context.Background(), addr(99))
	require.NoError(t, err)
	require.Equal(t, felt.Zero, n)
}

func TestLatestStateProviderStorageRoundTrip(t *testing.T) {
	db := openTestDB(t)
	seedHeader(t, db, 0)

	writer := NewDBStateWriter(db)
	updates := types.NewStateUpdates()
	updates.StorageUpdates[addr(1)] = types.StorageDiff{felt.FromUint64(7): felt.FromUint64(42)}
	require.NoError(t, writer.ApplyStateUpdates(context.Background(), 0, updates))

	roTx, err := db.BeginRo(context.Background())
	require.NoError(t, err)
	sp := NewLatestStateProvider(roTx)
	defer sp.Close()

	v, err := sp.Storage(context.Background(), addr(1), felt.FromUint64(7))
	require.NoError(t, err)
	require.Equal(t, felt.FromUint64(42), v)
}

func TestHistoricalStateProviderFloorLookup(t *testing.T) {
	db := openTestDB(t)
	writer := NewDBStateWriter(db)

	seedHeader(t, db, 0)
	u0 := types.NewStateUpdates()
	u0.NonceUpdates[addr(1)] = felt.FromUint64(1)
	require.NoError(t, writer.ApplyStateUpdates(context.Background(), 0, u0))

	seedHeader(t, db, 5)
	u5 := types.NewStateUpdates()
	u5.NonceUpdates[addr(1)] = felt.FromUint64(9)
	require.NoError(t, writer.ApplyStateUpdates(context.Background(), 5, u5))

	seedHeader(t, db, 10)

	// Reading at block 3 should see the nonce as of block 0, not block 5.
	roTx, err := db.BeginRo(context.Background())
	require.NoError(t, err)
	hsp := NewHistoricalStateProvider(roTx, 3)
	defer hsp.Close()

	n, err := hsp.Nonce(context.Background(), addr(1))
	require.NoError(t, err)
	require.Equal(t, felt.FromUint64(1), n)

	roTx2, err := db.BeginRo(context.Background())
	require.NoError(t, err)
	hsp2 := NewHistoricalStateProvider(roTx2, 7)
	defer hsp2.Close()

	n2, err := hsp2.Nonce(context.Background(), addr(1))
	require.NoError(t, err)
	require.Equal(t, felt.FromUint64(9), n2)
}

func TestHistoricalStateProviderBeforeAnyChangeReturnsZero(t *testing.T) {
	db := openTestDB(t)
	writer := NewDBStateWriter(db)

	seedHeader(t, db, 5)
	u5 := types.NewStateUpdates()
	u5.NonceUpdates[addr(1)] = felt.FromUint64(9)
	require.NoError(t, writer.ApplyStateUpdates(context.Background(), 5, u5))

	roTx, err := db.BeginRo(context.Background())
	require.NoError(t, err)
	hsp := NewHistoricalStateProvider(roTx, 2)
	defer hsp.Close()

	n, err := hsp.Nonce(context.Background(), addr(1))
	require.NoError(t, err)
	require.Equal(t, felt.Zero, n)
}

func TestContractInfoCodecRoundTrip(t *testing.T) {
	c := contractInfo{Nonce: felt.FromUint64(3), ClassHash: felt.FromUint64(77)}
	decoded, err := decodeContractInfo(c.encode())
	require.NoError(t, err)
	require.Equal(t, c, decoded)
}

func TestDecodeContractInfoRejectsBadLength(t *testing.T) {
	_, err := decodeContractInfo([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestContractClassCodecRoundTrip(t *testing.T) {
	c := types.ContractClass{Kind: types.ClassSierra, ABI: []byte("abi"), Bytecode: []byte("bytecode")}
	decoded, err := decodeContractClass(encodeContractClass(c))
	require.NoError(t, err)
	require.Equal(t, c.Kind, decoded.Kind)
	require.Equal(t, c.ABI, decoded.ABI)
	require.Equal(t, c.Bytecode, decoded.Bytecode)
}

func TestDecodeContractClassRejectsTruncatedABI(t *testing.T) {
	enc := encodeContractClass(types.ContractClass{ABI: []byte("abi")})
	_, err := decodeContractClass(enc[:len(enc)-2])
	require.Error(t, err)
}
