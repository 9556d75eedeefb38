// Package tables registers the fixed set of MDBX tables this node persists:
// a flat list of table name constants, a Cfg naming which tables carry the
// DupSort flag, and an init() that fills in a default CfgItem for every
// registered table. Both backends create exactly these tables and answer
// any other table name with kv.ErrTableNotFound.
package tables

import "sort"

// Table name constants, grouped by concern: block/transaction index, state,
// history change sets, tries, pipeline.
const (
	// Block / transaction index.
	Headers = "Headers" // BlockNumber -> VersionedHeader
	BlockHashes = "BlockHashes" // BlockNumber -> BlockHash
	BlockNumbers = "BlockNumbers" // BlockHash -> BlockNumber
	BlockBodyIndices = "BlockBodyIndices" // BlockNumber -> {first_tx, tx_count}
	BlockStatuses = "BlockStatuses" // BlockNumber -> {AcceptedOnL2, AcceptedOnL1}
	TxNumbers = "TxNumbers" // TxHash -> TxNumber
	TxHashes = "TxHashes" // TxNumber -> TxHash
	TxBlocks = "TxBlocks" // TxNumber -> BlockNumber
	Transactions = "Transactions" // TxNumber -> VersionedTx
	Receipts = "Receipts" // TxNumber -> Receipt
	TxTraces = "TxTraces" // TxNumber -> ExecutionInfo

	// State.
	ContractInfo = "ContractInfo" // ContractAddress -> {nonce, class_hash}
	ContractStorage = "ContractStorage" // (ContractAddress, StorageKey) -> {key, value} [dup]
	CompiledClassHashes = "CompiledClassHashes" // ClassHash -> CompiledClassHash
	Classes = "Classes" // ClassHash -> ContractClass
	ClassDeclarationBlock = "ClassDeclarationBlock" // ClassHash -> BlockNumber
	ClassDeclarations = "ClassDeclarations" // (BlockNumber, ClassHash) -> ClassHash [dup]

	// History change sets.
	ContractInfoChangeSet = "ContractInfoChangeSet" // ContractAddress -> BlockList
	NonceChangeHistory = "NonceChangeHistory" // (BlockNumber, ContractAddress) -> {address, nonce} [dup]
	ClassChangeHistory = "ClassChangeHistory" // (BlockNumber, ContractAddress) -> {address, class_hash} [dup]
	StorageChangeHistory = "StorageChangeHistory" // (BlockNumber, ContractStorageKey) -> {key, value} [dup]
	StorageChangeSet = "StorageChangeSet" // ContractStorageKey -> BlockList

	// Tries.
	ClassesTrie = "ClassesTrie" // TrieKey -> TrieValue
	ContractsTrie = "ContractsTrie" // TrieKey -> TrieValue
	StoragesTrie = "StoragesTrie" // TrieKey -> TrieValue

	ClassesTrieHistory = "ClassesTrieHistory" // (BlockNumber, TrieKey) -> TrieHistoryEntry [dup]
	ContractsTrieHistory = "ContractsTrieHistory" // (BlockNumber, TrieKey) -> TrieHistoryEntry [dup]
	StoragesTrieHistory = "StoragesTrieHistory" // (BlockNumber, TrieKey) -> TrieHistoryEntry [dup]

	ClassesTrieChangeSet = "ClassesTrieChangeSet" // TrieKey -> BlockList
	ContractsTrieChangeSet = "ContractsTrieChangeSet" // TrieKey -> BlockList
	StoragesTrieChangeSet = "StoragesTrieChangeSet" // TrieKey -> BlockList

	// Pipeline.
	StageCheckpoints = "StageCheckpoints" // StageId -> BlockNumber
)

// ChaindataTables lists every table the app may touch; kv/mdbx and kv/bbolt
// return kv.ErrTableNotFound for a table name outside this list.
var ChaindataTables = []string{
	Headers, BlockHashes, BlockNumbers, BlockBodyIndices, BlockStatuses,
	TxNumbers, TxHashes, TxBlocks, Transactions, Receipts, TxTraces,
	ContractInfo, ContractStorage, CompiledClassHashes, Classes,
	ClassDeclarationBlock, ClassDeclarations,
	ContractInfoChangeSet, NonceChangeHistory, ClassChangeHistory,
	StorageChangeHistory, StorageChangeSet,
	ClassesTrie, ContractsTrie, StoragesTrie,
	ClassesTrieHistory, ContractsTrieHistory, StoragesTrieHistory,
	ClassesTrieChangeSet, ContractsTrieChangeSet, StoragesTrieChangeSet,
	StageCheckpoints,
}

// Flags is the table-flag vocabulary; this node only needs DupSort.
type Flags uint

const (
	Default Flags = 0x00
	DupSort Flags = 0x04
)

// CfgItem configures one table; DupFromLen/DupToLen let a DupSort-unaware
// backend (kv/bbolt) emulate duplicate keys by folding the sub-key into a
// composite physical key.
type CfgItem struct {
	Flags Flags
	DupFromLen int // length of the logical (key+subkey) when dup-emulated
	DupToLen int // length of the logical key prefix
}

type Cfg map[string]CfgItem

// ChaindataTablesCfg declares every dup-sorted table. All history tables
// are dup-sorted by (BlockNumber, entity); ContractStorage is dup-sorted by
// (ContractAddress, StorageKey); ClassDeclarations is dup-sorted by
// (BlockNumber, ClassHash).
var ChaindataTablesCfg = Cfg{
	ContractStorage: {Flags: DupSort, DupToLen: 32, DupFromLen: 64},
	ClassDeclarations: {Flags: DupSort, DupToLen: 8, DupFromLen: 40},
	NonceChangeHistory: {Flags: DupSort, DupToLen: 8, DupFromLen: 40},
	ClassChangeHistory: {Flags: DupSort, DupToLen: 8, DupFromLen: 40},
	StorageChangeHistory: {Flags: DupSort, DupToLen: 8, DupFromLen: 72},
	ClassesTrieHistory: {Flags: DupSort, DupToLen: 8, DupFromLen: 40},
	ContractsTrieHistory: {Flags: DupSort, DupToLen: 8, DupFromLen: 40},
	StoragesTrieHistory: {Flags: DupSort, DupToLen: 8, DupFromLen: 40},
}

func init() {
	sort.Strings(ChaindataTables)
	for _, name := range ChaindataTables {
		if _, ok := ChaindataTablesCfg[name]; !ok {
			ChaindataTablesCfg[name] = CfgItem{}
		}
	}
}

// IsDupSort reports whether table carries the DupSort flag.
func IsDupSort(table string) bool {
	return ChaindataTablesCfg[table].Flags&DupSort != 0
}
