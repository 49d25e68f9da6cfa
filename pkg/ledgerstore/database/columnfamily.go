package database

import (
	"encoding/binary"

	"github.com/slotledger/ledger-core/pkg/model"
)

// ColumnFamily describes one keyspace of the ledger database. The set of
// descriptors is fixed at compile time; column families found on disk that
// are not part of this set are opened with minimal resources so the database
// stays accessible, but no code path writes to them.
type ColumnFamily struct {
	Name string

	// SlotPrefixed marks columns whose key starts with the big-endian slot,
	// so a slot range maps onto a contiguous key range.
	SlotPrefixed bool

	// RetainedByFilter marks columns whose keys embed the slot somewhere
	// other than the prefix. They cannot be range-deleted and are instead
	// cleaned lazily by the retention filter during compaction.
	RetainedByFilter bool

	// Compression enables on-disk compression for the column.
	Compression bool

	// SlotFromKey extracts the slot a key belongs to. Only set for columns
	// that embed a slot in their keys.
	SlotFromKey func(key []byte) model.Slot
}

func slotPrefix(key []byte) model.Slot {
	return model.Slot(binary.BigEndian.Uint64(key[:model.SlotLength]))
}

func slotAtOffset(offset int) func(key []byte) model.Slot {
	return func(key []byte) model.Slot {
		return model.Slot(binary.BigEndian.Uint64(key[offset : offset+model.SlotLength]))
	}
}

var (
	ColumnSlotMeta       = ColumnFamily{Name: "meta", SlotPrefixed: true, SlotFromKey: slotPrefix}
	ColumnDeadSlots      = ColumnFamily{Name: "dead_slots", SlotPrefixed: true, SlotFromKey: slotPrefix}
	ColumnDuplicateSlots = ColumnFamily{Name: "duplicate_slots", SlotPrefixed: true, SlotFromKey: slotPrefix}
	ColumnErasureMeta    = ColumnFamily{Name: "erasure_meta", SlotPrefixed: true, SlotFromKey: slotPrefix}
	ColumnOrphans        = ColumnFamily{Name: "orphans", SlotPrefixed: true, SlotFromKey: slotPrefix}
	ColumnBankHash       = ColumnFamily{Name: "bank_hashes", SlotPrefixed: true, SlotFromKey: slotPrefix}
	ColumnRoot           = ColumnFamily{Name: "root", SlotPrefixed: true, SlotFromKey: slotPrefix}
	ColumnIndex          = ColumnFamily{Name: "index", SlotPrefixed: true, SlotFromKey: slotPrefix}
	ColumnShredData      = ColumnFamily{Name: "data_shred", SlotPrefixed: true, SlotFromKey: slotPrefix}
	ColumnShredCode      = ColumnFamily{Name: "code_shred", SlotPrefixed: true, SlotFromKey: slotPrefix}

	// Key: signature (64 bytes) followed by the big-endian slot.
	ColumnTransactionStatus = ColumnFamily{
		Name:             "transaction_status",
		RetainedByFilter: true,
		Compression:      true,
		SlotFromKey:      slotAtOffset(model.SignatureLength),
	}

	// Key: address (32 bytes), big-endian slot, signature (64 bytes).
	ColumnAddressSignatures = ColumnFamily{
		Name:             "address_signatures",
		RetainedByFilter: true,
		SlotFromKey:      slotAtOffset(model.AddressLength),
	}

	// Key: signature (64 bytes) followed by the big-endian slot.
	ColumnTransactionMemos = ColumnFamily{
		Name:             "transaction_memos",
		RetainedByFilter: true,
		SlotFromKey:      slotAtOffset(model.SignatureLength),
	}

	// Keyed by a fixed primary index (0 or 1), not by slot. Never cleaned
	// automatically.
	ColumnTransactionStatusIndex = ColumnFamily{Name: "transaction_status_index"}

	ColumnBlocktime       = ColumnFamily{Name: "blocktime", SlotPrefixed: true, SlotFromKey: slotPrefix}
	ColumnPerfSamples     = ColumnFamily{Name: "perf_samples", SlotPrefixed: true, SlotFromKey: slotPrefix}
	ColumnBlockHeight     = ColumnFamily{Name: "block_height", SlotPrefixed: true, SlotFromKey: slotPrefix}
	ColumnOptimisticSlots = ColumnFamily{Name: "optimistic_slots", SlotPrefixed: true, SlotFromKey: slotPrefix}
	ColumnMerkleRootMeta  = ColumnFamily{Name: "merkle_root_meta", SlotPrefixed: true, SlotFromKey: slotPrefix}
)

// DeprecatedProgramCostsColumn was written by earlier releases; it is dropped
// when a primary instance opens the database.
const DeprecatedProgramCostsColumn = "program_costs"

// defaultColumnName is the column family every engine creates implicitly.
const defaultColumnName = "default"

// ColumnFamilies returns the full descriptor set in a stable order.
func ColumnFamilies() []ColumnFamily {
	return []ColumnFamily{
		ColumnSlotMeta,
		ColumnDeadSlots,
		ColumnDuplicateSlots,
		ColumnErasureMeta,
		ColumnOrphans,
		ColumnBankHash,
		ColumnRoot,
		ColumnIndex,
		ColumnShredData,
		ColumnShredCode,
		ColumnTransactionStatus,
		ColumnAddressSignatures,
		ColumnTransactionMemos,
		ColumnTransactionStatusIndex,
		ColumnBlocktime,
		ColumnPerfSamples,
		ColumnBlockHeight,
		ColumnOptimisticSlots,
		ColumnMerkleRootMeta,
	}
}

// unknownColumnFamilies returns minimal descriptors for column families that
// exist on disk but are not part of the known set. Opening them (instead of
// failing) keeps databases written by newer software readable.
func unknownColumnFamilies(known []ColumnFamily, detected []string) []ColumnFamily {
	knownNames := make(map[string]struct{}, len(known)+1)
	knownNames[defaultColumnName] = struct{}{}
	for _, cf := range known {
		knownNames[cf.Name] = struct{}{}
	}

	var unknown []ColumnFamily
	for _, name := range detected {
		if _, ok := knownNames[name]; ok {
			continue
		}
		unknown = append(unknown, ColumnFamily{Name: name})
	}

	return unknown
}
