// Package ledgerstore implements the persistent, slot-indexed ledger of the
// validator: shreds and their recovery metadata on the write path, roots and
// per-slot records on the read path, and retention driven purging underneath.
package ledgerstore

import (
	"path/filepath"

	hivedb "github.com/iotaledger/hive.go/db"
	"github.com/iotaledger/hive.go/ds/types"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/hive.go/runtime/syncutils"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"

	"github.com/slotledger/ledger-core/pkg/ledgerstore/column"
	"github.com/slotledger/ledger-core/pkg/ledgerstore/database"
	"github.com/slotledger/ledger-core/pkg/ledgerstore/retention"
	"github.com/slotledger/ledger-core/pkg/model"
)

const (
	// databaseDirName is the database location inside the ledger directory.
	databaseDirName = "rocksdb"

	// secondaryCatchUpDirName holds the private catch-up state of a
	// secondary instance.
	secondaryCatchUpDirName = "rocksdb-secondary"
)

// Store is the ledger persistence facade. All methods are safe for
// concurrent use.
type Store struct {
	ledgerDirectory string
	db              *database.DB
	oldestSlot      *retention.OldestSlot

	slotMetas                *column.Store[model.Slot, *model.SlotMeta]
	deadSlots                *column.Store[model.Slot, bool]
	duplicateSlots           *column.Store[model.Slot, []byte]
	erasureMetas             *column.Store[column.SlotIndexKey, *model.ErasureMeta]
	orphans                  *column.Store[model.Slot, bool]
	bankHashes               *column.Store[model.Slot, *model.FrozenHashStatus]
	roots                    *column.Store[model.Slot, types.Empty]
	indexes                  *column.Store[model.Slot, *model.Index]
	dataShreds               *column.Store[column.SlotIndexKey, *model.Shred]
	codeShreds               *column.Store[column.SlotIndexKey, *model.Shred]
	transactionStatuses      *column.Store[column.SignatureSlotKey, []byte]
	addressSignatures        *column.Store[column.AddressSignatureKey, *model.AddressSignatureMeta]
	transactionMemos         *column.Store[column.SignatureSlotKey, []byte]
	transactionStatusIndexes *column.Store[column.PrimaryIndex, *model.TransactionStatusIndexMeta]
	blocktimes               *column.Store[model.Slot, int64]
	perfSamples              *column.Store[model.Slot, []byte]
	blockHeights             *column.Store[model.Slot, uint64]
	optimisticSlots          *column.Store[model.Slot, *model.OptimisticSlotMeta]
	merkleRootMetas          *column.Store[column.SlotIndexKey, *model.MerkleRootMeta]

	maxRoot atomic.Uint64

	// highestPrimaryIndexSlot is the newest slot covered by the legacy
	// primary transaction indexes, if any survive.
	highestPrimaryIndexSlot      model.Slot
	hasHighestPrimaryIndexSlot   bool
	highestPrimaryIndexSlotMutex syncutils.RWMutex

	// insertShredsMutex serializes the read-modify-write cycles of shred
	// insertion.
	insertShredsMutex syncutils.Mutex

	events  *Events
	metrics *Metrics
	stats   *slotStatsTracker
	logger  log.Logger

	optsDBEngine                  hivedb.Engine
	optsAccess                    database.Access
	optsWriteBufferSize           uint64
	optsPeriodicCompactionSeconds uint64
	optsMetricsRegisterer         prometheus.Registerer
}

// New opens (or creates) the ledger store rooted at ledgerDirectory.
func New(parentLogger log.Logger, ledgerDirectory string, opts ...options.Option[Store]) (*Store, error) {
	s := options.Apply(&Store{
		ledgerDirectory:               ledgerDirectory,
		oldestSlot:                    retention.NewOldestSlot(),
		events:                        NewEvents(),
		stats:                         newSlotStatsTracker(),
		optsDBEngine:                  hivedb.EngineRocksDB,
		optsAccess:                    database.AccessPrimary,
		optsWriteBufferSize:           database.DefaultWriteBufferSize,
		optsPeriodicCompactionSeconds: database.DefaultPeriodicCompactionSeconds,
	}, opts)

	s.logger = parentLogger.NewChildLogger("ledgerstore")
	s.metrics = newMetrics(s.optsMetricsRegisterer)

	db, err := database.Open(s.logger, s.databaseConfig(), s.oldestSlot)
	if err != nil {
		s.logger.Shutdown()

		return nil, ierrors.Wrap(err, "failed to open ledger database")
	}
	s.db = db
	s.initColumns()

	if err := s.initState(); err != nil {
		_ = db.Close()
		s.logger.Shutdown()

		return nil, err
	}

	s.logger.LogInfof("ledger store ready at %s (access: %s, max root: %d)", ledgerDirectory, s.optsAccess, s.maxRoot.Load())

	return s, nil
}

func (s *Store) databaseConfig() database.Config {
	return database.Config{
		Engine:                    s.optsDBEngine,
		Directory:                 filepath.Join(s.ledgerDirectory, databaseDirName),
		SecondaryDirectory:        filepath.Join(s.ledgerDirectory, secondaryCatchUpDirName),
		Access:                    s.optsAccess,
		WriteBufferSize:           s.optsWriteBufferSize,
		PeriodicCompactionSeconds: s.optsPeriodicCompactionSeconds,
	}
}

func (s *Store) initColumns() {
	s.slotMetas = column.NewStore[model.Slot, *model.SlotMeta](
		s.db.Column(database.ColumnSlotMeta.Name),
		model.Slot.Bytes, model.SlotFromBytes,
		(*model.SlotMeta).Bytes, model.SlotMetaFromBytes,
	)
	s.deadSlots = column.NewStore[model.Slot, bool](
		s.db.Column(database.ColumnDeadSlots.Name),
		model.Slot.Bytes, model.SlotFromBytes,
		column.BoolToBytes, column.BoolFromBytes,
	)
	s.duplicateSlots = column.NewStore[model.Slot, []byte](
		s.db.Column(database.ColumnDuplicateSlots.Name),
		model.Slot.Bytes, model.SlotFromBytes,
		column.RawBytesToBytes, column.RawBytesFromBytes,
	)
	s.erasureMetas = column.NewStore[column.SlotIndexKey, *model.ErasureMeta](
		s.db.Column(database.ColumnErasureMeta.Name),
		column.SlotIndexKey.Bytes, column.SlotIndexKeyFromBytes,
		(*model.ErasureMeta).Bytes, model.ErasureMetaFromBytes,
	)
	s.orphans = column.NewStore[model.Slot, bool](
		s.db.Column(database.ColumnOrphans.Name),
		model.Slot.Bytes, model.SlotFromBytes,
		column.BoolToBytes, column.BoolFromBytes,
	)
	s.bankHashes = column.NewStore[model.Slot, *model.FrozenHashStatus](
		s.db.Column(database.ColumnBankHash.Name),
		model.Slot.Bytes, model.SlotFromBytes,
		(*model.FrozenHashStatus).Bytes, model.FrozenHashStatusFromBytes,
	)
	s.roots = column.NewStore[model.Slot, types.Empty](
		s.db.Column(database.ColumnRoot.Name),
		model.Slot.Bytes, model.SlotFromBytes,
		column.EmptyToBytes, column.EmptyFromBytes,
	)
	s.indexes = column.NewStore[model.Slot, *model.Index](
		s.db.Column(database.ColumnIndex.Name),
		model.Slot.Bytes, model.SlotFromBytes,
		(*model.Index).Bytes, model.IndexFromBytes,
	)
	s.dataShreds = column.NewStore[column.SlotIndexKey, *model.Shred](
		s.db.Column(database.ColumnShredData.Name),
		column.SlotIndexKey.Bytes, column.SlotIndexKeyFromBytes,
		(*model.Shred).Bytes, model.ShredFromBytes,
	)
	s.codeShreds = column.NewStore[column.SlotIndexKey, *model.Shred](
		s.db.Column(database.ColumnShredCode.Name),
		column.SlotIndexKey.Bytes, column.SlotIndexKeyFromBytes,
		(*model.Shred).Bytes, model.ShredFromBytes,
	)
	s.transactionStatuses = column.NewStore[column.SignatureSlotKey, []byte](
		s.db.Column(database.ColumnTransactionStatus.Name),
		column.SignatureSlotKey.Bytes, column.SignatureSlotKeyFromBytes,
		column.RawBytesToBytes, column.RawBytesFromBytes,
	)
	s.addressSignatures = column.NewStore[column.AddressSignatureKey, *model.AddressSignatureMeta](
		s.db.Column(database.ColumnAddressSignatures.Name),
		column.AddressSignatureKey.Bytes, column.AddressSignatureKeyFromBytes,
		(*model.AddressSignatureMeta).Bytes, model.AddressSignatureMetaFromBytes,
	)
	s.transactionMemos = column.NewStore[column.SignatureSlotKey, []byte](
		s.db.Column(database.ColumnTransactionMemos.Name),
		column.SignatureSlotKey.Bytes, column.SignatureSlotKeyFromBytes,
		column.RawBytesToBytes, column.RawBytesFromBytes,
	)
	s.transactionStatusIndexes = column.NewStore[column.PrimaryIndex, *model.TransactionStatusIndexMeta](
		s.db.Column(database.ColumnTransactionStatusIndex.Name),
		column.PrimaryIndex.Bytes, column.PrimaryIndexFromBytes,
		(*model.TransactionStatusIndexMeta).Bytes, model.TransactionStatusIndexMetaFromBytes,
	)
	s.blocktimes = column.NewStore[model.Slot, int64](
		s.db.Column(database.ColumnBlocktime.Name),
		model.Slot.Bytes, model.SlotFromBytes,
		column.Int64ToBytes, column.Int64FromBytes,
	)
	s.perfSamples = column.NewStore[model.Slot, []byte](
		s.db.Column(database.ColumnPerfSamples.Name),
		model.Slot.Bytes, model.SlotFromBytes,
		column.RawBytesToBytes, column.RawBytesFromBytes,
	)
	s.blockHeights = column.NewStore[model.Slot, uint64](
		s.db.Column(database.ColumnBlockHeight.Name),
		model.Slot.Bytes, model.SlotFromBytes,
		column.Uint64ToBytes, column.Uint64FromBytes,
	)
	s.optimisticSlots = column.NewStore[model.Slot, *model.OptimisticSlotMeta](
		s.db.Column(database.ColumnOptimisticSlots.Name),
		model.Slot.Bytes, model.SlotFromBytes,
		(*model.OptimisticSlotMeta).Bytes, model.OptimisticSlotMetaFromBytes,
	)
	s.merkleRootMetas = column.NewStore[column.SlotIndexKey, *model.MerkleRootMeta](
		s.db.Column(database.ColumnMerkleRootMeta.Name),
		column.SlotIndexKey.Bytes, column.SlotIndexKeyFromBytes,
		(*model.MerkleRootMeta).Bytes, model.MerkleRootMetaFromBytes,
	)
}

func (s *Store) initState() error {
	maxRoot, _, exists, err := s.roots.Last()
	if err != nil {
		return ierrors.Wrap(err, "failed to recover max root")
	}
	if exists {
		s.maxRoot.Store(uint64(maxRoot))
	}

	if !s.IsPrimaryAccess() {
		return nil
	}

	if err := s.cleanupOldEntries(); err != nil {
		return ierrors.Wrap(err, "failed to clean up legacy entries")
	}

	return s.updateHighestPrimaryIndexSlot()
}

// Events returns the event hub of the store.
func (s *Store) Events() *Events {
	return s.events
}

// SlotStatsLookup returns ingest statistics for slot while they are still
// cached.
func (s *Store) SlotStatsLookup(slot model.Slot) (SlotStats, bool) {
	return s.stats.Lookup(slot)
}

// LedgerDirectory returns the root directory of the ledger.
func (s *Store) LedgerDirectory() string {
	return s.ledgerDirectory
}

// IsPrimaryAccess reports whether this instance owns the database files.
func (s *Store) IsPrimaryAccess() bool {
	return s.optsAccess.IsPrimary()
}

// CatchUpWithPrimary replays the primary's latest writes into a secondary
// instance.
func (s *Store) CatchUpWithPrimary() error {
	return s.db.CatchUpWithPrimary()
}

// Flush persists buffered writes.
func (s *Store) Flush() error {
	return s.db.Flush()
}

// Shutdown flushes and closes the store.
func (s *Store) Shutdown() error {
	if err := s.db.Close(); err != nil {
		return ierrors.Wrap(err, "failed to close ledger database")
	}
	s.logger.Shutdown()

	return nil
}

// Destroy removes the ledger database under ledgerDirectory. The store must
// not be open.
func Destroy(ledgerDirectory string, engine hivedb.Engine) error {
	return database.Destroy(database.Config{
		Engine:    engine,
		Directory: filepath.Join(ledgerDirectory, databaseDirName),
	})
}
