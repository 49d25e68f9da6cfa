package database

import (
	"strconv"

	"github.com/iotaledger/grocksdb"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/ioutils"

	"github.com/slotledger/ledger-core/pkg/ledgerstore/retention"
	"github.com/slotledger/ledger-core/pkg/model"
)

const (
	maxWriteBufferNumber        = 8
	level0FileNumCompactTrigger = 4

	// unknownColumnWriteBufferSize keeps column families we do not recognize
	// on a minimal memory budget.
	unknownColumnWriteBufferSize uint64 = 1024 * 1024
)

type rocksEngine struct {
	access  Access
	db      *grocksdb.DB
	handles map[string]*grocksdb.ColumnFamilyHandle

	readOpts  *grocksdb.ReadOptions
	writeOpts *grocksdb.WriteOptions
	flushOpts *grocksdb.FlushOptions
}

func openRocksDB(logger log.Logger, config Config, oldestSlot *retention.OldestSlot) (*rocksEngine, error) {
	dbOpts := grocksdb.NewDefaultOptions()
	dbOpts.SetCreateIfMissing(true)
	dbOpts.SetCreateIfMissingColumnFamilies(true)
	dbOpts.SetMaxOpenFiles(-1)
	if config.Access != AccessPrimary {
		dbOpts.SetDisableAutoCompactions(true)
	}

	columnFamilies := ColumnFamilies()
	if config.Access.IsPrimary() {
		// An existing database may carry column families this build does not
		// know about (written by newer software, or the deprecated ones we
		// drop below). They all have to be listed at open time.
		detected, err := grocksdb.ListColumnFamilies(grocksdb.NewDefaultOptions(), config.Directory)
		if err != nil {
			logger.LogDebugf("could not list column families at %s, assuming a fresh database: %s", config.Directory, err)
		}
		columnFamilies = append(columnFamilies, unknownColumnFamilies(columnFamilies, detected)...)
	}

	names := make([]string, 0, len(columnFamilies)+1)
	cfOpts := make([]*grocksdb.Options, 0, len(columnFamilies)+1)
	names = append(names, defaultColumnName)
	cfOpts = append(cfOpts, grocksdb.NewDefaultOptions())
	known := make(map[string]struct{}, len(ColumnFamilies()))
	for _, cf := range ColumnFamilies() {
		known[cf.Name] = struct{}{}
	}
	for _, cf := range columnFamilies {
		names = append(names, cf.Name)
		if _, ok := known[cf.Name]; ok {
			cfOpts = append(cfOpts, columnFamilyOptions(cf, config, oldestSlot))
		} else {
			cfOpts = append(cfOpts, unknownColumnFamilyOptions())
		}
	}

	var (
		db          *grocksdb.DB
		handleSlice []*grocksdb.ColumnFamilyHandle
		err         error
	)
	switch config.Access {
	case AccessPrimary, AccessPrimaryForMaintenance:
		db, handleSlice, err = grocksdb.OpenDbColumnFamilies(dbOpts, config.Directory, names, cfOpts)
	case AccessSecondary:
		db, handleSlice, err = grocksdb.OpenDbAsSecondaryColumnFamilies(dbOpts, config.Directory, config.SecondaryDirectory, names, cfOpts)
	}
	if err != nil {
		return nil, ierrors.Wrapf(err, "failed to open rocksdb at %s", config.Directory)
	}

	handles := make(map[string]*grocksdb.ColumnFamilyHandle, len(names))
	for i, name := range names {
		handles[name] = handleSlice[i]
	}

	if config.Access == AccessPrimary {
		// Column family options carry no setter for periodic compaction, so
		// it is enabled through the string options of the live handles.
		periodicCompactionSeconds := strconv.FormatUint(config.PeriodicCompactionSeconds, 10)
		for _, cf := range ColumnFamilies() {
			if !cf.RetainedByFilter {
				continue
			}

			if err := db.SetOptionsCF(handles[cf.Name], []string{"periodic_compaction_seconds"}, []string{periodicCompactionSeconds}); err != nil {
				return nil, ierrors.Wrapf(err, "failed to enable periodic compaction on column family %s", cf.Name)
			}
		}
	}

	return &rocksEngine{
		access:    config.Access,
		db:        db,
		handles:   handles,
		readOpts:  grocksdb.NewDefaultReadOptions(),
		writeOpts: grocksdb.NewDefaultWriteOptions(),
		flushOpts: grocksdb.NewDefaultFlushOptions(),
	}, nil
}

func columnFamilyOptions(cf ColumnFamily, config Config, oldestSlot *retention.OldestSlot) *grocksdb.Options {
	opts := grocksdb.NewDefaultOptions()
	opts.SetMaxWriteBufferNumber(maxWriteBufferNumber)
	opts.SetWriteBufferSize(config.WriteBufferSize)
	opts.SetLevel0FileNumCompactionTrigger(level0FileNumCompactTrigger)

	// Sized so that L1 roughly holds one full set of level 0 files.
	maxBytesForLevelBase := config.WriteBufferSize * level0FileNumCompactTrigger
	opts.SetMaxBytesForLevelBase(maxBytesForLevelBase)
	opts.SetTargetFileSizeBase(maxBytesForLevelBase / 10)

	if config.Access != AccessPrimary {
		opts.SetDisableAutoCompactions(true)
	}

	if cf.Compression {
		opts.SetCompression(grocksdb.LZ4Compression)
	} else {
		opts.SetCompression(grocksdb.NoCompression)
	}

	// Columns that cannot be range-deleted shed purged slots through the
	// retention filter. Periodic compactions bound how long stale entries
	// survive; they are enabled per handle after open, see openRocksDB.
	if config.Access == AccessPrimary && cf.RetainedByFilter {
		opts.SetCompactionFilter(&purgeFilter{
			columnName:  cf.Name,
			slotFromKey: cf.SlotFromKey,
			factory:     retention.NewFilterFactory(oldestSlot),
		})
	}

	return opts
}

func unknownColumnFamilyOptions() *grocksdb.Options {
	opts := grocksdb.NewDefaultOptions()
	opts.SetWriteBufferSize(unknownColumnWriteBufferSize)
	opts.SetDisableAutoCompactions(true)

	return opts
}

// purgeFilter drops entries of slots that fell behind the retention cursor.
// It snapshots the cursor per key so the keep rule stays consistent with
// concurrent purges; the cursor only moves forward, so a snapshot can never
// resurrect an already dropped slot.
type purgeFilter struct {
	columnName  string
	slotFromKey func(key []byte) model.Slot
	factory     *retention.FilterFactory
}

var _ grocksdb.CompactionFilter = (*purgeFilter)(nil)

func (p *purgeFilter) Name() string {
	return "retention." + p.columnName
}

func (p *purgeFilter) Filter(_ int, key, _ []byte) (bool, []byte) {
	return !p.factory.Create().Keep(p.slotFromKey(key)), nil
}

// SetIgnoreSnapshots is a RocksDB pre-6.0 relic without effect today.
func (p *purgeFilter) SetIgnoreSnapshots(bool) {}

// Destroy is a no-op, the filter holds no C-side state of its own.
func (p *purgeFilter) Destroy() {}

func (e *rocksEngine) handle(cf string) *grocksdb.ColumnFamilyHandle {
	handle, exists := e.handles[cf]
	if !exists {
		panic(ierrors.Errorf("unknown column family %s", cf))
	}

	return handle
}

func (e *rocksEngine) get(cf string, key []byte) ([]byte, error) {
	slice, err := e.db.GetCF(e.readOpts, e.handle(cf), key)
	if err != nil {
		return nil, err
	}
	defer slice.Free()

	if !slice.Exists() {
		return nil, nil
	}

	value := make([]byte, len(slice.Data()))
	copy(value, slice.Data())

	return value, nil
}

func (e *rocksEngine) put(cf string, key, value []byte) error {
	return e.db.PutCF(e.writeOpts, e.handle(cf), key, value)
}

func (e *rocksEngine) delete(cf string, key []byte) error {
	return e.db.DeleteCF(e.writeOpts, e.handle(cf), key)
}

func (e *rocksEngine) deleteRange(cf string, start, end []byte) error {
	batch := grocksdb.NewWriteBatch()
	defer batch.Destroy()

	batch.DeleteRangeCF(e.handle(cf), start, end)

	return e.db.Write(e.writeOpts, batch)
}

func (e *rocksEngine) iterate(cf string, mode IteratorMode, consumer func(key, value []byte) bool) error {
	it := e.db.NewIteratorCF(e.readOpts, e.handle(cf))
	defer it.Close()

	switch {
	case mode.direction == IterForward && !mode.hasSeek:
		it.SeekToFirst()
	case mode.direction == IterForward:
		it.Seek(mode.seek)
	case !mode.hasSeek:
		it.SeekToLast()
	default:
		it.SeekForPrev(mode.seek)
	}

	for ; it.Valid(); next(it, mode.direction) {
		keySlice := it.Key()
		valueSlice := it.Value()
		key := make([]byte, len(keySlice.Data()))
		copy(key, keySlice.Data())
		value := make([]byte, len(valueSlice.Data()))
		copy(value, valueSlice.Data())
		keySlice.Free()
		valueSlice.Free()

		if !consumer(key, value) {
			return nil
		}
	}

	return it.Err()
}

func next(it *grocksdb.Iterator, direction IterDirection) {
	if direction == IterForward {
		it.Next()
	} else {
		it.Prev()
	}
}

func (e *rocksEngine) dropColumnFamily(cf string) (bool, error) {
	handle, exists := e.handles[cf]
	if !exists {
		return false, nil
	}

	if err := e.db.DropColumnFamily(handle); err != nil {
		return false, err
	}
	handle.Destroy()
	delete(e.handles, cf)

	return true, nil
}

func (e *rocksEngine) catchUpWithPrimary() error {
	if e.access != AccessSecondary {
		return nil
	}

	return e.db.TryCatchUpWithPrimary()
}

func (e *rocksEngine) flush() error {
	if e.access == AccessSecondary {
		return nil
	}

	return e.db.Flush(e.flushOpts)
}

func (e *rocksEngine) close() error {
	for _, handle := range e.handles {
		handle.Destroy()
	}
	e.readOpts.Destroy()
	e.writeOpts.Destroy()
	e.flushOpts.Destroy()
	e.db.Close()

	return nil
}

func destroyRocksDB(directory string) error {
	// DestroyDb fails on a missing directory, so make sure it exists first.
	// That keeps destroying a never-created database a no-op.
	if err := ioutils.CreateDirectory(directory, 0o700); err != nil {
		return ierrors.Wrapf(err, "failed to create database directory %s", directory)
	}

	return grocksdb.DestroyDb(directory, grocksdb.NewDefaultOptions())
}
