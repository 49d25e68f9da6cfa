package database

import (
	hivedb "github.com/iotaledger/hive.go/db"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/ioutils"

	"github.com/slotledger/ledger-core/pkg/ledgerstore/retention"
)

// IterDirection selects the traversal order of an iteration.
type IterDirection uint8

const (
	IterForward IterDirection = iota
	IterReverse
)

// IteratorMode describes where an iteration starts and which way it walks.
type IteratorMode struct {
	seek      []byte
	hasSeek   bool
	direction IterDirection
}

// IterateFromStart walks the column from its first key upwards.
func IterateFromStart() IteratorMode {
	return IteratorMode{direction: IterForward}
}

// IterateFromEnd walks the column from its last key downwards.
func IterateFromEnd() IteratorMode {
	return IteratorMode{direction: IterReverse}
}

// IterateFrom starts at the first key at or beyond the given one (at or
// before it for reverse iteration) and walks in the given direction.
func IterateFrom(key []byte, direction IterDirection) IteratorMode {
	return IteratorMode{seek: key, hasSeek: true, direction: direction}
}

// engine is the storage backend behind a DB. Keys and values passed to the
// consumer of iterate are owned by the caller (copied out of the backend).
type engine interface {
	get(cf string, key []byte) ([]byte, error)
	put(cf string, key, value []byte) error
	delete(cf string, key []byte) error
	deleteRange(cf string, start, end []byte) error
	iterate(cf string, mode IteratorMode, consumer func(key, value []byte) bool) error
	dropColumnFamily(cf string) (bool, error)
	catchUpWithPrimary() error
	flush() error
	close() error
}

// DB is a multi-column database underneath the ledger store. All column
// families are opened up front; Column panics on names outside the known set.
type DB struct {
	config     Config
	engine     engine
	columns    map[string]*Column
	oldestSlot *retention.OldestSlot

	logger log.Logger
}

// Open attaches to the database directory described by config, creating it
// for primary access modes. The returned handle owns the passed OldestSlot
// cursor for retention decisions made during compaction.
func Open(parentLogger log.Logger, config Config, oldestSlot *retention.OldestSlot) (*DB, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}

	logger := parentLogger.NewChildLogger("database")

	if config.Access.IsPrimary() {
		if err := ioutils.CreateDirectory(config.Directory, 0o700); err != nil {
			return nil, ierrors.Wrapf(err, "failed to create database directory %s", config.Directory)
		}
	}

	var (
		eng engine
		err error
	)
	switch config.Engine {
	case hivedb.EngineRocksDB:
		eng, err = openRocksDB(logger, config, oldestSlot)
	case hivedb.EngineMapDB:
		eng, err = openMapDB(config)
	default:
		err = ierrors.Wrapf(ErrInvalidConfiguration, "unsupported database engine %s", config.Engine)
	}
	if err != nil {
		return nil, err
	}

	d := &DB{
		config:     config,
		engine:     eng,
		columns:    make(map[string]*Column),
		oldestSlot: oldestSlot,
		logger:     logger,
	}
	for _, cf := range ColumnFamilies() {
		d.columns[cf.Name] = &Column{db: d, cf: cf}
	}

	if config.Access.IsPrimary() {
		dropped, err := eng.dropColumnFamily(DeprecatedProgramCostsColumn)
		if err != nil {
			d.Close()

			return nil, ierrors.Wrapf(err, "failed to drop deprecated column family %s", DeprecatedProgramCostsColumn)
		}
		if dropped {
			logger.LogInfof("dropped deprecated column family %s", DeprecatedProgramCostsColumn)
		}
	}

	logger.LogDebugf("opened %s database at %s (%s)", config.Engine, config.Directory, config.Access)

	return d, nil
}

// Destroy removes all database files under the given directory.
func Destroy(config Config) error {
	switch config.Engine {
	case hivedb.EngineRocksDB:
		return destroyRocksDB(config.Directory)
	case hivedb.EngineMapDB:
		return nil
	default:
		return ierrors.Wrapf(ErrInvalidConfiguration, "unsupported database engine %s", config.Engine)
	}
}

// Column returns the handle for the named column family. The name must be
// one of the known descriptors; asking for anything else is a programming
// error.
func (d *DB) Column(name string) *Column {
	column, exists := d.columns[name]
	if !exists {
		panic(ierrors.Errorf("unknown column family %s", name))
	}

	return column
}

// Config returns the configuration the database was opened with.
func (d *DB) Config() Config {
	return d.config
}

// OldestSlot exposes the retention cursor shared with the compaction filters.
func (d *DB) OldestSlot() *retention.OldestSlot {
	return d.oldestSlot
}

// CatchUpWithPrimary replays the primary's recent writes into a Secondary
// instance. It is a no-op for primary access modes.
func (d *DB) CatchUpWithPrimary() error {
	return d.engine.catchUpWithPrimary()
}

// Flush persists all buffered writes.
func (d *DB) Flush() error {
	return d.engine.flush()
}

// Close flushes and releases the underlying engine.
func (d *DB) Close() error {
	if err := d.engine.close(); err != nil {
		return err
	}
	d.logger.Shutdown()

	return nil
}

func (d *DB) writable() error {
	if d.config.Access == AccessSecondary {
		return ErrReadOnly
	}

	return nil
}

// Column is a handle on one column family of a DB.
type Column struct {
	db *DB
	cf ColumnFamily
}

// Name returns the column family name.
func (c *Column) Name() string {
	return c.cf.Name
}

// Descriptor returns the static description of this column family.
func (c *Column) Descriptor() ColumnFamily {
	return c.cf
}

// Get returns the value stored under key, or nil if the key does not exist.
func (c *Column) Get(key []byte) ([]byte, error) {
	return c.db.engine.get(c.cf.Name, key)
}

// Put stores value under key.
func (c *Column) Put(key, value []byte) error {
	if err := c.db.writable(); err != nil {
		return err
	}

	return c.db.engine.put(c.cf.Name, key, value)
}

// Delete removes key if it exists.
func (c *Column) Delete(key []byte) error {
	if err := c.db.writable(); err != nil {
		return err
	}

	return c.db.engine.delete(c.cf.Name, key)
}

// DeleteRange removes all keys in [start, end).
func (c *Column) DeleteRange(start, end []byte) error {
	if err := c.db.writable(); err != nil {
		return err
	}

	return c.db.engine.deleteRange(c.cf.Name, start, end)
}

// Iterate walks the column in the given mode, calling consumer for every
// entry until it returns false or the column is exhausted. Key and value
// slices are owned by the consumer.
func (c *Column) Iterate(mode IteratorMode, consumer func(key, value []byte) bool) error {
	return c.db.engine.iterate(c.cf.Name, mode, consumer)
}
