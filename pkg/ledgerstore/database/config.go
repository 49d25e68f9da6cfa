package database

import (
	hivedb "github.com/iotaledger/hive.go/db"
	"github.com/iotaledger/hive.go/ierrors"
)

const (
	// DefaultWriteBufferSize is the memtable budget for regular column
	// families.
	DefaultWriteBufferSize uint64 = 256 * 1024 * 1024

	// DefaultPeriodicCompactionSeconds bounds how stale data in the
	// filter-cleaned column families can get before a compaction revisits it.
	DefaultPeriodicCompactionSeconds uint64 = 60 * 60 * 24
)

// Access selects how an instance attaches to the files on disk.
type Access uint8

const (
	// AccessPrimary is the normal read-write mode with background compactions.
	AccessPrimary Access = iota

	// AccessPrimaryForMaintenance opens read-write but with automatic
	// compactions disabled, so offline tooling can operate without churn.
	AccessPrimaryForMaintenance

	// AccessSecondary opens a read-only instance that trails a live primary
	// from its own catch-up directory.
	AccessSecondary
)

// IsPrimary reports whether the mode owns the database files.
func (a Access) IsPrimary() bool {
	return a == AccessPrimary || a == AccessPrimaryForMaintenance
}

func (a Access) String() string {
	switch a {
	case AccessPrimary:
		return "primary"
	case AccessPrimaryForMaintenance:
		return "primary-for-maintenance"
	case AccessSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Config carries everything Open needs to attach to (or create) a database.
type Config struct {
	Engine    hivedb.Engine
	Directory string
	// SecondaryDirectory is where a Secondary instance keeps its catch-up
	// state. Ignored for primary access.
	SecondaryDirectory        string
	Access                    Access
	WriteBufferSize           uint64
	PeriodicCompactionSeconds uint64
}

// WithDirectory returns a copy of the config pointing at the given directory.
func (c Config) WithDirectory(directory string) Config {
	c.Directory = directory

	return c
}

func (c Config) validate() error {
	if c.Directory == "" {
		return ierrors.Wrap(ErrInvalidConfiguration, "directory must not be empty")
	}

	if c.WriteBufferSize == 0 {
		return ierrors.Wrap(ErrInvalidConfiguration, "write buffer size must not be zero")
	}

	if c.PeriodicCompactionSeconds == 0 {
		return ierrors.Wrap(ErrInvalidConfiguration, "periodic compaction interval must not be zero")
	}

	switch c.Access {
	case AccessPrimary, AccessPrimaryForMaintenance:
	case AccessSecondary:
		if c.Engine != hivedb.EngineRocksDB {
			return ierrors.Wrapf(ErrSecondaryRequiresRocksDB, "engine %s", c.Engine)
		}
		if c.SecondaryDirectory == "" {
			return ierrors.Wrap(ErrInvalidConfiguration, "secondary directory must not be empty")
		}
	default:
		return ierrors.Wrapf(ErrInvalidConfiguration, "unknown access mode %d", c.Access)
	}

	switch c.Engine {
	case hivedb.EngineRocksDB, hivedb.EngineMapDB:
		return nil
	default:
		return ierrors.Wrapf(ErrInvalidConfiguration, "unsupported database engine %s", c.Engine)
	}
}
