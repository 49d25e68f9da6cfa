package database

import "github.com/iotaledger/hive.go/ierrors"

var (
	// ErrInvalidConfiguration is returned when Open is called with
	// parameters that are rejected before any I/O happens.
	ErrInvalidConfiguration = ierrors.New("invalid database configuration")

	// ErrSecondaryRequiresRocksDB is returned when Secondary access is
	// requested on an engine that cannot trail a live primary.
	ErrSecondaryRequiresRocksDB = ierrors.New("secondary access requires the rocksdb engine")

	// ErrReadOnly is returned for mutations attempted through a Secondary
	// instance.
	ErrReadOnly = ierrors.New("database is opened in secondary (read-only) mode")
)
