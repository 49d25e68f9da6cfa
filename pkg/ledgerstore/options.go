package ledgerstore

import (
	hivedb "github.com/iotaledger/hive.go/db"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/slotledger/ledger-core/pkg/ledgerstore/database"
)

// WithDBEngine selects the storage backend underneath the store.
func WithDBEngine(optsDBEngine hivedb.Engine) options.Option[Store] {
	return func(s *Store) {
		s.optsDBEngine = optsDBEngine
	}
}

// WithAccess selects how the store attaches to the database files.
func WithAccess(optsAccess database.Access) options.Option[Store] {
	return func(s *Store) {
		s.optsAccess = optsAccess
	}
}

// WithWriteBufferSize overrides the per-column memtable budget.
func WithWriteBufferSize(optsWriteBufferSize uint64) options.Option[Store] {
	return func(s *Store) {
		s.optsWriteBufferSize = optsWriteBufferSize
	}
}

// WithPeriodicCompactionSeconds overrides how often the filter-cleaned
// columns are revisited by compaction.
func WithPeriodicCompactionSeconds(optsPeriodicCompactionSeconds uint64) options.Option[Store] {
	return func(s *Store) {
		s.optsPeriodicCompactionSeconds = optsPeriodicCompactionSeconds
	}
}

// WithMetricsRegisterer exports the store metrics through the given
// registerer.
func WithMetricsRegisterer(optsMetricsRegisterer prometheus.Registerer) options.Option[Store] {
	return func(s *Store) {
		s.optsMetricsRegisterer = optsMetricsRegisterer
	}
}
