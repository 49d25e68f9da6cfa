package ledgerstore

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/lo"

	"github.com/slotledger/ledger-core/pkg/ledgerstore/column"
	"github.com/slotledger/ledger-core/pkg/ledgerstore/database"
	"github.com/slotledger/ledger-core/pkg/model"
)

// The transaction status index column carries exactly two rows, 0 and 1.
// Old software alternated between them to bound the cost of purging the
// signature-keyed columns; the retention filter has replaced that scheme,
// but the rows are kept so old software can still open the database.
const (
	primaryIndex0 column.PrimaryIndex = 0
	primaryIndex1 column.PrimaryIndex = 1

	// legacySentinelIndex was written as a bare key into the address
	// signatures column by old software to mark index rollover.
	legacySentinelIndex column.PrimaryIndex = 2
)

func (s *Store) cleanupOldEntries() error {
	// Both rows have to exist; a legacy database may have lost one of them
	// independently of the other.
	for _, index := range []column.PrimaryIndex{primaryIndex0, primaryIndex1} {
		_, exists, err := s.transactionStatusIndexes.Load(index)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		if err := s.transactionStatusIndexes.Store(index, &model.TransactionStatusIndexMeta{}); err != nil {
			return ierrors.Wrapf(err, "failed to initialize transaction status index %d", index)
		}
	}

	// The legacy sentinel is a raw 8 byte key, not a valid address signature
	// key, so it is removed through the untyped column handle.
	return s.db.Column(database.ColumnAddressSignatures.Name).Delete(lo.PanicOnErr(legacySentinelIndex.Bytes()))
}

func (s *Store) updateHighestPrimaryIndexSlot() error {
	var (
		highest model.Slot
		found   bool
	)
	for _, index := range []column.PrimaryIndex{primaryIndex0, primaryIndex1} {
		meta, exists, err := s.transactionStatusIndexes.Load(index)
		if err != nil {
			return err
		}
		if exists && meta.MaxSlot != 0 {
			found = true
			if meta.MaxSlot > highest {
				highest = meta.MaxSlot
			}
		}
	}

	if !found {
		// No slots are covered by the legacy indexes, so nothing in slot 0
		// needs protecting from the retention filter.
		s.oldestSlot.SetCleanSlot0(true)

		return nil
	}

	s.setHighestPrimaryIndexSlot(highest, true)

	return nil
}

func (s *Store) setHighestPrimaryIndexSlot(slot model.Slot, exists bool) {
	s.highestPrimaryIndexSlotMutex.Lock()
	defer s.highestPrimaryIndexSlotMutex.Unlock()

	s.highestPrimaryIndexSlot = slot
	s.hasHighestPrimaryIndexSlot = exists
}

// HighestPrimaryIndexSlot returns the newest slot still covered by the
// legacy transaction indexes.
func (s *Store) HighestPrimaryIndexSlot() (model.Slot, bool) {
	s.highestPrimaryIndexSlotMutex.RLock()
	defer s.highestPrimaryIndexSlotMutex.RUnlock()

	return s.highestPrimaryIndexSlot, s.hasHighestPrimaryIndexSlot
}

// maybeReleaseSlot0 clears the legacy index coverage once purging moved past
// it, which in turn allows the retention filter to clean slot 0.
func (s *Store) maybeReleaseSlot0(purgedThrough model.Slot) {
	s.highestPrimaryIndexSlotMutex.Lock()
	defer s.highestPrimaryIndexSlotMutex.Unlock()

	if s.hasHighestPrimaryIndexSlot && s.highestPrimaryIndexSlot <= purgedThrough {
		s.hasHighestPrimaryIndexSlot = false
		s.oldestSlot.SetCleanSlot0(true)
	}
}
