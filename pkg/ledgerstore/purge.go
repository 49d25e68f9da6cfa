package ledgerstore

import (
	"time"

	"github.com/iotaledger/hive.go/ierrors"

	"github.com/slotledger/ledger-core/pkg/ledgerstore/column"
	"github.com/slotledger/ledger-core/pkg/model"
)

// PurgeSlots removes all ledger data in [fromSlot, toSlot]. Slot-prefixed
// columns are deleted immediately as key ranges; the signature- and
// address-keyed columns cannot be range-deleted and are cleaned lazily by
// the retention filter once the cursor has advanced past toSlot.
func (s *Store) PurgeSlots(fromSlot model.Slot, toSlot model.Slot) error {
	if toSlot < fromSlot {
		return ierrors.Errorf("invalid purge range [%d, %d]", fromSlot, toSlot)
	}
	if toSlot == model.UnknownSlot {
		return ierrors.Errorf("purge range must end below %d", model.UnknownSlot)
	}
	defer s.metrics.observePurge(time.Now())

	endSlot := toSlot + 1

	slotKeyed := []interface {
		DeleteRange(start model.Slot, end model.Slot) error
	}{
		s.slotMetas, s.deadSlots, s.duplicateSlots, s.orphans, s.bankHashes,
		s.roots, s.indexes, s.blocktimes, s.perfSamples, s.blockHeights,
		s.optimisticSlots,
	}
	for _, store := range slotKeyed {
		if err := store.DeleteRange(fromSlot, endSlot); err != nil {
			return ierrors.Wrapf(err, "failed to purge slots [%d, %d]", fromSlot, toSlot)
		}
	}

	slotIndexKeyed := []interface {
		DeleteRange(start column.SlotIndexKey, end column.SlotIndexKey) error
	}{
		s.erasureMetas, s.dataShreds, s.codeShreds, s.merkleRootMetas,
	}
	for _, store := range slotIndexKeyed {
		if err := store.DeleteRange(
			column.SlotIndexKey{Slot: fromSlot},
			column.SlotIndexKey{Slot: endSlot},
		); err != nil {
			return ierrors.Wrapf(err, "failed to purge slots [%d, %d]", fromSlot, toSlot)
		}
	}

	s.oldestSlot.Set(endSlot)
	s.maybeReleaseSlot0(toSlot)
	s.metrics.slotsPurged.Add(float64(toSlot - fromSlot + 1))

	s.logger.LogDebugf("purged slots [%d, %d]", fromSlot, toSlot)

	return nil
}

// OldestSlot returns the current retention boundary; everything below it is
// purged or scheduled for lazy cleanup.
func (s *Store) OldestSlot() model.Slot {
	return s.oldestSlot.Get()
}
