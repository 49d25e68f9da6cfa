package retention

import (
	"github.com/slotledger/ledger-core/pkg/model"
)

// Filter holds a point-in-time snapshot of the retention cursor and decides,
// per key, whether a row is still retained. A filter is created per
// compaction pass so one pass sees a consistent boundary even while the
// cursor advances concurrently.
type Filter struct {
	oldestSlot model.Slot
	cleanSlot0 bool
}

// Keep reports whether a row whose key embeds the given slot must be
// retained. Slot 0 may carry data predating slot-keyed schemas and is
// preserved until cleanSlot0 is set.
func (f Filter) Keep(slot model.Slot) bool {
	return slot >= f.oldestSlot || (slot == 0 && !f.cleanSlot0)
}

// FilterFactory creates Filter snapshots from the shared cursor.
type FilterFactory struct {
	oldestSlot *OldestSlot
}

func NewFilterFactory(oldestSlot *OldestSlot) *FilterFactory {
	return &FilterFactory{oldestSlot: oldestSlot}
}

// Create snapshots the cursor once. The returned value is immutable and safe
// to use for the whole compaction pass it was created for.
func (f *FilterFactory) Create() Filter {
	return Filter{
		oldestSlot: f.oldestSlot.Get(),
		cleanSlot0: f.oldestSlot.CleanSlot0(),
	}
}
