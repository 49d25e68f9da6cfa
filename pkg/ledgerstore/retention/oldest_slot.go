// Package retention implements the shared retention cursor and the per-key
// keep/remove decision that background compaction applies to slot-keyed
// columns.
package retention

import (
	"go.uber.org/atomic"

	"github.com/slotledger/ledger-core/pkg/model"
)

// OldestSlot is the shared retention boundary. It is created once with the
// store, shared by reference with every filter factory, and advanced by the
// external cleanup policy. Reads are relaxed: compaction re-runs
// periodically, so transient staleness is harmless.
type OldestSlot struct {
	slot       atomic.Uint64
	cleanSlot0 atomic.Bool
}

func NewOldestSlot() *OldestSlot {
	return &OldestSlot{}
}

// Set advances the boundary. The cursor is monotonically non-decreasing;
// attempts to move it backwards are ignored.
func (o *OldestSlot) Set(slot model.Slot) {
	for {
		current := o.slot.Load()
		if uint64(slot) <= current {
			return
		}
		if o.slot.CompareAndSwap(current, uint64(slot)) {
			return
		}
	}
}

func (o *OldestSlot) Get() model.Slot {
	return model.Slot(o.slot.Load())
}

// SetCleanSlot0 marks whether slot 0 rows are eligible for removal. A fresh
// database may always clean slot 0; an upgraded one preserves it until the
// external indexing cycle confirms completion.
func (o *OldestSlot) SetCleanSlot0(cleanSlot0 bool) {
	o.cleanSlot0.Store(cleanSlot0)
}

func (o *OldestSlot) CleanSlot0() bool {
	return o.cleanSlot0.Load()
}
