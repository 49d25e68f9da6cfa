package ledgerstore

import (
	"github.com/iotaledger/hive.go/runtime/syncutils"
	"github.com/zyedidia/generic/cache"

	"github.com/slotledger/ledger-core/pkg/model"
)

// slotStatsCacheSize bounds the in-memory per-slot statistics. Old slots
// fall out of the cache once they stop receiving traffic.
const slotStatsCacheSize = 300

// SlotFlags capture lifecycle transitions of a slot.
type SlotFlags uint8

const (
	SlotFlagDead SlotFlags = 1 << iota
	SlotFlagFull
	SlotFlagRooted
)

func (f SlotFlags) IsDead() bool   { return f&SlotFlagDead != 0 }
func (f SlotFlags) IsFull() bool   { return f&SlotFlagFull != 0 }
func (f SlotFlags) IsRooted() bool { return f&SlotFlagRooted != 0 }

// SlotStats are per-slot ingest counters, kept in memory only.
type SlotStats struct {
	NumShreds uint64
	LastIndex uint64
	Flags     SlotFlags
}

type slotStatsTracker struct {
	mutex syncutils.Mutex
	slots *cache.Cache[model.Slot, *SlotStats]
}

func newSlotStatsTracker() *slotStatsTracker {
	return &slotStatsTracker{
		slots: cache.New[model.Slot, *SlotStats](slotStatsCacheSize),
	}
}

func (s *slotStatsTracker) get(slot model.Slot) *SlotStats {
	stats, exists := s.slots.Get(slot)
	if !exists {
		stats = &SlotStats{LastIndex: model.UnknownShredIndex}
		s.slots.Put(slot, stats)
	}

	return stats
}

func (s *slotStatsTracker) recordShred(slot model.Slot, shred model.Shred) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats := s.get(slot)
	stats.NumShreds++
	if shred.LastInSlot() {
		stats.LastIndex = shred.Index
	}
}

func (s *slotStatsTracker) setFlag(slot model.Slot, flag SlotFlags) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.get(slot).Flags |= flag
}

// Lookup returns a copy of the statistics for slot, if they are still
// cached.
func (s *slotStatsTracker) Lookup(slot model.Slot) (SlotStats, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats, exists := s.slots.Get(slot)
	if !exists {
		return SlotStats{}, false
	}

	return *stats, true
}
