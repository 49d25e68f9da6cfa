package ledgerstore

import (
	"github.com/iotaledger/hive.go/runtime/event"

	"github.com/slotledger/ledger-core/pkg/model"
)

// Events exposes what happens inside the store. All events are triggered
// synchronously from the operation that caused them.
type Events struct {
	// ShredsReceived reports the number of shreds accepted by an insert.
	ShredsReceived *event.Event1[int]

	// SlotsCompleted reports slots whose data shreds all arrived.
	SlotsCompleted *event.Event1[[]model.Slot]

	// SlotRooted fires for every slot marked as rooted.
	SlotRooted *event.Event1[model.Slot]

	// SlotDead fires when a slot is marked dead.
	SlotDead *event.Event1[model.Slot]
}

func NewEvents() *Events {
	return &Events{
		ShredsReceived: event.New1[int](),
		SlotsCompleted: event.New1[[]model.Slot](),
		SlotRooted:     event.New1[model.Slot](),
		SlotDead:       event.New1[model.Slot](),
	}
}
