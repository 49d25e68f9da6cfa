package ledgerstore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slotledger/ledger-core/pkg/model"
)

func TestPurgeSlots(t *testing.T) {
	store := openTestStore(t)

	for slot := model.Slot(1); slot <= 10; slot++ {
		_, err := store.InsertShreds(slotShreds(slot, 1, 2))
		require.NoError(t, err)
		require.NoError(t, store.SetBlocktime(slot, int64(slot)))
	}

	require.NoError(t, store.PurgeSlots(1, 5))

	for slot := model.Slot(1); slot <= 5; slot++ {
		_, exists, err := store.SlotMeta(slot)
		require.NoError(t, err)
		require.False(t, exists, "slot %d should be purged", slot)

		_, exists, err = store.DataShred(slot, 0)
		require.NoError(t, err)
		require.False(t, exists)

		_, exists, err = store.Blocktime(slot)
		require.NoError(t, err)
		require.False(t, exists)
	}

	for slot := model.Slot(6); slot <= 10; slot++ {
		_, exists, err := store.SlotMeta(slot)
		require.NoError(t, err)
		require.True(t, exists, "slot %d should survive", slot)
	}

	require.EqualValues(t, 6, store.OldestSlot())
}

func TestPurgeAdvancesRetentionCursorMonotonically(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.PurgeSlots(0, 100))
	require.EqualValues(t, 101, store.OldestSlot())

	// A smaller purge must not move the boundary backwards.
	require.NoError(t, store.PurgeSlots(0, 10))
	require.EqualValues(t, 101, store.OldestSlot())
}

func TestPurgeRejectsInvalidRange(t *testing.T) {
	store := openTestStore(t)

	require.Error(t, store.PurgeSlots(5, 4))
	require.Error(t, store.PurgeSlots(0, model.UnknownSlot))
}
