package retention_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slotledger/ledger-core/pkg/ledgerstore/retention"
)

func TestOldestSlotIsMonotonic(t *testing.T) {
	cursor := retention.NewOldestSlot()
	require.EqualValues(t, 0, cursor.Get())

	cursor.Set(10)
	require.EqualValues(t, 10, cursor.Get())

	cursor.Set(5)
	require.EqualValues(t, 10, cursor.Get(), "cursor must never move backwards")

	cursor.Set(11)
	require.EqualValues(t, 11, cursor.Get())
}

func TestFilterSnapshotIsStable(t *testing.T) {
	cursor := retention.NewOldestSlot()
	cursor.Set(50)
	factory := retention.NewFilterFactory(cursor)

	snapshot := factory.Create()
	cursor.Set(200)

	require.True(t, snapshot.Keep(50), "snapshot taken before the advance keeps its boundary")
	require.False(t, factory.Create().Keep(50))
}

func TestFilterSlotZeroHandling(t *testing.T) {
	cursor := retention.NewOldestSlot()
	cursor.Set(100)
	factory := retention.NewFilterFactory(cursor)

	require.True(t, factory.Create().Keep(0))

	cursor.SetCleanSlot0(true)
	require.False(t, factory.Create().Keep(0))
}
