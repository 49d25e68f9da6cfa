package ledgerstore

import (
	"testing"

	hivedb "github.com/iotaledger/hive.go/db"
	"github.com/iotaledger/hive.go/log"
	"github.com/stretchr/testify/require"

	"github.com/slotledger/ledger-core/pkg/model"
)

func TestStatusIndexRowsInitializedIndividually(t *testing.T) {
	store, err := New(log.NewLogger(), t.TempDir(), WithDBEngine(hivedb.EngineMapDB))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, store.Shutdown())
	}()

	// Simulate a legacy database where only row 1 survived.
	require.NoError(t, store.transactionStatusIndexes.Store(primaryIndex1, &model.TransactionStatusIndexMeta{MaxSlot: 5}))
	require.NoError(t, store.transactionStatusIndexes.Delete(primaryIndex0))

	require.NoError(t, store.cleanupOldEntries())

	row0, exists, err := store.transactionStatusIndexes.Load(primaryIndex0)
	require.NoError(t, err)
	require.True(t, exists, "missing row 0 must be re-initialized even when row 1 exists")
	require.Equal(t, &model.TransactionStatusIndexMeta{}, row0)

	row1, exists, err := store.transactionStatusIndexes.Load(primaryIndex1)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, &model.TransactionStatusIndexMeta{MaxSlot: 5}, row1)
}
