package column_test

import (
	"bytes"
	"sort"
	"testing"

	hivedb "github.com/iotaledger/hive.go/db"
	"github.com/iotaledger/hive.go/ds/types"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/log"
	"github.com/stretchr/testify/require"

	"github.com/slotledger/ledger-core/pkg/ledgerstore/column"
	"github.com/slotledger/ledger-core/pkg/ledgerstore/database"
	"github.com/slotledger/ledger-core/pkg/ledgerstore/retention"
	"github.com/slotledger/ledger-core/pkg/model"
)

func openTestDB(t *testing.T) *database.DB {
	db, err := database.Open(log.NewLogger(), database.Config{
		Engine:                    hivedb.EngineMapDB,
		Directory:                 t.TempDir(),
		Access:                    database.AccessPrimary,
		WriteBufferSize:           database.DefaultWriteBufferSize,
		PeriodicCompactionSeconds: database.DefaultPeriodicCompactionSeconds,
	}, retention.NewOldestSlot())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	return db
}

func TestStoreRoundtrip(t *testing.T) {
	db := openTestDB(t)
	blocktime := column.NewStore[model.Slot, int64](
		db.Column(database.ColumnBlocktime.Name),
		model.Slot.Bytes, model.SlotFromBytes,
		column.Int64ToBytes, column.Int64FromBytes,
	)

	_, exists, err := blocktime.Load(42)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, blocktime.Store(42, 1700000000))

	value, exists, err := blocktime.Load(42)
	require.NoError(t, err)
	require.True(t, exists)
	require.EqualValues(t, 1700000000, value)

	has, err := blocktime.Has(42)
	require.NoError(t, err)
	require.True(t, has)

	require.NoError(t, blocktime.Delete(42))
	has, err = blocktime.Has(42)
	require.NoError(t, err)
	require.False(t, has)
}

func TestStoreFirstLast(t *testing.T) {
	db := openTestDB(t)
	roots := column.NewStore[model.Slot, types.Empty](
		db.Column(database.ColumnRoot.Name),
		model.Slot.Bytes, model.SlotFromBytes,
		column.EmptyToBytes, column.EmptyFromBytes,
	)

	_, _, exists, err := roots.Last()
	require.NoError(t, err)
	require.False(t, exists)

	for _, slot := range []model.Slot{5, 1, 9, 3} {
		require.NoError(t, roots.Store(slot, types.Void))
	}

	first, _, exists, err := roots.First()
	require.NoError(t, err)
	require.True(t, exists)
	require.EqualValues(t, 1, first)

	last, _, exists, err := roots.Last()
	require.NoError(t, err)
	require.True(t, exists)
	require.EqualValues(t, 9, last)
}

func TestStoreIterateFrom(t *testing.T) {
	db := openTestDB(t)
	shreds := column.NewStore[column.SlotIndexKey, []byte](
		db.Column(database.ColumnShredData.Name),
		column.SlotIndexKey.Bytes, column.SlotIndexKeyFromBytes,
		column.RawBytesToBytes, column.RawBytesFromBytes,
	)

	for slot := model.Slot(1); slot <= 3; slot++ {
		for index := uint64(0); index < 3; index++ {
			require.NoError(t, shreds.Store(column.SlotIndexKey{Slot: slot, Index: index}, []byte{byte(slot), byte(index)}))
		}
	}

	var visited []column.SlotIndexKey
	require.NoError(t, shreds.IterateFrom(
		column.SlotIndexKey{Slot: 2},
		database.IterForward,
		func(key column.SlotIndexKey, _ []byte) bool {
			if key.Slot > 2 {
				return false
			}
			visited = append(visited, key)

			return true
		},
	))
	require.Equal(t, []column.SlotIndexKey{{Slot: 2, Index: 0}, {Slot: 2, Index: 1}, {Slot: 2, Index: 2}}, visited)
}

// Keys must sort in domain order when compared as raw bytes, otherwise range
// deletes and ordered scans return the wrong slices of the keyspace.
func TestKeyOrderMatchesDomainOrder(t *testing.T) {
	keys := []column.SlotIndexKey{
		{Slot: 0, Index: 0},
		{Slot: 0, Index: 1},
		{Slot: 1, Index: 0},
		{Slot: 255, Index: 7},
		{Slot: 256, Index: 0},
		{Slot: 1 << 40, Index: 9},
	}

	encoded := make([][]byte, len(keys))
	for i, key := range keys {
		encoded[i] = lo.PanicOnErr(key.Bytes())
	}

	require.True(t, sort.SliceIsSorted(encoded, func(i, j int) bool {
		return bytes.Compare(encoded[i], encoded[j]) < 0
	}))
}

func TestCompositeKeyRoundtrips(t *testing.T) {
	var signature model.Signature
	signature[0] = 0xAA
	var address model.Address
	address[31] = 0xBB

	sigKey := column.SignatureSlotKey{Signature: signature, Slot: 77}
	decodedSig, consumed, err := column.SignatureSlotKeyFromBytes(lo.PanicOnErr(sigKey.Bytes()))
	require.NoError(t, err)
	require.Equal(t, model.SignatureLength+model.SlotLength, consumed)
	require.Equal(t, sigKey, decodedSig)

	addrKey := column.AddressSignatureKey{Address: address, Slot: 78, Signature: signature}
	decodedAddr, _, err := column.AddressSignatureKeyFromBytes(lo.PanicOnErr(addrKey.Bytes()))
	require.NoError(t, err)
	require.Equal(t, addrKey, decodedAddr)

	_, _, err = column.SlotIndexKeyFromBytes([]byte{1, 2, 3})
	require.Error(t, err)
}
