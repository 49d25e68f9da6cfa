package ledgerstore_test

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slotledger/ledger-core/pkg/model"
)

func TestInsertShredsBuildsSlotMeta(t *testing.T) {
	store := openTestStore(t)

	results, err := store.InsertShreds(slotShreds(1, 1, 4))
	require.NoError(t, err)
	require.Equal(t, 4, results.Accepted)
	require.Equal(t, []model.Slot{1}, results.CompletedSlots)

	meta, exists, err := store.SlotMeta(1)
	require.NoError(t, err)
	require.True(t, exists)
	require.EqualValues(t, 4, meta.Consumed)
	require.EqualValues(t, 4, meta.Received)
	require.EqualValues(t, 3, meta.LastIndex)
	require.EqualValues(t, 0, meta.ParentSlot)
	require.Positive(t, meta.FirstShredTimestamp, "first shred arrival must be stamped")
	require.True(t, meta.IsFull())

	full, err := store.IsFull(1)
	require.NoError(t, err)
	require.True(t, full)

	index, exists, err := store.Index(1)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, 4, index.Data.NumShreds())
}

func TestInsertShredsOutOfOrder(t *testing.T) {
	store := openTestStore(t)

	shreds := slotShreds(2, 1, 5)

	// Deliver the tail first; the slot is received but not consumed.
	results, err := store.InsertShreds(shreds[3:])
	require.NoError(t, err)
	require.Empty(t, results.CompletedSlots)

	meta, _, err := store.SlotMeta(2)
	require.NoError(t, err)
	require.EqualValues(t, 0, meta.Consumed)
	require.EqualValues(t, 5, meta.Received)
	require.False(t, meta.IsFull())

	// The gap closes once the head arrives.
	results, err = store.InsertShreds(shreds[:3])
	require.NoError(t, err)
	require.Equal(t, []model.Slot{2}, results.CompletedSlots)

	meta, _, err = store.SlotMeta(2)
	require.NoError(t, err)
	require.EqualValues(t, 5, meta.Consumed)
	require.True(t, meta.IsFull())
}

func TestInsertShredsEmitsCompletionEvent(t *testing.T) {
	store := openTestStore(t)

	var completed []model.Slot
	store.Events().SlotsCompleted.Hook(func(slots []model.Slot) {
		completed = append(completed, slots...)
	})

	_, err := store.InsertShreds(slotShreds(3, 1, 2))
	require.NoError(t, err)
	require.Equal(t, []model.Slot{3}, completed)

	// Re-inserting the same shreds must not re-announce completion.
	completed = nil
	results, err := store.InsertShreds(slotShreds(3, 1, 2))
	require.NoError(t, err)
	require.Equal(t, 2, results.Duplicates)
	require.Empty(t, completed)
}

func TestIdenticalDuplicateIsDropped(t *testing.T) {
	store := openTestStore(t)

	shred := dataShred(4, 0, 1, model.ShredFlagLastInSlot)
	_, err := store.InsertShreds([]*model.Shred{shred})
	require.NoError(t, err)

	results, err := store.InsertShreds([]*model.Shred{shred})
	require.NoError(t, err)
	require.Equal(t, 0, results.Accepted)
	require.Equal(t, 1, results.Duplicates)

	_, hasProof, err := store.DuplicateSlotProof(4)
	require.NoError(t, err)
	require.False(t, hasProof)
}

func TestConflictingShredRecordsDuplicateProof(t *testing.T) {
	store := openTestStore(t)

	original := dataShred(5, 0, 1, model.ShredFlagLastInSlot)
	_, err := store.InsertShreds([]*model.Shred{original})
	require.NoError(t, err)

	conflicting := dataShred(5, 0, 1, model.ShredFlagLastInSlot)
	conflicting.Payload = []byte("different payload")

	results, err := store.InsertShreds([]*model.Shred{conflicting})
	require.NoError(t, err)
	require.Equal(t, 1, results.Duplicates)

	proof, hasProof, err := store.DuplicateSlotProof(5)
	require.NoError(t, err)
	require.True(t, hasProof)
	require.NotEmpty(t, proof)
}

func TestOrphanLifecycle(t *testing.T) {
	store := openTestStore(t)

	// Slot 10 chains to slot 8, which has not been seen yet.
	_, err := store.InsertShreds(slotShreds(10, 2, 2))
	require.NoError(t, err)

	// The placeholder parent is the orphan, not the connected child.
	orphan, err := store.IsOrphan(8)
	require.NoError(t, err)
	require.True(t, orphan)

	orphan, err = store.IsOrphan(10)
	require.NoError(t, err)
	require.False(t, orphan)

	parentMeta, exists, err := store.SlotMeta(8)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, []model.Slot{10}, parentMeta.NextSlots)
	require.True(t, parentMeta.IsOrphan())

	// Slot 8's own shreds reveal its parent and clear the orphan mark.
	_, err = store.InsertShreds(slotShreds(8, 1, 2))
	require.NoError(t, err)

	orphan, err = store.IsOrphan(8)
	require.NoError(t, err)
	require.False(t, orphan)

	parentMeta, _, err = store.SlotMeta(8)
	require.NoError(t, err)
	require.EqualValues(t, 7, parentMeta.ParentSlot)
	require.Equal(t, []model.Slot{10}, parentMeta.NextSlots)

	// Slot 8 now chains to slot 7, which becomes the new placeholder orphan.
	orphans, err := store.Orphans()
	require.NoError(t, err)
	require.Equal(t, []model.Slot{7}, orphans)
}

func TestCodeShredsAndErasureMeta(t *testing.T) {
	store := openTestStore(t)

	payload := sha256.Sum256([]byte("code"))
	code := &model.Shred{
		Slot:             6,
		Index:            12,
		Type:             model.ShredTypeCode,
		FECSetIndex:      0,
		FirstCodingIndex: 12,
		NumData:          8,
		NumCoding:        4,
		Payload:          payload[:],
	}

	results, err := store.InsertShreds([]*model.Shred{code})
	require.NoError(t, err)
	require.Equal(t, 1, results.Accepted)

	stored, exists, err := store.CodeShred(6, 12)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, code.Payload, stored.Payload)

	erasureMeta, exists, err := store.ErasureMeta(6, 0)
	require.NoError(t, err)
	require.True(t, exists)
	require.EqualValues(t, 12, erasureMeta.FirstReceivedCodingIndex)
	require.EqualValues(t, 8, erasureMeta.Config.NumData)
	require.EqualValues(t, 4, erasureMeta.Config.NumCoding)
}

func TestMerkleRootMetaKeepsFirstReceived(t *testing.T) {
	store := openTestStore(t)

	root := model.Hash(sha256.Sum256([]byte("merkle")))
	first := dataShred(7, 1, 1, 0)
	first.HasMerkleRoot = true
	first.MerkleRoot = root
	first.FECSetIndex = 0

	second := dataShred(7, 0, 1, 0)
	second.HasMerkleRoot = true
	second.MerkleRoot = model.Hash(sha256.Sum256([]byte("other")))
	second.FECSetIndex = 0

	_, err := store.InsertShreds([]*model.Shred{first, second})
	require.NoError(t, err)

	meta, exists, err := store.MerkleRootMeta(7, 0)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, root, meta.MerkleRoot)
	require.EqualValues(t, 1, meta.FirstReceivedShredIndex)
	require.Equal(t, model.ShredTypeData, meta.FirstReceivedShredType)
}

func TestDataShredIndexBound(t *testing.T) {
	store := openTestStore(t)

	shred := dataShred(1, model.MaxDataShredsPerSlot, 1, 0)
	_, err := store.InsertShreds([]*model.Shred{shred})
	require.Error(t, err)
}

func TestSlotStatsTracking(t *testing.T) {
	store := openTestStore(t)

	_, err := store.InsertShreds(slotShreds(11, 1, 3))
	require.NoError(t, err)

	stats, exists := store.SlotStatsLookup(11)
	require.True(t, exists)
	require.EqualValues(t, 3, stats.NumShreds)
	require.EqualValues(t, 2, stats.LastIndex)
	require.True(t, stats.Flags.IsFull())
	require.False(t, stats.Flags.IsRooted())

	require.NoError(t, store.SetRoots(11))
	stats, _ = store.SlotStatsLookup(11)
	require.True(t, stats.Flags.IsRooted())
}
