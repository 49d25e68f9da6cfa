package model_test

import (
	"crypto/sha256"
	"testing"
	"time"

	"github.com/iotaledger/hive.go/lo"
	"github.com/stretchr/testify/require"

	"github.com/slotledger/ledger-core/pkg/model"
)

func TestSlotEncoding(t *testing.T) {
	slot := model.Slot(0x0102030405060708)

	bytes := slot.MustBytes()
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, bytes)

	decoded, consumed, err := model.SlotFromBytes(bytes)
	require.NoError(t, err)
	require.Equal(t, model.SlotLength, consumed)
	require.Equal(t, slot, decoded)

	_, _, err = model.SlotFromBytes([]byte{1, 2})
	require.Error(t, err)
}

func TestHashString(t *testing.T) {
	hash := model.Hash(sha256.Sum256([]byte("x")))
	require.NotEmpty(t, hash.String())

	decoded, _, err := model.HashFromBytes(lo.PanicOnErr(hash.Bytes()))
	require.NoError(t, err)
	require.Equal(t, hash, decoded)
}

func TestSlotMetaLifecycle(t *testing.T) {
	meta := model.NewSlotMeta(5, 4)

	require.EqualValues(t, 5, meta.Slot)
	require.EqualValues(t, 4, meta.ParentSlot)
	require.Equal(t, uint64(model.UnknownShredIndex), meta.LastIndex)
	require.False(t, meta.IsFull())
	require.False(t, meta.IsOrphan())

	meta.LastIndex = 2
	meta.Received = 3
	require.False(t, meta.IsFull())

	meta.Consumed = 3
	require.True(t, meta.IsFull())

	orphan := model.NewSlotMeta(9, model.UnknownSlot)
	require.True(t, orphan.IsOrphan())
}

func TestSlotMetaSortedInserts(t *testing.T) {
	meta := model.NewSlotMeta(1, 0)

	meta.InsertNextSlot(5)
	meta.InsertNextSlot(2)
	meta.InsertNextSlot(5)
	require.Equal(t, []model.Slot{2, 5}, meta.NextSlots)

	meta.InsertCompletedDataIndex(7)
	meta.InsertCompletedDataIndex(3)
	meta.InsertCompletedDataIndex(7)
	require.Equal(t, []uint32{3, 7}, meta.CompletedDataIndexes)
}

func TestSlotMetaSerialization(t *testing.T) {
	meta := model.NewSlotMeta(5, 4)
	meta.Consumed = 7
	meta.Received = 9
	meta.FirstShredTimestamp = 1700000000
	meta.LastIndex = 8
	meta.InsertNextSlot(6)
	meta.InsertNextSlot(7)
	meta.InsertCompletedDataIndex(3)

	bytes, err := meta.Bytes()
	require.NoError(t, err)

	decoded, consumed, err := model.SlotMetaFromBytes(bytes)
	require.NoError(t, err)
	require.Equal(t, len(bytes), consumed)
	require.Equal(t, meta, decoded)
}

func TestShredIndexContiguousPrefix(t *testing.T) {
	var index model.ShredIndex

	require.EqualValues(t, 0, index.ContiguousPrefix(0))

	index.Insert(0)
	index.Insert(1)
	index.Insert(3)
	require.EqualValues(t, 2, index.ContiguousPrefix(0))
	require.True(t, index.Contains(3))
	require.False(t, index.Contains(2))

	index.Insert(2)
	require.EqualValues(t, 4, index.ContiguousPrefix(2))
	require.Equal(t, 4, index.NumShreds())

	// Duplicate inserts are no-ops.
	index.Insert(2)
	require.Equal(t, 4, index.NumShreds())
}

func TestIndexSerialization(t *testing.T) {
	index := model.NewIndex(3)
	index.Data.Insert(0)
	index.Data.Insert(1)
	index.Coding.Insert(64)

	bytes, err := index.Bytes()
	require.NoError(t, err)

	decoded, _, err := model.IndexFromBytes(bytes)
	require.NoError(t, err)
	require.Equal(t, index, decoded)
}

func TestShredParentSlot(t *testing.T) {
	shred := &model.Shred{Slot: 10, Type: model.ShredTypeData, ParentOffset: 3}
	require.EqualValues(t, 7, shred.ParentSlot())

	// Slot zero chains to itself.
	genesisShred := &model.Shred{Slot: 0, Type: model.ShredTypeData}
	require.EqualValues(t, 0, genesisShred.ParentSlot())

	// A zero offset anywhere else is unusable.
	broken := &model.Shred{Slot: 10, Type: model.ShredTypeData, ParentOffset: 0}
	require.Equal(t, model.UnknownSlot, broken.ParentSlot())

	// An offset below the slot range is unusable.
	underflow := &model.Shred{Slot: 2, Type: model.ShredTypeData, ParentOffset: 5}
	require.Equal(t, model.UnknownSlot, underflow.ParentSlot())
}

func TestShredFlags(t *testing.T) {
	last := &model.Shred{Type: model.ShredTypeData, Flags: model.ShredFlagLastInSlot}
	require.True(t, last.LastInSlot())
	require.True(t, last.DataComplete(), "last in slot implies data complete")

	complete := &model.Shred{Type: model.ShredTypeData, Flags: model.ShredFlagDataComplete}
	require.True(t, complete.DataComplete())
	require.False(t, complete.LastInSlot())

	code := &model.Shred{Type: model.ShredTypeCode, Flags: model.ShredFlagLastInSlot}
	require.False(t, code.LastInSlot(), "flags only apply to data shreds")
}

func TestShredSerialization(t *testing.T) {
	payload := sha256.Sum256([]byte("payload"))
	shred := &model.Shred{
		Slot:             11,
		Index:            4,
		Type:             model.ShredTypeCode,
		FECSetIndex:      2,
		FirstCodingIndex: 3,
		NumData:          8,
		NumCoding:        4,
		HasMerkleRoot:    true,
		MerkleRoot:       sha256.Sum256([]byte("merkle")),
		Payload:          payload[:],
	}

	bytes, err := shred.Bytes()
	require.NoError(t, err)

	decoded, consumed, err := model.ShredFromBytes(bytes)
	require.NoError(t, err)
	require.Equal(t, len(bytes), consumed)
	require.Equal(t, shred, decoded)
}

func TestGenesisConfigRoundtrip(t *testing.T) {
	ledgerDir := t.TempDir()

	genesis := &model.GenesisConfig{
		CreationTime: time.Unix(1700000000, 0).UTC(),
		TicksPerSlot: 64,
		Poh: model.PohParams{
			TargetTickDuration: 400 * time.Millisecond,
			HashesPerTick:      12500,
		},
	}

	require.NoError(t, genesis.Persist(ledgerDir))

	loaded, err := model.ReadGenesisConfig(ledgerDir)
	require.NoError(t, err)
	require.Equal(t, genesis.Hash(), loaded.Hash())
	require.Equal(t, genesis.TicksPerSlot, loaded.TicksPerSlot)

	_, err = model.ReadGenesisConfig(t.TempDir())
	require.Error(t, err)
}
