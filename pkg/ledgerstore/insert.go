package ledgerstore

import (
	"time"

	"github.com/iotaledger/hive.go/ds/shrinkingmap"
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/slotledger/ledger-core/pkg/ledgerstore/column"
	"github.com/slotledger/ledger-core/pkg/model"
)

// InsertResults summarizes one insert batch.
type InsertResults struct {
	// Accepted is the number of shreds written to the store.
	Accepted int

	// Duplicates is the number of shreds dropped because an identical copy
	// was already stored.
	Duplicates int

	// CompletedSlots lists the slots that became full during this batch.
	CompletedSlots []model.Slot
}

// insertBatch accumulates the records touched while inserting one batch of
// shreds, so every record is loaded and written at most once.
type insertBatch struct {
	store *Store

	indexes         *shrinkingmap.ShrinkingMap[model.Slot, *model.Index]
	slotMetas       *shrinkingmap.ShrinkingMap[model.Slot, *model.SlotMeta]
	erasureMetas    *shrinkingmap.ShrinkingMap[column.SlotIndexKey, *model.ErasureMeta]
	merkleRootMetas *shrinkingmap.ShrinkingMap[column.SlotIndexKey, *model.MerkleRootMeta]

	// fullBefore records, per touched slot, whether it was already full
	// when first loaded in this batch.
	fullBefore *shrinkingmap.ShrinkingMap[model.Slot, bool]
}

func newInsertBatch(store *Store) *insertBatch {
	return &insertBatch{
		store:           store,
		indexes:         shrinkingmap.New[model.Slot, *model.Index](),
		slotMetas:       shrinkingmap.New[model.Slot, *model.SlotMeta](),
		erasureMetas:    shrinkingmap.New[column.SlotIndexKey, *model.ErasureMeta](),
		merkleRootMetas: shrinkingmap.New[column.SlotIndexKey, *model.MerkleRootMeta](),
		fullBefore:      shrinkingmap.New[model.Slot, bool](),
	}
}

func (b *insertBatch) index(slot model.Slot) (*model.Index, error) {
	if index, exists := b.indexes.Get(slot); exists {
		return index, nil
	}

	index, exists, err := b.store.indexes.Load(slot)
	if err != nil {
		return nil, err
	}
	if !exists {
		index = model.NewIndex(slot)
	}
	b.indexes.Set(slot, index)

	return index, nil
}

func (b *insertBatch) slotMeta(slot model.Slot, parentSlot model.Slot) (meta *model.SlotMeta, created bool, err error) {
	if meta, exists := b.slotMetas.Get(slot); exists {
		return meta, false, nil
	}

	meta, exists, err := b.store.slotMetas.Load(slot)
	if err != nil {
		return nil, false, err
	}
	if !exists {
		meta = model.NewSlotMeta(slot, parentSlot)
	}
	b.slotMetas.Set(slot, meta)
	b.fullBefore.Set(slot, exists && meta.IsFull())

	return meta, !exists, nil
}

func (b *insertBatch) commit() error {
	var innerErr error
	b.indexes.ForEach(func(slot model.Slot, index *model.Index) bool {
		if err := b.store.indexes.Store(slot, index); err != nil {
			innerErr = err

			return false
		}

		return true
	})
	if innerErr != nil {
		return innerErr
	}

	b.slotMetas.ForEach(func(slot model.Slot, meta *model.SlotMeta) bool {
		if err := b.store.slotMetas.Store(slot, meta); err != nil {
			innerErr = err

			return false
		}

		return true
	})
	if innerErr != nil {
		return innerErr
	}

	b.erasureMetas.ForEach(func(key column.SlotIndexKey, meta *model.ErasureMeta) bool {
		if err := b.store.erasureMetas.Store(key, meta); err != nil {
			innerErr = err

			return false
		}

		return true
	})
	if innerErr != nil {
		return innerErr
	}

	b.merkleRootMetas.ForEach(func(key column.SlotIndexKey, meta *model.MerkleRootMeta) bool {
		if err := b.store.merkleRootMetas.Store(key, meta); err != nil {
			innerErr = err

			return false
		}

		return true
	})

	return innerErr
}

func (b *insertBatch) completedSlots() []model.Slot {
	var completed []model.Slot
	b.slotMetas.ForEach(func(slot model.Slot, meta *model.SlotMeta) bool {
		wasFull, _ := b.fullBefore.Get(slot)
		if meta.IsFull() && !wasFull {
			completed = append(completed, slot)
		}

		return true
	})

	return completed
}

// InsertShreds ingests a batch of shreds, updating all derived records.
// Exact duplicates are dropped silently; conflicting shreds at an occupied
// position are dropped and recorded as duplicate slot evidence.
func (s *Store) InsertShreds(shreds []*model.Shred) (*InsertResults, error) {
	s.insertShredsMutex.Lock()
	defer s.insertShredsMutex.Unlock()
	defer s.metrics.observeInsert(time.Now())

	batch := newInsertBatch(s)
	results := &InsertResults{}

	for _, shred := range shreds {
		switch {
		case shred.IsData():
			if err := s.insertDataShred(batch, shred, results); err != nil {
				return nil, err
			}
		case shred.IsCode():
			if err := s.insertCodeShred(batch, shred, results); err != nil {
				return nil, err
			}
		default:
			return nil, ierrors.Errorf("shred (%d, %d) has unknown type %d", shred.Slot, shred.Index, shred.Type)
		}
	}

	if err := batch.commit(); err != nil {
		return nil, ierrors.Wrap(err, "failed to commit shred insertion")
	}

	results.CompletedSlots = batch.completedSlots()
	for _, slot := range results.CompletedSlots {
		s.stats.setFlag(slot, SlotFlagFull)
	}

	s.metrics.shredsInserted.Add(float64(results.Accepted))
	s.events.ShredsReceived.Trigger(results.Accepted)
	if len(results.CompletedSlots) > 0 {
		s.events.SlotsCompleted.Trigger(results.CompletedSlots)
	}

	return results, nil
}

func (s *Store) insertDataShred(batch *insertBatch, shred *model.Shred, results *InsertResults) error {
	if shred.Index >= model.MaxDataShredsPerSlot {
		return ierrors.Errorf("data shred index %d exceeds the per-slot maximum %d", shred.Index, model.MaxDataShredsPerSlot)
	}

	index, err := batch.index(shred.Slot)
	if err != nil {
		return err
	}

	if index.Data.Contains(shred.Index) {
		return s.recordPossibleDuplicate(s.dataShreds, shred, results)
	}

	meta, _, err := batch.slotMeta(shred.Slot, shred.ParentSlot())
	if err != nil {
		return err
	}
	// A placeholder meta created by a child slot learns its real parent as
	// soon as the slot's own shreds arrive.
	if meta.ParentSlot == model.UnknownSlot && shred.ParentSlot() != model.UnknownSlot {
		meta.ParentSlot = shred.ParentSlot()
	}

	if err := s.updateMerkleRootMeta(batch, shred); err != nil {
		return err
	}

	if err := s.dataShreds.Store(column.SlotIndexKey{Slot: shred.Slot, Index: shred.Index}, shred); err != nil {
		return ierrors.Wrapf(err, "failed to store data shred (%d, %d)", shred.Slot, shred.Index)
	}

	index.Data.Insert(shred.Index)
	if meta.Received == 0 {
		meta.FirstShredTimestamp = time.Now().UnixMilli()
	}
	if shred.Index+1 > meta.Received {
		meta.Received = shred.Index + 1
	}
	if shred.LastInSlot() {
		meta.LastIndex = shred.Index
	}
	if shred.DataComplete() || shred.LastInSlot() {
		meta.InsertCompletedDataIndex(uint32(shred.Index))
	}
	meta.Consumed = index.Data.ContiguousPrefix(meta.Consumed)

	if err := s.chainSlot(batch, meta); err != nil {
		return err
	}

	s.stats.recordShred(shred.Slot, *shred)
	results.Accepted++

	return nil
}

func (s *Store) insertCodeShred(batch *insertBatch, shred *model.Shred, results *InsertResults) error {
	index, err := batch.index(shred.Slot)
	if err != nil {
		return err
	}

	if index.Coding.Contains(shred.Index) {
		return s.recordPossibleDuplicate(s.codeShreds, shred, results)
	}

	erasureKey := column.SlotIndexKey{Slot: shred.Slot, Index: shred.FECSetIndex}
	erasureMeta, exists := batch.erasureMetas.Get(erasureKey)
	if !exists {
		stored, found, err := s.erasureMetas.Load(erasureKey)
		if err != nil {
			return err
		}
		if found {
			erasureMeta = stored
		} else {
			erasureMeta = &model.ErasureMeta{
				FECSetIndex:              shred.FECSetIndex,
				FirstCodingIndex:         shred.FirstCodingIndex,
				FirstReceivedCodingIndex: shred.Index,
				Config: model.ErasureConfig{
					NumData:   shred.NumData,
					NumCoding: shred.NumCoding,
				},
			}
		}
		batch.erasureMetas.Set(erasureKey, erasureMeta)
	}

	if err := s.updateMerkleRootMeta(batch, shred); err != nil {
		return err
	}

	if err := s.codeShreds.Store(column.SlotIndexKey{Slot: shred.Slot, Index: shred.Index}, shred); err != nil {
		return ierrors.Wrapf(err, "failed to store code shred (%d, %d)", shred.Slot, shred.Index)
	}

	index.Coding.Insert(shred.Index)
	s.stats.recordShred(shred.Slot, *shred)
	results.Accepted++

	return nil
}

// recordPossibleDuplicate handles a shred arriving at an occupied position.
// An identical payload is a harmless retransmit; a different payload proves
// the slot was produced twice and is preserved as evidence.
func (s *Store) recordPossibleDuplicate(stored *column.Store[column.SlotIndexKey, *model.Shred], shred *model.Shred, results *InsertResults) error {
	results.Duplicates++

	existing, exists, err := stored.Load(column.SlotIndexKey{Slot: shred.Slot, Index: shred.Index})
	if err != nil {
		return err
	}
	if !exists || existing.PayloadDigest() == shred.PayloadDigest() {
		return nil
	}

	hasProof, err := s.duplicateSlots.Has(shred.Slot)
	if err != nil {
		return err
	}
	if hasProof {
		return nil
	}

	existingBytes, err := existing.Bytes()
	if err != nil {
		return err
	}
	conflictingBytes, err := shred.Bytes()
	if err != nil {
		return err
	}

	s.logger.LogWarnf("conflicting shred at (%d, %d), recording duplicate slot proof", shred.Slot, shred.Index)

	return s.StoreDuplicateSlotProof(shred.Slot, append(existingBytes, conflictingBytes...))
}

func (s *Store) updateMerkleRootMeta(batch *insertBatch, shred *model.Shred) error {
	if !shred.HasMerkleRoot {
		return nil
	}

	key := column.SlotIndexKey{Slot: shred.Slot, Index: shred.FECSetIndex}
	if _, exists := batch.merkleRootMetas.Get(key); exists {
		return nil
	}

	_, exists, err := s.merkleRootMetas.Load(key)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	batch.merkleRootMetas.Set(key, &model.MerkleRootMeta{
		HasMerkleRoot:           true,
		MerkleRoot:              shred.MerkleRoot,
		FirstReceivedShredIndex: shred.Index,
		FirstReceivedShredType:  shred.Type,
	})

	return nil
}

// chainSlot maintains the parent/child links of the slot tree. A slot whose
// own parent is unknown is recorded as an orphan; connecting a slot to its
// parent creates a placeholder meta for the parent when it has not produced
// shreds yet, so the tree stays navigable in both directions.
func (s *Store) chainSlot(batch *insertBatch, meta *model.SlotMeta) error {
	if meta.Slot == 0 {
		return nil
	}
	if meta.ParentSlot == model.UnknownSlot {
		return s.orphans.Store(meta.Slot, true)
	}

	parentMeta, created, err := batch.slotMeta(meta.ParentSlot, model.UnknownSlot)
	if err != nil {
		return err
	}
	if created && meta.ParentSlot != 0 {
		// The parent only exists as a placeholder, so it is itself orphaned
		// until its shreds arrive and reveal its parent.
		if err := s.orphans.Store(meta.ParentSlot, true); err != nil {
			return err
		}
	}
	parentMeta.InsertNextSlot(meta.Slot)

	return s.orphans.Delete(meta.Slot)
}
