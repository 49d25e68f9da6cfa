package ledgerstore

import (
	"github.com/iotaledger/hive.go/ds/types"
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/slotledger/ledger-core/pkg/ledgerstore/column"
	"github.com/slotledger/ledger-core/pkg/ledgerstore/database"
	"github.com/slotledger/ledger-core/pkg/model"
)

// SlotMeta returns the bookkeeping record of slot.
func (s *Store) SlotMeta(slot model.Slot) (*model.SlotMeta, bool, error) {
	s.metrics.countAPICall("slot_meta")

	return s.slotMetas.Load(slot)
}

// IsFull reports whether every data shred of slot has arrived.
func (s *Store) IsFull(slot model.Slot) (bool, error) {
	s.metrics.countAPICall("is_full")

	meta, exists, err := s.slotMetas.Load(slot)
	if err != nil || !exists {
		return false, err
	}

	return meta.IsFull(), nil
}

// Index returns the shred index of slot.
func (s *Store) Index(slot model.Slot) (*model.Index, bool, error) {
	s.metrics.countAPICall("index")

	return s.indexes.Load(slot)
}

// IsDead reports whether slot was abandoned by the replay stage.
func (s *Store) IsDead(slot model.Slot) (bool, error) {
	s.metrics.countAPICall("is_dead")

	dead, exists, err := s.deadSlots.Load(slot)
	if err != nil || !exists {
		return false, err
	}

	return dead, nil
}

// SetDead marks slot as dead.
func (s *Store) SetDead(slot model.Slot) error {
	if err := s.deadSlots.Store(slot, true); err != nil {
		return ierrors.Wrapf(err, "failed to mark slot %d dead", slot)
	}
	s.stats.setFlag(slot, SlotFlagDead)
	s.events.SlotDead.Trigger(slot)

	return nil
}

// RemoveDead clears the dead mark of slot.
func (s *Store) RemoveDead(slot model.Slot) error {
	return s.deadSlots.Delete(slot)
}

// StoreDuplicateSlotProof records evidence of two conflicting shreds for
// slot.
func (s *Store) StoreDuplicateSlotProof(slot model.Slot, proof []byte) error {
	return s.duplicateSlots.Store(slot, proof)
}

// DuplicateSlotProof returns the recorded duplicate evidence for slot.
func (s *Store) DuplicateSlotProof(slot model.Slot) ([]byte, bool, error) {
	s.metrics.countAPICall("duplicate_slot_proof")

	return s.duplicateSlots.Load(slot)
}

// IsRoot reports whether slot is rooted.
func (s *Store) IsRoot(slot model.Slot) (bool, error) {
	s.metrics.countAPICall("is_root")

	return s.roots.Has(slot)
}

// SetRoots marks the given slots as rooted and advances MaxRoot.
func (s *Store) SetRoots(slots ...model.Slot) error {
	var maxSlot model.Slot
	for _, slot := range slots {
		if err := s.roots.Store(slot, types.Void); err != nil {
			return ierrors.Wrapf(err, "failed to root slot %d", slot)
		}
		s.stats.setFlag(slot, SlotFlagRooted)
		if slot > maxSlot {
			maxSlot = slot
		}
	}

	for {
		current := s.maxRoot.Load()
		if uint64(maxSlot) <= current || s.maxRoot.CompareAndSwap(current, uint64(maxSlot)) {
			break
		}
	}

	for _, slot := range slots {
		s.events.SlotRooted.Trigger(slot)
	}

	return nil
}

// MaxRoot returns the highest rooted slot.
func (s *Store) MaxRoot() model.Slot {
	return model.Slot(s.maxRoot.Load())
}

// IsOrphan reports whether slot currently has no known parent.
func (s *Store) IsOrphan(slot model.Slot) (bool, error) {
	s.metrics.countAPICall("is_orphan")

	orphan, exists, err := s.orphans.Load(slot)
	if err != nil || !exists {
		return false, err
	}

	return orphan, nil
}

// Orphans returns all slots currently lacking a parent, in ascending order.
func (s *Store) Orphans() ([]model.Slot, error) {
	var orphans []model.Slot
	if err := s.orphans.Iterate(database.IterForward, func(slot model.Slot, _ bool) bool {
		orphans = append(orphans, slot)

		return true
	}); err != nil {
		return nil, err
	}

	return orphans, nil
}

// ErasureMeta returns the recovery metadata for the erasure set.
func (s *Store) ErasureMeta(slot model.Slot, fecSetIndex uint64) (*model.ErasureMeta, bool, error) {
	s.metrics.countAPICall("erasure_meta")

	return s.erasureMetas.Load(column.SlotIndexKey{Slot: slot, Index: fecSetIndex})
}

// MerkleRootMeta returns the first-received merkle root record for the
// erasure set.
func (s *Store) MerkleRootMeta(slot model.Slot, fecSetIndex uint64) (*model.MerkleRootMeta, bool, error) {
	s.metrics.countAPICall("merkle_root_meta")

	return s.merkleRootMetas.Load(column.SlotIndexKey{Slot: slot, Index: fecSetIndex})
}

// DataShred returns one data shred by position.
func (s *Store) DataShred(slot model.Slot, index uint64) (*model.Shred, bool, error) {
	s.metrics.countAPICall("data_shred")

	return s.dataShreds.Load(column.SlotIndexKey{Slot: slot, Index: index})
}

// CodeShred returns one coding shred by position.
func (s *Store) CodeShred(slot model.Slot, index uint64) (*model.Shred, bool, error) {
	s.metrics.countAPICall("code_shred")

	return s.codeShreds.Load(column.SlotIndexKey{Slot: slot, Index: index})
}

// SlotDataShreds returns all stored data shreds of slot in index order.
func (s *Store) SlotDataShreds(slot model.Slot) ([]*model.Shred, error) {
	s.metrics.countAPICall("slot_data_shreds")

	var shreds []*model.Shred
	if err := s.dataShreds.IterateFrom(
		column.SlotIndexKey{Slot: slot},
		database.IterForward,
		func(key column.SlotIndexKey, shred *model.Shred) bool {
			if key.Slot != slot {
				return false
			}
			shreds = append(shreds, shred)

			return true
		},
	); err != nil {
		return nil, ierrors.Wrapf(err, "failed to read data shreds of slot %d", slot)
	}

	return shreds, nil
}

// BankHash returns the frozen bank hash record of slot.
func (s *Store) BankHash(slot model.Slot) (*model.FrozenHashStatus, bool, error) {
	s.metrics.countAPICall("bank_hash")

	return s.bankHashes.Load(slot)
}

// SetBankHash records the frozen bank hash of slot.
func (s *Store) SetBankHash(slot model.Slot, status *model.FrozenHashStatus) error {
	return s.bankHashes.Store(slot, status)
}

// Blocktime returns the recorded unix timestamp of slot.
func (s *Store) Blocktime(slot model.Slot) (int64, bool, error) {
	s.metrics.countAPICall("blocktime")

	return s.blocktimes.Load(slot)
}

// SetBlocktime records the unix timestamp of slot.
func (s *Store) SetBlocktime(slot model.Slot, timestamp int64) error {
	return s.blocktimes.Store(slot, timestamp)
}

// BlockHeight returns the recorded block height of slot.
func (s *Store) BlockHeight(slot model.Slot) (uint64, bool, error) {
	s.metrics.countAPICall("block_height")

	return s.blockHeights.Load(slot)
}

// SetBlockHeight records the block height of slot.
func (s *Store) SetBlockHeight(slot model.Slot, height uint64) error {
	return s.blockHeights.Store(slot, height)
}

// OptimisticSlot returns the optimistic confirmation record of slot.
func (s *Store) OptimisticSlot(slot model.Slot) (*model.OptimisticSlotMeta, bool, error) {
	s.metrics.countAPICall("optimistic_slot")

	return s.optimisticSlots.Load(slot)
}

// InsertOptimisticSlot records that slot was optimistically confirmed.
func (s *Store) InsertOptimisticSlot(slot model.Slot, meta *model.OptimisticSlotMeta) error {
	return s.optimisticSlots.Store(slot, meta)
}

// WritePerfSample stores an opaque performance sample keyed by slot.
func (s *Store) WritePerfSample(slot model.Slot, sample []byte) error {
	return s.perfSamples.Store(slot, sample)
}

// PerfSamples returns up to numSamples most recent samples, newest first.
func (s *Store) PerfSamples(numSamples int) (map[model.Slot][]byte, error) {
	s.metrics.countAPICall("perf_samples")

	samples := make(map[model.Slot][]byte)
	if err := s.perfSamples.Iterate(database.IterReverse, func(slot model.Slot, sample []byte) bool {
		samples[slot] = sample

		return len(samples) < numSamples
	}); err != nil {
		return nil, err
	}

	return samples, nil
}

// WriteTransactionStatus records the status of a transaction and indexes it
// by every address it touched.
func (s *Store) WriteTransactionStatus(slot model.Slot, signature model.Signature, writeableAddresses []model.Address, readonlyAddresses []model.Address, status []byte) error {
	if err := s.transactionStatuses.Store(column.SignatureSlotKey{Signature: signature, Slot: slot}, status); err != nil {
		return ierrors.Wrap(err, "failed to write transaction status")
	}

	for _, address := range writeableAddresses {
		key := column.AddressSignatureKey{Address: address, Slot: slot, Signature: signature}
		if err := s.addressSignatures.Store(key, &model.AddressSignatureMeta{Writeable: true}); err != nil {
			return ierrors.Wrap(err, "failed to index writeable address")
		}
	}
	for _, address := range readonlyAddresses {
		key := column.AddressSignatureKey{Address: address, Slot: slot, Signature: signature}
		if err := s.addressSignatures.Store(key, &model.AddressSignatureMeta{Writeable: false}); err != nil {
			return ierrors.Wrap(err, "failed to index readonly address")
		}
	}

	return nil
}

// TransactionStatus returns the status of the transaction with the given
// signature together with the slot it landed in. When the transaction landed
// in several slots (forks), the lowest slot wins.
func (s *Store) TransactionStatus(signature model.Signature) (model.Slot, []byte, bool, error) {
	s.metrics.countAPICall("transaction_status")

	var (
		foundSlot   model.Slot
		foundStatus []byte
		found       bool
	)
	if err := s.transactionStatuses.IterateFrom(
		column.SignatureSlotKey{Signature: signature},
		database.IterForward,
		func(key column.SignatureSlotKey, status []byte) bool {
			if key.Signature != signature {
				return false
			}
			foundSlot, foundStatus, found = key.Slot, status, true

			return false
		},
	); err != nil {
		return 0, nil, false, err
	}

	return foundSlot, foundStatus, found, nil
}

// WriteTransactionMemo records the memo attached to a transaction.
func (s *Store) WriteTransactionMemo(slot model.Slot, signature model.Signature, memo []byte) error {
	return s.transactionMemos.Store(column.SignatureSlotKey{Signature: signature, Slot: slot}, memo)
}

// TransactionMemo returns the memo of the transaction, if any.
func (s *Store) TransactionMemo(slot model.Slot, signature model.Signature) ([]byte, bool, error) {
	s.metrics.countAPICall("transaction_memo")

	return s.transactionMemos.Load(column.SignatureSlotKey{Signature: signature, Slot: slot})
}

// AddressSignature is one ledger touch of an address.
type AddressSignature struct {
	Slot      model.Slot
	Signature model.Signature
	Writeable bool
}

// AddressSignatures returns all recorded signatures touching address within
// [startSlot, endSlot], in slot order.
func (s *Store) AddressSignatures(address model.Address, startSlot model.Slot, endSlot model.Slot) ([]AddressSignature, error) {
	s.metrics.countAPICall("address_signatures")

	var result []AddressSignature
	if err := s.addressSignatures.IterateFrom(
		column.AddressSignatureKey{Address: address, Slot: startSlot},
		database.IterForward,
		func(key column.AddressSignatureKey, meta *model.AddressSignatureMeta) bool {
			if key.Address != address || key.Slot > endSlot {
				return false
			}
			result = append(result, AddressSignature{
				Slot:      key.Slot,
				Signature: key.Signature,
				Writeable: meta.Writeable,
			})

			return true
		},
	); err != nil {
		return nil, err
	}

	return result, nil
}
