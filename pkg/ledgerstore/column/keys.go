package column

import (
	"encoding/binary"

	"github.com/iotaledger/hive.go/ierrors"

	"github.com/slotledger/ledger-core/pkg/model"
)

// Composite keys are encoded big-endian so their lexicographic order matches
// the domain order: everything keyed by slot sorts by slot first.

// SlotIndexKey addresses one shred or one erasure set within a slot.
type SlotIndexKey struct {
	Slot  model.Slot
	Index uint64
}

func (k SlotIndexKey) Bytes() ([]byte, error) {
	key := make([]byte, 2*model.SlotLength)
	binary.BigEndian.PutUint64(key, uint64(k.Slot))
	binary.BigEndian.PutUint64(key[model.SlotLength:], k.Index)

	return key, nil
}

func SlotIndexKeyFromBytes(bytes []byte) (SlotIndexKey, int, error) {
	if len(bytes) < 2*model.SlotLength {
		return SlotIndexKey{}, 0, ierrors.Errorf("slot index key must be %d bytes, got %d", 2*model.SlotLength, len(bytes))
	}

	return SlotIndexKey{
		Slot:  model.Slot(binary.BigEndian.Uint64(bytes)),
		Index: binary.BigEndian.Uint64(bytes[model.SlotLength:]),
	}, 2 * model.SlotLength, nil
}

// SignatureSlotKey addresses a transaction status or memo row. The signature
// leads so lookups by signature scan a contiguous range.
type SignatureSlotKey struct {
	Signature model.Signature
	Slot      model.Slot
}

func (k SignatureSlotKey) Bytes() ([]byte, error) {
	key := make([]byte, model.SignatureLength+model.SlotLength)
	copy(key, k.Signature[:])
	binary.BigEndian.PutUint64(key[model.SignatureLength:], uint64(k.Slot))

	return key, nil
}

func SignatureSlotKeyFromBytes(bytes []byte) (SignatureSlotKey, int, error) {
	if len(bytes) < model.SignatureLength+model.SlotLength {
		return SignatureSlotKey{}, 0, ierrors.Errorf("signature slot key must be %d bytes, got %d", model.SignatureLength+model.SlotLength, len(bytes))
	}

	var key SignatureSlotKey
	copy(key.Signature[:], bytes[:model.SignatureLength])
	key.Slot = model.Slot(binary.BigEndian.Uint64(bytes[model.SignatureLength:]))

	return key, model.SignatureLength + model.SlotLength, nil
}

// AddressSignatureKey addresses one signature touching an address in a slot.
// Address first, then slot, then signature: all activity of an address sorts
// together and by slot within it.
type AddressSignatureKey struct {
	Address   model.Address
	Slot      model.Slot
	Signature model.Signature
}

const addressSignatureKeyLength = model.AddressLength + model.SlotLength + model.SignatureLength

func (k AddressSignatureKey) Bytes() ([]byte, error) {
	key := make([]byte, addressSignatureKeyLength)
	copy(key, k.Address[:])
	binary.BigEndian.PutUint64(key[model.AddressLength:], uint64(k.Slot))
	copy(key[model.AddressLength+model.SlotLength:], k.Signature[:])

	return key, nil
}

func AddressSignatureKeyFromBytes(bytes []byte) (AddressSignatureKey, int, error) {
	if len(bytes) < addressSignatureKeyLength {
		return AddressSignatureKey{}, 0, ierrors.Errorf("address signature key must be %d bytes, got %d", addressSignatureKeyLength, len(bytes))
	}

	var key AddressSignatureKey
	copy(key.Address[:], bytes[:model.AddressLength])
	key.Slot = model.Slot(binary.BigEndian.Uint64(bytes[model.AddressLength:]))
	copy(key.Signature[:], bytes[model.AddressLength+model.SlotLength:addressSignatureKeyLength])

	return key, addressSignatureKeyLength, nil
}

// PrimaryIndex is the key of the transaction status index column. Only the
// values 0 and 1 are ever written; the two indexes alternate as purge
// rotates them.
type PrimaryIndex uint64

func (i PrimaryIndex) Bytes() ([]byte, error) {
	key := make([]byte, model.SlotLength)
	binary.BigEndian.PutUint64(key, uint64(i))

	return key, nil
}

func PrimaryIndexFromBytes(bytes []byte) (PrimaryIndex, int, error) {
	if len(bytes) < model.SlotLength {
		return 0, 0, ierrors.Errorf("primary index key must be %d bytes, got %d", model.SlotLength, len(bytes))
	}

	return PrimaryIndex(binary.BigEndian.Uint64(bytes)), model.SlotLength, nil
}
