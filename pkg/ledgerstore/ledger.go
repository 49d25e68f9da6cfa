package ledgerstore

import (
	hivedb "github.com/iotaledger/hive.go/db"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/hive.go/serializer/v2"
	"github.com/iotaledger/hive.go/serializer/v2/stream"

	"github.com/slotledger/ledger-core/pkg/model"
	"github.com/slotledger/ledger-core/pkg/poh"
)

// shredPayloadSize is how many entry bytes one bootstrap data shred carries.
const shredPayloadSize = 1024

// CreateNewLedger wipes whatever exists at ledgerDirectory and initializes a
// fresh ledger: the genesis config is persisted, slot 0 is populated with
// the genesis ticks and rooted. It returns the hash of the last entry in
// slot 0, the seed for the hash chain of slot 1.
func CreateNewLedger(parentLogger log.Logger, ledgerDirectory string, genesis *model.GenesisConfig, opts ...options.Option[Store]) (model.Hash, error) {
	if genesis.TicksPerSlot == 0 {
		return model.Hash{}, ierrors.New("genesis config must define at least one tick per slot")
	}

	seed := options.Apply(&Store{
		optsDBEngine: hivedb.EngineRocksDB,
	}, opts)
	if err := Destroy(ledgerDirectory, seed.optsDBEngine); err != nil {
		return model.Hash{}, ierrors.Wrap(err, "failed to destroy previous ledger")
	}

	if err := genesis.Persist(ledgerDirectory); err != nil {
		return model.Hash{}, ierrors.Wrap(err, "failed to persist genesis config")
	}

	store, err := New(parentLogger, ledgerDirectory, opts...)
	if err != nil {
		return model.Hash{}, err
	}
	defer func() {
		_ = store.Shutdown()
	}()

	ticks := poh.CreateTicks(genesis.TicksPerSlot, genesis.Poh.HashesPerTick, genesis.Hash())
	shreds, err := shredsFromEntries(0, 0, ticks)
	if err != nil {
		return model.Hash{}, ierrors.Wrap(err, "failed to shred genesis entries")
	}

	if _, err := store.InsertShreds(shreds); err != nil {
		return model.Hash{}, ierrors.Wrap(err, "failed to insert genesis shreds")
	}
	if err := store.SetRoots(0); err != nil {
		return model.Hash{}, ierrors.Wrap(err, "failed to root the genesis slot")
	}
	if err := store.Flush(); err != nil {
		return model.Hash{}, ierrors.Wrap(err, "failed to flush the new ledger")
	}

	return ticks[len(ticks)-1].Hash, nil
}

// GenesisConfig reads the genesis config persisted next to the database.
func (s *Store) GenesisConfig() (*model.GenesisConfig, error) {
	return model.ReadGenesisConfig(s.ledgerDirectory)
}

// SlotEntries reassembles the entries of a full slot from its data shreds.
func (s *Store) SlotEntries(slot model.Slot) ([]poh.Entry, error) {
	s.metrics.countAPICall("slot_entries")

	meta, exists, err := s.slotMetas.Load(slot)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ierrors.Errorf("slot %d is unknown", slot)
	}
	if !meta.IsFull() {
		return nil, ierrors.Errorf("slot %d is not yet full", slot)
	}

	shreds, err := s.SlotDataShreds(slot)
	if err != nil {
		return nil, err
	}

	var payload []byte
	for _, shred := range shreds {
		payload = append(payload, shred.Payload...)
	}

	return entriesFromBytes(payload)
}

func entriesToBytes(entries []poh.Entry) ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()

	if err := stream.WriteCollection(byteBuffer, serializer.SeriLengthPrefixTypeAsUint32, func() (int, error) {
		for _, entry := range entries {
			entryBytes, err := entry.Bytes()
			if err != nil {
				return 0, err
			}
			if err := stream.WriteBytes(byteBuffer, entryBytes); err != nil {
				return 0, err
			}
		}

		return len(entries), nil
	}); err != nil {
		return nil, err
	}

	return byteBuffer.Bytes()
}

func entriesFromBytes(bytes []byte) ([]poh.Entry, error) {
	byteReader := stream.NewByteReader(bytes)

	var entries []poh.Entry
	if err := stream.ReadCollection(byteReader, serializer.SeriLengthPrefixTypeAsUint32, func(int) error {
		numHashes, err := stream.Read[uint64](byteReader)
		if err != nil {
			return err
		}
		hash, err := stream.Read[model.Hash](byteReader)
		if err != nil {
			return err
		}
		entries = append(entries, poh.Entry{NumHashes: numHashes, Hash: hash})

		return nil
	}); err != nil {
		return nil, err
	}

	return entries, nil
}

// shredsFromEntries frames serialized entries into data shreds of one slot.
// The final shred carries the last-in-slot marker.
func shredsFromEntries(slot model.Slot, parentSlot model.Slot, entries []poh.Entry) ([]*model.Shred, error) {
	payload, err := entriesToBytes(entries)
	if err != nil {
		return nil, err
	}

	var parentOffset uint32
	if slot > parentSlot {
		parentOffset = uint32(slot - parentSlot)
	}

	var shreds []*model.Shred
	for index, offset := uint64(0), 0; offset < len(payload); index, offset = index+1, offset+shredPayloadSize {
		chunk := payload[offset:min(offset+shredPayloadSize, len(payload))]

		shred := &model.Shred{
			Slot:         slot,
			Index:        index,
			Type:         model.ShredTypeData,
			ParentOffset: parentOffset,
			Payload:      chunk,
		}
		if offset+shredPayloadSize >= len(payload) {
			shred.Flags = model.ShredFlagLastInSlot
		}
		shreds = append(shreds, shred)
	}

	return shreds, nil
}
