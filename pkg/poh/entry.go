package poh

import (
	"github.com/iotaledger/hive.go/serializer/v2/stream"

	"github.com/slotledger/ledger-core/pkg/model"
)

// Entry is one link of the chain: NumHashes sequential hashes after the
// previous entry's hash, ending in Hash. Ticks are entries without a mixin.
type Entry struct {
	NumHashes uint64
	Hash      model.Hash
}

func (e Entry) Bytes() ([]byte, error) {
	byteBuffer := stream.NewByteBuffer()

	if err := stream.Write(byteBuffer, e.NumHashes); err != nil {
		return nil, err
	}
	if err := stream.Write(byteBuffer, e.Hash); err != nil {
		return nil, err
	}

	return byteBuffer.Bytes()
}

func EntryFromBytes(bytes []byte) (Entry, int, error) {
	byteReader := stream.NewByteReader(bytes)

	var entry Entry
	var err error
	if entry.NumHashes, err = stream.Read[uint64](byteReader); err != nil {
		return Entry{}, 0, err
	}
	if entry.Hash, err = stream.Read[model.Hash](byteReader); err != nil {
		return Entry{}, 0, err
	}

	return entry, byteReader.BytesRead(), nil
}

// Verify checks that the entry extends prevHash. A nil mixin verifies a tick
// entry; otherwise the final hash must mix in the given digest.
func (e Entry) Verify(prevHash model.Hash, mixin *model.Hash) bool {
	return e.Hash == NextHash(prevHash, e.NumHashes, mixin)
}

// NextHash extends startHash by numHashes hashes, mixing the optional digest
// into the final one. Zero hashes without a mixin is the identity.
func NextHash(startHash model.Hash, numHashes uint64, mixin *model.Hash) model.Hash {
	if numHashes == 0 && mixin == nil {
		return startHash
	}

	hash := startHash
	for i := uint64(1); i < numHashes; i++ {
		hash = hashOne(hash)
	}
	if mixin != nil {
		return hashWithMixin(hash, *mixin)
	}

	return hashOne(hash)
}

// CreateTicks builds numTicks consecutive tick entries starting from
// startHash, each consuming hashesPerTick hashes (a single hash per tick
// when hashesPerTick is zero).
func CreateTicks(numTicks uint64, hashesPerTick uint64, startHash model.Hash) []Entry {
	if hashesPerTick == 0 {
		hashesPerTick = 1
	}

	hash := startHash
	ticks := make([]Entry, 0, numTicks)
	for i := uint64(0); i < numTicks; i++ {
		hash = NextHash(hash, hashesPerTick, nil)
		ticks = append(ticks, Entry{
			NumHashes: hashesPerTick,
			Hash:      hash,
		})
	}

	return ticks
}
