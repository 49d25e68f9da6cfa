package poh_test

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slotledger/ledger-core/pkg/model"
	"github.com/slotledger/ledger-core/pkg/poh"
)

func TestHashBudgetAccounting(t *testing.T) {
	const hashesPerTick = 10

	var start model.Hash
	chain := poh.New(start, hashesPerTick)

	// Advancing by more than the budget stops one short of the boundary.
	require.True(t, chain.Hash(hashesPerTick*2))

	entry, ok := chain.Tick()
	require.True(t, ok)
	require.EqualValues(t, hashesPerTick, entry.NumHashes)
	require.True(t, entry.Verify(start, nil))
}

func TestEveryTickConsumesExactBudget(t *testing.T) {
	const (
		hashesPerTick = 7
		numTicks      = 5
	)

	var start model.Hash
	chain := poh.New(start, hashesPerTick)

	prev := start
	for tick := 0; tick < numTicks; tick++ {
		var numHashes uint64
		for {
			chain.Hash(2)

			entry, ok := chain.Tick()
			if !ok {
				continue
			}
			numHashes += entry.NumHashes
			require.EqualValues(t, hashesPerTick, numHashes)
			require.True(t, entry.Verify(prev, nil))
			prev = entry.Hash

			break
		}
	}
	require.EqualValues(t, numTicks, chain.TickNumber())
}

func TestRecordRefusedAtTickBoundary(t *testing.T) {
	const hashesPerTick = 3

	var start model.Hash
	mixin := model.Hash(sha256.Sum256([]byte("transaction batch")))

	chain := poh.New(start, hashesPerTick)
	require.True(t, chain.Hash(hashesPerTick))

	// All remaining budget is reserved for the tick.
	_, ok := chain.Record(mixin)
	require.False(t, ok)

	tickEntry, ok := chain.Tick()
	require.True(t, ok)

	entry, ok := chain.Record(mixin)
	require.True(t, ok)
	require.EqualValues(t, 1, entry.NumHashes)
	require.True(t, entry.Verify(tickEntry.Hash, &mixin))
}

func TestRecordBetweenTicks(t *testing.T) {
	const hashesPerTick = 10

	var start model.Hash
	mixin := model.Hash(sha256.Sum256([]byte("mixin")))

	chain := poh.New(start, hashesPerTick)
	chain.Hash(3)

	entry, ok := chain.Record(mixin)
	require.True(t, ok)
	require.EqualValues(t, 4, entry.NumHashes, "three chain hashes plus the mixin hash")
	require.True(t, entry.Verify(start, &mixin))

	// The tick accounts for the remainder of the budget.
	var total uint64 = entry.NumHashes
	for {
		chain.Hash(1)
		tickEntry, tickOK := chain.Tick()
		if tickOK {
			total += tickEntry.NumHashes
			break
		}
	}
	require.EqualValues(t, hashesPerTick, total)
}

func TestLowPowerModeTicksImmediately(t *testing.T) {
	var start model.Hash
	chain := poh.New(start, 0)

	for i := 1; i <= 3; i++ {
		entry, ok := chain.Tick()
		require.True(t, ok)
		require.EqualValues(t, 1, entry.NumHashes)
		require.EqualValues(t, i, chain.TickNumber())
	}
}

func TestLowPowerModeRecordsWithoutBudget(t *testing.T) {
	var start model.Hash
	chain := poh.New(start, 0)

	mixin := model.Hash(sha256.Sum256([]byte("m")))
	for i := 0; i < 100; i++ {
		_, ok := chain.Record(mixin)
		require.True(t, ok)
	}
}

func TestSingleHashBudgetPanics(t *testing.T) {
	require.Panics(t, func() {
		var start model.Hash
		poh.New(start, 1)
	})
}

func TestResetClearsTickCounter(t *testing.T) {
	var start model.Hash
	chain := poh.New(start, 0)

	_, ok := chain.Tick()
	require.True(t, ok)
	require.EqualValues(t, 1, chain.TickNumber())

	chain.Reset(start, 0)
	require.EqualValues(t, 0, chain.TickNumber())
}

func TestCreateTicksChains(t *testing.T) {
	var start model.Hash

	ticks := poh.CreateTicks(4, 8, start)
	require.Len(t, ticks, 4)

	prev := start
	for _, tick := range ticks {
		require.EqualValues(t, 8, tick.NumHashes)
		require.True(t, tick.Verify(prev, nil))
		prev = tick.Hash
	}

	// The chain a live Poh produces matches the precomputed one.
	chain := poh.New(start, 8)
	for _, tick := range ticks {
		chain.Hash(8)
		entry, ok := chain.Tick()
		require.True(t, ok)
		require.Equal(t, tick, entry)
	}
}

func TestCreateTicksLowPower(t *testing.T) {
	var start model.Hash

	ticks := poh.CreateTicks(2, 0, start)
	require.Len(t, ticks, 2)
	for _, tick := range ticks {
		require.EqualValues(t, 1, tick.NumHashes)
	}
}

func TestNextHashIdentity(t *testing.T) {
	hash := sha256.Sum256([]byte("x"))
	require.Equal(t, model.Hash(hash), poh.NextHash(hash, 0, nil))
	require.NotEqual(t, model.Hash(hash), poh.NextHash(hash, 1, nil))
}

func TestEntrySerialization(t *testing.T) {
	entry := poh.Entry{NumHashes: 42, Hash: sha256.Sum256([]byte("entry"))}

	bytes, err := entry.Bytes()
	require.NoError(t, err)

	decoded, consumed, err := poh.EntryFromBytes(bytes)
	require.NoError(t, err)
	require.Equal(t, len(bytes), consumed)
	require.Equal(t, entry, decoded)
}

func TestComputeHashesPerTick(t *testing.T) {
	hashesPerTick := poh.ComputeHashesPerTick(10_000_000, 1_000)
	require.Greater(t, hashesPerTick, uint64(0))
}
