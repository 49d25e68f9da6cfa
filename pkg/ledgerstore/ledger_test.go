package ledgerstore_test

import (
	"path/filepath"
	"testing"
	"time"

	hivedb "github.com/iotaledger/hive.go/db"
	"github.com/iotaledger/hive.go/log"
	"github.com/stretchr/testify/require"

	"github.com/slotledger/ledger-core/pkg/ledgerstore"
	"github.com/slotledger/ledger-core/pkg/model"
	"github.com/slotledger/ledger-core/pkg/poh"
)

func testGenesis() *model.GenesisConfig {
	return &model.GenesisConfig{
		CreationTime: time.Unix(1700000000, 0).UTC(),
		TicksPerSlot: 8,
		Poh: model.PohParams{
			TargetTickDuration: 400 * time.Millisecond,
			HashesPerTick:      16,
		},
	}
}

func TestCreateNewLedgerOnFreshDirectory(t *testing.T) {
	// The ledger directory does not exist yet; destroying the previous
	// database must be a no-op, not an error.
	ledgerDir := filepath.Join(t.TempDir(), "ledger")

	tip, err := ledgerstore.CreateNewLedger(log.NewLogger(), ledgerDir, testGenesis())
	require.NoError(t, err)
	require.NotEqual(t, model.Hash{}, tip)
}

func TestCreateNewLedger(t *testing.T) {
	ledgerDir := t.TempDir()
	genesis := testGenesis()

	lastHash, err := ledgerstore.CreateNewLedger(log.NewLogger(), ledgerDir, genesis,
		ledgerstore.WithDBEngine(hivedb.EngineMapDB))
	require.NoError(t, err)

	// The returned hash is the end of the deterministic genesis tick chain.
	ticks := poh.CreateTicks(genesis.TicksPerSlot, genesis.Poh.HashesPerTick, genesis.Hash())
	require.Equal(t, ticks[len(ticks)-1].Hash, lastHash)

	// The genesis config is persisted alongside the database.
	persisted, err := model.ReadGenesisConfig(ledgerDir)
	require.NoError(t, err)
	require.Equal(t, genesis.Hash(), persisted.Hash())
}

func TestCreateNewLedgerIsIdempotent(t *testing.T) {
	ledgerDir := t.TempDir()
	genesis := testGenesis()

	first, err := ledgerstore.CreateNewLedger(log.NewLogger(), ledgerDir, genesis,
		ledgerstore.WithDBEngine(hivedb.EngineMapDB))
	require.NoError(t, err)

	second, err := ledgerstore.CreateNewLedger(log.NewLogger(), ledgerDir, genesis,
		ledgerstore.WithDBEngine(hivedb.EngineMapDB))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestCreateNewLedgerRejectsZeroTicks(t *testing.T) {
	genesis := testGenesis()
	genesis.TicksPerSlot = 0

	_, err := ledgerstore.CreateNewLedger(log.NewLogger(), t.TempDir(), genesis,
		ledgerstore.WithDBEngine(hivedb.EngineMapDB))
	require.Error(t, err)
}

func TestGenesisSlotIsReadable(t *testing.T) {
	ledgerDir := t.TempDir()
	genesis := testGenesis()

	_, err := ledgerstore.CreateNewLedger(log.NewLogger(), ledgerDir, genesis,
		ledgerstore.WithDBEngine(hivedb.EngineMapDB))
	require.NoError(t, err)

	store, err := ledgerstore.New(log.NewLogger(), ledgerDir,
		ledgerstore.WithDBEngine(hivedb.EngineMapDB))
	require.NoError(t, err)
	defer func() {
		require.NoError(t, store.Shutdown())
	}()

	config, err := store.GenesisConfig()
	require.NoError(t, err)
	require.EqualValues(t, genesis.TicksPerSlot, config.TicksPerSlot)
}
