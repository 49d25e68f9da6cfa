package model

import (
	"crypto/sha256"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/runtime/ioutils"
)

// GenesisFileName is the name of the genesis configuration file inside the
// ledger directory.
const GenesisFileName = "genesis.json"

// PohParams configures the Proof-of-History sequencer of a cluster.
type PohParams struct {
	// TargetTickDuration is the intended wall-clock duration of one tick.
	TargetTickDuration time.Duration `json:"targetTickDuration"`
	// HashesPerTick is the calibrated number of hashes per tick; 0 selects
	// low-power mode.
	HashesPerTick uint64 `json:"hashesPerTick,omitempty"`
}

// GenesisConfig is the subset of the cluster genesis that the ledger store
// consumes: tick cadence for slot 0 synthesis plus a content hash that seeds
// the Proof-of-History chain.
type GenesisConfig struct {
	CreationTime time.Time `json:"creationTime"`
	TicksPerSlot uint64    `json:"ticksPerSlot"`
	Poh          PohParams `json:"poh"`
}

// Hash returns the deterministic content hash of the configuration. It seeds
// the slot 0 hash chain, so it must be reproducible from the persisted file.
func (g *GenesisConfig) Hash() Hash {
	serialized, err := json.Marshal(g)
	if err != nil {
		panic(err)
	}

	return sha256.Sum256(serialized)
}

// Persist writes the configuration into the given ledger directory.
func (g *GenesisConfig) Persist(ledgerPath string) error {
	if err := ioutils.CreateDirectory(ledgerPath, 0o700); err != nil {
		return ierrors.Wrapf(err, "failed to create ledger directory %s", ledgerPath)
	}

	return ioutils.WriteJSONToFile(filepath.Join(ledgerPath, GenesisFileName), g, 0o600)
}

// MaxGenesisFileSize bounds how large a genesis file is accepted; anything
// bigger is corrupt or hostile.
const MaxGenesisFileSize = 10 * 1024 * 1024

// ReadGenesisConfig loads the configuration persisted in a ledger directory.
func ReadGenesisConfig(ledgerPath string) (*GenesisConfig, error) {
	genesisPath := filepath.Join(ledgerPath, GenesisFileName)
	if info, err := os.Stat(genesisPath); err == nil && info.Size() > MaxGenesisFileSize {
		return nil, ierrors.Errorf("genesis configuration %s exceeds %d bytes", genesisPath, MaxGenesisFileSize)
	}

	g := new(GenesisConfig)
	if err := ioutils.ReadJSONFromFile(genesisPath, g); err != nil {
		if os.IsNotExist(err) {
			return nil, ierrors.Wrapf(err, "no genesis configuration in %s", ledgerPath)
		}

		return nil, ierrors.Wrapf(err, "failed to read genesis configuration from %s", genesisPath)
	}

	return g, nil
}
