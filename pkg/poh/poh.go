// Package poh implements the proof of history hash chain: a sequential
// sha256 chain that encodes the passage of time, interleaved with mixins of
// externally produced digests.
package poh

import (
	"crypto/sha256"
	"math"
	"time"

	"github.com/slotledger/ledger-core/pkg/model"
)

// LowPowerMode disables the fixed hash budget per tick: every tick emits an
// entry regardless of how many hashes accumulated since the previous one.
const LowPowerMode uint64 = math.MaxUint64

// Poh is the hash chain state machine. It is not safe for concurrent use;
// the caller serializes Hash, Record and Tick.
type Poh struct {
	hash          model.Hash
	numHashes     uint64
	hashesPerTick uint64
	// remainingHashes counts down to the next tick boundary. The final hash
	// of every tick budget is reserved for the tick itself, so it never
	// reaches zero outside of Tick.
	remainingHashes uint64
	tickNumber      uint64
	slotStartTime   time.Time
}

// New creates a chain starting from hash. A hashesPerTick of zero selects
// low power mode. A budget of one is impossible to honor (the tick itself
// consumes a hash, leaving no room to record) and panics.
func New(hash model.Hash, hashesPerTick uint64) *Poh {
	return NewWithStartTime(hash, hashesPerTick, time.Now())
}

// NewWithStartTime is New with an explicit slot start time, used when the
// slot began before the chain was (re-)created.
func NewWithStartTime(hash model.Hash, hashesPerTick uint64, slotStartTime time.Time) *Poh {
	p := new(Poh)
	p.Reset(hash, hashesPerTick)
	p.slotStartTime = slotStartTime

	return p
}

// NewWithSlotInfo resumes a chain mid-slot: tickNumber ticks have already
// been emitted since slotStartTime.
func NewWithSlotInfo(hash model.Hash, hashesPerTick uint64, slotStartTime time.Time, tickNumber uint64) *Poh {
	p := NewWithStartTime(hash, hashesPerTick, slotStartTime)
	p.tickNumber = tickNumber

	return p
}

// Reset restarts the chain from hash, clearing the tick counter.
func (p *Poh) Reset(hash model.Hash, hashesPerTick uint64) {
	if hashesPerTick == 0 {
		hashesPerTick = LowPowerMode
	}
	if hashesPerTick == 1 {
		panic("hashes per tick must be greater than one")
	}

	p.hash = hash
	p.numHashes = 0
	p.hashesPerTick = hashesPerTick
	p.remainingHashes = hashesPerTick
	p.tickNumber = 0
	p.slotStartTime = time.Now()
}

// Hash advances the chain by up to maxNumHashes hashes, stopping one hash
// short of the tick boundary. It reports whether a tick is now due.
func (p *Poh) Hash(maxNumHashes uint64) bool {
	numHashes := min(p.remainingHashes-1, maxNumHashes)
	for i := uint64(0); i < numHashes; i++ {
		p.hash = hashOne(p.hash)
	}
	p.numHashes += numHashes
	p.remainingHashes -= numHashes

	return p.remainingHashes == 1
}

// Record mixes an external digest into the chain and emits the entry proving
// everything hashed since the previous entry. It fails (returning false)
// exactly when the remaining budget is reserved for the tick; the caller
// must Tick before retrying.
func (p *Poh) Record(mixin model.Hash) (Entry, bool) {
	if p.remainingHashes == 1 {
		return Entry{}, false
	}

	p.hash = hashWithMixin(p.hash, mixin)
	entry := Entry{
		NumHashes: p.numHashes + 1,
		Hash:      p.hash,
	}
	p.numHashes = 0
	p.remainingHashes--

	return entry, true
}

// Tick advances the chain by the final hash of the tick budget and emits the
// tick entry. With a fixed budget it only emits when the budget is exactly
// consumed; in low power mode it emits on every call.
func (p *Poh) Tick() (Entry, bool) {
	p.hash = hashOne(p.hash)
	p.numHashes++
	p.remainingHashes--

	if p.hashesPerTick != LowPowerMode && p.remainingHashes != 0 {
		return Entry{}, false
	}

	p.remainingHashes = p.hashesPerTick
	entry := Entry{
		NumHashes: p.numHashes,
		Hash:      p.hash,
	}
	p.numHashes = 0
	p.tickNumber++

	return entry, true
}

// TickNumber returns how many ticks the chain has emitted since the last
// reset.
func (p *Poh) TickNumber() uint64 {
	return p.tickNumber
}

// TargetTime returns the wall clock instant the chain should have reached by
// now, given the target tick duration. Callers in low power mode sleep until
// this instant before ticking.
func (p *Poh) TargetTime(targetTickDuration time.Duration) time.Time {
	offsetTicks := time.Duration(p.tickNumber) * targetTickDuration

	var offsetHashes time.Duration
	if p.hashesPerTick != LowPowerMode {
		offsetHashes = time.Duration(uint64(targetTickDuration) * p.numHashes / p.hashesPerTick)
	}

	return p.slotStartTime.Add(offsetTicks + offsetHashes)
}

// ComputeHashTime measures how long numHashes sequential hashes take on this
// machine.
func ComputeHashTime(numHashes uint64) time.Duration {
	var hash model.Hash
	start := time.Now()
	for i := uint64(0); i < numHashes; i++ {
		hash = hashOne(hash)
	}
	_ = hash

	return time.Since(start)
}

// ComputeHashesPerTick calibrates the tick budget so one tick of hashing
// takes roughly tickDuration, based on a sample of numHashes hashes.
func ComputeHashesPerTick(tickDuration time.Duration, numHashes uint64) uint64 {
	elapsed := ComputeHashTime(numHashes)
	if elapsed <= 0 {
		return LowPowerMode
	}

	return uint64(float64(numHashes) * float64(tickDuration) / float64(elapsed))
}

func hashOne(hash model.Hash) model.Hash {
	return sha256.Sum256(hash[:])
}

func hashWithMixin(hash model.Hash, mixin model.Hash) model.Hash {
	hasher := sha256.New()
	hasher.Write(hash[:])
	hasher.Write(mixin[:])

	var result model.Hash
	copy(result[:], hasher.Sum(nil))

	return result
}
