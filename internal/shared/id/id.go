// Package id provides identifiers for refresh cycles.
//
// Every scan or refresh started by the engine is tagged with a RefreshID.
// Results travel back to the orchestrator with their tag, and the orchestrator
// drops results whose tag is no longer the active one for that flavor (the
// user switched flavor, or started another refresh meanwhile).
//
// RefreshIDs are ULIDs drawn from monotonic entropy: a later id always sorts
// after an earlier one, even within the same millisecond.
package id

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RefreshID identifies one refresh cycle
type RefreshID string

// Generator generates monotonically increasing ULIDs
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
		now:     time.Now,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// NewRefreshID generates the tag for a new refresh cycle
func (g *Generator) NewRefreshID() RefreshID {
	return RefreshID(g.Generate().String())
}

// NewRefreshID generates a refresh tag from the default generator
func NewRefreshID() RefreshID {
	return Default().NewRefreshID()
}

func (id RefreshID) String() string { return string(id) }

// Before reports whether id was generated before other. Invalid ids sort first.
func (id RefreshID) Before(other RefreshID) bool {
	return string(id) < string(other)
}

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the creation time from a RefreshID
func Timestamp(id RefreshID) (time.Time, error) {
	parsed, err := ulid.Parse(string(id))
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
