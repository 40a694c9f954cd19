// Package id provides ULID generation for the channel runtime's
// debug-facing identifiers.
//
// ULIDs are lexicographically sortable, so a sequence of generated IDs
// reflects creation order even across processes without a shared
// clock precision requirement. The runtime currently uses this for
// one thing: a scheduler run ID attached to log fields so a single
// cooperative session's log lines can be grepped out of a shared
// output stream.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunID identifies one cooperative-scheduler run, for log correlation
// only; it has no on-the-wire meaning (§4.5, §6).
type RunID string

// RunPrefix tags every RunID in log output.
const RunPrefix = "run"

// Generator generates ULIDs with optional prefixes.
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance.
func Default() *Generator {
	once.Do(func() { defaultGenerator = NewGenerator() })
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy
// source, useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string, e.g. "run_<ulid>".
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRunID generates a new scheduler run identifier.
func NewRunID() RunID {
	return RunID(Default().GenerateWithPrefix(RunPrefix))
}

func (r RunID) String() string { return string(r) }
