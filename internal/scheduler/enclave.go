package scheduler

import (
	"sync"

	"github.com/opsnexus/chrt/internal/chrterr"
)

// DefaultEnclaveCapacity mirrors the registry's build-time default of
// 16 (§3 EnclaveTable).
const DefaultEnclaveCapacity = 16

// EnclaveTable is the ordered, order-dependent identity space of
// participating processes (§3 EnclaveTable, §4.5). Index 0 is reserved
// meaning "unset"; names are resolved to indices by declaration
// position, so every cooperating process must call Declare with the
// same name list in the same order. EnclaveTable implements
// params.EnclaveResolver so the grammar's src=/dst= keys resolve
// against it directly.
type EnclaveTable struct {
	mu       sync.RWMutex
	capacity int
	names    []string // 1-based: names[0] is index 1
	declared bool
}

// NewEnclaveTable creates an EnclaveTable with room for capacity
// enclaves (0 uses DefaultEnclaveCapacity).
func NewEnclaveTable(capacity int) *EnclaveTable {
	if capacity <= 0 {
		capacity = DefaultEnclaveCapacity
	}
	return &EnclaveTable{capacity: capacity}
}

// Declare populates the table once, immutably (§3: "populated once by
// declare_enclaves, immutable thereafter"). A second call fails with
// invalid-argument; exceeding capacity fails with too-many-open.
func (t *EnclaveTable) Declare(names ...string) error {
	const op = "scheduler.DeclareEnclaves"
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.declared {
		return chrterr.New(chrterr.InvalidArgument, op)
	}
	if len(names) > t.capacity {
		return chrterr.New(chrterr.TooManyOpen, op)
	}
	t.names = append([]string(nil), names...)
	t.declared = true
	return nil
}

// Index resolves a declared name to its 1-based index (params.EnclaveResolver).
func (t *EnclaveTable) Index(name string) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i, n := range t.names {
		if n == name {
			return i + 1, true
		}
	}
	return 0, false
}

// Name resolves a 1-based index back to its declared name (params.EnclaveResolver).
func (t *EnclaveTable) Name(index int) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if index <= 0 || index > len(t.names) {
		return "", false
	}
	return t.names[index-1], true
}
