package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator returns "<prefix>-1", "<prefix>-2", ... in order.
//
// This enables deterministic event IDs so golden files stay stable.
//
// Thread-safety: SequentialIDGenerator is safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator. If prefix is empty, "evt" is used.
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "evt"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next ID in the sequence.
//
// Implements tracker.IDGenerator interface.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts the sequence. After Reset(), the next call returns "<prefix>-1".
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
