package sequencer

import (
	"context"
	"fmt"
	"sync"
)

// MemoryThrottle is a process-local ThrottleCounter, used when Redis is not
// configured. Counts are lost on restart.
type MemoryThrottle struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewMemoryThrottle() *MemoryThrottle {
	return &MemoryThrottle{counts: make(map[string]int)}
}

func throttleKey(sequenceID uint, day string) string {
	return fmt.Sprintf("%d:%s", sequenceID, day)
}

func (m *MemoryThrottle) Count(_ context.Context, sequenceID uint, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[throttleKey(sequenceID, day)], nil
}

func (m *MemoryThrottle) Incr(_ context.Context, sequenceID uint, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := throttleKey(sequenceID, day)
	m.counts[key]++
	return m.counts[key], nil
}
