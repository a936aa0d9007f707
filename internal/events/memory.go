package events

import (
	"context"
	"fmt"
	"sync"
)

// MemoryPublisher stores published events for inspection in tests.
type MemoryPublisher struct {
	mu     sync.RWMutex
	events []CaptureEvent
}

// NewMemoryPublisher returns an empty MemoryPublisher.
func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

// Publish records the event and returns a pseudo ID.
func (p *MemoryPublisher) Publish(_ context.Context, event CaptureEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return fmt.Sprintf("memory-%d", len(p.events)), nil
}

// Events returns the recorded publishes.
func (p *MemoryPublisher) Events() []CaptureEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]CaptureEvent, len(p.events))
	copy(out, p.events)
	return out
}
