package archive

import (
	"context"
	"fmt"
	"sync"
)

// MemorySink keeps archived pages in memory for inspection in tests.
type MemorySink struct {
	mu    sync.Mutex
	pages map[int64][]byte
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{pages: map[int64][]byte{}}
}

// Put records the page and returns a mem:// URI.
func (s *MemorySink) Put(_ context.Context, rsn int64, markup []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[rsn] = append([]byte(nil), markup...)
	return fmt.Sprintf("mem://%d.html", rsn), nil
}

// Page returns the archived markup for rsn.
func (s *MemorySink) Page(rsn int64) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.pages[rsn]
	return page, ok
}
