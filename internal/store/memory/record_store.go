// Package memory contains an in-memory record store for tests and local
// runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/permitwatch/permit-crawler/internal/permit"
	"github.com/permitwatch/permit-crawler/internal/store"
)

// RecordStore is a mutex-guarded in-memory store.RecordStore.
type RecordStore struct {
	mu      sync.Mutex
	records map[int64]permit.Record
}

// New returns an empty memory RecordStore.
func New() *RecordStore {
	return &RecordStore{records: map[int64]permit.Record{}}
}

// Claim inserts an in_progress row unless the RSN already exists.
func (s *RecordStore) Claim(_ context.Context, rsn int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rsn]; ok {
		return store.ErrAlreadyClaimed
	}
	s.records[rsn] = permit.Record{
		RSN:          rsn,
		ScrapeStatus: permit.ScrapeInProgress,
		BotStatus:    permit.BotNothingToPost,
	}
	return nil
}

// MaxRSN returns the largest RSN ever claimed.
func (s *RecordStore) MaxRSN(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max int64
	found := false
	for rsn := range s.records {
		if !found || rsn > max {
			max = rsn
			found = true
		}
	}
	if !found {
		return 0, store.ErrNotFound
	}
	return max, nil
}

// LatestCaptured returns the largest captured RSN.
func (s *RecordStore) LatestCaptured(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max int64
	found := false
	for rsn, rec := range s.records {
		if rec.ScrapeStatus != permit.ScrapeCaptured {
			continue
		}
		if !found || rsn > max {
			max = rsn
			found = true
		}
	}
	if !found {
		return 0, store.ErrNotFound
	}
	return max, nil
}

// RecentNotFound returns up to limit not_found RSNs, most recent first.
func (s *RecordStore) RecentNotFound(_ context.Context, limit int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rsns []int64
	for rsn, rec := range s.records {
		if rec.ScrapeStatus == permit.ScrapeNotFound {
			rsns = append(rsns, rsn)
		}
	}
	sort.Slice(rsns, func(i, j int) bool { return rsns[i] > rsns[j] })
	if limit > 0 && len(rsns) > limit {
		rsns = rsns[:limit]
	}
	return rsns, nil
}

// Upsert writes a record keyed by RSN, overwriting any earlier outcome.
func (s *RecordStore) Upsert(_ context.Context, rec permit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.BotStatus == "" {
		rec.BotStatus = permit.BotNothingToPost
	}
	s.records[rec.RSN] = rec
	return nil
}

// ReadyToPost returns ready_to_tweet records, most recent first.
func (s *RecordStore) ReadyToPost(context.Context) ([]permit.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []permit.Record
	for _, rec := range s.records {
		if rec.BotStatus == permit.BotReady {
			records = append(records, rec)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].RSN > records[j].RSN })
	return records, nil
}

// SetBotStatus overwrites the publication status of one record.
func (s *RecordStore) SetBotStatus(_ context.Context, rsn int64, status permit.BotStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[rsn]
	if !ok {
		return store.ErrNotFound
	}
	rec.BotStatus = status
	s.records[rsn] = rec
	return nil
}

// Get returns a copy of the stored record, for assertions in tests.
func (s *RecordStore) Get(rsn int64) (permit.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[rsn]
	return rec, ok
}

// Len reports how many records the store holds.
func (s *RecordStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
