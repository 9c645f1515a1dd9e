package queue

import (
	"slices"
	"sort"
	"sync"
	"time"

	"queuewatch/internal/shape"
)

// IngestResult reports what a single Ingest call changed.
type IngestResult struct {
	Accepted  []string
	DidUpdate bool
}

// Store is an identity-keyed table of the latest record per ItemID.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time

	subMu  sync.Mutex
	subs   map[uint64]func([]Record)
	nextID uint64
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp ObservedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		records: make(map[string]Record),
		now:     time.Now,
		subs:    make(map[uint64]func([]Record)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest validates each candidate in order and stores the accepted ones.
func (s *Store) Ingest(candidates []any) IngestResult {
	return s.IngestFrom(SourceUnknown, candidates)
}

// IngestFrom is Ingest with the producing entry point recorded on each
// accepted record. A repeated ItemID replaces the earlier record in full.
func (s *Store) IngestFrom(source Source, candidates []any) IngestResult {
	if s == nil || len(candidates) == 0 {
		return IngestResult{}
	}

	var result IngestResult
	observed := s.now()

	s.mu.Lock()
	for _, raw := range candidates {
		cand, err := shape.Validate(raw)
		if err != nil {
			continue
		}
		rec := FromCandidate(cand)
		rec.ObservedAt = observed
		rec.Source = source
		s.records[rec.ItemID] = rec
		if !slices.Contains(result.Accepted, rec.ItemID) {
			result.Accepted = append(result.Accepted, rec.ItemID)
		}
	}
	s.mu.Unlock()

	result.DidUpdate = len(result.Accepted) > 0
	if result.DidUpdate {
		s.publish()
	}
	return result
}

// Get returns the record stored under itemID.
func (s *Store) Get(itemID string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[itemID]
	return rec, ok
}

// Len returns the number of tracked identities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Snapshot returns every record in display order.
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	SortRecords(out)
	return out
}

// Subscribe registers fn to receive the sorted snapshot after every ingest
// that accepted at least one candidate. The returned function removes it.
func (s *Store) Subscribe(fn func([]Record)) func() {
	if fn == nil {
		return func() {}
	}
	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) publish() {
	s.subMu.Lock()
	ids := make([]uint64, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func([]Record), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	if len(fns) == 0 {
		return
	}
	snapshot := s.Snapshot()
	for _, fn := range fns {
		fn(slices.Clone(snapshot))
	}
}

// SortRecords orders records likely-first, then by ascending ETA with
// missing ETAs last, then by ItemID.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return recordLess(records[i], records[j])
	})
}

func recordLess(a, b Record) bool {
	aLikely := a.Metadata.AdmissionLikelihood == LikelihoodLikely
	bLikely := b.Metadata.AdmissionLikelihood == LikelihoodLikely
	if aLikely != bLikely {
		return aLikely
	}
	switch {
	case a.HasETA() && b.HasETA():
		if !a.ExpectedTurnTime.Equal(*b.ExpectedTurnTime) {
			return a.ExpectedTurnTime.Before(*b.ExpectedTurnTime)
		}
	case a.HasETA() != b.HasETA():
		return a.HasETA()
	}
	return a.ItemID < b.ItemID
}
