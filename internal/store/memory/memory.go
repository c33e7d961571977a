// Package memory provides in-process implementations of the core store,
// ledger and browser interfaces. Nothing survives the process.
package memory

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/JonMunkholm/poi-importer/internal/core"
)

// Store keeps records in a slice. InsertErr, when set, is returned by
// InsertMany once FailAfter successful calls have been made.
type Store struct {
	mu      sync.Mutex
	records []core.StoredPOI
	nextID  int64
	calls   int

	InsertErr error
	FailAfter int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{nextID: 1}
}

// InsertMany appends every record. external_id is not unique, so nothing is skipped.
func (s *Store) InsertMany(_ context.Context, records []core.POIRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.InsertErr != nil && s.calls >= s.FailAfter {
		return 0, s.InsertErr
	}
	s.calls++

	now := time.Now()
	for _, rec := range records {
		s.records = append(s.records, core.StoredPOI{ID: s.nextID, CreatedAt: now, POIRecord: rec})
		s.nextID++
	}
	return len(records), nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Calls returns the number of successful InsertMany calls.
func (s *Store) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Records returns a copy of the stored records in insertion order.
func (s *Store) Records() []core.StoredPOI {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// ListPOIs returns records newest first, filtered like the database stores.
func (s *Store) ListPOIs(_ context.Context, f core.POIFilter) (core.POIPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []core.StoredPOI
	for i := len(s.records) - 1; i >= 0; i-- {
		rec := s.records[i]
		if f.Category != "" && rec.Category != f.Category {
			continue
		}
		if f.Search != "" && rec.ExternalID != f.Search && strconv.FormatInt(rec.ID, 10) != f.Search {
			continue
		}
		matched = append(matched, rec)
	}

	page := core.POIPage{Total: int64(len(matched))}
	start := min(max(f.Offset, 0), len(matched))
	end := len(matched)
	if f.Limit > 0 {
		end = min(start+f.Limit, end)
	}
	page.Items = matched[start:end]
	return page, nil
}

// Ledger is a set of content hashes.
type Ledger struct {
	mu     sync.Mutex
	hashes map[string]time.Time

	ContainsErr error
	RecordErr   error
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{hashes: make(map[string]time.Time)}
}

// Contains reports whether hash was recorded.
func (l *Ledger) Contains(_ context.Context, hash string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ContainsErr != nil {
		return false, l.ContainsErr
	}
	_, ok := l.hashes[hash]
	return ok, nil
}

// Record adds hash. Recording a known hash keeps the original timestamp.
func (l *Ledger) Record(_ context.Context, hash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.RecordErr != nil {
		return l.RecordErr
	}
	if _, ok := l.hashes[hash]; !ok {
		l.hashes[hash] = time.Now()
	}
	return nil
}

// Len returns the number of recorded hashes.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hashes)
}
