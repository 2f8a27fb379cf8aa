package audit

import (
	"context"
	"sort"
	"strings"
	"sync"

	"deedledger/pkg/platform/sentinel"
)

// MemoryStore keeps the trail in process for tests and datastore-less runs.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
	byTxID  map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byTxID: make(map[string]struct{})}
}

func (s *MemoryStore) Append(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byTxID[e.TransactionID]; ok {
		return sentinel.ErrConflict
	}
	s.byTxID[e.TransactionID] = struct{}{}
	s.entries = append(s.entries, e)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, f Filter, page, limit int) (Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []Entry
	for _, e := range s.entries {
		if entryMatches(e, f) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	total := len(matched)
	totalPages := (total + limit - 1) / limit

	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return Page{
		Entries:    append([]Entry{}, matched[start:end]...),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}

func entryMatches(e Entry, f Filter) bool {
	if f.DeedNumber != "" && !strings.Contains(strings.ToLower(e.DeedNumber), strings.ToLower(f.DeedNumber)) {
		return false
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.Username != "" {
		return e.PerformedBy == f.Username
	}
	if f.PerformedBy != "" && !strings.Contains(strings.ToLower(e.PerformedBy), strings.ToLower(f.PerformedBy)) {
		return false
	}
	return true
}
