package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"deedledger/internal/deed"
	"deedledger/pkg/platform/sentinel"
)

// MemoryStore keeps deeds in process. It intentionally favors clarity over
// performance and backs unit tests and datastore-less development.
type MemoryStore struct {
	mu    sync.RWMutex
	deeds map[string]deed.Deed
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{deeds: make(map[string]deed.Deed)}
}

func (s *MemoryStore) Create(_ context.Context, d deed.Deed) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.deeds {
		if existing.LandTitleNumber == d.LandTitleNumber ||
			existing.DeedNumber == d.DeedNumber ||
			existing.Fingerprint == d.Fingerprint {
			return sentinel.ErrConflict
		}
	}
	s.deeds[d.ID] = d
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (deed.Deed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.deeds[id]; ok {
		return d, nil
	}
	return deed.Deed{}, sentinel.ErrNotFound
}

func (s *MemoryStore) FindByNumber(_ context.Context, number string) (deed.Deed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.deeds {
		if d.LandTitleNumber == number || d.DeedNumber == number {
			return d, nil
		}
	}
	return deed.Deed{}, sentinel.ErrNotFound
}

func (s *MemoryStore) Query(_ context.Context, filter deed.QueryFilter) ([]deed.Deed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []deed.Deed
	for _, d := range s.deeds {
		if matches(d, filter) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].RegistrationDate.After(out[j].RegistrationDate)
	})
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, id string, fields deed.UpdateFields, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.deeds[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	updated := fields.Apply(current)
	updated.Fingerprint = fingerprint
	for otherID, other := range s.deeds {
		if otherID == id {
			continue
		}
		if other.LandTitleNumber == updated.LandTitleNumber ||
			other.DeedNumber == updated.DeedNumber ||
			other.Fingerprint == updated.Fingerprint {
			return sentinel.ErrConflict
		}
	}
	s.deeds[id] = updated
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.deeds[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.deeds, id)
	return nil
}

func matches(d deed.Deed, f deed.QueryFilter) bool {
	contains := func(haystack, needle string) bool {
		return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
	}
	if f.LandTitleNumber != "" && !contains(d.LandTitleNumber, f.LandTitleNumber) {
		return false
	}
	if f.DeedNumber != "" && !contains(d.DeedNumber, f.DeedNumber) {
		return false
	}
	if f.OwnerName != "" && !contains(d.OwnerName, f.OwnerName) {
		return false
	}
	if f.OwnerNIC != "" && !contains(d.OwnerNIC, f.OwnerNIC) {
		return false
	}
	if f.District != "" && d.District != f.District {
		return false
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	if f.Search != "" {
		if !contains(d.DeedNumber, f.Search) &&
			!contains(d.LandTitleNumber, f.Search) &&
			!contains(d.OwnerNIC, f.Search) {
			return false
		}
	}
	return true
}
