package wizard

import (
	"fmt"
	"sync"
	"time"
)

// Store is the single owner of an in-progress report document. Update
// operations return a fresh snapshot so readers never observe a half-applied
// change.
type Store struct {
	mu      sync.Mutex
	data    WizardData
	version int64
}

func NewStore() *Store {
	return &Store{data: WizardData{}}
}

func NewStoreFrom(data WizardData) *Store {
	if data == nil {
		data = WizardData{}
	}
	return &Store{data: data.Clone()}
}

// Snapshot returns an isolated copy of the current document.
func (s *Store) Snapshot() WizardData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Clone()
}

// Version increments on every successful update.
func (s *Store) Version() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// UpdateGroup applies a scoped field update to one group and returns the new
// snapshot. Nil values delete the field.
func (s *Store) UpdateGroup(group string, fields GroupData) WizardData {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.data.Clone()
	g := next.Group(group)
	for k, v := range fields {
		if v == nil {
			delete(g, k)
			continue
		}
		g[k] = v
	}
	s.data = next
	s.version++
	return next.Clone()
}

// Replace swaps in a whole new document, typically the output of a merge.
func (s *Store) Replace(data WizardData) WizardData {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data.Clone()
	s.version++
	return s.data.Clone()
}

// NewEntryID generates a string ID for step-local array entities (comparable
// sales, valuation lines, uploaded files). IDs are timestamp-based to stay
// sortable by insertion order.
func NewEntryID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixMilli())
}
