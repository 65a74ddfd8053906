package engine

import (
	"sync"

	"datadash/internal/models"
)

// Store holds the active dataset, its schema and the live filter set. Every
// load or filter event replaces state wholesale under the lock; readers get a
// consistent snapshot, never a partially updated one.
type Store struct {
	mu      sync.RWMutex
	dataset *models.Dataset
	schema  models.Schema
	filters []models.Predicate
}

func NewStore() *Store {
	return &Store{}
}

// Swap installs a freshly loaded dataset and its schema as the active pair.
// Filters from the previous dataset are cleared.
func (s *Store) Swap(ds *models.Dataset, schema models.Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = ds
	s.schema = schema
	s.filters = nil
}

// SetFilters replaces the active predicate set. Predicates referencing
// columns not in the current schema are dropped, and the pruned set is
// returned.
func (s *Store) SetFilters(predicates []models.Predicate) []models.Predicate {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = PruneFilters(s.schema, predicates)
	return s.filters
}

// Snapshot returns the active dataset, schema and filters. ok is false until
// the first dataset is loaded.
func (s *Store) Snapshot() (ds *models.Dataset, schema models.Schema, filters []models.Predicate, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return nil, models.Schema{}, nil, false
	}
	return s.dataset, s.schema, s.filters, true
}

// View returns the filtered row set of the active dataset.
func (s *Store) View() ([]models.Row, bool) {
	ds, _, filters, ok := s.Snapshot()
	if !ok {
		return nil, false
	}
	return ApplyFilters(ds.Rows, filters), true
}
