// Package store provides storage for named formulas: an in-memory,
// thread-safe map with optional write-through SQLite persistence. Every
// stored formula is validated by parsing, and evaluation goes through a
// shared AST cache so each distinct source text is parsed at most once.
package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gamekitlabs/formula-engine/pkg/formula"
)

// ErrNotFound is returned when a named formula does not exist.
var ErrNotFound = errors.New("formula not found")

// ErrExists is returned when creating a formula under a taken name.
var ErrExists = errors.New("formula already exists")

// Formula is a stored formula definition.
type Formula struct {
	Name        string    `json:"name"`
	Source      string    `json:"source"`
	Description string    `json:"description,omitempty"`
	RevisionID  string    `json:"revisionId"`
	CreateTime  time.Time `json:"createTime"`
	UpdateTime  time.Time `json:"updateTime"`
}

// Store is a thread-safe store of named formulas.
type Store struct {
	mu       sync.RWMutex
	formulas map[string]*Formula
	cache    *formula.Cache
	db       *database // nil when running purely in memory
}

// New creates a new empty in-memory store.
func New() *Store {
	return &Store{
		formulas: make(map[string]*Formula),
		cache:    formula.NewCache(),
	}
}

// Create validates source by parsing it and stores a new formula.
func (s *Store) Create(name, source, description string) (*Formula, error) {
	if _, err := formula.Parse(source); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.formulas[name]; exists {
		return nil, ErrExists
	}

	now := time.Now()
	f := &Formula{
		Name:        name,
		Source:      source,
		Description: description,
		RevisionID:  uuid.NewString(),
		CreateTime:  now,
		UpdateTime:  now,
	}
	if s.db != nil {
		if err := s.db.upsert(f); err != nil {
			return nil, err
		}
	}
	s.formulas[name] = f
	return f, nil
}

// Get retrieves a formula by name.
func (s *Store) Get(name string) (*Formula, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.formulas[name]
	if !ok {
		return nil, ErrNotFound
	}
	return f, nil
}

// List returns all formulas sorted by name.
func (s *Store) List() []*Formula {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Formula, 0, len(s.formulas))
	for _, f := range s.formulas {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Update replaces a formula's source and/or description. An empty argument
// leaves the corresponding field unchanged. A new source is validated by
// parsing; stale cache entries for the old source are harmless because the
// cache keys by exact text.
func (s *Store) Update(name, source, description string) (*Formula, error) {
	if source != "" {
		if _, err := formula.Parse(source); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.formulas[name]
	if !ok {
		return nil, ErrNotFound
	}

	updated := *f
	if source != "" {
		updated.Source = source
	}
	if description != "" {
		updated.Description = description
	}
	updated.RevisionID = uuid.NewString()
	updated.UpdateTime = time.Now()

	if s.db != nil {
		if err := s.db.upsert(&updated); err != nil {
			return nil, err
		}
	}
	s.formulas[name] = &updated
	return &updated, nil
}

// Delete removes a formula by name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.formulas[name]; !ok {
		return ErrNotFound
	}
	if s.db != nil {
		if err := s.db.delete(name); err != nil {
			return err
		}
	}
	delete(s.formulas, name)
	return nil
}

// Evaluate interprets the named formula against env through the shared
// AST cache.
func (s *Store) Evaluate(name string, env *formula.Env) (int32, error) {
	s.mu.RLock()
	f, ok := s.formulas[name]
	s.mu.RUnlock()
	if !ok {
		return 0, ErrNotFound
	}
	return s.cache.Interpret(f.Source, env)
}

// Cache exposes the shared AST cache, mainly for diagnostics.
func (s *Store) Cache() *formula.Cache {
	return s.cache
}

// Close releases the backing database, if any.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.close()
}
