// Package memory is an in-process holdings source, seeded from a JSON file
// for local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"holdings/internal/core"
	"holdings/internal/source"
)

// SeedFile is the file NewFromDir reads inside the data directory.
const SeedFile = "holdings.json"

type Store struct {
	mu    sync.RWMutex
	items []core.RawRecord
}

func New(records []core.RawRecord) *Store {
	return &Store{items: append([]core.RawRecord(nil), records...)}
}

// NewFromDir seeds the store from base/holdings.json. A missing file yields
// an empty store; a malformed one is an error.
func NewFromDir(base string) (*Store, error) {
	b, err := os.ReadFile(filepath.Join(base, SeedFile))
	if errors.Is(err, os.ErrNotExist) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var records []core.RawRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	return New(records), nil
}

// ListHoldings returns a copy of every record in insertion order.
func (s *Store) ListHoldings(_ context.Context) ([]core.RawRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.RawRecord(nil), s.items...), nil
}

func (s *Store) GetHolding(_ context.Context, id string) (core.RawRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.items {
		if r.ID == id {
			return r, nil
		}
	}
	return core.RawRecord{}, source.ErrNotFound
}

// CreateHolding appends the record. Ids must be unique.
func (s *Store) CreateHolding(_ context.Context, r core.RawRecord) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.items {
		if existing.ID == r.ID {
			return "", fmt.Errorf("%w: %q", source.ErrDuplicate, r.ID)
		}
	}
	s.items = append(s.items, r)
	return r.ID, nil
}
