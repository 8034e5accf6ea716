package storage

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/denisok6893-rgb/property-exchange-matching/internal/domain"
)

// MemoryStore keeps listings in process memory, typically seeded from a JSON file.
type MemoryStore struct {
	mu       sync.RWMutex
	listings []domain.Listing
}

func NewMemoryStore(seed []domain.Listing) *MemoryStore {
	return &MemoryStore{listings: slices.Clone(seed)}
}

func (s *MemoryStore) All(_ context.Context) ([]domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.listings), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.listings {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Listing{}, ErrNotFound
}

func (s *MemoryStore) List(_ context.Context, p ListParams) ([]domain.Listing, int, error) {
	p = p.normalized()

	s.mu.RLock()
	matched := make([]domain.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		if p.match(l) {
			matched = append(matched, l)
		}
	}
	s.mu.RUnlock()

	sortListings(matched, p.Sort)
	total := len(matched)
	start := min(p.Offset, total)
	end := min(start+p.Limit, total)
	return matched[start:end], total, nil
}

func (s *MemoryStore) Create(_ context.Context, l domain.Listing) (domain.Listing, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if err := l.Validate(); err != nil {
		return domain.Listing{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.listings {
		if existing.ID == l.ID {
			return domain.Listing{}, fmt.Errorf("listing %s already exists", l.ID)
		}
	}
	s.listings = append(s.listings, l)
	return l, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.listings {
		if l.ID == id {
			s.listings = slices.Delete(s.listings, i, i+1)
			return nil
		}
	}
	return ErrNotFound
}
