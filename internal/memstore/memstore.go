// Package memstore implements the persistence contract in memory.
//
// Used in dev mode (no DATABASE_URL) and as a test fixture. A single RWMutex
// guards all maps; every read hands out copies, never interior references.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/AntoDono/suscart/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

type Store struct {
	mu        sync.RWMutex
	clock     clockwork.Clock
	items     map[uuid.UUID]domain.CatalogItem
	customers map[uuid.UUID]domain.CustomerProfile
	recs      map[uuid.UUID]domain.Recommendation
}

func New(clock clockwork.Clock) *Store {
	return &Store{
		clock:     clock,
		items:     make(map[uuid.UUID]domain.CatalogItem),
		customers: make(map[uuid.UUID]domain.CustomerProfile),
		recs:      make(map[uuid.UUID]domain.Recommendation),
	}
}

// --- CatalogRepository ---

func (s *Store) GetItem(_ context.Context, id uuid.UUID) (*domain.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	if !exists {
		return nil, domain.ErrItemNotFound
	}
	return &item, nil
}

func (s *Store) ListItems(_ context.Context, filter domain.ItemFilter) ([]domain.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.CatalogItem, 0, len(s.items))
	for _, item := range s.items {
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if item.DiscountPercent < filter.MinDiscount {
			continue
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CreateItem(_ context.Context, item *domain.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := s.clock.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[item.ID] = *item
	return nil
}

func (s *Store) UpdateItem(_ context.Context, item *domain.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; !exists {
		return domain.ErrItemNotFound
	}
	item.UpdatedAt = s.clock.Now().UTC()
	s.items[item.ID] = *item
	return nil
}

func (s *Store) DeleteItem(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		return domain.ErrItemNotFound
	}
	delete(s.items, id)
	for recID, rec := range s.recs {
		if rec.ItemID == id {
			delete(s.recs, recID)
		}
	}
	return nil
}

// --- CustomerRepository ---

func (s *Store) GetCustomer(_ context.Context, id uuid.UUID) (*domain.CustomerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, exists := s.customers[id]
	if !exists {
		return nil, domain.ErrCustomerNotFound
	}
	return &customer, nil
}

func (s *Store) ListCustomers(_ context.Context) ([]domain.CustomerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customers := make([]domain.CustomerProfile, 0, len(s.customers))
	for _, customer := range s.customers {
		customers = append(customers, customer)
	}
	sort.Slice(customers, func(i, j int) bool {
		return customers[i].CreatedAt.Before(customers[j].CreatedAt)
	})
	return customers, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer *domain.CustomerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	customer.CreatedAt = s.clock.Now().UTC()
	s.customers[customer.ID] = *customer
	return nil
}

// --- RecommendationRepository ---

func (s *Store) ActiveForItem(_ context.Context, itemID uuid.UUID) ([]domain.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []domain.Recommendation
	for _, rec := range s.recs {
		if rec.ItemID == itemID && rec.Active() {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (s *Store) ListForCustomer(_ context.Context, customerID uuid.UUID) ([]domain.Recommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []domain.Recommendation
	for _, rec := range s.recs {
		if rec.CustomerID == customerID {
			recs = append(recs, rec)
		}
	}
	// Active first, then highest priority.
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Active() != recs[j].Active() {
			return recs[i].Active()
		}
		return recs[i].PriorityScore > recs[j].PriorityScore
	})
	return recs, nil
}

func (s *Store) MarkViewed(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.recs[id]
	if !exists {
		return domain.ErrRecommendationNotFound
	}
	rec.Viewed = true
	s.recs[id] = rec
	return nil
}

// --- Store ---

// CommitPricing applies the item update and recommendation upserts under one
// lock acquisition, mirroring the transactional commit of the SQL store.
func (s *Store) CommitPricing(_ context.Context, item *domain.CatalogItem, recs []domain.Recommendation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; !exists {
		return domain.ErrItemNotFound
	}
	s.items[item.ID] = *item
	for _, rec := range recs {
		s.recs[rec.ID] = rec
	}
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	return nil
}
