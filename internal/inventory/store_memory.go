package inventory

import (
	"context"
	"sync"
	"time"

	"foodbridge/pkg/platform/sentinel"
)

// InMemoryStore keeps the ledger in a mutex-guarded map. All conditional
// checks happen under the write lock, so concurrent reservations against the
// same item serialize and the quantity invariant holds.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[string]Item
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: make(map[string]Item)}
}

func (s *InMemoryStore) Get(_ context.Context, itemID string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return Item{}, sentinel.ErrNotFound
	}
	return item, nil
}

func (s *InMemoryStore) ListApproved(_ context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		if item.Approved {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *InMemoryStore) Create(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.items[item.ID]; exists {
		return sentinel.ErrConflict
	}
	s.items[item.ID] = item
	return nil
}

func (s *InMemoryStore) Reserve(_ context.Context, itemID string, qty int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reserveLocked(itemID, qty)
}

func (s *InMemoryStore) Release(_ context.Context, itemID string, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[itemID]
	if !ok {
		return sentinel.ErrNotFound
	}
	item.Quantity += qty
	item.UpdatedAt = time.Now()
	s.items[itemID] = item
	return nil
}

// ReserveAll validates the whole batch before mutating anything, all under
// one lock, so a failing batch leaves every item untouched. Quantities are
// summed per item first, so a batch naming the same item on several lines is
// checked against its combined demand.
func (s *InMemoryStore) ReserveAll(_ context.Context, lines []Line) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	requested := make(map[string]int, len(lines))
	for _, line := range lines {
		requested[line.ItemID] += line.Quantity
	}
	for itemID, qty := range requested {
		item, ok := s.items[itemID]
		if !ok {
			return sentinel.ErrNotFound
		}
		if item.Quantity < qty {
			return sentinel.ErrInsufficientStock
		}
	}
	for itemID, qty := range requested {
		item := s.items[itemID]
		item.Quantity -= qty
		item.UpdatedAt = time.Now()
		s.items[itemID] = item
	}
	return nil
}

func (s *InMemoryStore) reserveLocked(itemID string, qty int) (int, error) {
	item, ok := s.items[itemID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	if item.Quantity < qty {
		return 0, sentinel.ErrInsufficientStock
	}
	item.Quantity -= qty
	item.UpdatedAt = time.Now()
	s.items[itemID] = item
	return item.Quantity, nil
}
