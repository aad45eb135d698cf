package donation

import (
	"context"
	"sort"
	"sync"
	"time"

	"foodbridge/pkg/platform/sentinel"
)

// InMemoryStore keeps donations in a map guarded by one mutex. Conditional
// writes check the status guard and mutate under the same lock, which is
// what makes concurrent claims race-safe in single-node deployments.
type InMemoryStore struct {
	mu        sync.RWMutex
	donations map[string]Donation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{donations: make(map[string]Donation)}
}

func (s *InMemoryStore) Create(_ context.Context, d Donation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.donations[d.ID]; exists {
		return sentinel.ErrConflict
	}
	s.donations[d.ID] = d
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.donations[id]
	if !ok {
		return Donation{}, sentinel.ErrNotFound
	}
	return d, nil
}

func (s *InMemoryStore) List(_ context.Context, f Filter) ([]Donation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Donation
	for _, d := range s.donations {
		if f.DonorID != "" && d.DonorID != f.DonorID {
			continue
		}
		if f.OpenOnly && (!d.Approved || d.Status != StatusPending) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Claim(_ context.Context, id, recipientID, description string) (Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok {
		return Donation{}, sentinel.ErrNotFound
	}
	if d.Status != StatusPending {
		return Donation{}, sentinel.ErrConflict
	}
	d.RecipientID = recipientID
	d.Status = StatusClaimed
	d.StatusDescription = description
	d.UpdatedAt = time.Now()
	s.donations[id] = d
	return d, nil
}

func (s *InMemoryStore) Advance(_ context.Context, id string, from, to Status, description string) (Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok {
		return Donation{}, sentinel.ErrNotFound
	}
	if d.Status != from {
		return Donation{}, sentinel.ErrConflict
	}
	d.Status = to
	if description != "" {
		d.StatusDescription = description
	}
	d.UpdatedAt = time.Now()
	s.donations[id] = d
	return d, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if d.Status != StatusPending {
		return sentinel.ErrConflict
	}
	delete(s.donations, id)
	return nil
}

func (s *InMemoryStore) SetApproval(_ context.Context, id string, approved bool) (Donation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.donations[id]
	if !ok {
		return Donation{}, sentinel.ErrNotFound
	}
	d.Approved = approved
	d.UpdatedAt = time.Now()
	s.donations[id] = d
	return d, nil
}
