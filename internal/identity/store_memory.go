package identity

import (
	"context"
	"sync"

	"foodbridge/pkg/platform/sentinel"
)

// InMemoryDirectory is a map-backed Directory for development and tests.
type InMemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{users: make(map[string]User)}
}

// Put inserts or replaces a directory record.
func (d *InMemoryDirectory) Put(user User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
}

func (d *InMemoryDirectory) Lookup(_ context.Context, userID string) (User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.users[userID]
	if !ok {
		return User{}, sentinel.ErrNotFound
	}
	return user, nil
}
