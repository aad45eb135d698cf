package identity

import "context"

// Directory looks up users by ID. Implementations wrap whatever backs the
// external identity service; stores return sentinel.ErrNotFound for unknown
// IDs.
type Directory interface {
	Lookup(ctx context.Context, userID string) (User, error)
}
