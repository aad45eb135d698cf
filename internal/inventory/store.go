package inventory

import "context"

// Store is the persistence contract for the ledger.
//
// Reserve must be an atomic conditional decrement: it fails with
// sentinel.ErrInsufficientStock (leaving the quantity untouched) when the
// item holds less than qty. ReserveAll must be all-or-nothing: if any line
// cannot be reserved, no line takes effect.
type Store interface {
	Get(ctx context.Context, itemID string) (Item, error)
	ListApproved(ctx context.Context) ([]Item, error)
	Create(ctx context.Context, item Item) error
	Reserve(ctx context.Context, itemID string, qty int) (remaining int, err error)
	Release(ctx context.Context, itemID string, qty int) error
	ReserveAll(ctx context.Context, lines []Line) error
}
