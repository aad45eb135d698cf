package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "foodbridge/pkg/domain-errors"
	"foodbridge/pkg/platform/sentinel"
)

var (
	reservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "foodbridge_inventory_reservations_total",
		Help: "Ledger reservation attempts by outcome",
	}, []string{"outcome"})
)

// Ledger wraps a Store with error translation and reservation metrics. It is
// the only component allowed to mutate item quantities.
type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

func (l *Ledger) Get(ctx context.Context, itemID string) (Item, error) {
	item, err := l.store.Get(ctx, itemID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Item{}, dErrors.Wrap(dErrors.CodeNotFound, fmt.Sprintf("item %s not found", itemID), err)
	}
	return item, err
}

func (l *Ledger) ListApproved(ctx context.Context) ([]Item, error) {
	return l.store.ListApproved(ctx)
}

// Reserve atomically decrements the item's quantity, failing without
// mutation when stock is short.
func (l *Ledger) Reserve(ctx context.Context, itemID string, qty int) (int, error) {
	if qty <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "reservation quantity must be positive")
	}
	remaining, err := l.store.Reserve(ctx, itemID, qty)
	if err != nil {
		reservationsTotal.WithLabelValues("rejected").Inc()
		return 0, l.translate(itemID, err)
	}
	reservationsTotal.WithLabelValues("reserved").Inc()
	return remaining, nil
}

// Release returns previously reserved stock to the ledger.
func (l *Ledger) Release(ctx context.Context, itemID string, qty int) error {
	if qty <= 0 {
		return dErrors.New(dErrors.CodeValidation, "release quantity must be positive")
	}
	if err := l.store.Release(ctx, itemID, qty); err != nil {
		return l.translate(itemID, err)
	}
	reservationsTotal.WithLabelValues("released").Inc()
	return nil
}

// ReserveAll reserves every line or none of them.
func (l *Ledger) ReserveAll(ctx context.Context, lines []Line) error {
	if len(lines) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one item is required")
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return dErrors.New(dErrors.CodeValidation, "reservation quantity must be positive")
		}
	}
	if err := l.store.ReserveAll(ctx, lines); err != nil {
		reservationsTotal.WithLabelValues("rejected").Inc()
		return l.translate("", err)
	}
	reservationsTotal.WithLabelValues("reserved").Inc()
	return nil
}

// ReleaseAll is the compensating action for a prior ReserveAll, used when a
// pending donation is cancelled. Lines are released independently; a missing
// item is reported but does not stop the remainder.
func (l *Ledger) ReleaseAll(ctx context.Context, lines []Line) error {
	var firstErr error
	for _, line := range lines {
		if err := l.store.Release(ctx, line.ItemID, line.Quantity); err != nil && firstErr == nil {
			firstErr = l.translate(line.ItemID, err)
		}
	}
	return firstErr
}

func (l *Ledger) translate(itemID string, err error) error {
	switch {
	case errors.Is(err, sentinel.ErrInsufficientStock):
		return dErrors.Wrap(dErrors.CodeInsufficientStock, "not enough stock to satisfy the request", err)
	case errors.Is(err, sentinel.ErrNotFound):
		desc := "item not found"
		if itemID != "" {
			desc = fmt.Sprintf("item %s not found", itemID)
		}
		return dErrors.Wrap(dErrors.CodeNotFound, desc, err)
	default:
		return err
	}
}
