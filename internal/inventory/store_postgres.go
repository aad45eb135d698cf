package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"foodbridge/pkg/platform/sentinel"
)

// PostgresStore backs the ledger with an items table. Reservations rely on a
// conditional UPDATE so the decrement and the availability check are one
// atomic statement; no row is ever read-then-written.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, itemID string) (Item, error) {
	return scanItem(s.db.QueryRowContext(ctx, `
		SELECT id, name, category, quantity, donor_id, approved, created_at, updated_at
		FROM items WHERE id = $1`, itemID))
}

func (s *PostgresStore) ListApproved(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, quantity, donor_id, approved, created_at, updated_at
		FROM items WHERE approved ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Quantity,
			&item.DonorID, &item.Approved, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) Create(ctx context.Context, item Item) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, name, category, quantity, donor_id, approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())`,
		item.ID, item.Name, item.Category, item.Quantity, item.DonorID, item.Approved)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

func (s *PostgresStore) Reserve(ctx context.Context, itemID string, qty int) (int, error) {
	var remaining int
	err := s.db.QueryRowContext(ctx, `
		UPDATE items
		SET quantity = quantity - $2, updated_at = now()
		WHERE id = $1 AND quantity >= $2
		RETURNING quantity`, itemID, qty,
	).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, s.classifyReserveFailure(ctx, itemID)
	}
	if err != nil {
		return 0, fmt.Errorf("reserve item: %w", err)
	}
	return remaining, nil
}

func (s *PostgresStore) Release(ctx context.Context, itemID string, qty int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE items SET quantity = quantity + $2, updated_at = now()
		WHERE id = $1`, itemID, qty)
	if err != nil {
		return fmt.Errorf("release item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// ReserveAll runs every conditional decrement inside one transaction and
// rolls back on the first failure, so partial batches never commit.
func (s *PostgresStore) ReserveAll(ctx context.Context, lines []Line) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reserve batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, line := range lines {
		var remaining int
		scanErr := tx.QueryRowContext(ctx, `
			UPDATE items
			SET quantity = quantity - $2, updated_at = now()
			WHERE id = $1 AND quantity >= $2
			RETURNING quantity`, line.ItemID, line.Quantity,
		).Scan(&remaining)
		if errors.Is(scanErr, sql.ErrNoRows) {
			err = s.classifyReserveFailure(ctx, line.ItemID)
			return err
		}
		if scanErr != nil {
			err = fmt.Errorf("reserve item %s: %w", line.ItemID, scanErr)
			return err
		}
	}

	return tx.Commit()
}

// classifyReserveFailure distinguishes a missing item from exhausted stock
// after a conditional update matched no rows.
func (s *PostgresStore) classifyReserveFailure(ctx context.Context, itemID string) error {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, itemID).Scan(&exists); err != nil {
		return fmt.Errorf("classify reserve failure: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInsufficientStock
}

func scanItem(row *sql.Row) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Quantity,
		&item.DonorID, &item.Approved, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("scan item: %w", err)
	}
	return item, nil
}
