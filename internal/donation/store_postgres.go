package donation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"foodbridge/pkg/platform/sentinel"
)

// PostgresStore persists donations with the payload variant as JSONB.
// Guarded transitions are single conditional UPDATEs keyed on the current
// status, so two racing claims resolve inside the database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const donationColumns = `id, donor_id, COALESCE(recipient_id, ''), dtype, payload, status, status_description, approved, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, d Donation) error {
	payload, err := marshalPayload(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO donations (id, donor_id, dtype, payload, status, status_description, approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())`,
		d.ID, d.DonorID, d.Type, payload, d.Status, d.StatusDescription, d.Approved)
	if err != nil {
		return fmt.Errorf("create donation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Donation, error) {
	return scanDonation(s.db.QueryRowContext(ctx,
		`SELECT `+donationColumns+` FROM donations WHERE id = $1`, id))
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations`
	var args []any
	switch {
	case f.DonorID != "":
		query += ` WHERE donor_id = $1`
		args = append(args, f.DonorID)
	case f.OpenOnly:
		query += ` WHERE approved AND status = $1`
		args = append(args, StatusPending)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list donations: %w", err)
	}
	defer rows.Close()

	var out []Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Claim(ctx context.Context, id, recipientID, description string) (Donation, error) {
	d, err := scanDonation(s.db.QueryRowContext(ctx, `
		UPDATE donations
		SET recipient_id = $2, status = $3, status_description = $4, updated_at = now()
		WHERE id = $1 AND status = $5
		RETURNING `+donationColumns,
		id, recipientID, StatusClaimed, description, StatusPending))
	if errors.Is(err, sentinel.ErrNotFound) {
		return Donation{}, s.classifyGuardFailure(ctx, id)
	}
	return d, err
}

func (s *PostgresStore) Advance(ctx context.Context, id string, from, to Status, description string) (Donation, error) {
	d, err := scanDonation(s.db.QueryRowContext(ctx, `
		UPDATE donations
		SET status = $3,
		    status_description = CASE WHEN $4 = '' THEN status_description ELSE $4 END,
		    updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING `+donationColumns,
		id, from, to, description))
	if errors.Is(err, sentinel.ErrNotFound) {
		return Donation{}, s.classifyGuardFailure(ctx, id)
	}
	return d, err
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM donations WHERE id = $1 AND status = $2`, id, StatusPending)
	if err != nil {
		return fmt.Errorf("delete donation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return s.classifyGuardFailure(ctx, id)
	}
	return nil
}

func (s *PostgresStore) SetApproval(ctx context.Context, id string, approved bool) (Donation, error) {
	return scanDonation(s.db.QueryRowContext(ctx, `
		UPDATE donations SET approved = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+donationColumns, id, approved))
}

// classifyGuardFailure tells a missing donation apart from one whose status
// guard rejected the write.
func (s *PostgresStore) classifyGuardFailure(ctx context.Context, id string) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM donations WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("classify guard failure: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

func marshalPayload(d Donation) ([]byte, error) {
	var payload any
	switch d.Type {
	case TypeFoodItems:
		payload = d.FoodItems
	case TypeMoney:
		payload = d.Money
	default:
		return nil, fmt.Errorf("unknown donation type %q", d.Type)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal donation payload: %w", err)
	}
	return raw, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDonation(row rowScanner) (Donation, error) {
	var d Donation
	var payload []byte
	err := row.Scan(&d.ID, &d.DonorID, &d.RecipientID, &d.Type, &payload,
		&d.Status, &d.StatusDescription, &d.Approved, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Donation{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Donation{}, fmt.Errorf("scan donation: %w", err)
	}

	switch d.Type {
	case TypeFoodItems:
		d.FoodItems = &FoodItemsPayload{}
		err = json.Unmarshal(payload, d.FoodItems)
	case TypeMoney:
		d.Money = &MoneyPayload{}
		err = json.Unmarshal(payload, d.Money)
	}
	if err != nil {
		return Donation{}, fmt.Errorf("unmarshal donation payload: %w", err)
	}
	return d, nil
}
