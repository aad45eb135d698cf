package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"foodbridge/pkg/platform/sentinel"
)

// PostgresDirectory reads the users table owned by the identity service.
// The engine never writes to it.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) Lookup(ctx context.Context, userID string) (User, error) {
	var user User
	err := d.db.QueryRowContext(ctx, `
		SELECT id, name, role, verified
		FROM users
		WHERE id = $1`, userID,
	).Scan(&user.ID, &user.Name, &user.Role, &user.Verified)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, sentinel.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}
