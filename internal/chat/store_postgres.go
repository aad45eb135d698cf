package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"foodbridge/pkg/platform/sentinel"
)

// uniqueViolation is the Postgres error code raised when the pair-key index
// rejects a duplicate chat.
const uniqueViolation = "23505"

// PostgresStore persists chats and messages. The chats table carries a
// unique index on pair_key so two concurrent creations for the same pair
// collapse into one winner and one sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateChat(ctx context.Context, chat Chat) error {
	first, second := SortPair(chat.ParticipantIDs[0], chat.ParticipantIDs[1])
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (id, participant_a, participant_b, pair_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())`,
		chat.ID, first, second, PairKey(first, second))
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("create chat: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByPair(ctx context.Context, userA, userB string) (Chat, error) {
	return scanChat(s.db.QueryRowContext(ctx, `
		SELECT id, participant_a, participant_b, COALESCE(latest_message_id, ''), created_at, updated_at
		FROM chats WHERE pair_key = $1`, PairKey(userA, userB)))
}

func (s *PostgresStore) FindByID(ctx context.Context, chatID string) (Chat, error) {
	return scanChat(s.db.QueryRowContext(ctx, `
		SELECT id, participant_a, participant_b, COALESCE(latest_message_id, ''), created_at, updated_at
		FROM chats WHERE id = $1`, chatID))
}

func (s *PostgresStore) ListForUser(ctx context.Context, userID string) ([]Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, participant_a, participant_b, COALESCE(latest_message_id, ''), created_at, updated_at
		FROM chats
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	var chats []Chat
	for rows.Next() {
		var chat Chat
		if err := rows.Scan(&chat.ID, &chat.ParticipantIDs[0], &chat.ParticipantIDs[1],
			&chat.LatestMessageID, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan chat: %w", err)
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// AppendMessage inserts the message and advances the chat's latest-message
// pointer in one transaction, so the pointer can never reference a message
// that failed to persist.
func (s *PostgresStore) AppendMessage(ctx context.Context, msg Message) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE chats SET latest_message_id = $2, updated_at = now()
		WHERE id = $1`, msg.ChatID, msg.ID)
	if err != nil {
		return fmt.Errorf("update latest message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		err = sentinel.ErrNotFound
		return err
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, sender_id, content, created_at)
		VALUES ($1, $2, $3, $4, now())`,
		msg.ID, msg.ChatID, msg.SenderID, msg.Content); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return tx.Commit()
}

func (s *PostgresStore) ListMessages(ctx context.Context, chatID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, sender_id, content, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY seq`, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func scanChat(row *sql.Row) (Chat, error) {
	var chat Chat
	err := row.Scan(&chat.ID, &chat.ParticipantIDs[0], &chat.ParticipantIDs[1],
		&chat.LatestMessageID, &chat.CreatedAt, &chat.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Chat{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Chat{}, fmt.Errorf("scan chat: %w", err)
	}
	return chat, nil
}
