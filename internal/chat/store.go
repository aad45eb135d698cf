package chat

import "context"

// Store is the persistence contract for chats and messages.
//
// CreateChat must enforce uniqueness of the participant pair key and return
// sentinel.ErrConflict when a chat for the pair already exists, so callers
// can retry as a lookup. AppendMessage must persist the message and move the
// chat's latest-message pointer as one atomic step.
type Store interface {
	CreateChat(ctx context.Context, chat Chat) error
	FindByPair(ctx context.Context, userA, userB string) (Chat, error)
	FindByID(ctx context.Context, chatID string) (Chat, error)
	ListForUser(ctx context.Context, userID string) ([]Chat, error)
	AppendMessage(ctx context.Context, msg Message) error
	ListMessages(ctx context.Context, chatID string) ([]Message, error)
}
