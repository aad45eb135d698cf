package chat

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	dErrors "foodbridge/pkg/domain-errors"
	"foodbridge/pkg/platform/sentinel"
)

// Service is the conversation registry and message store rolled into one
// surface: get-or-create of two-party chats, append-only messages, and the
// reads the API exposes.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// GetOrCreate returns the chat for the unordered pair {userA, userB},
// creating it when absent. Safe under concurrent calls: the store's pair-key
// uniqueness constraint turns the losing creation into a lookup.
func (s *Service) GetOrCreate(ctx context.Context, userA, userB string) (Chat, error) {
	if userA == "" || userB == "" {
		return Chat{}, dErrors.New(dErrors.CodeValidation, "both participants are required")
	}
	if userA == userB {
		return Chat{}, dErrors.New(dErrors.CodeValidation, "a chat needs two distinct participants")
	}

	existing, err := s.store.FindByPair(ctx, userA, userB)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return Chat{}, err
	}

	first, second := SortPair(userA, userB)
	now := time.Now()
	created := Chat{
		ID:             uuid.NewString(),
		ParticipantIDs: [2]string{first, second},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.store.CreateChat(ctx, created)
	if errors.Is(err, sentinel.ErrConflict) {
		// Lost the race; the winner's chat is authoritative.
		return s.store.FindByPair(ctx, userA, userB)
	}
	if err != nil {
		return Chat{}, err
	}
	return created, nil
}

// Append creates a message in the chat and moves the latest-message pointer.
// Only participants may send.
func (s *Service) Append(ctx context.Context, chatID, senderID, content string) (Message, error) {
	if content == "" {
		return Message{}, dErrors.New(dErrors.CodeValidation, "message content is required")
	}

	chat, err := s.findChat(ctx, chatID)
	if err != nil {
		return Message{}, err
	}
	if !chat.HasParticipant(senderID) {
		return Message{}, dErrors.New(dErrors.CodeNotAuthorized, "sender is not a participant in this chat")
	}

	msg := Message{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.store.AppendMessage(ctx, msg); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Message{}, dErrors.Wrap(dErrors.CodeNotFound, "chat not found", err)
		}
		return Message{}, err
	}
	return msg, nil
}

// ListByChat returns the chat's messages oldest first. Only participants may
// read.
func (s *Service) ListByChat(ctx context.Context, chatID, requesterID string) ([]Message, error) {
	chat, err := s.findChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasParticipant(requesterID) {
		return nil, dErrors.New(dErrors.CodeNotAuthorized, "requester is not a participant in this chat")
	}
	return s.store.ListMessages(ctx, chatID)
}

// Get returns a chat by ID.
func (s *Service) Get(ctx context.Context, chatID string) (Chat, error) {
	return s.findChat(ctx, chatID)
}

// ListForUser returns the user's chats, most recently updated first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Chat, error) {
	return s.store.ListForUser(ctx, userID)
}

func (s *Service) findChat(ctx context.Context, chatID string) (Chat, error) {
	chat, err := s.store.FindByID(ctx, chatID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return Chat{}, dErrors.Wrap(dErrors.CodeNotFound, "chat not found", err)
	}
	if err != nil {
		return Chat{}, err
	}
	return chat, nil
}
