package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"foodbridge/pkg/platform/sentinel"
)

// InMemoryStore keeps chats and messages in maps guarded by one mutex.
// The byPair index enforces the pair-key uniqueness constraint; appends to
// a message log and the latest-message pointer update happen under the same
// lock, which also serializes appends per chat.
type InMemoryStore struct {
	mu       sync.RWMutex
	chats    map[string]Chat
	byPair   map[string]string   // pair key -> chat ID
	messages map[string][]Message // chat ID -> messages in append order
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		chats:    make(map[string]Chat),
		byPair:   make(map[string]string),
		messages: make(map[string][]Message),
	}
}

func (s *InMemoryStore) CreateChat(_ context.Context, chat Chat) error {
	key := PairKey(chat.ParticipantIDs[0], chat.ParticipantIDs[1])

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byPair[key]; exists {
		return sentinel.ErrConflict
	}
	s.chats[chat.ID] = chat
	s.byPair[key] = chat.ID
	return nil
}

func (s *InMemoryStore) FindByPair(_ context.Context, userA, userB string) (Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chatID, ok := s.byPair[PairKey(userA, userB)]
	if !ok {
		return Chat{}, sentinel.ErrNotFound
	}
	return s.chats[chatID], nil
}

func (s *InMemoryStore) FindByID(_ context.Context, chatID string) (Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chat, ok := s.chats[chatID]
	if !ok {
		return Chat{}, sentinel.ErrNotFound
	}
	return chat, nil
}

func (s *InMemoryStore) ListForUser(_ context.Context, userID string) ([]Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var chats []Chat
	for _, chat := range s.chats {
		if chat.HasParticipant(userID) {
			chats = append(chats, chat)
		}
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

func (s *InMemoryStore) AppendMessage(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.chats[msg.ChatID]
	if !ok {
		return sentinel.ErrNotFound
	}

	s.messages[msg.ChatID] = append(s.messages[msg.ChatID], msg)
	chat.LatestMessageID = msg.ID
	chat.UpdatedAt = time.Now()
	s.chats[msg.ChatID] = chat
	return nil
}

func (s *InMemoryStore) ListMessages(_ context.Context, chatID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.chats[chatID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]Message{}, s.messages[chatID]...), nil
}
