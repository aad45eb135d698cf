// Package chat holds two-party conversations and their append-only messages.
// A pair of users maps to at most one chat; the sorted pair key is the
// uniqueness anchor every store enforces.
package chat

import (
	"strings"
	"time"
)

// Chat is a conversation between exactly two users.
type Chat struct {
	ID              string
	ParticipantIDs  [2]string
	LatestMessageID string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasParticipant reports whether userID is one of the two parties.
func (c Chat) HasParticipant(userID string) bool {
	return c.ParticipantIDs[0] == userID || c.ParticipantIDs[1] == userID
}

// OtherParticipant returns the peer of userID, or "" when userID is not a
// participant.
func (c Chat) OtherParticipant(userID string) string {
	switch userID {
	case c.ParticipantIDs[0]:
		return c.ParticipantIDs[1]
	case c.ParticipantIDs[1]:
		return c.ParticipantIDs[0]
	}
	return ""
}

// Message is immutable once created.
type Message struct {
	ID        string
	ChatID    string
	SenderID  string
	Content   string
	CreatedAt time.Time
}

// PairKey derives the order-independent identity of a user pair. PairKey(a,b)
// and PairKey(b,a) are equal.
func PairKey(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + ":" + userB
}

// SortPair normalizes a participant pair into pair-key order.
func SortPair(userA, userB string) (string, string) {
	if strings.Compare(userA, userB) > 0 {
		return userB, userA
	}
	return userA, userB
}
