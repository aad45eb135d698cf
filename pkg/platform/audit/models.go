// Package audit records the donation platform's lifecycle trail. Domain
// services emit events; a background worker drains them to a durable sink
// so the hot path never waits on the broker.
package audit

import (
	"context"
	"time"
)

// Action names what happened.
type Action string

const (
	ActionDonationCreated  Action = "donation_created"
	ActionDonationClaimed  Action = "donation_claimed"
	ActionDonationAdvanced Action = "donation_advanced"
	ActionDonationDeleted  Action = "donation_deleted"
	ActionChatCreated      Action = "chat_created"
	ActionMessageSent      Action = "message_sent"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     Action    `json:"action"`
	ActorID    string    `json:"actor_id"`
	SubjectID  string    `json:"subject_id"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
}

// Sink persists events. Implementations must tolerate replays: the worker
// retries nothing, but upstream producers may emit duplicates on restart.
type Sink interface {
	Append(ctx context.Context, event Event) error
}
