package realtime

import (
	"encoding/json"
	"time"
)

// EventType names the frames pushed to clients.
type EventType string

const (
	EventMessage    EventType = "message"
	EventTyping     EventType = "typing"
	EventStopTyping EventType = "stop_typing"
)

// Event is the wire shape of a server push. Fields irrelevant to the event
// type are omitted.
type Event struct {
	Type    EventType       `json:"type"`
	ChatID  string          `json:"chat_id,omitempty"`
	UserID  string          `json:"user_id,omitempty"`
	Message *MessagePayload `json:"message,omitempty"`
}

// MessagePayload mirrors a stored chat message for delivery.
type MessagePayload struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Encode marshals the event. Marshalling these shapes cannot fail, so the
// error is swallowed at call sites that already validated the event.
func (e Event) Encode() []byte {
	b, _ := json.Marshal(e)
	return b
}
