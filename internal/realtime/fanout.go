package realtime

import (
	"context"
	"log/slog"
)

// Fanout routes events to local sessions and, when a bridge is configured,
// republishes them so peer nodes can do the same. Delivery failures are
// logged, never propagated: pushes are at-most-once by contract.
type Fanout struct {
	router *Router
	bridge *Bridge // nil when running single-node
	logger *slog.Logger
}

func NewFanout(router *Router, bridge *Bridge, logger *slog.Logger) *Fanout {
	return &Fanout{router: router, bridge: bridge, logger: logger}
}

// DeliverMessage pushes a message event to every session of every
// participant. Sessions of excludeUserID are skipped when it is set; an
// empty exclusion reaches the sender's own sessions too.
func (f *Fanout) DeliverMessage(ctx context.Context, msg MessagePayload, participantIDs []string, excludeUserID string) {
	payload := Event{Type: EventMessage, ChatID: msg.ChatID, Message: &msg}.Encode()
	f.router.DeliverToUsers(payload, participantIDs, excludeUserID)
	if f.bridge != nil {
		if err := f.bridge.PublishToUsers(ctx, payload, participantIDs, excludeUserID); err != nil {
			f.logger.WarnContext(ctx, "cross-node message fan-out failed", "chat_id", msg.ChatID, "error", err)
		}
	}
}

// BroadcastTyping pushes a typing (or stop-typing) indicator to every room
// member except the originating session.
func (f *Fanout) BroadcastTyping(ctx context.Context, roomID, userID, originSessionID string, stopped bool) {
	eventType := EventTyping
	if stopped {
		eventType = EventStopTyping
	}
	payload := Event{Type: eventType, ChatID: roomID, UserID: userID}.Encode()
	f.router.BroadcastToRoom(roomID, payload, originSessionID)
	if f.bridge != nil {
		if err := f.bridge.PublishToRoom(ctx, roomID, payload, originSessionID); err != nil {
			f.logger.WarnContext(ctx, "cross-node typing fan-out failed", "room_id", roomID, "error", err)
		}
	}
}
