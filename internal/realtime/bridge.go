package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	platformredis "foodbridge/internal/platform/redis"
)

const bridgeChannel = "foodbridge.realtime"

// frame is the cross-node envelope republished over Redis so sessions
// connected to other nodes receive the same events as local ones.
type frame struct {
	Origin          string          `json:"origin"`
	Kind            string          `json:"kind"` // "room" or "user"
	RoomID          string          `json:"room_id,omitempty"`
	UserIDs         []string        `json:"user_ids,omitempty"`
	ExcludeUserID   string          `json:"exclude_user_id,omitempty"`
	OriginSessionID string          `json:"origin_session_id,omitempty"`
	Payload         json.RawMessage `json:"payload"`
}

// Bridge fans events out across nodes via Redis pub/sub. Each node publishes
// everything it routes locally and replays frames published by its peers;
// frames carry the origin node ID so a node skips its own.
type Bridge struct {
	nodeID string
	client *platformredis.Client
	router *Router
	logger *slog.Logger
}

func NewBridge(client *platformredis.Client, router *Router, logger *slog.Logger) *Bridge {
	return &Bridge{
		nodeID: uuid.NewString(),
		client: client,
		router: router,
		logger: logger,
	}
}

// PublishToUsers forwards a user-targeted delivery to peer nodes.
func (b *Bridge) PublishToUsers(ctx context.Context, payload []byte, userIDs []string, excludeUserID string) error {
	return b.publish(ctx, frame{
		Origin:        b.nodeID,
		Kind:          "user",
		UserIDs:       userIDs,
		ExcludeUserID: excludeUserID,
		Payload:       payload,
	})
}

// PublishToRoom forwards a room broadcast to peer nodes.
func (b *Bridge) PublishToRoom(ctx context.Context, roomID string, payload []byte, originSessionID string) error {
	return b.publish(ctx, frame{
		Origin:          b.nodeID,
		Kind:            "room",
		RoomID:          roomID,
		OriginSessionID: originSessionID,
		Payload:         payload,
	})
}

func (b *Bridge) publish(ctx context.Context, f frame) error {
	raw, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal bridge frame: %w", err)
	}
	if err := b.client.Publish(ctx, bridgeChannel, raw).Err(); err != nil {
		return fmt.Errorf("publish bridge frame: %w", err)
	}
	return nil
}

// Run subscribes to the bridge channel and replays peer frames into the
// local router until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, bridgeChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.replay([]byte(msg.Payload))
		}
	}
}

func (b *Bridge) replay(raw []byte) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		b.logger.Warn("dropping malformed bridge frame", "error", err)
		return
	}
	if f.Origin == b.nodeID {
		return
	}
	switch f.Kind {
	case "user":
		b.router.DeliverToUsers(f.Payload, f.UserIDs, f.ExcludeUserID)
	case "room":
		b.router.BroadcastToRoom(f.RoomID, f.Payload, f.OriginSessionID)
	default:
		b.logger.Warn("dropping bridge frame of unknown kind", "kind", f.Kind)
	}
}
