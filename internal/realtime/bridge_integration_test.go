//go:build integration

package realtime

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodbridge/internal/platform/config"
	platformredis "foodbridge/internal/platform/redis"
	"foodbridge/pkg/testutil/containers"
)

// TestBridgeDeliversAcrossNodes runs two routers joined by the Redis bridge
// and checks a delivery published on one node reaches a session registered
// on the other, without echoing back to the origin node twice.
func TestBridgeDeliversAcrossNodes(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newNode := func() (*Router, *Bridge) {
		client, err := platformredis.New(config.RedisConfig{
			URL:          rc.URL,
			PoolSize:     4,
			MinIdleConns: 1,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		router := NewRouter()
		return router, NewBridge(client, router, logger)
	}

	routerA, bridgeA := newNode()
	routerB, bridgeB := newNode()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = bridgeA.Run(ctx) }()
	go func() { _ = bridgeB.Run(ctx) }()
	time.Sleep(200 * time.Millisecond) // subscriptions settle

	userID := uuid.NewString()
	local := NewConnection(userID, nil)
	routerA.Register(local)
	remote := NewConnection(userID, nil)
	routerB.Register(remote)

	fanoutA := NewFanout(routerA, bridgeA, logger)
	fanoutA.DeliverMessage(ctx, MessagePayload{
		ID:     uuid.NewString(),
		ChatID: uuid.NewString(),
	}, []string{userID}, "")

	require.Eventually(t, func() bool {
		return len(remote.send) == 1
	}, 3*time.Second, 20*time.Millisecond, "remote node session must receive the delivery")

	// The local session was served directly; the bridge must not replay the
	// node's own frame back into it.
	time.Sleep(300 * time.Millisecond)
	assert.Len(t, local.send, 1, "origin node delivers exactly once")
}
