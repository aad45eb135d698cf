//go:build integration

package chat_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodbridge/internal/chat"
	"foodbridge/pkg/testutil/containers"
)

// TestPostgresGetOrCreateConcurrent drives the service against the real
// unique index: concurrent creators for one pair converge on one chat.
func TestPostgresGetOrCreateConcurrent(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	svc := chat.NewService(chat.NewPostgresStore(pg.DB))
	ctx := context.Background()

	a, b := uuid.NewString(), uuid.NewString()

	const callers = 16
	var wg sync.WaitGroup
	ids := make(chan string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(flip bool) {
			defer wg.Done()
			x, y := a, b
			if flip {
				x, y = b, a
			}
			c, err := svc.GetOrCreate(ctx, x, y)
			if err == nil {
				ids <- c.ID
			}
		}(i%2 == 0)
	}
	wg.Wait()
	close(ids)

	unique := make(map[string]struct{})
	count := 0
	for id := range ids {
		unique[id] = struct{}{}
		count++
	}
	assert.Equal(t, callers, count)
	assert.Len(t, unique, 1)
}

// TestPostgresAppendMovesLatestPointer checks the append transaction: the
// message row and the chat's latest_message_id land together.
func TestPostgresAppendMovesLatestPointer(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	svc := chat.NewService(chat.NewPostgresStore(pg.DB))
	ctx := context.Background()

	a, b := uuid.NewString(), uuid.NewString()
	c, err := svc.GetOrCreate(ctx, a, b)
	require.NoError(t, err)

	first, err := svc.Append(ctx, c.ID, a, "hello")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	second, err := svc.Append(ctx, c.ID, b, "hi back")
	require.NoError(t, err)

	stored, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, stored.LatestMessageID)

	msgs, err := svc.ListByChat(ctx, c.ID, a)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.ID, msgs[0].ID, "oldest first")
	assert.Equal(t, second.ID, msgs[1].ID)
}

// TestPostgresListOrderMatchesAppendOrder appends a burst of messages with
// no pause between them; listing must follow append order even when their
// transaction timestamps collide.
func TestPostgresListOrderMatchesAppendOrder(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	svc := chat.NewService(chat.NewPostgresStore(pg.DB))
	ctx := context.Background()

	a, b := uuid.NewString(), uuid.NewString()
	c, err := svc.GetOrCreate(ctx, a, b)
	require.NoError(t, err)

	const burst = 20
	ids := make([]string, 0, burst)
	for i := 0; i < burst; i++ {
		sender := a
		if i%2 == 1 {
			sender = b
		}
		msg, err := svc.Append(ctx, c.ID, sender, "msg")
		require.NoError(t, err)
		ids = append(ids, msg.ID)
	}

	msgs, err := svc.ListByChat(ctx, c.ID, a)
	require.NoError(t, err)
	require.Len(t, msgs, burst)
	for i, msg := range msgs {
		assert.Equal(t, ids[i], msg.ID, "position %d", i)
	}
}
