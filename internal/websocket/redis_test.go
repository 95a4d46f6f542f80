package websocket

import (
	"context"
	"testing"
	"time"

	"kanban-board/internal/models"
	"kanban-board/internal/testutil"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisFanOutAcrossInstances(t *testing.T) {
	client := testutil.Redis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hubA := startHub(t, allowBoards("b1"))
	hubB := startHub(t, allowBoards("b1"))
	pubA := NewRedisBroadcaster(client, hubA, zap.NewNop())
	pubB := NewRedisBroadcaster(client, hubB, zap.NewNop())

	done := make(chan error, 2)
	go func() { done <- pubA.Listen(ctx) }()
	go func() { done <- pubB.Listen(ctx) }()
	require.Eventually(t, func() bool {
		subs, err := client.PubSubNumSub(ctx, EventsChannel).Result()
		return err == nil && subs[EventsChannel] == 2
	}, 5*time.Second, 20*time.Millisecond)

	onA := connect(hubA, "alice")
	onB := connect(hubB, "bob")
	onA.send(t, models.EventJoinBoard, "b1")
	onB.send(t, models.EventJoinBoard, "b1")
	waitForRooms(t, hubA, map[string]int{models.RoomName("b1"): 1})
	waitForRooms(t, hubB, map[string]int{models.RoomName("b1"): 1})

	require.NoError(t, pubA.Emit(ctx, "b1", models.EventListCreated, map[string]string{"id": "l1"}))
	for _, conn := range []*fakeConn{onA, onB} {
		msg := conn.next(t)
		assert.Equal(t, models.EventListCreated, msg.Event)
		assert.JSONEq(t, `{"id":"l1"}`, string(msg.Data))
	}

	require.NoError(t, client.Publish(ctx, EventsChannel, "garbage").Err())
	require.NoError(t, pubB.Emit(ctx, "b1", models.EventListUpdated, map[string]string{"id": "l1"}))
	assert.Equal(t, models.EventListUpdated, onA.next(t).Event, "malformed payloads are skipped")

	cancel()
	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("listener did not stop")
		}
	}
}

func TestRedisEmitFallsBackToLocalHub(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer client.Close()

	hub := startHub(t, allowBoards("b1"))
	pub := NewRedisBroadcaster(client, hub, zap.NewNop())
	conn := connect(hub, "alice")
	conn.send(t, models.EventJoinBoard, "b1")
	waitForRooms(t, hub, map[string]int{models.RoomName("b1"): 1})

	err := pub.Emit(context.Background(), "b1", models.EventTaskUpdated, map[string]string{"id": "t1"})
	require.Error(t, err)
	assert.Equal(t, models.EventTaskUpdated, conn.next(t).Event)
}
