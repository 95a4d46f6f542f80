package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// EventsChannel is the pub/sub channel shared by every API instance.
const EventsChannel = "kanban:events"

type envelope struct {
	BoardID string          `json:"boardId"`
	Frame   json.RawMessage `json:"frame"`
}

// RedisBroadcaster fans events out through Redis so clients connected to any
// instance receive them. Each instance delivers to its own hub from Listen.
type RedisBroadcaster struct {
	client *redis.Client
	hub    *Hub
	log    *zap.Logger
}

// NewRedisBroadcaster publishes through client and delivers received frames to hub.
func NewRedisBroadcaster(client *redis.Client, hub *Hub, log *zap.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, hub: hub, log: log.Named("pubsub")}
}

// Emit publishes the event. When Redis is unreachable the event still reaches
// this instance's clients and the publish error is returned.
func (b *RedisBroadcaster) Emit(ctx context.Context, boardID, event string, payload any) error {
	frame, err := Encode(event, payload)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(envelope{BoardID: boardID, Frame: frame})
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, EventsChannel, raw).Err(); err != nil {
		if derr := b.hub.Deliver(ctx, boardID, frame); derr != nil {
			b.log.Warn("local fallback delivery failed", zap.String("board_id", boardID), zap.Error(derr))
		}
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}

// Listen relays published events to the local hub until ctx is done.
func (b *RedisBroadcaster) Listen(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, EventsChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", EventsChannel, err)
	}
	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.log.Warn("dropping malformed event", zap.Error(err))
				continue
			}
			if err := b.hub.Deliver(ctx, env.BoardID, env.Frame); err != nil {
				if ctx.Err() != nil || errors.Is(err, ErrHubClosed) {
					return nil
				}
				b.log.Warn("event delivery failed", zap.String("board_id", env.BoardID), zap.Error(err))
			}
		}
	}
}
