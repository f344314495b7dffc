package ws

import (
	"context"
	"encoding/json"

	"github.com/playmatatu/arcade/internal/game"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// StartEventSubscriber relays session events published on Redis to the
// session rooms of this hub until ctx is done.
func StartEventSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		hub.log.Info("redis not configured; event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, game.EventsChannel)
	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()
		hub.log.Info("event subscriber started", zap.String("channel", game.EventsChannel))
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev game.SessionEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					hub.log.Warn("invalid event payload", zap.Error(err))
					continue
				}
				if ev.Token == "" {
					continue
				}
				hub.log.Debug("event received", zap.String("type", ev.Type), zap.String("token", ev.Token), zap.Int("room_size", hub.RoomSize(ev.Token)))
				hub.PublishEvent(ev)
			}
		}
	}()
}
