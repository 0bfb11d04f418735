package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"github.com/coursecraft/coursecraft-backend/internal/pkg/logger"
	"github.com/coursecraft/coursecraft-backend/internal/sse"
	"github.com/coursecraft/coursecraft-backend/internal/utils"
)

// SSEBus fans SSE messages out across instances through redis pub/sub.
// Each instance publishes local events and forwards remote ones into
// its own hub, so a client connected anywhere sees every event on its
// channels.
type SSEBus interface {
	Publish(ctx context.Context, msg sse.SSEMessage) error
	StartForwarder(ctx context.Context, hub *sse.SSEHub)
	Close() error
}

type sseBus struct {
	client  *goredis.Client
	channel string
	log     *logger.Logger
}

func NewSSEBus(log *logger.Logger) (SSEBus, error) {
	addr := utils.GetEnv("REDIS_ADDR", "localhost:6379", log)
	password := utils.GetEnv("REDIS_PASSWORD", "", log)
	channel := utils.GetEnv("REDIS_SSE_CHANNEL", "coursecraft:sse", log)

	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &sseBus{
		client:  client,
		channel: channel,
		log:     log.With("component", "SSEBus"),
	}, nil
}

func (b *sseBus) Publish(ctx context.Context, msg sse.SSEMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *sseBus) StartForwarder(ctx context.Context, hub *sse.SSEHub) {
	sub := b.client.Subscribe(ctx, b.channel)
	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg sse.SSEMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.log.Warn("Failed to unmarshal SSE bus payload", "error", err)
					continue
				}
				hub.Broadcast(msg)
			}
		}
	}()
}

func (b *sseBus) Close() error {
	return b.client.Close()
}
