package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	redisclient "github.com/coursecraft/coursecraft-backend/internal/clients/redis"
	"github.com/coursecraft/coursecraft-backend/internal/pkg/logger"
	"github.com/coursecraft/coursecraft-backend/internal/sse"
	"github.com/coursecraft/coursecraft-backend/internal/ssedata"
)

type SSEMiddleware struct {
	log *logger.Logger
	hub *sse.SSEHub
	bus redisclient.SSEBus
}

func NewSSEMiddleware(log *logger.Logger, hub *sse.SSEHub, bus redisclient.SSEBus) *SSEMiddleware {
	return &SSEMiddleware{log: log.With("middleware", "SSEMiddleware"), hub: hub, bus: bus}
}

// FlushMessages delivers every SSE message the handler queued. With a
// bus configured, messages go through redis so other instances see
// them too; the forwarder loops them back into the local hub.
func (sm *SSEMiddleware) FlushMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		data := ssedata.GetSSEData(c.Request.Context())
		if data == nil || len(data.Messages) == 0 {
			return
		}
		ctx := context.WithoutCancel(c.Request.Context())
		for _, msg := range data.Messages {
			if sm.bus != nil {
				if err := sm.bus.Publish(ctx, msg); err != nil {
					sm.log.Warn("Failed to publish SSE message to bus", "error", err)
					sm.hub.Broadcast(msg)
				}
				continue
			}
			sm.hub.Broadcast(msg)
		}
	}
}
