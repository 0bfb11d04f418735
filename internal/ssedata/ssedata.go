package ssedata

import (
	"context"

	"github.com/coursecraft/coursecraft-backend/internal/sse"
)

type ctxKey struct{}

// SSEData collects SSE messages queued during a request. The queued
// messages are flushed to the hub after the handler returns; services
// queue success events only after their transaction commits, so a
// rolled-back request never announces children it did not keep.
type SSEData struct {
	Messages []sse.SSEMessage
}

func WithSSEData(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, &SSEData{})
}

func GetSSEData(ctx context.Context) *SSEData {
	if data, ok := ctx.Value(ctxKey{}).(*SSEData); ok {
		return data
	}
	return nil
}

func AppendMessage(ctx context.Context, msg sse.SSEMessage) {
	if data := GetSSEData(ctx); data != nil {
		data.Messages = append(data.Messages, msg)
	}
}
