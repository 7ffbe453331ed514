package eventbus

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/matthewbaird/filtereditor/internal/event"
)

// LogConsumer logs every event. Rejections log at info, everything else
// at V(1).
type LogConsumer struct {
	log logr.Logger
}

func NewLogConsumer(log logr.Logger) *LogConsumer {
	return &LogConsumer{log: log.WithName("events")}
}

func (c *LogConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	kv := []any{"type", evt.EventType, "session", evt.SessionID}
	if evt.Op != "" {
		kv = append(kv, "op", evt.Op, "path", evt.Path)
	}
	if evt.EventType == event.TypeOperationRejected {
		c.log.Info(evt.Summary, append(kv, "code", evt.ErrorCode)...)
		return nil
	}
	c.log.V(1).Info(evt.Summary, kv...)
	return nil
}
