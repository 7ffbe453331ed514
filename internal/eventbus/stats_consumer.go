package eventbus

import (
	"context"
	"maps"
	"sync"

	"github.com/matthewbaird/filtereditor/internal/event"
)

// Stats is a point-in-time copy of the counters kept by StatsConsumer.
type Stats struct {
	Events         int            `json:"events"`
	ActiveSessions int            `json:"active_sessions"`
	ByType         map[string]int `json:"by_type"`
	ByOp           map[string]int `json:"by_op"`
	RejectedByCode map[string]int `json:"rejected_by_code"`
}

// StatsConsumer counts events by type, committed operation and rejection
// code.
type StatsConsumer struct {
	mu     sync.Mutex
	events int
	active int
	byType map[string]int
	byOp   map[string]int
	byCode map[string]int
}

// NewStatsConsumer creates a new counting consumer.
func NewStatsConsumer() *StatsConsumer {
	return &StatsConsumer{
		byType: make(map[string]int),
		byOp:   make(map[string]int),
		byCode: make(map[string]int),
	}
}

func (c *StatsConsumer) HandleEvent(_ context.Context, evt event.DomainEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events++
	c.byType[evt.EventType]++
	switch evt.EventType {
	case event.TypeSessionOpened:
		c.active++
	case event.TypeSessionClosed:
		if c.active > 0 {
			c.active--
		}
	case event.TypeFilterChanged:
		c.byOp[evt.Op]++
	case event.TypeOperationRejected:
		c.byCode[evt.ErrorCode]++
	}
	return nil
}

// Snapshot returns a copy of the counters.
func (c *StatsConsumer) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Events:         c.events,
		ActiveSessions: c.active,
		ByType:         maps.Clone(c.byType),
		ByOp:           maps.Clone(c.byOp),
		RejectedByCode: maps.Clone(c.byCode),
	}
}
