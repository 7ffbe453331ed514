// Package event defines editor events. The recorder writes them to the
// activity store and then publishes them to the in-process bus.
package event

import (
	"context"

	"github.com/matthewbaird/filtereditor/internal/activity"
)

// Recorder writes editor events to the activity store.
type Recorder interface {
	Record(ctx context.Context, evt DomainEvent) error
}

// Publisher sends events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, evt DomainEvent)
}

// ActivityRecorder implements Recorder on an activity.Store. If a Publisher
// is set, the event is also published after the store write succeeds.
type ActivityRecorder struct {
	store activity.Store
	bus   Publisher
}

// NewActivityRecorder creates a new ActivityRecorder backed by the given store.
func NewActivityRecorder(store activity.Store) *ActivityRecorder {
	return &ActivityRecorder{store: store}
}

// SetPublisher attaches an event bus.
func (r *ActivityRecorder) SetPublisher(p Publisher) {
	r.bus = p
}

// Record writes evt and publishes it.
func (r *ActivityRecorder) Record(ctx context.Context, evt DomainEvent) error {
	entry := activity.Entry{
		EventID:    evt.ID,
		EventType:  evt.EventType,
		OccurredAt: evt.OccurredAt,
		SessionID:  evt.SessionID,
		Op:         evt.Op,
		Path:       evt.Path,
		Summary:    evt.Summary,
		ErrorCode:  evt.ErrorCode,
		Filter:     evt.Filter,
	}
	if err := r.store.WriteEntries(ctx, []activity.Entry{entry}); err != nil {
		return err
	}

	if r.bus != nil {
		r.bus.Publish(ctx, evt)
	}
	return nil
}

// Discard is a Recorder that drops everything.
type Discard struct{}

func (Discard) Record(context.Context, DomainEvent) error { return nil }
