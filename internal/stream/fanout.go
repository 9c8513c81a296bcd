package stream

import (
	"context"

	"pharmadesk.org/internal/store"
)

// Fanout relays store mutation events onto the activity bus. Slow SSE
// clients drop events; the audit recorder is the durable record.
type Fanout struct {
	bus *Bus
}

// NewFanout creates the relay.
func NewFanout(bus *Bus) *Fanout {
	return &Fanout{bus: bus}
}

var _ store.MutationSink = (*Fanout)(nil)

// Record publishes the mutation as an activity event.
func (f *Fanout) Record(_ context.Context, ev store.MutationEvent) {
	f.bus.Publish(ActivityEvent{
		Kind:       "mutation",
		Action:     string(ev.Action),
		Resource:   ev.Resource,
		ResourceID: ev.ResourceID,
		Title:      ev.Name,
		Actor:      ev.Actor.Name,
		Timestamp:  ev.OccurredAt,
	})
}
