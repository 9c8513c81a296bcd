package audit

import (
	"context"
	"encoding/json"
	"time"

	"pharmadesk.org/internal/obs"
	"pharmadesk.org/internal/store"
)

// Recorder turns store mutation events into audit entries and structured
// audit log lines. Register it on the store with AddSink.
type Recorder struct {
	log *Log
}

// NewRecorder creates a recorder appending to the given log.
func NewRecorder(log *Log) *Recorder {
	return &Recorder{log: log}
}

var _ store.MutationSink = (*Recorder)(nil)

// Record appends exactly one entry per mutation event.
func (r *Recorder) Record(ctx context.Context, ev store.MutationEvent) {
	entry := r.log.Append(Entry{
		OccurredAt:   ev.OccurredAt,
		ActorID:      ev.Actor.UserID,
		ActorName:    ev.Actor.Name,
		Action:       string(ev.Action),
		ResourceType: ev.Resource,
		ResourceID:   ev.ResourceID,
		ResourceName: ev.Name,
		Details:      ev.Details,
		RequestID:    RequestIDFromContext(ctx),
	})

	line := map[string]any{
		"ts":       entry.OccurredAt.Format(time.RFC3339Nano),
		"type":     "audit",
		"action":   entry.Action,
		"resource": entry.ResourceType,
	}
	if entry.ResourceID != "" {
		line["resource_id"] = entry.ResourceID
	}
	if entry.ActorID != "" {
		line["actor_id"] = entry.ActorID
	}
	if entry.RequestID != "" {
		line["request_id"] = entry.RequestID
	}
	data, err := json.Marshal(line)
	if err != nil {
		return
	}
	obs.Logger().Println(string(data))
}
