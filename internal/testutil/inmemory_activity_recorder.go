package testutil

import (
	"context"
	"sync"
)

// RecordedEvent is one audit event captured by the in-memory recorder
type RecordedEvent struct {
	TenantID  string
	EventType string
	Payload   map[string]any
}

// InMemoryActivityRecorder implements activity.Recorder and keeps the events
// for assertions.
type InMemoryActivityRecorder struct {
	mu     sync.RWMutex
	events []RecordedEvent
}

func NewInMemoryActivityRecorder() *InMemoryActivityRecorder {
	return &InMemoryActivityRecorder{}
}

func (r *InMemoryActivityRecorder) Record(ctx context.Context, tenantID string, eventType string, payload map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{
		TenantID:  tenantID,
		EventType: eventType,
		Payload:   payload,
	})
}

// Events returns all captured events in arrival order
func (r *InMemoryActivityRecorder) Events() []RecordedEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]RecordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// EventsOfType returns captured events matching the given type
func (r *InMemoryActivityRecorder) EventsOfType(eventType string) []RecordedEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []RecordedEvent
	for _, e := range r.events {
		if e.EventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Clear removes all captured events
func (r *InMemoryActivityRecorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
