package activity

import (
	"context"
)

// Recorder is the fire-and-forget audit sink for subscription lifecycle
// events. The real implementation lives with the wider application's
// activity log; this core only writes to it.
type Recorder interface {
	Record(ctx context.Context, tenantID string, eventType string, payload map[string]any)
}

// Event types emitted by the billing core
const (
	EventSubscriptionCreated   = "subscription.created"
	EventSubscriptionActivated = "subscription.plan_activated"
	EventSubscriptionScheduled = "subscription.plan_scheduled"
	EventSubscriptionPromoted  = "subscription.plan_promoted"
	EventSubscriptionCancelled = "subscription.cancelled"
	EventCreditGranted         = "billing.credit_granted"
)

// NoopRecorder discards all events.
type NoopRecorder struct{}

func NewNoopRecorder() Recorder {
	return &NoopRecorder{}
}

func (r *NoopRecorder) Record(ctx context.Context, tenantID string, eventType string, payload map[string]any) {
}
