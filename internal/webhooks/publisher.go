package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XavierCollard23/LONDON/internal/store"
)

// Event types emitted by the planner service.
const (
	EventPlanCreated   = "plan.created"
	EventPlanCompleted = "plan.completed"
	EventPlanFailed    = "plan.failed"
	EventDayScheduled  = "day.scheduled"
)

type Publisher struct {
	Store store.Store
}

func NewPublisher(s store.Store) *Publisher {
	return &Publisher{Store: s}
}

// Emit enqueues the event for every subscription of the tenant matching the
// event type. Envelope: {id, type, tenantId, ts, data}.
func (p *Publisher) Emit(ctx context.Context, tenantID, eventType string, data any) {
	subs, err := p.Store.GetSubscriptionsForEvent(ctx, tenantID, eventType)
	if err != nil || len(subs) == 0 {
		return
	}
	payload := map[string]any{
		"id":       fmt.Sprintf("evt_%d", time.Now().UnixNano()),
		"type":     eventType,
		"tenantId": tenantID,
		"ts":       time.Now().UTC().Format(time.RFC3339),
		"data":     data,
	}
	body, _ := json.Marshal(payload)
	for _, s := range subs {
		_, _ = p.Store.EnqueueWebhook(ctx, tenantID, s.ID, eventType, s.URL, s.Secret, body)
	}
}
