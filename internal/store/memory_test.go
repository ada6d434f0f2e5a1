package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/XavierCollard23/LONDON/internal/model"
)

func TestMemoryPlanRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	in := model.Plan{TenantID: "t_demo", Title: "London getaway", Days: []model.ScheduledDay{{Section: model.DaySection{Title: "Day 1"}}}}
	saved, err := m.CreatePlan(ctx, in)
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if saved.ID == "" || saved.Status != "completed" || saved.CreatedAt == "" {
		t.Fatalf("defaults not filled: %+v", saved)
	}

	got, err := m.GetPlan(ctx, "t_demo", saved.ID)
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if got.Title != "London getaway" || len(got.Days) != 1 {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if _, err := m.GetPlan(ctx, "t_other", saved.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cross-tenant read: want ErrNotFound, got %v", err)
	}
	if _, err := m.GetPlan(ctx, "t_demo", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id: want ErrNotFound, got %v", err)
	}
}

func TestMemoryListPlansCursor(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	ids := []string{}
	for i := 0; i < 5; i++ {
		p, err := m.CreatePlan(ctx, model.Plan{TenantID: "t_demo"})
		if err != nil {
			t.Fatalf("CreatePlan: %v", err)
		}
		ids = append(ids, p.ID)
	}

	first, next, err := m.ListPlans(ctx, "t_demo", "", "", 2)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(first) != 2 || first[0].ID != ids[0] || next != ids[1] {
		t.Fatalf("first page wrong: %d items, next=%s", len(first), next)
	}

	rest, next2, err := m.ListPlans(ctx, "t_demo", "", next, 10)
	if err != nil {
		t.Fatalf("ListPlans page 2: %v", err)
	}
	if len(rest) != 3 || next2 != "" {
		t.Fatalf("second page wrong: %d items, next=%q", len(rest), next2)
	}
}

func TestMemorySubscriptionsByEvent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	s1, err := m.CreateSubscription(ctx, model.SubscriptionRequest{TenantID: "t_demo", URL: "http://a.example/hook", Events: []string{"plan.created", "plan.completed"}})
	if err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}
	if _, err := m.CreateSubscription(ctx, model.SubscriptionRequest{TenantID: "t_demo", URL: "http://b.example/hook", Events: []string{"day.scheduled"}}); err != nil {
		t.Fatalf("CreateSubscription: %v", err)
	}

	subs, err := m.GetSubscriptionsForEvent(ctx, "t_demo", "plan.completed")
	if err != nil {
		t.Fatalf("GetSubscriptionsForEvent: %v", err)
	}
	if len(subs) != 1 || subs[0].ID != s1.ID {
		t.Fatalf("want only the plan.* subscription, got %+v", subs)
	}

	if err := m.DeleteSubscription(ctx, "t_demo", s1.ID); err != nil {
		t.Fatalf("DeleteSubscription: %v", err)
	}
	subs, _ = m.GetSubscriptionsForEvent(ctx, "t_demo", "plan.completed")
	if len(subs) != 0 {
		t.Fatalf("subscription should be gone, got %+v", subs)
	}
}

func TestMemoryDeliveryLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.EnqueueWebhook(ctx, "t_demo", "sub1", "plan.created", "http://example.com/hook", "s3cret", []byte(`{"id":"evt_1"}`))
	if err != nil {
		t.Fatalf("EnqueueWebhook: %v", err)
	}
	due, err := m.FetchDueWebhookDeliveries(ctx, 10)
	if err != nil || len(due) != 1 || due[0].ID != id {
		t.Fatalf("want the new delivery due, got %v (%v)", due, err)
	}

	next := time.Now().Add(30 * time.Minute)
	if err := m.MarkWebhookDelivery(ctx, id, false, &next, "boom", 500, 12); err != nil {
		t.Fatalf("MarkWebhookDelivery: %v", err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 0 {
		t.Fatalf("retry scheduled in the future should not be due")
	}

	if err := m.RetryWebhookDelivery(ctx, "t_demo", id); err != nil {
		t.Fatalf("RetryWebhookDelivery: %v", err)
	}
	due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
	if len(due) != 1 {
		t.Fatalf("manual retry should be due now")
	}

	if err := m.MarkWebhookDelivery(ctx, id, true, nil, "", 200, 8); err != nil {
		t.Fatalf("MarkWebhookDelivery success: %v", err)
	}
	items, _, err := m.ListWebhookDeliveries(ctx, "t_demo", "delivered", "", 10)
	if err != nil || len(items) != 1 {
		t.Fatalf("want one delivered item, got %v (%v)", items, err)
	}
	if items[0]["attempts"] != 2 {
		t.Fatalf("attempts = %v, want 2", items[0]["attempts"])
	}

	id2, _ := m.EnqueueWebhook(ctx, "t_demo", "sub1", "plan.failed", "http://example.com/hook", "s3cret", []byte(`{"id":"evt_2"}`))
	if err := m.FailWebhookDelivery(ctx, id2, "gave up", 503, 40); err != nil {
		t.Fatalf("FailWebhookDelivery: %v", err)
	}
	dlq, _, err := m.ListWebhookDLQ(ctx, "t_demo", "", time.Time{}, 0, 0, "", "", 10)
	if err != nil || len(dlq) != 1 {
		t.Fatalf("want one DLQ row, got %v (%v)", dlq, err)
	}
	if dlq[0]["lastError"] != "gave up" {
		t.Fatalf("DLQ row = %v", dlq[0])
	}
}

func TestMemoryWebhookMetrics(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, _ := m.EnqueueWebhook(ctx, "t_demo", "sub1", "plan.created", "http://example.com/hook", "", []byte(`{"id":"evt_3"}`))
	_ = m.MarkWebhookDelivery(ctx, id, true, nil, "", 200, 350)

	rows, err := m.WebhookMetrics(ctx, "t_demo", time.Time{}, "", "", 0, 0, nil)
	if err != nil {
		t.Fatalf("WebhookMetrics: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("want one aggregate row, got %v", rows)
	}
	row := rows[0]
	if row["eventType"] != "plan.created" || row["status"] != "delivered" || row["count"] != 1 {
		t.Fatalf("aggregate row = %v", row)
	}
	counts := row["latencyBucketCounts"].([]int64)
	// default edges 100/500/1000: 350ms lands in the second bucket
	if counts[1] != 1 {
		t.Fatalf("bucket counts = %v", counts)
	}
}

func TestMemoryRunMetrics(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.GetRunMetrics(ctx, "t_demo", "p1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing metrics: want ErrNotFound, got %v", err)
	}
	if err := m.SaveRunMetrics(ctx, "t_demo", "p1", map[string]any{"days": 4, "resolveMs": int64(2)}); err != nil {
		t.Fatalf("SaveRunMetrics: %v", err)
	}
	got, err := m.GetRunMetrics(ctx, "t_demo", "p1")
	if err != nil {
		t.Fatalf("GetRunMetrics: %v", err)
	}
	if got["days"] != 4 {
		t.Fatalf("metrics = %v", got)
	}
}
