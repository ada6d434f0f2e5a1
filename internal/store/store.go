package store

import (
    "context"
    "errors"
    "time"

    "github.com/XavierCollard23/LONDON/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
    // Plans
    CreatePlan(ctx context.Context, plan model.Plan) (model.Plan, error)
    GetPlan(ctx context.Context, tenantID, planID string) (model.Plan, error)
    ListPlans(ctx context.Context, tenantID, status, cursor string, limit int) (items []model.Plan, nextCursor string, err error)

    // Subscriptions
    CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
    GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error)
    ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error)
    DeleteSubscription(ctx context.Context, tenantID, id string) error

    // Webhook deliveries
    EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
    FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
    MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
    FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
    ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error)
    RetryWebhookDelivery(ctx context.Context, tenantID, id string) error

    // Webhook metrics
    WebhookMetrics(ctx context.Context, tenantID string, since time.Time, eventType, status string, codeMin, codeMax int, buckets []int) ([]map[string]any, error)

    // Plan run metrics
    SaveRunMetrics(ctx context.Context, tenantID, planID string, metrics map[string]any) error
    GetRunMetrics(ctx context.Context, tenantID, planID string) (map[string]any, error)

    // Dead-letter queue
    ListWebhookDLQ(ctx context.Context, tenantID, eventType string, olderThan time.Time, codeMin, codeMax int, errorQuery, cursor string, limit int) ([]map[string]any, string, error)
    RequeueWebhookDLQ(ctx context.Context, tenantID, id string) error
    RequeueWebhookDLQBulk(ctx context.Context, tenantID string, ids []string) error
    DeleteWebhookDLQBulk(ctx context.Context, tenantID string, ids []string, olderThan time.Time) error
}

var ErrNotFound = errors.New("not found")
