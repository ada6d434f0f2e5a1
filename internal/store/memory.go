package store

import (
    "context"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/XavierCollard23/LONDON/internal/model"
)

// Memory is a simple in-memory store used when no DATABASE_URL is set.
type Memory struct {
    mu      sync.Mutex
    plans   map[string]model.Plan            // id -> plan
    byTen   map[string][]string              // tenant -> plan ids
    subs    map[string][]model.Subscription  // tenant -> subscriptions
    // Webhooks queue state
    deliveries map[string]*memDelivery       // id -> delivery state
    deliveriesByTenant map[string][]string   // tenant -> delivery ids
    dlq     []map[string]any                 // dead-lettered deliveries
    runMx   map[string]map[string]map[string]any // tenant -> planId -> metrics
}

func NewMemory() *Memory {
    return &Memory{
        plans: map[string]model.Plan{},
        byTen: map[string][]string{},
        subs: map[string][]model.Subscription{},
        deliveries: map[string]*memDelivery{},
        deliveriesByTenant: map[string][]string{},
        dlq: []map[string]any{},
        runMx: map[string]map[string]map[string]any{},
    }
}

// memDelivery augments WebhookDelivery with scheduling/metrics
type memDelivery struct {
    WebhookDelivery
    NextAttemptAt time.Time
    LastError     string
    ResponseCode  int
    LatencyMs     int
    DeliveredAt   *time.Time
}

func (m *Memory) CreatePlan(ctx context.Context, plan model.Plan) (model.Plan, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if plan.ID == "" { plan.ID = uuid.New().String() }
    if plan.CreatedAt == "" { plan.CreatedAt = time.Now().UTC().Format(time.RFC3339) }
    if plan.Status == "" { plan.Status = "completed" }
    m.plans[plan.ID] = plan
    m.byTen[plan.TenantID] = append(m.byTen[plan.TenantID], plan.ID)
    return plan, nil
}

func (m *Memory) GetPlan(ctx context.Context, tenantID, planID string) (model.Plan, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    p, ok := m.plans[planID]
    if !ok || p.TenantID != tenantID { return model.Plan{}, ErrNotFound }
    return p, nil
}

func (m *Memory) ListPlans(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.Plan, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    ids := m.byTen[tenantID]
    start := 0
    if cursor != "" {
        for i, id := range ids {
            if id == cursor { start = i + 1; break }
        }
    }
    if limit <= 0 { limit = 100 }
    out := []model.Plan{}
    var next string
    for i := start; i < len(ids) && len(out) < limit; i++ {
        p := m.plans[ids[i]]
        if status == "" || p.Status == status { out = append(out, p) }
        next = ids[i]
    }
    if len(out) < limit { next = "" }
    return out, next, nil
}

func (m *Memory) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    s := model.Subscription{ID: uuid.New().String(), TenantID: req.TenantID, URL: req.URL, Events: req.Events, Secret: req.Secret}
    m.subs[req.TenantID] = append(m.subs[req.TenantID], s)
    return s, nil
}

func (m *Memory) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    var out []model.Subscription
    for _, s := range m.subs[tenantID] {
        for _, e := range s.Events { if e == eventType { out = append(out, s); break } }
    }
    return out, nil
}

func (m *Memory) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    list := m.subs[tenantID]
    start := 0
    if cursor != "" {
        for i := range list { if list[i].ID == cursor { start = i+1; break } }
    }
    if limit <= 0 { limit = 100 }
    end := start + limit
    if end > len(list) { end = len(list) }
    items := append([]model.Subscription(nil), list[start:end]...)
    next := ""
    if end < len(list) { next = list[end-1].ID }
    return items, next, nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, tenantID, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    arr := m.subs[tenantID]
    out := make([]model.Subscription, 0, len(arr))
    for _, s := range arr { if s.ID != id { out = append(out, s) } }
    m.subs[tenantID] = out
    return nil
}

// Webhook deliveries
func (m *Memory) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    id := uuid.New().String()
    d := &memDelivery{WebhookDelivery: WebhookDelivery{ID: id, TenantID: tenantID, SubscriptionID: subscriptionID, EventType: eventType, URL: url, Secret: secret, Payload: payload, Status: "pending", Attempts: 0}, NextAttemptAt: time.Now()}
    m.deliveries[id] = d
    m.deliveriesByTenant[tenantID] = append(m.deliveriesByTenant[tenantID], id)
    return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    now := time.Now()
    out := []WebhookDelivery{}
    for _, id := range m.iterDeliveryIDs() {
        d := m.deliveries[id]
        if d == nil { continue }
        if (d.Status == "pending" || d.Status == "retry") && !d.NextAttemptAt.After(now) {
            out = append(out, d.WebhookDelivery)
            if limit > 0 && len(out) >= limit { break }
        }
    }
    return out, nil
}

func (m *Memory) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d == nil { return nil }
    d.Attempts++
    d.ResponseCode = responseCode
    d.LatencyMs = latencyMs
    if success {
        d.Status = "delivered"
        now := time.Now()
        d.DeliveredAt = &now
    } else {
        d.Status = "retry"
        d.LastError = lastError
        if nextAttemptAt != nil { d.NextAttemptAt = *nextAttemptAt } else { d.NextAttemptAt = time.Now().Add(1 * time.Minute) }
    }
    return nil
}

func (m *Memory) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d != nil { d.Status = "failed" }
    row := map[string]any{"id": id, "lastError": lastError, "responseCode": responseCode, "latencyMs": latencyMs}
    if d != nil { row["eventType"] = d.EventType; row["url"] = d.URL }
    m.dlq = append(m.dlq, row)
    return nil
}

func (m *Memory) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    out := []map[string]any{}
    ids := m.deliveriesByTenant[tenantID]
    for _, id := range ids {
        d := m.deliveries[id]
        if d == nil { continue }
        if status == "" || d.Status == status {
            item := map[string]any{"id": d.ID, "eventType": d.EventType, "status": d.Status, "attempts": d.Attempts, "url": d.URL}
            if !d.NextAttemptAt.IsZero() { item["nextAttemptAt"] = d.NextAttemptAt }
            if d.LastError != "" { item["lastError"] = d.LastError }
            out = append(out, item)
        }
    }
    return out, "", nil
}

func (m *Memory) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
    m.mu.Lock(); defer m.mu.Unlock()
    d := m.deliveries[id]
    if d != nil && d.TenantID == tenantID {
        d.Status = "pending"
        d.NextAttemptAt = time.Now()
    }
    return nil
}

func (m *Memory) ListWebhookDLQ(ctx context.Context, tenantID, eventType string, olderThan time.Time, codeMin, codeMax int, errorQuery, cursor string, limit int) ([]map[string]any, string, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    // very simple filter-less implementation for memory store
    out := append([]map[string]any(nil), m.dlq...)
    if out == nil { out = []map[string]any{} }
    return out, "", nil
}

func (m *Memory) RequeueWebhookDLQ(ctx context.Context, tenantID, id string) error {
    return nil
}

func (m *Memory) RequeueWebhookDLQBulk(ctx context.Context, tenantID string, ids []string) error { return nil }
func (m *Memory) DeleteWebhookDLQBulk(ctx context.Context, tenantID string, ids []string, olderThan time.Time) error { return nil }

func (m *Memory) WebhookMetrics(ctx context.Context, tenantID string, since time.Time, eventType, status string, codeMin, codeMax int, buckets []int) ([]map[string]any, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    if len(buckets) == 0 { buckets = []int{100, 500, 1000} }
    type agg struct{ cnt int; sum int; b []int64 }
    by := map[string]*agg{} // key: eventType|status
    add := func(typ, st string, latency int) {
        key := typ + "|" + st
        a := by[key]
        if a == nil { a = &agg{b: make([]int64, len(buckets)+1)}; by[key] = a }
        a.cnt++
        if latency > 0 { a.sum += latency }
        bi := len(buckets)
        for i, edge := range buckets { if latency < edge { bi = i; break } }
        a.b[bi]++
    }
    for _, ids := range m.deliveriesByTenant {
        for _, id := range ids {
            d := m.deliveries[id]
            if d == nil || d.TenantID != tenantID { continue }
            if !since.IsZero() && d.DeliveredAt != nil && d.DeliveredAt.Before(since) { continue }
            if eventType != "" && d.EventType != eventType { continue }
            st := d.Status
            if status != "" && st != status { continue }
            if codeMin > 0 && d.ResponseCode < codeMin { continue }
            if codeMax > 0 && d.ResponseCode > codeMax { continue }
            add(d.EventType, st, d.LatencyMs)
        }
    }
    out := []map[string]any{}
    for k, a := range by {
        sep := -1
        for i := range k { if k[i] == '|' { sep = i; break } }
        avg := 0
        if a.cnt > 0 { avg = a.sum / a.cnt }
        out = append(out, map[string]any{
            "eventType": k[:sep],
            "status": k[sep+1:],
            "count": a.cnt,
            "avgLatencyMs": avg,
            "latencyBucketEdges": buckets,
            "latencyBucketCounts": a.b,
        })
    }
    return out, nil
}

func (m *Memory) SaveRunMetrics(ctx context.Context, tenantID, planID string, metrics map[string]any) error {
    m.mu.Lock(); defer m.mu.Unlock()
    if m.runMx[tenantID] == nil { m.runMx[tenantID] = map[string]map[string]any{} }
    m.runMx[tenantID][planID] = metrics
    return nil
}

func (m *Memory) GetRunMetrics(ctx context.Context, tenantID, planID string) (map[string]any, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    mx, ok := m.runMx[tenantID][planID]
    if !ok { return nil, ErrNotFound }
    return mx, nil
}

// helper: iterate delivery IDs by tenant order
func (m *Memory) iterDeliveryIDs() []string {
    ids := []string{}
    for _, lst := range m.deliveriesByTenant {
        ids = append(ids, lst...)
    }
    return ids
}
