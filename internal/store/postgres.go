package store

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sort"
    "strings"
    "time"

    _ "github.com/jackc/pgx/v5/stdlib"
    "github.com/google/uuid"
    "encoding/json"
    "crypto/sha256"
    "encoding/hex"

    "github.com/XavierCollard23/LONDON/internal/model"
)

type Postgres struct {
    db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.Ping(); err != nil {
        return nil, err
    }
    return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
    return p.db.PingContext(ctx)
}

// MigrateDir applies every .sql file in dir in lexical order.
func (p *Postgres) MigrateDir(dir string) error {
    entries, err := os.ReadDir(dir)
    if err != nil { return err }
    names := []string{}
    for _, e := range entries {
        if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") { names = append(names, e.Name()) }
    }
    sort.Strings(names)
    for _, name := range names {
        sqlBytes, err := os.ReadFile(filepath.Join(dir, name))
        if err != nil { return err }
        if _, err := p.db.Exec(string(sqlBytes)); err != nil {
            return fmt.Errorf("migrate %s: %w", name, err)
        }
    }
    return nil
}

// CreatePlan inserts the plan with its scheduled days and summary as JSONB.
func (p *Postgres) CreatePlan(ctx context.Context, plan model.Plan) (model.Plan, error) {
    if plan.ID == "" { plan.ID = uuid.New().String() }
    if plan.CreatedAt == "" { plan.CreatedAt = time.Now().UTC().Format(time.RFC3339) }
    if plan.Status == "" { plan.Status = "completed" }
    days, err := json.Marshal(plan.Days)
    if err != nil { return model.Plan{}, err }
    var summary any
    if plan.Summary != nil {
        b, err := json.Marshal(plan.Summary)
        if err != nil { return model.Plan{}, err }
        summary = b
    }
    _, err = p.db.ExecContext(ctx, `INSERT INTO plans (id, tenant_id, title, status, days, summary, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
        plan.ID, plan.TenantID, nullIfEmpty(plan.Title), plan.Status, days, summary, plan.CreatedAt)
    if err != nil { return model.Plan{}, err }
    return plan, nil
}

func (p *Postgres) GetPlan(ctx context.Context, tenantID, planID string) (model.Plan, error) {
    var plan model.Plan
    var title sql.NullString
    var days, summary []byte
    var created time.Time
    row := p.db.QueryRowContext(ctx, `SELECT id::text, title, status, days, summary, created_at FROM plans WHERE tenant_id=$1 AND id=$2`, tenantID, planID)
    if err := row.Scan(&plan.ID, &title, &plan.Status, &days, &summary, &created); err != nil {
        if errors.Is(err, sql.ErrNoRows) { return plan, ErrNotFound }
        return plan, err
    }
    plan.TenantID = tenantID
    plan.Title = title.String
    plan.CreatedAt = created.UTC().Format(time.RFC3339)
    if err := json.Unmarshal(days, &plan.Days); err != nil { return plan, err }
    if len(summary) > 0 {
        var s model.PlanSummary
        if err := json.Unmarshal(summary, &s); err != nil { return plan, err }
        plan.Summary = &s
    }
    return plan, nil
}

func (p *Postgres) ListPlans(ctx context.Context, tenantID, status, cursor string, limit int) ([]model.Plan, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    var rows *sql.Rows
    var err error
    if status != "" {
        if cursor != "" {
            rows, err = p.db.QueryContext(ctx, `SELECT id::text, title, status, days, created_at FROM plans WHERE tenant_id=$1 AND status=$2 AND id::text > $3 ORDER BY id LIMIT $4`, tenantID, status, cursor, limit)
        } else {
            rows, err = p.db.QueryContext(ctx, `SELECT id::text, title, status, days, created_at FROM plans WHERE tenant_id=$1 AND status=$2 ORDER BY id LIMIT $3`, tenantID, status, limit)
        }
    } else {
        if cursor != "" {
            rows, err = p.db.QueryContext(ctx, `SELECT id::text, title, status, days, created_at FROM plans WHERE tenant_id=$1 AND id::text > $2 ORDER BY id LIMIT $3`, tenantID, cursor, limit)
        } else {
            rows, err = p.db.QueryContext(ctx, `SELECT id::text, title, status, days, created_at FROM plans WHERE tenant_id=$1 ORDER BY id LIMIT $2`, tenantID, limit)
        }
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []model.Plan{}
    var last string
    for rows.Next() {
        var plan model.Plan
        var title sql.NullString
        var days []byte
        var created time.Time
        if err := rows.Scan(&plan.ID, &title, &plan.Status, &days, &created); err != nil { return nil, "", err }
        plan.TenantID = tenantID
        plan.Title = title.String
        plan.CreatedAt = created.UTC().Format(time.RFC3339)
        if err := json.Unmarshal(days, &plan.Days); err != nil { return nil, "", err }
        out = append(out, plan)
        last = plan.ID
    }
    var next string
    if len(out) == limit { next = last }
    return out, next, nil
}

func (p *Postgres) CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error) {
    id := uuid.New().String()
    ev, _ := json.Marshal(req.Events)
    _, err := p.db.ExecContext(ctx, `INSERT INTO subscriptions (id, tenant_id, url, events, secret) VALUES ($1,$2,$3,$4,$5)`, id, req.TenantID, req.URL, ev, req.Secret)
    if err != nil { return model.Subscription{}, err }
    return model.Subscription{ID: id, TenantID: req.TenantID, URL: req.URL, Events: req.Events, Secret: req.Secret}, nil
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, url, secret, events FROM subscriptions WHERE tenant_id=$1 AND events @> $2::jsonb`, tenantID, fmt.Sprintf("[\"%s\"]", eventType))
    if err != nil { return nil, err }
    defer rows.Close()
    out := []model.Subscription{}
    for rows.Next() {
        var s model.Subscription
        var events []byte
        if err := rows.Scan(&s.ID, &s.URL, &s.Secret, &events); err != nil { return nil, err }
        s.TenantID = tenantID
        _ = json.Unmarshal(events, &s.Events)
        out = append(out, s)
    }
    return out, nil
}

func (p *Postgres) ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    var rows *sql.Rows
    var err error
    if cursor != "" {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, url, secret, events FROM subscriptions WHERE tenant_id=$1 AND id::text > $2 ORDER BY id LIMIT $3`, tenantID, cursor, limit)
    } else {
        rows, err = p.db.QueryContext(ctx, `SELECT id::text, url, secret, events FROM subscriptions WHERE tenant_id=$1 ORDER BY id LIMIT $2`, tenantID, limit)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    var out []model.Subscription
    var last string
    for rows.Next() {
        var s model.Subscription
        var ev []byte
        if err := rows.Scan(&s.ID, &s.URL, &s.Secret, &ev); err != nil { return nil, "", err }
        s.TenantID = tenantID
        _ = json.Unmarshal(ev, &s.Events)
        out = append(out, s)
        last = s.ID
    }
    next := ""
    if len(out) == limit { next = last }
    return out, next, nil
}

func (p *Postgres) DeleteSubscription(ctx context.Context, tenantID, id string) error {
    _, err := p.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE tenant_id=$1 AND id=$2`, tenantID, id)
    return err
}

// Webhook deliveries
func (p *Postgres) EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
    id := uuid.New().String()
    dk := computeDedupKey(payload)
    _, err := p.db.ExecContext(ctx, `INSERT INTO webhook_deliveries (id, tenant_id, subscription_id, event_type, url, secret, payload, status, attempts, next_attempt_at, dedup_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,'pending',0,now(),$8)
        ON CONFLICT (tenant_id, event_type, url, dedup_key) DO NOTHING`, id, tenantID, nullIfEmpty(subscriptionID), eventType, url, nullIfEmpty(secret), payload, dk)
    if err != nil { return "", err }
    return id, nil
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, tenant_id::text, COALESCE(subscription_id::text,''), event_type, url, COALESCE(secret,''), payload, status, attempts
        FROM webhook_deliveries WHERE status IN ('pending','retry') AND next_attempt_at <= now() ORDER BY next_attempt_at ASC LIMIT $1`, limit)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []WebhookDelivery{}
    for rows.Next() {
        var d WebhookDelivery
        var payload []byte
        if err := rows.Scan(&d.ID, &d.TenantID, &d.SubscriptionID, &d.EventType, &d.URL, &d.Secret, &payload, &d.Status, &d.Attempts); err != nil { return nil, err }
        d.Payload = payload
        out = append(out, d)
    }
    return out, nil
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error {
    if !success {
        if nextAttemptAt == nil { t := time.Now().Add(1 * time.Minute); nextAttemptAt = &t }
        _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='retry', last_error=$1, next_attempt_at=$2, updated_at=now(), response_code=$3, latency_ms=$4 WHERE id=$5`, nullIfEmpty(lastError), *nextAttemptAt, responseCode, latencyMs, id)
        return err
    }
    _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET attempts=attempts+1, status='delivered', delivered_at=now(), updated_at=now(), response_code=$2, latency_ms=$3 WHERE id=$1`, id, responseCode, latencyMs)
    return err
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error {
    _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='failed', last_error=$2, updated_at=now(), response_code=$3, latency_ms=$4 WHERE id=$1`, id, nullIfEmpty(lastError), responseCode, latencyMs)
    if err != nil { return err }
    // move to DLQ
    _, err = p.db.ExecContext(ctx, `INSERT INTO webhook_dlq (id, tenant_id, delivery_id, event_type, url, secret, payload, attempts, last_error, response_code, latency_ms)
        SELECT gen_random_uuid(), tenant_id, id, event_type, url, secret, payload, attempts+1, $2, $3, $4 FROM webhook_deliveries WHERE id=$1`, id, nullIfEmpty(lastError), responseCode, latencyMs)
    return err
}

func (p *Postgres) ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    q := `SELECT id::text, event_type, status, attempts, next_attempt_at, COALESCE(last_error,''), url FROM webhook_deliveries WHERE tenant_id=$1`
    var rows *sql.Rows
    var err error
    if status != "" {
        q += ` AND status=$2 ORDER BY id LIMIT $3`
        rows, err = p.db.QueryContext(ctx, q, tenantID, status, limit)
    } else {
        q += ` ORDER BY id LIMIT $2`
        rows, err = p.db.QueryContext(ctx, q, tenantID, limit)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []map[string]any{}
    var last string
    for rows.Next() {
        var id, typ, st, lastErr, url string
        var attempts int
        var nextAt sql.NullTime
        if err := rows.Scan(&id, &typ, &st, &attempts, &nextAt, &lastErr, &url); err != nil { return nil, "", err }
        m := map[string]any{"id": id, "eventType": typ, "status": st, "attempts": attempts, "url": url}
        if nextAt.Valid { m["nextAttemptAt"] = nextAt.Time }
        if lastErr != "" { m["lastError"] = lastErr }
        out = append(out, m)
        last = id
    }
    next := ""
    if len(out) == limit { next = last }
    return out, next, nil
}

func (p *Postgres) RetryWebhookDelivery(ctx context.Context, tenantID, id string) error {
    _, err := p.db.ExecContext(ctx, `UPDATE webhook_deliveries SET status='pending', next_attempt_at=now() WHERE tenant_id=$1 AND id=$2`, tenantID, id)
    return err
}

func (p *Postgres) WebhookMetrics(ctx context.Context, tenantID string, since time.Time, eventType, status string, codeMin, codeMax int, buckets []int) ([]map[string]any, error) {
    if len(buckets) == 0 { buckets = []int{100, 500, 1000} }
    sel := `SELECT event_type, status, COUNT(*) AS cnt, COALESCE(AVG(latency_ms),0)::bigint AS avg_latency_ms`
    for i, edge := range buckets {
        if i == 0 {
            sel += fmt.Sprintf(", SUM(CASE WHEN COALESCE(latency_ms,0) < %d THEN 1 ELSE 0 END) AS b%d", edge, i)
        } else {
            prev := buckets[i-1]
            sel += fmt.Sprintf(", SUM(CASE WHEN COALESCE(latency_ms,0) >= %d AND COALESCE(latency_ms,0) < %d THEN 1 ELSE 0 END) AS b%d", prev, edge, i)
        }
    }
    lastEdge := buckets[len(buckets)-1]
    sel += fmt.Sprintf(", SUM(CASE WHEN COALESCE(latency_ms,0) >= %d THEN 1 ELSE 0 END) AS b%d", lastEdge, len(buckets))
    sel += ", SUM(CASE WHEN COALESCE(response_code,0) BETWEEN 200 AND 299 THEN 1 ELSE 0 END) AS c2xx, SUM(CASE WHEN COALESCE(response_code,0) BETWEEN 300 AND 399 THEN 1 ELSE 0 END) AS c3xx, SUM(CASE WHEN COALESCE(response_code,0) BETWEEN 400 AND 499 THEN 1 ELSE 0 END) AS c4xx, SUM(CASE WHEN COALESCE(response_code,0) BETWEEN 500 AND 599 THEN 1 ELSE 0 END) AS c5xx"
    q := sel + ` FROM webhook_deliveries WHERE tenant_id=$1 AND updated_at >= $2`
    args := []any{tenantID, since}
    idx := 3
    if eventType != "" { q += ` AND event_type=$` + fmt.Sprint(idx); args = append(args, eventType); idx++ }
    if status != "" { q += ` AND status=$` + fmt.Sprint(idx); args = append(args, status); idx++ }
    if codeMin > 0 { q += ` AND COALESCE(response_code,0) >= $` + fmt.Sprint(idx); args = append(args, codeMin); idx++ }
    if codeMax > 0 { q += ` AND COALESCE(response_code,0) <= $` + fmt.Sprint(idx); args = append(args, codeMax); idx++ }
    q += ` GROUP BY event_type, status`
    rows, err := p.db.QueryContext(ctx, q, args...)
    if err != nil { return nil, err }
    defer rows.Close()
    out := []map[string]any{}
    for rows.Next() {
        cols := 4 + len(buckets) + 1 + 4
        scan := make([]any, cols)
        var et, st string
        var cnt, avg int64
        scan[0] = &et; scan[1] = &st; scan[2] = &cnt; scan[3] = &avg
        bucketVals := make([]int64, len(buckets)+1)
        for i := range bucketVals { scan[4+i] = &bucketVals[i] }
        base := 4 + len(bucketVals)
        var c2, c3, c4, c5 int64
        scan[base+0] = &c2; scan[base+1] = &c3; scan[base+2] = &c4; scan[base+3] = &c5
        if err := rows.Scan(scan...); err != nil { return nil, err }
        out = append(out, map[string]any{
            "eventType": et,
            "status": st,
            "count": cnt,
            "avgLatencyMs": avg,
            "latencyBucketEdges": buckets,
            "latencyBucketCounts": bucketVals,
            "codeClasses": map[string]int64{"c2xx": c2, "c3xx": c3, "c4xx": c4, "c5xx": c5},
        })
    }
    return out, nil
}

func (p *Postgres) SaveRunMetrics(ctx context.Context, tenantID, planID string, metrics map[string]any) error {
    js, err := json.Marshal(metrics)
    if err != nil { return err }
    _, err = p.db.ExecContext(ctx, `INSERT INTO plan_metrics (id, tenant_id, plan_id, metrics) VALUES ($1,$2,$3,$4)
        ON CONFLICT (tenant_id, plan_id) DO UPDATE SET metrics=$4, created_at=now()`, uuid.New().String(), tenantID, planID, js)
    return err
}

func (p *Postgres) GetRunMetrics(ctx context.Context, tenantID, planID string) (map[string]any, error) {
    var js []byte
    row := p.db.QueryRowContext(ctx, `SELECT metrics FROM plan_metrics WHERE tenant_id=$1 AND plan_id=$2`, tenantID, planID)
    if err := row.Scan(&js); err != nil {
        if errors.Is(err, sql.ErrNoRows) { return nil, ErrNotFound }
        return nil, err
    }
    var out map[string]any
    if err := json.Unmarshal(js, &out); err != nil { return nil, err }
    return out, nil
}

func (p *Postgres) ListWebhookDLQ(ctx context.Context, tenantID, eventType string, olderThan time.Time, codeMin, codeMax int, errorQuery, cursor string, limit int) ([]map[string]any, string, error) {
    if limit <= 0 || limit > 500 { limit = 100 }
    base := `SELECT id::text, delivery_id::text, event_type, url, COALESCE(last_error,''), attempts, created_at, COALESCE(response_code,0), COALESCE(latency_ms,0) FROM webhook_dlq WHERE tenant_id=$1`
    args := []any{tenantID}
    idx := 2
    if eventType != "" { base += ` AND event_type=$` + fmt.Sprint(idx); args = append(args, eventType); idx++ }
    if !olderThan.IsZero() { base += ` AND created_at < $` + fmt.Sprint(idx); args = append(args, olderThan); idx++ }
    if codeMin > 0 { base += ` AND COALESCE(response_code,0) >= $` + fmt.Sprint(idx); args = append(args, codeMin); idx++ }
    if codeMax > 0 { base += ` AND COALESCE(response_code,0) <= $` + fmt.Sprint(idx); args = append(args, codeMax); idx++ }
    if errorQuery != "" { base += ` AND last_error ILIKE $` + fmt.Sprint(idx); args = append(args, "%"+errorQuery+"%"); idx++ }
    order := ` ORDER BY id`
    var rows *sql.Rows
    var err error
    if cursor != "" {
        q := base + ` AND id::text > $` + fmt.Sprint(idx) + order + ` LIMIT $` + fmt.Sprint(idx+1)
        args = append(args, cursor, limit)
        rows, err = p.db.QueryContext(ctx, q, args...)
    } else {
        q := base + order + ` LIMIT $` + fmt.Sprint(idx)
        args = append(args, limit)
        rows, err = p.db.QueryContext(ctx, q, args...)
    }
    if err != nil { return nil, "", err }
    defer rows.Close()
    out := []map[string]any{}
    var last string
    for rows.Next() {
        var id, delID, et, url, errStr string
        var attempts int
        var created time.Time
        var code, latency int
        if err := rows.Scan(&id, &delID, &et, &url, &errStr, &attempts, &created, &code, &latency); err != nil { return nil, "", err }
        out = append(out, map[string]any{"id": id, "deliveryId": delID, "eventType": et, "url": url, "lastError": errStr, "attempts": attempts, "createdAt": created, "responseCode": code, "latencyMs": latency})
        last = id
    }
    next := ""
    if len(out) == limit { next = last }
    return out, next, nil
}

func (p *Postgres) RequeueWebhookDLQ(ctx context.Context, tenantID, id string) error {
    var delID, et, url, secret string
    var payload []byte
    err := p.db.QueryRowContext(ctx, `SELECT COALESCE(delivery_id::text,''), event_type, url, COALESCE(secret,''), payload FROM webhook_dlq WHERE tenant_id=$1 AND id=$2`, tenantID, id).Scan(&delID, &et, &url, &secret, &payload)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) { return ErrNotFound }
        return err
    }
    if _, err := p.EnqueueWebhook(ctx, tenantID, delID, et, url, secret, payload); err != nil { return err }
    _, err = p.db.ExecContext(ctx, `DELETE FROM webhook_dlq WHERE tenant_id=$1 AND id=$2`, tenantID, id)
    return err
}

func (p *Postgres) RequeueWebhookDLQBulk(ctx context.Context, tenantID string, ids []string) error {
    for _, id := range ids {
        if err := p.RequeueWebhookDLQ(ctx, tenantID, id); err != nil { return err }
    }
    return nil
}

func (p *Postgres) DeleteWebhookDLQBulk(ctx context.Context, tenantID string, ids []string, olderThan time.Time) error {
    if len(ids) > 0 {
        for _, id := range ids {
            if _, err := p.db.ExecContext(ctx, `DELETE FROM webhook_dlq WHERE tenant_id=$1 AND id=$2`, tenantID, id); err != nil { return err }
        }
        return nil
    }
    if !olderThan.IsZero() {
        _, err := p.db.ExecContext(ctx, `DELETE FROM webhook_dlq WHERE tenant_id=$1 AND created_at < $2`, tenantID, olderThan)
        return err
    }
    return nil
}

func computeDedupKey(payload []byte) string {
    // try to parse JSON and use id
    var m map[string]any
    if json.Unmarshal(payload, &m) == nil {
        if v, ok := m["id"].(string); ok && v != "" {
            return v
        }
    }
    sum := sha256.Sum256(payload)
    return hex.EncodeToString(sum[:8])
}

// Helpers
func nullIfEmpty(s string) any { if s == "" { return nil }; return s }
