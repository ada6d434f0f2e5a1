package api

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "net/http"
    "net/url"
    "os"
    "path/filepath"
    "strconv"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/XavierCollard23/LONDON/internal/metrics"
    "github.com/XavierCollard23/LONDON/internal/model"
    "github.com/XavierCollard23/LONDON/internal/parse"
    "github.com/XavierCollard23/LONDON/internal/report"
    "github.com/XavierCollard23/LONDON/internal/webhooks"
)

// PlansHandler handles POST/GET /v1/plans
func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
    switch r.Method {
    case http.MethodPost:
        s.createPlan(w, r)
    case http.MethodGet:
        _, tenant := s.withTenant(r)
        status := r.URL.Query().Get("status")
        cursor := r.URL.Query().Get("cursor")
        limit := 100
        if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
        items, next, err := s.Store.ListPlans(r.Context(), tenant, status, cursor, limit)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "List plans failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// createPlan runs the whole pipeline for one request: parse, optimize,
// render artifacts, persist, emit events.
func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
    p := s.getPrincipal(r)
    if !p.CanPlan() { writeProblem(w, 403, "Forbidden", "planner or admin required", r.URL.Path); return }
    var req model.PlanRequest
    if err := decodeJSON(r, &req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
        return
    }
    if err := validatePlanRequest(&req); err != nil {
        writeProblem(w, http.StatusBadRequest, "Invalid plan request", err.Error(), r.URL.Path)
        return
    }
    if req.TenantID == "" { req.TenantID = p.Tenant }

    days := daysFromRequest(req)
    if len(days) == 0 {
        writeProblem(w, http.StatusBadRequest, "No days found", "text contains no day markers", r.URL.Path)
        return
    }

    planID := uuid.NewString()
    s.Pub.Emit(r.Context(), req.TenantID, webhooks.EventPlanCreated, map[string]any{"planId": planID, "title": req.Title, "days": len(days)})

    started := time.Now()
    scheduled, err := s.Engine.Run(planID, days, req.Improve)
    if err != nil {
        s.failRun(r.Context(), req.TenantID, planID, err)
        writeProblem(w, http.StatusUnprocessableEntity, "Optimize failed", err.Error(), r.URL.Path)
        return
    }

    summary, err := report.Generate(filepath.Join(s.OutDir, planID), s.Engine.Catalog(), scheduled)
    if err != nil {
        s.failRun(r.Context(), req.TenantID, planID, err)
        writeProblem(w, http.StatusInternalServerError, "Render artifacts failed", err.Error(), r.URL.Path)
        return
    }

    plan := model.Plan{ID: planID, TenantID: req.TenantID, Title: req.Title, Status: "completed", Days: scheduled, Summary: &summary}
    stored, err := s.Store.CreatePlan(r.Context(), plan)
    if err != nil {
        writeProblem(w, http.StatusInternalServerError, "Create plan failed", err.Error(), r.URL.Path)
        return
    }

    s.recordRunMetrics(r.Context(), stored, time.Since(started))

    for _, sd := range scheduled {
        data := map[string]any{"planId": planID, "day": sd.Section.Index + 1, "title": sd.Section.Title, "stops": len(sd.Section.Locations)}
        s.Broker.Publish(planID, SSEEvent{Type: webhooks.EventDayScheduled, Data: data})
        s.Pub.Emit(r.Context(), req.TenantID, webhooks.EventDayScheduled, data)
    }
    s.Pub.Emit(r.Context(), req.TenantID, webhooks.EventPlanCompleted, map[string]any{"planId": planID, "days": len(scheduled)})
    s.Broker.Publish(planID, SSEEvent{Type: webhooks.EventPlanCompleted, Data: map[string]any{"planId": planID}})

    writeJSON(w, http.StatusCreated, stored)
}

// failRun emits the failure event and counts the run as failed.
func (s *Server) failRun(ctx context.Context, tenant, planID string, err error) {
    metrics.PlanRuns.WithLabelValues("failed").Inc()
    s.Pub.Emit(ctx, tenant, webhooks.EventPlanFailed, map[string]any{"planId": planID, "error": err.Error()})
}

// recordRunMetrics persists run counters and stage timings and feeds the
// Prometheus series.
func (s *Server) recordRunMetrics(ctx context.Context, plan model.Plan, elapsed time.Duration) {
    metrics.PlanRuns.WithLabelValues(plan.Status).Inc()
    stages := s.Engine.Timings.Snapshot(plan.ID)
    for stage, ms := range stages {
        metrics.PlanStageDuration.WithLabelValues(stage).Observe(float64(ms) / 1000)
    }
    var removed, added, locations int
    for _, sd := range plan.Days {
        removed += len(sd.Section.RemovedDuplicates)
        added += len(sd.Section.AddedEssentials)
        locations += len(sd.Section.Locations)
    }
    m := map[string]any{
        "days":              len(plan.Days),
        "locations":         locations,
        "removedDuplicates": removed,
        "addedEssentials":   added,
        "durationMs":        elapsed.Milliseconds(),
        "stagesMs":          stages,
    }
    if err := s.Store.SaveRunMetrics(ctx, plan.TenantID, plan.ID, m); err != nil {
        log.Printf("[API] save run metrics for %s: %v", plan.ID, err)
    }
}

// daysFromRequest turns the request payload into day sections, parsing raw
// text when no pre-split days were supplied.
func daysFromRequest(req model.PlanRequest) []model.DaySection {
    if len(req.Days) == 0 {
        return parse.Days(req.Text)
    }
    days := make([]model.DaySection, 0, len(req.Days))
    for i, d := range req.Days {
        sec := model.DaySection{Index: i, Title: strings.TrimSpace(d.Title), Theme: d.Theme, Lines: d.Lines, Timeline: d.Timeline}
        if sec.Theme == "" { sec.Theme = parse.InferTheme(sec.Title) }
        if len(sec.Timeline) == 0 { sec.Timeline = parse.Timeline(d.Lines) }
        days = append(days, sec)
    }
    return days
}

// PlanByIDHandler handles GET /v1/plans/{id} and its artifact subpaths:
// /summary, /document, /maps/{day}, /metrics and /events/stream.
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
    path := r.URL.Path
    rest := strings.TrimPrefix(path, "/v1/plans/")
    if rest == path || rest == "" {
        writeProblem(w, http.StatusNotFound, "Not Found", "missing id", path)
        return
    }
    parts := strings.Split(rest, "/")
    id := parts[0]
    if len(parts) > 2 && parts[1] == "events" && parts[2] == "stream" {
        s.streamPlanEvents(w, r, id)
        return
    }
    if r.Method != http.MethodGet {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    _, tenant := s.withTenant(r)
    plan, err := s.Store.GetPlan(r.Context(), tenant, id)
    if err != nil {
        writeProblem(w, http.StatusNotFound, "Plan not found", err.Error(), r.URL.Path)
        return
    }
    if len(parts) == 1 {
        writeJSON(w, http.StatusOK, plan)
        return
    }
    switch parts[1] {
    case "summary":
        if plan.Summary == nil { writeProblem(w, 404, "No summary", "plan has no artifacts", r.URL.Path); return }
        writeJSON(w, http.StatusOK, plan.Summary)
    case "document":
        s.servePlanDocument(w, r, plan)
    case "maps":
        if len(parts) < 3 { writeProblem(w, 404, "Not Found", "missing day number", r.URL.Path); return }
        s.servePlanMap(w, r, plan, parts[2])
    case "metrics":
        m, err := s.Store.GetRunMetrics(r.Context(), tenant, id)
        if err != nil { writeProblem(w, 404, "No metrics", err.Error(), r.URL.Path); return }
        writeJSON(w, http.StatusOK, map[string]any{"metrics": m})
    default:
        writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
    }
}

func (s *Server) servePlanDocument(w http.ResponseWriter, r *http.Request, plan model.Plan) {
    if plan.Summary == nil || plan.Summary.OutputDocument == "" {
        writeProblem(w, http.StatusNotFound, "No document", "plan has no rendered document", r.URL.Path)
        return
    }
    b, err := os.ReadFile(plan.Summary.OutputDocument)
    if err != nil {
        writeProblem(w, http.StatusNotFound, "Document missing", err.Error(), r.URL.Path)
        return
    }
    w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
    w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.DocumentName))
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(b)
}

// servePlanMap serves the rendered Leaflet page for one day. Day numbers in
// the URL are 1-based.
func (s *Server) servePlanMap(w http.ResponseWriter, r *http.Request, plan model.Plan, dayStr string) {
    day, err := strconv.Atoi(dayStr)
    if err != nil || day < 1 {
        writeProblem(w, http.StatusBadRequest, "Invalid day", "day must be a positive number", r.URL.Path)
        return
    }
    if plan.Summary == nil {
        writeProblem(w, http.StatusNotFound, "No maps", "plan has no rendered maps", r.URL.Path)
        return
    }
    name, ok := plan.Summary.Maps[day-1]
    if !ok {
        writeProblem(w, http.StatusNotFound, "No map", fmt.Sprintf("no map for day %d", day), r.URL.Path)
        return
    }
    b, err := os.ReadFile(filepath.Join(s.OutDir, plan.ID, name))
    if err != nil {
        writeProblem(w, http.StatusNotFound, "Map missing", err.Error(), r.URL.Path)
        return
    }
    w.Header().Set("Content-Type", "text/html; charset=utf-8")
    w.WriteHeader(http.StatusOK)
    _, _ = w.Write(b)
}

// streamPlanEvents serves the SSE feed for one plan with 15s heartbeats.
func (s *Server) streamPlanEvents(w http.ResponseWriter, r *http.Request, id string) {
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    _, tenant := s.withTenant(r)
    if _, err := s.Store.GetPlan(r.Context(), tenant, id); err != nil {
        writeProblem(w, http.StatusNotFound, "Plan not found", err.Error(), r.URL.Path)
        return
    }
    flusher, ok := w.(http.Flusher)
    if !ok { writeProblem(w, 500, "Streaming unsupported", "", r.URL.Path); return }
    w.Header().Set("Content-Type", "text/event-stream")
    w.Header().Set("Cache-Control", "no-cache")
    w.Header().Set("Connection", "keep-alive")
    ch := s.Broker.Subscribe(id)
    defer s.Broker.Unsubscribe(id, ch)
    fmt.Fprintf(w, "event: heartbeat\n")
    fmt.Fprintf(w, "data: {\"planId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
    flusher.Flush()
    notify := r.Context().Done()
    for {
        select {
        case <-notify:
            return
        case evt := <-ch:
            b, _ := json.Marshal(evt.Data)
            fmt.Fprintf(w, "event: %s\n", evt.Type)
            fmt.Fprintf(w, "data: %s\n\n", string(b))
            flusher.Flush()
        case <-time.After(15 * time.Second):
            fmt.Fprintf(w, "event: heartbeat\n")
            fmt.Fprintf(w, "data: {\"planId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
            flusher.Flush()
        }
    }
}

// CatalogHandler handles GET /v1/catalog/locations with an optional
// category filter.
func (s *Server) CatalogHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    category := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("category")))
    items := []model.LocationEntry{}
    for _, e := range s.Engine.Catalog().Entries() {
        if category != "" && string(e.Category) != category { continue }
        items = append(items, e)
    }
    writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// CatalogByNameHandler handles GET /v1/catalog/locations/{name}. The name
// goes through the resolver, so aliases and partial matches work.
func (s *Server) CatalogByNameHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    raw := strings.TrimPrefix(r.URL.Path, "/v1/catalog/locations/")
    name, err := url.PathUnescape(raw)
    if err != nil { name = raw }
    entry, ok := s.lookupLocation(name)
    if !ok {
        writeProblem(w, http.StatusNotFound, "Unknown location", fmt.Sprintf("no catalog entry matches %q", name), r.URL.Path)
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{"location": entry, "note": s.Engine.Catalog().Describe(entry.Name)})
}

// EstimateHandler handles GET /v1/estimate?from=&to=.
func (s *Server) EstimateHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodGet { w.WriteHeader(http.StatusMethodNotAllowed); return }
    from := r.URL.Query().Get("from")
    to := r.URL.Query().Get("to")
    if from == "" || to == "" {
        writeProblem(w, http.StatusBadRequest, "Missing parameters", "from and to are required", r.URL.Path)
        return
    }
    a, ok := s.lookupLocation(from)
    if !ok { writeProblem(w, 404, "Unknown location", fmt.Sprintf("no catalog entry matches %q", from), r.URL.Path); return }
    b, ok := s.lookupLocation(to)
    if !ok { writeProblem(w, 404, "Unknown location", fmt.Sprintf("no catalog entry matches %q", to), r.URL.Path); return }
    est := s.Engine.Estimator()
    writeJSON(w, http.StatusOK, map[string]any{
        "from":       a.Name,
        "to":         b.Name,
        "minutes":    est.Estimate(a.Name, b.Name),
        "distanceKm": est.DistanceKm(a.Name, b.Name),
    })
}

// lookupLocation finds a catalog entry for a free-text name, trying the
// exact name first and the alias index second.
func (s *Server) lookupLocation(name string) (model.LocationEntry, bool) {
    cat := s.Engine.Catalog()
    if e, ok := cat.Get(strings.TrimSpace(name)); ok {
        return e, true
    }
    if names := s.Res.Locations([]string{name}); len(names) > 0 {
        return cat.Get(names[0])
    }
    return model.LocationEntry{}, false
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    switch r.Method {
    case http.MethodPost:
        var req model.SubscriptionRequest
        if err := decodeJSON(r, &req); err != nil {
            writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
            return
        }
        if req.TenantID == "" { req.TenantID = p.Tenant }
        if req.URL == "" || len(req.Events) == 0 {
            writeProblem(w, http.StatusBadRequest, "Invalid subscription", "url and events are required", r.URL.Path)
            return
        }
        sub, err := s.Store.CreateSubscription(r.Context(), req)
        if err != nil {
            writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
            return
        }
        writeJSON(w, http.StatusCreated, sub)
    case http.MethodGet:
        cursor := r.URL.Query().Get("cursor")
        limit := 100
        if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
        items, next, err := s.Store.ListSubscriptions(r.Context(), p.Tenant, cursor, limit)
        if err != nil { writeProblem(w, 500, "List subscriptions failed", err.Error(), r.URL.Path); return }
        writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
    default:
        w.WriteHeader(http.StatusMethodNotAllowed)
    }
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
    if !strings.HasPrefix(r.URL.Path, "/v1/subscriptions/") { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodDelete { w.WriteHeader(405); return }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
    if err := s.Store.DeleteSubscription(r.Context(), p.Tenant, id); err != nil { writeProblem(w, 500, "Delete subscription failed", err.Error(), r.URL.Path); return }
    w.WriteHeader(204)
}

// Admin: webhook deliveries list and retry
func (s *Server) WebhookDeliveriesHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/admin/webhook-deliveries" { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    if r.Method != http.MethodGet { w.WriteHeader(405); return }
    status := r.URL.Query().Get("status")
    cursor := r.URL.Query().Get("cursor")
    limit := 100
    if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
    items, next, err := s.Store.ListWebhookDeliveries(r.Context(), p.Tenant, status, cursor, limit)
    if err != nil { writeProblem(w, 500, "List deliveries failed", err.Error(), r.URL.Path); return }
    writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
}

func (s *Server) WebhookDeliveryRetryHandler(w http.ResponseWriter, r *http.Request) {
    if !strings.HasPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/") || !strings.HasSuffix(r.URL.Path, "/retry") { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    if r.Method != http.MethodPost { w.WriteHeader(405); return }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/admin/webhook-deliveries/"), "/retry")
    if err := s.Store.RetryWebhookDelivery(r.Context(), p.Tenant, id); err != nil { writeProblem(w, 500, "Retry delivery failed", err.Error(), r.URL.Path); return }
    writeJSON(w, 202, map[string]int{"accepted": 1})
}

// Admin: webhook delivery metrics
func (s *Server) WebhookMetricsHandler(w http.ResponseWriter, r *http.Request) {
    if r.URL.Path != "/v1/admin/webhook-metrics" || r.Method != http.MethodGet { writeProblem(w, 404, "Not Found", "", r.URL.Path); return }
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    sinceHours := 24
    if v := r.URL.Query().Get("sinceHours"); v != "" { fmt.Sscanf(v, "%d", &sinceHours) }
    eventType := r.URL.Query().Get("eventType")
    status := r.URL.Query().Get("status")
    codeMin := 0; codeMax := 0
    if v := r.URL.Query().Get("responseCodeMin"); v != "" { fmt.Sscanf(v, "%d", &codeMin) }
    if v := r.URL.Query().Get("responseCodeMax"); v != "" { fmt.Sscanf(v, "%d", &codeMax) }
    // codeClass shorthand
    if v := r.URL.Query().Get("codeClass"); v != "" && codeMin == 0 && codeMax == 0 {
        switch v {
        case "2xx": codeMin, codeMax = 200, 299
        case "3xx": codeMin, codeMax = 300, 399
        case "4xx": codeMin, codeMax = 400, 499
        case "5xx": codeMin, codeMax = 500, 599
        }
    }
    var buckets []int
    if v := r.URL.Query().Get("buckets"); v != "" {
        for _, part := range strings.Split(v, ",") {
            if n, err := strconv.Atoi(strings.TrimSpace(part)); err == nil && n > 0 { buckets = append(buckets, n) }
        }
    }
    since := time.Now().Add(-time.Duration(sinceHours) * time.Hour)
    items, err := s.Store.WebhookMetrics(r.Context(), p.Tenant, since, eventType, status, codeMin, codeMax, buckets)
    if err != nil { writeProblem(w, 500, "Metrics failed", err.Error(), r.URL.Path); return }
    writeJSON(w, 200, map[string]any{"items": items})
}

// Admin: webhook DLQ list, requeue and purge
func (s *Server) WebhookDLQHandler(w http.ResponseWriter, r *http.Request) {
    p := s.getPrincipal(r)
    if !p.IsAdmin() { writeProblem(w, 403, "Forbidden", "admin required", r.URL.Path); return }
    if r.URL.Path == "/v1/admin/webhook-dlq" && r.Method == http.MethodGet {
        cursor := r.URL.Query().Get("cursor")
        limit := 100
        if v := r.URL.Query().Get("limit"); v != "" { fmt.Sscanf(v, "%d", &limit) }
        eventType := r.URL.Query().Get("eventType")
        olderThanHours := 0
        if v := r.URL.Query().Get("olderThanHours"); v != "" { fmt.Sscanf(v, "%d", &olderThanHours) }
        var older time.Time
        if olderThanHours > 0 { older = time.Now().Add(-time.Duration(olderThanHours) * time.Hour) }
        codeMin := 0; codeMax := 0
        if v := r.URL.Query().Get("responseCodeMin"); v != "" { fmt.Sscanf(v, "%d", &codeMin) }
        if v := r.URL.Query().Get("responseCodeMax"); v != "" { fmt.Sscanf(v, "%d", &codeMax) }
        errorQuery := r.URL.Query().Get("errorQuery")
        items, next, err := s.Store.ListWebhookDLQ(r.Context(), p.Tenant, eventType, older, codeMin, codeMax, errorQuery, cursor, limit)
        if err != nil { writeProblem(w, 500, "List DLQ failed", err.Error(), r.URL.Path); return }
        writeJSON(w, 200, map[string]any{"items": items, "nextCursor": next})
        return
    }
    if r.URL.Path == "/v1/admin/webhook-dlq" && r.Method == http.MethodPost {
        var req struct{ IDs []string `json:"ids"` }
        if err := decodeJSON(r, &req); err != nil { writeProblem(w, 400, "Invalid JSON", err.Error(), r.URL.Path); return }
        if len(req.IDs) == 0 { writeProblem(w, 400, "Missing ids", "", r.URL.Path); return }
        if err := s.Store.RequeueWebhookDLQBulk(r.Context(), p.Tenant, req.IDs); err != nil { writeProblem(w, 500, "Bulk requeue failed", err.Error(), r.URL.Path); return }
        writeJSON(w, 202, map[string]int{"accepted": len(req.IDs)})
        return
    }
    if r.URL.Path == "/v1/admin/webhook-dlq" && r.Method == http.MethodDelete {
        var req struct{ IDs []string `json:"ids"`; OlderThanHours int `json:"olderThanHours"` }
        if err := decodeJSON(r, &req); err != nil { writeProblem(w, 400, "Invalid JSON", err.Error(), r.URL.Path); return }
        var older time.Time
        if req.OlderThanHours > 0 { older = time.Now().Add(-time.Duration(req.OlderThanHours) * time.Hour) }
        if err := s.Store.DeleteWebhookDLQBulk(r.Context(), p.Tenant, req.IDs, older); err != nil { writeProblem(w, 500, "Bulk delete failed", err.Error(), r.URL.Path); return }
        writeJSON(w, 202, map[string]int{"accepted": 1})
        return
    }
    if strings.HasPrefix(r.URL.Path, "/v1/admin/webhook-dlq/") && strings.HasSuffix(r.URL.Path, "/requeue") && r.Method == http.MethodPost {
        id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/admin/webhook-dlq/"), "/requeue")
        if err := s.Store.RequeueWebhookDLQ(r.Context(), p.Tenant, id); err != nil { writeProblem(w, 500, "Requeue failed", err.Error(), r.URL.Path); return }
        writeJSON(w, 202, map[string]int{"accepted": 1})
        return
    }
    writeProblem(w, 404, "Not Found", "", r.URL.Path)
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, 200, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    // Check DB connectivity when using the Postgres store
    type pinger interface{ Ping(ctx context.Context) error }
    if pg, ok := s.Store.(pinger); ok {
        ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
        defer cancel()
        if err := pg.Ping(ctx); err != nil { writeProblem(w, 503, "Not Ready", err.Error(), r.URL.Path); return }
    }
    writeJSON(w, 200, map[string]string{"status": "ready"})
}
