package api

import (
    "bytes"
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "net/url"
    "os"
    "strings"
    "sync"
    "testing"
    "time"

    "github.com/XavierCollard23/LONDON/internal/model"
)

const twoDayPlanText = "## Day 1 - Arrival\n" +
    "Carnaby Street and Covent Garden\n" +
    "## Last day - Departure\n" +
    "Coffee at gentlemen baristas, then Heathrow\n"

func newTestServer(t *testing.T) *Server {
    t.Helper()
    t.Setenv("DATABASE_URL", "")
    t.Setenv("REDIS_URL", "")
    t.Setenv("OUT_DIR", t.TempDir())
    s, err := NewServer()
    if err != nil { t.Fatalf("NewServer: %v", err) }
    return s
}

func createTestPlan(t *testing.T, s *Server) model.Plan {
    t.Helper()
    body, _ := json.Marshal(map[string]any{"title": "London trip", "text": twoDayPlanText})
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/plans", bytes.NewReader(body))
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("X-Role", "planner")
    s.PlansHandler(rr, req)
    if rr.Code != http.StatusCreated { t.Fatalf("create plan: got %d: %s", rr.Code, rr.Body.String()) }
    var plan model.Plan
    if err := json.Unmarshal(rr.Body.Bytes(), &plan); err != nil { t.Fatalf("decode plan: %v", err) }
    return plan
}

func TestHealthReady(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
    if rr.Code != 200 { t.Fatalf("health: got %d", rr.Code) }
    rr = httptest.NewRecorder()
    s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
    if rr.Code != 200 { t.Fatalf("ready: got %d", rr.Code) }
}

func TestPlanCreateAndArtifacts(t *testing.T) {
    s := newTestServer(t)
    plan := createTestPlan(t, s)
    if plan.ID == "" || plan.Status != "completed" { t.Fatalf("unexpected plan: %+v", plan) }
    if len(plan.Days) != 2 { t.Fatalf("days = %d, want 2", len(plan.Days)) }
    if plan.Summary == nil || plan.Summary.OutputDocument == "" { t.Fatalf("missing summary: %+v", plan.Summary) }
    if _, err := os.Stat(plan.Summary.OutputDocument); err != nil { t.Fatalf("document not written: %v", err) }

    // list
    rr := httptest.NewRecorder()
    s.PlansHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans", nil))
    if rr.Code != 200 { t.Fatalf("list plans: got %d", rr.Code) }
    var idx struct{ Items []model.Plan `json:"items"` }
    if err := json.Unmarshal(rr.Body.Bytes(), &idx); err != nil { t.Fatalf("decode list: %v", err) }
    if len(idx.Items) != 1 || idx.Items[0].ID != plan.ID { t.Fatalf("unexpected list: %+v", idx.Items) }

    // get by id
    rr = httptest.NewRecorder()
    s.PlanByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans/"+plan.ID, nil))
    if rr.Code != 200 { t.Fatalf("get plan: got %d", rr.Code) }

    // summary
    rr = httptest.NewRecorder()
    s.PlanByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans/"+plan.ID+"/summary", nil))
    if rr.Code != 200 { t.Fatalf("summary: got %d", rr.Code) }
    var sum model.PlanSummary
    if err := json.Unmarshal(rr.Body.Bytes(), &sum); err != nil { t.Fatalf("decode summary: %v", err) }
    if len(sum.Changes) != 2 { t.Fatalf("summary changes = %d, want 2", len(sum.Changes)) }

    // document bytes
    rr = httptest.NewRecorder()
    s.PlanByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans/"+plan.ID+"/document", nil))
    if rr.Code != 200 { t.Fatalf("document: got %d", rr.Code) }
    if ct := rr.Header().Get("Content-Type"); !strings.Contains(ct, "wordprocessingml") { t.Fatalf("document content type: %s", ct) }

    // first day map
    rr = httptest.NewRecorder()
    s.PlanByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans/"+plan.ID+"/maps/1", nil))
    if rr.Code != 200 { t.Fatalf("map: got %d", rr.Code) }
    if !strings.Contains(rr.Body.String(), "leaflet") { t.Fatalf("map is not a leaflet page") }

    // run metrics
    rr = httptest.NewRecorder()
    s.PlanByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans/"+plan.ID+"/metrics", nil))
    if rr.Code != 200 { t.Fatalf("metrics: got %d", rr.Code) }
    var mres struct{ Metrics map[string]any `json:"metrics"` }
    if err := json.Unmarshal(rr.Body.Bytes(), &mres); err != nil { t.Fatalf("decode metrics: %v", err) }
    if mres.Metrics["days"].(float64) != 2 { t.Fatalf("metrics days = %v", mres.Metrics["days"]) }
}

func TestPlanCreateFromDays(t *testing.T) {
    s := newTestServer(t)
    body, _ := json.Marshal(map[string]any{"days": []map[string]any{
        {"title": "Day 1 - Arrival", "lines": []string{"Carnaby Street then Covent Garden"}},
    }})
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/plans", bytes.NewReader(body))
    req.Header.Set("Content-Type", "application/json")
    s.PlansHandler(rr, req)
    if rr.Code != http.StatusCreated { t.Fatalf("create: got %d: %s", rr.Code, rr.Body.String()) }
    var plan model.Plan
    if err := json.Unmarshal(rr.Body.Bytes(), &plan); err != nil { t.Fatalf("decode: %v", err) }
    if len(plan.Days) != 1 || plan.Days[0].Section.Theme != model.ThemeArrival {
        t.Fatalf("unexpected days: %+v", plan.Days)
    }
}

func TestPlanCreateRBAC(t *testing.T) {
    s := newTestServer(t)
    body, _ := json.Marshal(map[string]any{"text": twoDayPlanText})
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/plans", bytes.NewReader(body))
    req.Header.Set("X-Role", "viewer")
    s.PlansHandler(rr, req)
    if rr.Code != http.StatusForbidden { t.Fatalf("viewer create: got %d", rr.Code) }
}

func TestPlanCreateInvalid(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/plans", bytes.NewReader([]byte(`{}`)))
    s.PlansHandler(rr, req)
    if rr.Code != http.StatusBadRequest { t.Fatalf("empty create: got %d", rr.Code) }
    if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" { t.Fatalf("content type: %s", ct) }
    var prob Problem
    if err := json.Unmarshal(rr.Body.Bytes(), &prob); err != nil { t.Fatalf("decode problem: %v", err) }
    if prob.Status != 400 || prob.Title == "" { t.Fatalf("unexpected problem: %+v", prob) }

    // text without any day markers parses to zero days
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/v1/plans", bytes.NewReader([]byte(`{"text":"just a note"}`)))
    s.PlansHandler(rr, req)
    if rr.Code != http.StatusBadRequest { t.Fatalf("no days: got %d", rr.Code) }

    // explicit timeline with a malformed time token
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/v1/plans", bytes.NewReader([]byte(`{"days":[{"title":"Day 1","timeline":[{"time":"abc"}]}]}`)))
    s.PlansHandler(rr, req)
    if rr.Code != http.StatusBadRequest { t.Fatalf("bad timeline: got %d", rr.Code) }
}

func TestPlanNotFound(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.PlanByIDHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/plans/nope", nil))
    if rr.Code != http.StatusNotFound { t.Fatalf("got %d", rr.Code) }
}

func TestCatalogEndpoints(t *testing.T) {
    s := newTestServer(t)
    rr := httptest.NewRecorder()
    s.CatalogHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/catalog/locations", nil))
    if rr.Code != 200 { t.Fatalf("catalog: got %d", rr.Code) }
    var res struct {
        Items []model.LocationEntry `json:"items"`
        Count int                   `json:"count"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil { t.Fatalf("decode: %v", err) }
    if res.Count == 0 || res.Count != len(res.Items) { t.Fatalf("bad count: %+v", res.Count) }

    rr = httptest.NewRecorder()
    s.CatalogHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/catalog/locations?category=museum", nil))
    if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil { t.Fatalf("decode: %v", err) }
    if len(res.Items) == 0 { t.Fatal("no museums") }
    for _, e := range res.Items {
        if e.Category != model.CategoryMuseum { t.Fatalf("category filter leaked %s", e.Name) }
    }

    // exact name, then alias through the resolver
    rr = httptest.NewRecorder()
    s.CatalogByNameHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/catalog/locations/British%20Museum", nil))
    if rr.Code != 200 { t.Fatalf("by name: got %d", rr.Code) }
    rr = httptest.NewRecorder()
    s.CatalogByNameHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/catalog/locations/heathrow", nil))
    if rr.Code != 200 { t.Fatalf("by alias: got %d", rr.Code) }
    var loc struct{ Location model.LocationEntry `json:"location"` }
    if err := json.Unmarshal(rr.Body.Bytes(), &loc); err != nil { t.Fatalf("decode: %v", err) }
    if loc.Location.Name != "Heathrow Airport" { t.Fatalf("alias resolved to %q", loc.Location.Name) }

    rr = httptest.NewRecorder()
    s.CatalogByNameHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/catalog/locations/atlantis", nil))
    if rr.Code != http.StatusNotFound { t.Fatalf("unknown name: got %d", rr.Code) }
}

func TestEstimateHandler(t *testing.T) {
    s := newTestServer(t)
    q := url.Values{"from": {"Covent Garden"}, "to": {"Carnaby Street"}}
    rr := httptest.NewRecorder()
    s.EstimateHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/estimate?"+q.Encode(), nil))
    if rr.Code != 200 { t.Fatalf("estimate: got %d: %s", rr.Code, rr.Body.String()) }
    var res struct {
        From    string  `json:"from"`
        To      string  `json:"to"`
        Minutes float64 `json:"minutes"`
    }
    if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil { t.Fatalf("decode: %v", err) }
    if res.Minutes <= 0 { t.Fatalf("minutes = %v", res.Minutes) }

    rr = httptest.NewRecorder()
    s.EstimateHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/estimate?from=Covent%20Garden", nil))
    if rr.Code != http.StatusBadRequest { t.Fatalf("missing to: got %d", rr.Code) }

    q = url.Values{"from": {"Covent Garden"}, "to": {"atlantis"}}
    rr = httptest.NewRecorder()
    s.EstimateHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/estimate?"+q.Encode(), nil))
    if rr.Code != http.StatusNotFound { t.Fatalf("unknown to: got %d", rr.Code) }
}

func TestSubscriptionsAndDeliveries(t *testing.T) {
    s := newTestServer(t)
    subBody := []byte(`{"url":"https://example.invalid/webhook","events":["plan.completed"],"secret":"shh"}`)
    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/v1/subscriptions", bytes.NewReader(subBody))
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("X-Role", "admin")
    s.SubscriptionsHandler(rr, req)
    if rr.Code != http.StatusCreated { t.Fatalf("create sub: got %d: %s", rr.Code, rr.Body.String()) }

    // viewers cannot manage subscriptions
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil)
    req.Header.Set("X-Role", "viewer")
    s.SubscriptionsHandler(rr, req)
    if rr.Code != http.StatusForbidden { t.Fatalf("viewer list subs: got %d", rr.Code) }

    createTestPlan(t, s)

    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodGet, "/v1/admin/webhook-deliveries?limit=10", nil)
    req.Header.Set("X-Role", "admin")
    s.WebhookDeliveriesHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("deliveries: got %d", rr.Code) }
    var dres struct{ Items []map[string]any `json:"items"` }
    if err := json.Unmarshal(rr.Body.Bytes(), &dres); err != nil { t.Fatalf("decode deliveries: %v", err) }
    if len(dres.Items) != 1 { t.Fatalf("deliveries = %d, want 1", len(dres.Items)) }
    if et, _ := dres.Items[0]["eventType"].(string); et != "plan.completed" { t.Fatalf("eventType = %q", et) }

    // delete the subscription
    var sub model.Subscription
    rr2 := httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil)
    req.Header.Set("X-Role", "admin")
    s.SubscriptionsHandler(rr2, req)
    var sres struct{ Items []model.Subscription `json:"items"` }
    if err := json.Unmarshal(rr2.Body.Bytes(), &sres); err != nil || len(sres.Items) == 0 { t.Fatalf("list subs: %v %+v", err, sres) }
    sub = sres.Items[0]
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil)
    req.Header.Set("X-Role", "admin")
    s.SubscriptionByIDHandler(rr, req)
    if rr.Code != 204 { t.Fatalf("delete sub: got %d", rr.Code) }
}

func TestAdminEndpointsRBAC(t *testing.T) {
    s := newTestServer(t)
    for _, tc := range []struct {
        name string
        call func(w http.ResponseWriter, r *http.Request)
        req  *http.Request
    }{
        {"deliveries", s.WebhookDeliveriesHandler, httptest.NewRequest(http.MethodGet, "/v1/admin/webhook-deliveries", nil)},
        {"metrics", s.WebhookMetricsHandler, httptest.NewRequest(http.MethodGet, "/v1/admin/webhook-metrics", nil)},
        {"dlq", s.WebhookDLQHandler, httptest.NewRequest(http.MethodGet, "/v1/admin/webhook-dlq", nil)},
    } {
        rr := httptest.NewRecorder()
        tc.req.Header.Set("X-Role", "planner")
        tc.call(rr, tc.req)
        if rr.Code != http.StatusForbidden { t.Fatalf("%s as planner: got %d", tc.name, rr.Code) }
    }
}

func TestGraphQLHTTP(t *testing.T) {
    s := newTestServer(t)
    plan := createTestPlan(t, s)

    rr := httptest.NewRecorder()
    req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader([]byte(`{"query":"query { plans }"}`)))
    req.Header.Set("Content-Type", "application/json")
    s.GraphQLHTTPHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("graphql plans: got %d", rr.Code) }
    if !strings.Contains(rr.Body.String(), plan.ID) { t.Fatalf("plans query missing plan id") }

    qb, _ := json.Marshal(map[string]any{
        "query":     "query($id: ID!) { plan(id: $id) }",
        "variables": map[string]any{"id": plan.ID},
    })
    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(qb))
    req.Header.Set("Content-Type", "application/json")
    s.GraphQLHTTPHandler(rr, req)
    if rr.Code != 200 { t.Fatalf("graphql plan: got %d", rr.Code) }

    rr = httptest.NewRecorder()
    req = httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader([]byte(`{"query":"mutation { nope }"}`)))
    s.GraphQLHTTPHandler(rr, req)
    if rr.Code != http.StatusBadRequest { t.Fatalf("unsupported query: got %d", rr.Code) }
}

// sseRecorder is a minimal ResponseWriter that implements http.Flusher
// and captures writes for SSE tests. Writes come from the handler
// goroutine while the test polls, hence the mutex.
type sseRecorder struct {
    mu   sync.Mutex
    hdr  http.Header
    buf  bytes.Buffer
    code int
}

func (r *sseRecorder) Header() http.Header { if r.hdr == nil { r.hdr = http.Header{} }; return r.hdr }
func (r *sseRecorder) WriteHeader(c int) { r.code = c }
func (r *sseRecorder) Write(p []byte) (int, error) { r.mu.Lock(); defer r.mu.Unlock(); return r.buf.Write(p) }
func (r *sseRecorder) Flush() {}

func (r *sseRecorder) bytes() []byte {
    r.mu.Lock(); defer r.mu.Unlock()
    return append([]byte(nil), r.buf.Bytes()...)
}

func TestPlanEventsSSE(t *testing.T) {
    s := newTestServer(t)
    plan := createTestPlan(t, s)

    sseReq := httptest.NewRequest(http.MethodGet, "/v1/plans/"+plan.ID+"/events/stream", nil)
    ctx, cancel := context.WithTimeout(context.Background(), time.Second)
    defer cancel()
    sseReq = sseReq.WithContext(ctx)

    rec := &sseRecorder{}
    done := make(chan struct{})
    go func() {
        s.PlanByIDHandler(rec, sseReq)
        close(done)
    }()

    // Give the handler time to subscribe and send the first heartbeat
    time.Sleep(50 * time.Millisecond)
    s.Broker.Publish(plan.ID, SSEEvent{Type: "day.scheduled", Data: map[string]any{"planId": plan.ID, "day": 1}})

    deadline := time.Now().Add(500 * time.Millisecond)
    for time.Now().Before(deadline) {
        if bytes.Contains(rec.bytes(), []byte("event: day.scheduled")) {
            break
        }
        time.Sleep(10 * time.Millisecond)
    }
    if !bytes.Contains(rec.bytes(), []byte("event: day.scheduled")) {
        t.Fatalf("SSE did not contain expected event. Body: %s", rec.bytes())
    }
    if !bytes.Contains(rec.bytes(), []byte("event: heartbeat")) {
        t.Fatal("SSE missing initial heartbeat")
    }
    cancel()
    select {
    case <-done:
    case <-time.After(200 * time.Millisecond):
        t.Fatal("handler did not exit after cancel")
    }
}
