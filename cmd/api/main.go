package main

import (
    "log"
    "net/http"
    "os"
    "time"

    "github.com/prometheus/client_golang/prometheus/promhttp"

    "github.com/XavierCollard23/LONDON/internal/api"
    "github.com/XavierCollard23/LONDON/internal/metrics"
)

func main() {
    srvDeps, err := api.NewServer()
    if err != nil {
        log.Fatalf("failed to init server: %v", err)
    }

    mux := http.NewServeMux()

    // Plans
    mux.HandleFunc("/v1/plans", srvDeps.PlansHandler)
    mux.HandleFunc("/v1/plans/", srvDeps.PlanByIDHandler) // includes /summary, /document, /maps, /metrics, /events/stream

    // Catalog and estimates
    mux.HandleFunc("/v1/catalog/locations", srvDeps.CatalogHandler)
    mux.HandleFunc("/v1/catalog/locations/", srvDeps.CatalogByNameHandler)
    mux.HandleFunc("/v1/estimate", srvDeps.EstimateHandler)

    // Subscriptions
    mux.HandleFunc("/v1/subscriptions", srvDeps.SubscriptionsHandler)
    mux.HandleFunc("/v1/subscriptions/", srvDeps.SubscriptionByIDHandler)

    // Health
    mux.HandleFunc("/healthz", srvDeps.HealthHandler)
    mux.HandleFunc("/readyz", srvDeps.ReadyHandler)

    // Admin
    mux.HandleFunc("/v1/admin/webhook-deliveries", srvDeps.WebhookDeliveriesHandler)
    mux.HandleFunc("/v1/admin/webhook-deliveries/", srvDeps.WebhookDeliveryRetryHandler)
    mux.HandleFunc("/v1/admin/webhook-metrics", srvDeps.WebhookMetricsHandler)
    mux.HandleFunc("/v1/admin/webhook-dlq", srvDeps.WebhookDLQHandler)
    mux.HandleFunc("/v1/admin/webhook-dlq/", srvDeps.WebhookDLQHandler)

    // Observability and docs
    metrics.RegisterDefault()
    mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
    mux.HandleFunc("/debug/info", srvDeps.DebugJSON)
    mux.HandleFunc("/openapi.yaml", srvDeps.OpenAPIHandler)
    mux.HandleFunc("/docs", srvDeps.DocsHandler)
    mux.HandleFunc("/console", srvDeps.SwaggerHandler)
    mux.HandleFunc("/static/", srvDeps.StaticHandler)

    // GraphQL
    mux.HandleFunc("/graphql", srvDeps.GraphQLHTTPHandler)
    mux.HandleFunc("/graphql/ws", srvDeps.GraphQLWSHandler)

    // GraphQL subscription bridge (SSE) for plan events
    mux.HandleFunc("/graphql/subscriptions/plan-events", func(w http.ResponseWriter, r *http.Request) {
        // bridge to existing SSE handler: /v1/plans/{planId}/events/stream
        id := r.URL.Query().Get("planId")
        if id == "" { http.Error(w, "planId required", http.StatusBadRequest); return }
        // rewrite path and delegate
        r.URL.Path = "/v1/plans/" + id + "/events/stream"
        srvDeps.PlanByIDHandler(w, r)
    })

    addr := ":8080"
    if v := os.Getenv("PORT"); v != "" {
        addr = ":" + v
    }

    srv := &http.Server{
        Addr:              addr,
        Handler:           logMiddleware(api.MetricsMiddleware(api.RateLimitMiddleware(mux))),
        ReadHeaderTimeout: 5 * time.Second,
    }

    log.Printf("API listening on %s", addr)
    // Start webhook worker
    if srvDeps.Pub != nil {
        worker := srvDeps.NewWebhookWorker()
        worker.Start()
    }
    if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
        log.Fatalf("server error: %v", err)
    }
}

func logMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        next.ServeHTTP(w, r)
        dur := time.Since(start)
        log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, dur)
    })
}
