package api

import (
    "context"
    "net/http"
    "os"
    "strings"

    "github.com/XavierCollard23/LONDON/internal/auth"
    "github.com/XavierCollard23/LONDON/internal/catalog"
    "github.com/XavierCollard23/LONDON/internal/engine"
    "github.com/XavierCollard23/LONDON/internal/resolve"
    "github.com/XavierCollard23/LONDON/internal/store"
    "github.com/XavierCollard23/LONDON/internal/webhooks"
)

type Server struct {
    Store  store.Store
    Pub    *webhooks.Publisher
    Auth   *auth.Verifier
    Broker EventBroker
    Engine *engine.Engine
    Res    *resolve.Resolver
    OutDir string
}

// NewServer wires the optimization engine and its platform from the
// environment. Without DATABASE_URL the in-memory store is used; without
// REDIS_URL events stay in-process.
func NewServer() (*Server, error) {
    cat, err := catalog.Default()
    if err != nil {
        return nil, err
    }
    dsn := os.Getenv("DATABASE_URL")
    var s store.Store
    if strings.TrimSpace(dsn) == "" {
        s = store.NewMemory()
    } else {
        sp, err := store.NewPostgres(dsn)
        if err != nil {
            return nil, err
        }
        if os.Getenv("DB_MIGRATE") != "false" {
            if err := sp.MigrateDir("db/migrations"); err != nil {
                return nil, err
            }
        }
        s = sp
    }
    var broker EventBroker
    if os.Getenv("REDIS_URL") != "" {
        if rb, err := NewRedisBroker(); err == nil { broker = rb } else { broker = NewBroker() }
    } else {
        broker = NewBroker()
    }
    outDir := os.Getenv("OUT_DIR")
    if outDir == "" { outDir = "out" }
    return &Server{
        Store:  s,
        Pub:    webhooks.NewPublisher(s),
        Auth:   auth.NewVerifierFromEnv(),
        Broker: broker,
        Engine: engine.New(cat),
        Res:    resolve.New(cat),
        OutDir: outDir,
    }, nil
}

// withTenant resolves the caller's tenant and stores it on the context.
func (s *Server) withTenant(r *http.Request) (context.Context, string) {
    tenant := s.getPrincipal(r).Tenant
    ctx := context.WithValue(r.Context(), ctxKeyTenant{}, tenant)
    return ctx, tenant
}

type ctxKeyTenant struct{}

// NewWebhookWorker creates a background worker for webhook deliveries.
func (s *Server) NewWebhookWorker() *webhooks.Worker {
    return webhooks.NewWorker(s.Store)
}
