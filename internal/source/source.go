// Package source resolves plan references into raw documents. A reference
// is either a local file path or an http(s) URL; loaders are tried in order
// and the first one that claims the reference fetches it.
package source

import (
    "context"
    "fmt"
    "io"
    "net/http"
    "os"
    "path"
    "path/filepath"
    "strings"
    "time"
)

// maxFetchBytes caps how much of a remote response body a loader reads.
const maxFetchBytes = 8 << 20

// Loader fetches plan documents for one kind of reference.
type Loader interface {
    Name() string
    Matches(ref string) bool
    Fetch(ctx context.Context, ref string) (Document, error)
}

// Document is a fetched plan. Name keeps the base name of the reference so
// callers can sniff the format.
type Document struct {
    Name string
    Data []byte
}

// Loaders returns the default chain: http(s) URLs first, local files last.
func Loaders() []Loader {
    return []Loader{HTTPLoader{}, FileLoader{}}
}

// Resolve fetches ref with the first matching loader.
func Resolve(ctx context.Context, ref string) (Document, error) {
    for _, l := range Loaders() {
        if l.Matches(ref) {
            doc, err := l.Fetch(ctx, ref)
            if err != nil {
                return Document{}, fmt.Errorf("%s source: %w", l.Name(), err)
            }
            return doc, nil
        }
    }
    return Document{}, fmt.Errorf("no loader for %q", ref)
}

// FileLoader reads plans from the local filesystem.
type FileLoader struct{}

func (f FileLoader) Name() string { return "file" }

func (f FileLoader) Matches(ref string) bool { return !strings.Contains(ref, "://") }

func (f FileLoader) Fetch(ctx context.Context, ref string) (Document, error) {
    data, err := os.ReadFile(ref)
    if err != nil {
        return Document{}, err
    }
    return Document{Name: filepath.Base(ref), Data: data}, nil
}

// HTTPLoader fetches plans over http(s).
type HTTPLoader struct {
    Client *http.Client
}

func (h HTTPLoader) Name() string { return "http" }

func (h HTTPLoader) Matches(ref string) bool {
    return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func (h HTTPLoader) Fetch(ctx context.Context, ref string) (Document, error) {
    client := h.Client
    if client == nil {
        client = &http.Client{Timeout: 20 * time.Second}
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
    if err != nil {
        return Document{}, err
    }
    resp, err := client.Do(req)
    if err != nil {
        return Document{}, err
    }
    defer func() { _ = resp.Body.Close() }()
    if resp.StatusCode != http.StatusOK {
        return Document{}, fmt.Errorf("GET %s: status %d", ref, resp.StatusCode)
    }
    data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
    if err != nil {
        return Document{}, err
    }
    // Redirects may land on a different path than the one requested.
    name := path.Base(resp.Request.URL.Path)
    if name == "." || name == "/" {
        name = "plan"
    }
    return Document{Name: name, Data: data}, nil
}
