package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "london.txt")
	content := "## Day 1 - Arrival\nHeathrow then hotel\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := Resolve(context.Background(), path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if doc.Name != "london.txt" {
		t.Fatalf("name = %q", doc.Name)
	}
	if string(doc.Data) != content {
		t.Fatalf("data = %q", doc.Data)
	}

	if _, err := Resolve(context.Background(), filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestResolveHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/plans/london.txt" {
			w.Write([]byte("## Day 1\nCovent Garden\n"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	doc, err := Resolve(context.Background(), srv.URL+"/plans/london.txt")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if doc.Name != "london.txt" {
		t.Fatalf("name = %q", doc.Name)
	}
	if !strings.Contains(string(doc.Data), "Covent Garden") {
		t.Fatalf("data = %q", doc.Data)
	}

	_, err = Resolve(context.Background(), srv.URL+"/plans/nope.txt")
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestResolveHTTPRootName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("## Day 1\nSoho\n"))
	}))
	defer srv.Close()

	doc, err := Resolve(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if doc.Name != "plan" {
		t.Fatalf("name = %q", doc.Name)
	}
}

func TestLoaderMatches(t *testing.T) {
	cases := []struct {
		ref  string
		http bool
	}{
		{"http://example.com/p.docx", true},
		{"https://example.com/p.txt", true},
		{"/tmp/plan.txt", false},
		{"plans/relative.docx", false},
	}
	for _, c := range cases {
		if got := (HTTPLoader{}).Matches(c.ref); got != c.http {
			t.Errorf("HTTP Matches(%q) = %v", c.ref, got)
		}
		if got := (FileLoader{}).Matches(c.ref); got == c.http {
			t.Errorf("File Matches(%q) = %v", c.ref, got)
		}
	}
}
