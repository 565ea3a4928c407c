package source_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/goliatone/go-formsync/internal/source"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "form.html")
	if err := os.WriteFile(path, []byte("<form></form>"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, err := source.New().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != "<form></form>" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestLoadFS(t *testing.T) {
	files := fstest.MapFS{"specs/api.yaml": {Data: []byte("openapi: 3.0.3")}}
	loader := source.New(source.WithFileSystem(files))

	if loader.KindOf("specs/api.yaml") != source.KindFS {
		t.Fatalf("expected fs kind")
	}
	data, err := loader.Load(context.Background(), "specs/api.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != "openapi: 3.0.3" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestLoadHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"a":1}`))
	}))
	defer server.Close()

	if _, err := source.New().Load(context.Background(), server.URL); !errors.Is(err, source.ErrHTTPDisabled) {
		t.Fatalf("expected ErrHTTPDisabled, got %v", err)
	}

	loader := source.New(source.WithHTTP(time.Second))
	data, err := loader.Load(context.Background(), server.URL+"/values.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `{"a":1}` {
		t.Fatalf("unexpected content %q", data)
	}
	if _, err := loader.Load(context.Background(), server.URL+"/missing"); err == nil {
		t.Fatalf("expected error for 404")
	}
}
