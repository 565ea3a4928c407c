package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("form:\n  document: site.html\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected addr %s", cfg.Addr())
	}
	if cfg.Form.Section != ".resmodData" || !cfg.Form.Watch {
		t.Fatalf("unexpected form defaults: %+v", cfg.Form)
	}
	if cfg.Server.ReadTimeout != 30*time.Second || cfg.Store.Dir != "submissions" {
		t.Fatalf("unexpected defaults: %+v %+v", cfg.Server, cfg.Store)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Path != "/metrics" {
		t.Fatalf("metrics should default on at /metrics: %+v", cfg.Metrics)
	}
}

func TestParseValidates(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "missing document", yaml: "server:\n  port: 9000\n", want: "Document"},
		{name: "bad policy", yaml: "form:\n  document: a.html\n  merge_policy: newest\n", want: "MergePolicy"},
		{name: "bad format", yaml: "form:\n  document: a.html\nlogging:\n  format: xml\n", want: "Format"},
		{name: "bad port", yaml: "form:\n  document: a.html\nserver:\n  port: 70000\n", want: "Port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected validation error mentioning %s, got %v", tt.want, err)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FORMSYNC_SERVER_PORT", "9090")
	t.Setenv("FORMSYNC_FORM_MERGE_POLICY", "strict")
	t.Setenv("FORMSYNC_METRICS_ENABLED", "false")
	t.Setenv("FORMSYNC_FORM_TEMPLATES_DIR", "/srv/formsync/templates")

	cfg, err := Parse([]byte("form:\n  document: site.html\nserver:\n  port: 8000\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Server.Port != 9090 || cfg.Form.MergePolicy != "strict" || cfg.Metrics.Enabled {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Form.TemplatesDir != "/srv/formsync/templates" {
		t.Fatalf("templates dir override not applied: %q", cfg.Form.TemplatesDir)
	}
}

func TestParseTemplatesDir(t *testing.T) {
	cfg, err := Parse([]byte("form:\n  document: site.html\n  templates_dir: ./theme\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Form.TemplatesDir != "./theme" {
		t.Fatalf("expected templates dir, got %q", cfg.Form.TemplatesDir)
	}
}

func TestLoadWithFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "formsync.yaml")
	if err := os.WriteFile(path, []byte("form:\n  document: ${FORM_DOC}\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("FORM_DOC", "expanded.html")

	cfg, err := LoadWithFallback(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Form.Document != "expanded.html" {
		t.Fatalf("expected env expansion, got %q", cfg.Form.Document)
	}

	if _, err := LoadWithFallback(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error without file or env")
	}

	t.Setenv("FORMSYNC_FORM_DOCUMENT", "env.html")
	cfg, err = LoadWithFallback(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("env fallback: %v", err)
	}
	if cfg.Form.Document != "env.html" {
		t.Fatalf("expected env document, got %q", cfg.Form.Document)
	}
}
