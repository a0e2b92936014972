package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	c := Default()
	if c.App.Env != "dev" {
		t.Fatalf("expected dev env, got %q", c.App.Env)
	}
	if c.Server.Addr != ":8080" {
		t.Fatalf("expected :8080, got %q", c.Server.Addr)
	}
	if c.Storage.Driver != "memory" {
		t.Fatalf("expected memory driver, got %q", c.Storage.Driver)
	}
	if c.CacheTTL() != 30*time.Second {
		t.Fatalf("expected 30s TTL, got %v", c.CacheTTL())
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
app:
  env: prod
  log_level: warn
server:
  addr: ":9090"
storage:
  driver: postgres
  dsn: postgres://localhost/dir
  postgres:
    max_open_conns: 16
cache:
  kind: redis
  ttl: 5s
  redis:
    addr: localhost:6379
    prefix: "dir:"
admin:
  api_key: sekret
  enforce: true
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.App.Env != "prod" || c.App.LogLevel != "warn" {
		t.Fatalf("app section: %+v", c.App)
	}
	if c.Server.Addr != ":9090" {
		t.Fatalf("server addr: %q", c.Server.Addr)
	}
	if c.Storage.Driver != "postgres" || c.Storage.Postgres.MaxOpenConns != 16 {
		t.Fatalf("storage section: %+v", c.Storage)
	}
	if c.Cache.Kind != "redis" || c.CacheTTL() != 5*time.Second {
		t.Fatalf("cache section: %+v", c.Cache)
	}
	if !c.Admin.Enforce || c.Admin.APIKey != "sekret" {
		t.Fatalf("admin section: %+v", c.Admin)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SERVER_ADDR", ":7070")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("ADMIN_ENFORCE", "true")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Server.Addr != ":7070" {
		t.Fatalf("env should override YAML, got %q", c.Server.Addr)
	}
	if c.Storage.Driver != "postgres" {
		t.Fatalf("env driver, got %q", c.Storage.Driver)
	}
	if !c.Admin.Enforce {
		t.Fatal("env ADMIN_ENFORCE should apply")
	}
}

func TestCacheTTLFallback(t *testing.T) {
	c := Default()
	c.Cache.TTL = "not-a-duration"
	if c.CacheTTL() != 30*time.Second {
		t.Fatalf("expected fallback TTL, got %v", c.CacheTTL())
	}
}
