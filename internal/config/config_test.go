package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFiles(filepath.Join(dir, "config.yaml"), filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := DefaultConfig()
	if cfg.Server.Addr != def.Server.Addr || cfg.Database.Path != def.Database.Path || cfg.Redis.Enabled {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "hub.yaml", `
server:
  addr: ":9090"
  mode: debug
database:
  path: /tmp/x.db
redis:
  enabled: true
  addr: "cache:6379"
  ttl: 5m
`)
	t.Setenv("HUB_REDIS_ADDR", "override:6379")
	t.Setenv("HUB_CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("HUB_LOG_LEVEL", "debug")

	cfg, err := LoadFiles(path, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" || cfg.Server.Mode != "debug" || cfg.Database.Path != "/tmp/x.db" {
		t.Fatalf("file values not applied: %+v", cfg.Server)
	}
	if !cfg.Redis.Enabled || cfg.Redis.TTL != 5*time.Minute || cfg.Redis.Addr != "override:6379" {
		t.Fatalf("redis = %+v", cfg.Redis)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("cors origins = %q", cfg.Server.CORSOrigins)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("log level = %q", cfg.Log.Level)
	}
	if cfg.Seed.Username != DefaultConfig().Seed.Username {
		t.Fatalf("unset section lost its defaults: %+v", cfg.Seed)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	env := writeFile(t, dir, ".env", "HUB_DB_PATH=from-dotenv.db\n")
	t.Cleanup(func() { os.Unsetenv("HUB_DB_PATH") })

	cfg, err := LoadFiles(filepath.Join(dir, "missing.yaml"), env)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Path != "from-dotenv.db" {
		t.Fatalf("db path = %q", cfg.Database.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, false},
		{"empty db", func(c *Config) { c.Database.Path = "" }, false},
		{"bad mode", func(c *Config) { c.Server.Mode = "prod" }, false},
		{"negative waitlist rate", func(c *Config) { c.Server.WaitlistRPS = -1 }, false},
		{"redis without ttl", func(c *Config) { c.Redis.Enabled = true; c.Redis.TTL = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err == nil) != tt.ok {
				t.Fatalf("Validate() = %v, ok=%v", err, tt.ok)
			}
		})
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "bad.yaml", "server: [unclosed")
	if _, err := LoadFiles(path, ""); err == nil {
		t.Fatal("expected parse error")
	}
}
