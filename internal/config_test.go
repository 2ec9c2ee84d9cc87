package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	pkgconfig "github.com/renshaw/smartlinks/pkg/config"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.App.HTTP.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.App.HTTP.Port)
	}
	if !cfg.Catalog.Watch {
		t.Error("watch should default to true")
	}
	if cfg.Auth.AuthEnabled() {
		t.Error("auth should default to disabled")
	}
}

func TestConfig_Load(t *testing.T) {
	t.Setenv("SMARTLINKS_TOKEN", "sekrit")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `app:
  log_level: DEBUG
  http:
    port: 9090
catalog:
  path: /data/catalog
  watch: false
index:
  path: /data/index.db
render:
  default_prefix: movie
auth:
  mode: token
  token: ${SMARTLINKS_TOKEN}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", cfg.App.LogLevel)
	}
	if cfg.App.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.App.HTTP.Port)
	}
	if cfg.Catalog.Path != "/data/catalog" || cfg.Catalog.Watch {
		t.Errorf("catalog = %+v", cfg.Catalog)
	}
	if cfg.Render.DefaultPrefix != "movie" {
		t.Errorf("default prefix = %q", cfg.Render.DefaultPrefix)
	}
	if !cfg.Auth.AuthEnabled() || cfg.Auth.Token != "sekrit" {
		t.Errorf("auth = %+v, want token mode with expanded env", cfg.Auth)
	}
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"bad port", func(c *Config) { c.App.HTTP.Port = 0 }, false},
		{"missing catalog path", func(c *Config) { c.Catalog.Path = "" }, false},
		{"bad auth mode", func(c *Config) { c.Auth.Mode = "basic" }, false},
		{"token mode without token", func(c *Config) { c.Auth.Mode = AuthModeToken }, false},
		{"token mode with token", func(c *Config) { c.Auth.Mode = AuthModeToken; c.Auth.Token = "x" }, true},
	}
	for _, c := range cases {
		cfg := NewDefaultConfig()
		c.mutate(cfg)
		err := cfg.Validate()
		if c.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", c.name, err)
		}
		if !c.ok && err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}
