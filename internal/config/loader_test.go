package config

import (
	"os"
	"path/filepath"
	"testing"

	havenErrors "github.com/haven-oss/haven/internal/errors"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Name != "haven" {
		t.Errorf("expected default name 'haven', got %q", cfg.Name)
	}
	if !cfg.Session.UseEncryption {
		t.Error("expected encryption enabled by default")
	}
	if len(cfg.Session.TransportPriority) != 3 || cfg.Session.TransportPriority[0] != "edge" {
		t.Errorf("unexpected default priority: %v", cfg.Session.TransportPriority)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("expected sqlite driver, got %q", cfg.Storage.Driver)
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	content := `
name: my-haven
session:
  use_encryption: false
  transport_priority: [local]
  storage_mode: local
  context_depth: 5
storage:
  driver: memory
memory:
  immediate_limit: 10
`
	if err := os.WriteFile(filepath.Join(dir, "haven.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Name != "my-haven" {
		t.Errorf("expected name 'my-haven', got %q", cfg.Name)
	}
	if cfg.Session.UseEncryption {
		t.Error("expected encryption disabled")
	}
	if cfg.Session.ContextDepth != 5 {
		t.Errorf("expected context depth 5, got %d", cfg.Session.ContextDepth)
	}
	if cfg.Memory.ImmediateLimit != 10 {
		t.Errorf("expected immediate limit 10, got %d", cfg.Memory.ImmediateLimit)
	}
	// Defaults still applied for unset fields.
	if cfg.Session.ChannelTimeout != "5s" {
		t.Errorf("expected default channel timeout, got %q", cfg.Session.ChannelTimeout)
	}
}

func TestLoad_EnvInterpolation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HAVEN_TEST_DB", "/tmp/custom.db")

	content := `
storage:
  driver: sqlite
  path: ${env.HAVEN_TEST_DB}
`
	if err := os.WriteFile(filepath.Join(dir, "haven.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Path != "/tmp/custom.db" {
		t.Errorf("expected interpolated path, got %q", cfg.Storage.Path)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown channel", func(c *Config) { c.Session.TransportPriority = []string{"pigeon"} }},
		{"bad storage mode", func(c *Config) { c.Session.StorageMode = "cloud" }},
		{"bad driver", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"bad duration", func(c *Config) { c.Session.ChannelTimeout = "fast" }},
		{"audit hook without path", func(c *Config) {
			c.Hooks.Hooks = []HookConfig{{Name: "a", Type: "audit"}}
		}},
		{"unknown hook type", func(c *Config) {
			c.Hooks.Hooks = []HookConfig{{Name: "w", Type: "webhook"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if havenErrors.AsCode(err) != havenErrors.CodeConfigInvalid {
				t.Errorf("expected CONFIG_INVALID, got %q", havenErrors.AsCode(err))
			}
		})
	}
}

func TestDurationAccessors(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ChannelTimeout().Seconds() != 5 {
		t.Errorf("expected 5s channel timeout, got %v", cfg.ChannelTimeout())
	}

	cfg.Session.ChannelTimeout = "bogus"
	if cfg.ChannelTimeout().Seconds() != 5 {
		t.Error("expected fallback timeout for unparseable value")
	}
}
