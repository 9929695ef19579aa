package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("failed to parse default config: %v", err)
	}

	if cfg.Defaults.Brand != "Acme CRM" {
		t.Errorf("expected brand 'Acme CRM', got %q", cfg.Defaults.Brand)
	}
	if len(cfg.Defaults.Competitors) != 3 {
		t.Errorf("expected 3 competitors, got %d", len(cfg.Defaults.Competitors))
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %s", cfg.API.Timeout)
	}
	if cfg.API.APIKeyEnv != "RAPIDAPI_KEY" {
		t.Errorf("expected api_key_env RAPIDAPI_KEY, got %q", cfg.API.APIKeyEnv)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected port 8000, got %d", cfg.Server.Port)
	}
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
defaults:
  brand: MailPro
  freshness: realtime
server:
  port: 9000
`)
	cfg, err := parse(data)
	if err != nil {
		t.Fatalf("failed to parse minimal config: %v", err)
	}

	if cfg.Defaults.Brand != "MailPro" {
		t.Errorf("expected brand 'MailPro', got %q", cfg.Defaults.Brand)
	}
	if cfg.Defaults.Freshness != "realtime" {
		t.Errorf("expected freshness 'realtime', got %q", cfg.Defaults.Freshness)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	// Defaults should still be set for unspecified fields
	if cfg.Defaults.MaxThreads != 10 {
		t.Errorf("expected default max_threads 10, got %d", cfg.Defaults.MaxThreads)
	}
	if cfg.Defaults.MinTraffic != 500 {
		t.Errorf("expected default min_traffic 500, got %d", cfg.Defaults.MinTraffic)
	}
	if !cfg.Storage.Enabled {
		t.Error("expected storage enabled by default")
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"freshness":   "defaults:\n  freshness: weekly\n",
		"max_threads": "defaults:\n  max_threads: 21\n",
		"timeout":     "api:\n  timeout: 0s\n",
		"port":        "server:\n  port: 70000\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parse([]byte(data)); err == nil {
				t.Errorf("expected error for invalid %s", name)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, DefaultConfigYAML, 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Defaults.Competitors) == 0 {
		t.Error("expected competitors to be populated from file")
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.API.Host != "reddit-traffic-and-intelligence-api.p.rapidapi.com" {
		t.Errorf("unexpected default host %q", cfg.API.Host)
	}
}

func TestResolveExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("REDRANKS_TEST_KEY", "  secret  ")
	cfg := &Config{API: API{APIKeyEnv: "REDRANKS_TEST_KEY"}}
	if cfg.APIKey() != "secret" {
		t.Errorf("expected trimmed key, got %q", cfg.APIKey())
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	defaultDir := cfg.GetDataDir()
	if defaultDir == "" {
		t.Error("expected non-empty default data dir")
	}

	cfg.Storage.DataDir = "/custom/path"
	if cfg.GetDataDir() != "/custom/path" {
		t.Errorf("expected '/custom/path', got %q", cfg.GetDataDir())
	}
}

func TestGetDataDirExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg := &Config{Storage: Storage{DataDir: "~/.local/share/redranks"}}
	want := filepath.Join(home, ".local", "share", "redranks")
	if got := cfg.GetDataDir(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	cfg.Storage.DataDir = "~"
	if got := cfg.GetDataDir(); got != home {
		t.Errorf("expected %q, got %q", home, got)
	}

	cfg.Storage.DataDir = "data/~cache"
	if got := cfg.GetDataDir(); got != "data/~cache" {
		t.Errorf("expected path unchanged, got %q", got)
	}
}
