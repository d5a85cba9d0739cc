package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" || cfg.API.Port != 3000 {
		t.Errorf("api defaults = %s:%d", cfg.API.Host, cfg.API.Port)
	}
	if cfg.Session.CookieName != "qid" {
		t.Errorf("cookie name = %q", cfg.Session.CookieName)
	}
	if got := cfg.Session.TTLDuration(); got != 7*24*time.Hour {
		t.Errorf("ttl = %v, want 168h", got)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[api]
port = 8080
enable_metrics = true

[session]
ttl = "24h"
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 8080 || !cfg.API.EnableMetrics {
		t.Errorf("api = %+v", cfg.API)
	}
	if got := cfg.Session.TTLDuration(); got != 24*time.Hour {
		t.Errorf("ttl = %v, want 24h", got)
	}
	// Untouched sections keep their defaults.
	if cfg.API.Host != "127.0.0.1" || cfg.Session.CookieName != "qid" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("not [valid toml"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed file")
	}
}

func TestTTLDuration_BadValueFallsBack(t *testing.T) {
	for _, ttl := range []string{"", "banana", "-5h", "0s"} {
		s := SessionConfig{TTL: ttl}
		if got := s.TTLDuration(); got != 7*24*time.Hour {
			t.Errorf("TTLDuration(%q) = %v, want 168h fallback", ttl, got)
		}
	}
}

func TestHomeRespectsOverride(t *testing.T) {
	t.Setenv("QUESTKEEP_HOME", "/srv/questkeep")

	if got := DefaultPath(); got != "/srv/questkeep/.questkeep/config.toml" {
		t.Errorf("DefaultPath = %q", got)
	}
	if got := DefaultConfig().Storage.Path; got != "/srv/questkeep/.questkeep/questkeep.db" {
		t.Errorf("storage path = %q", got)
	}
}
