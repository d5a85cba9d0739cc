// Package daemon holds the server configuration.
package daemon

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the questkeep configuration, loaded from a TOML file.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	Session SessionConfig `toml:"session"`
}

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	CORSOrigin    string `toml:"cors_origin"`
	EnableMetrics bool   `toml:"enable_metrics"`
}

// StorageConfig configures the sqlite store.
type StorageConfig struct {
	Path string `toml:"path"`
}

// SessionConfig configures the browser session cookie.
type SessionConfig struct {
	CookieName string `toml:"cookie_name"`
	TTL        string `toml:"ttl"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:       "127.0.0.1",
			Port:       3000,
			CORSOrigin: "http://localhost:5173",
		},
		Storage: StorageConfig{
			Path: filepath.Join(home(), ".questkeep", "questkeep.db"),
		},
		Session: SessionConfig{
			CookieName: "qid",
			TTL:        "168h",
		},
	}
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist. Values absent from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(home(), ".questkeep", "config.toml")
}

// TTLDuration parses the session TTL, falling back to seven days on a bad or
// missing value.
func (s SessionConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(s.TTL)
	if err != nil || d <= 0 {
		return 7 * 24 * time.Hour
	}
	return d
}

func home() string {
	if env := os.Getenv("QUESTKEEP_HOME"); env != "" {
		return env
	}
	h, _ := os.UserHomeDir()
	return h
}
