package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected Driver=sqlite, got %s", cfg.Database.Driver)
	}

	if cfg.Cache.Enabled {
		t.Error("expected cache to be disabled by default")
	}

	if cfg.Match.DefaultLimit != 50 {
		t.Errorf("expected DefaultLimit=50, got %d", cfg.Match.DefaultLimit)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected default config to be valid, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "unknown driver",
			modify: func(c *Config) {
				c.Database.Driver = "mysql"
			},
			wantErr: true,
		},
		{
			name: "postgres without url",
			modify: func(c *Config) {
				c.Database.Driver = "postgres"
			},
			wantErr: true,
		},
		{
			name: "postgres with url",
			modify: func(c *Config) {
				c.Database.Driver = "postgres"
				c.Database.URL = "postgres://localhost/talentmatch"
			},
			wantErr: false,
		},
		{
			name: "cache enabled with zero ttl",
			modify: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.TTLSeconds = 0
			},
			wantErr: true,
		},
		{
			name: "bad timezone",
			modify: func(c *Config) {
				c.Match.Timezone = "Mars/Olympus_Mons"
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			modify: func(c *Config) {
				c.Log.Level = "chatty"
			},
			wantErr: true,
		},
		{
			name: "invalid mcp transport",
			modify: func(c *Config) {
				c.MCP.Transport = "http"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input    string
		expected string
	}{
		{"~/test", filepath.Join(home, "test")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}

	for _, tt := range tests {
		result, err := expandPath(tt.input)
		if err != nil {
			t.Errorf("expandPath(%q) error: %v", tt.input, err)
		}
		if result != tt.expected {
			t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[database]
driver = "sqlite"
path = "/tmp/tm.db"

[match]
timezone = "America/New_York"
default_limit = 10

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Path != "/tmp/tm.db" {
		t.Errorf("expected Path=/tmp/tm.db, got %s", cfg.Database.Path)
	}
	if cfg.Match.DefaultLimit != 10 {
		t.Errorf("expected DefaultLimit=10, got %d", cfg.Match.DefaultLimit)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected Level=debug, got %s", cfg.Log.Level)
	}
	// untouched sections keep their defaults
	if cfg.Server.Addr != ":8642" {
		t.Errorf("expected Addr=:8642, got %s", cfg.Server.Addr)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected Driver=sqlite, got %s", cfg.Database.Driver)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "postgres://db.internal/talentmatch")
	t.Setenv(EnvRedisURL, "redis://cache.internal:6379/1")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("expected Driver=postgres, got %s", cfg.Database.Driver)
	}
	if !cfg.Cache.Enabled {
		t.Error("expected cache to be enabled by TALENTMATCH_REDIS_URL")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("expected Level=warn, got %s", cfg.Log.Level)
	}
}

func TestMatchLocation(t *testing.T) {
	if loc := (MatchConfig{}).Location(); loc != time.UTC {
		t.Errorf("expected UTC for empty timezone, got %v", loc)
	}
	if loc := (MatchConfig{Timezone: "Europe/Paris"}).Location(); loc.String() != "Europe/Paris" {
		t.Errorf("expected Europe/Paris, got %v", loc)
	}
}

func TestCacheTTL(t *testing.T) {
	cfg := Default()
	if got := cfg.Cache.TTL(); got != 5*time.Minute {
		t.Errorf("TTL() = %v, want 5m", got)
	}
}
