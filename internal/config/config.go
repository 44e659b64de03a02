package config

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Cache    CacheConfig    `toml:"cache"`
	Match    MatchConfig    `toml:"match"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
	MCP      MCPConfig      `toml:"mcp"`
}

// DatabaseConfig contains candidate store settings
type DatabaseConfig struct {
	Driver string `toml:"driver"` // sqlite or postgres
	Path   string `toml:"path"`   // sqlite file
	URL    string `toml:"url"`    // postgres connection string, or TALENTMATCH_DATABASE_URL
}

// CacheConfig contains ranked-result cache settings
type CacheConfig struct {
	Enabled    bool   `toml:"enabled"`
	RedisURL   string `toml:"redis_url"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// TTL returns the cache entry lifetime
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// MatchConfig contains ranking settings
type MatchConfig struct {
	// Timezone used to take the date portion of date_joined
	Timezone     string `toml:"timezone"`
	DefaultLimit int    `toml:"default_limit"`
}

// Location resolves the configured timezone, falling back to UTC
func (m MatchConfig) Location() *time.Location {
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil || m.Timezone == "" {
		return time.UTC
	}
	return loc
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr                string `toml:"addr"`
	ReadTimeoutSeconds  int    `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `toml:"write_timeout_seconds"`
}

// LogConfig contains logger settings
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text, logfmt or json
}

// MCPConfig contains MCP server settings
type MCPConfig struct {
	Enabled   bool   `toml:"enabled"`
	Transport string `toml:"transport"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "~/.local/share/talentmatch/talentmatch.db",
		},
		Cache: CacheConfig{
			Enabled:    false,
			RedisURL:   "redis://localhost:6379/0",
			TTLSeconds: 300,
		},
		Match: MatchConfig{
			Timezone:     "UTC",
			DefaultLimit: 50,
		},
		Server: ServerConfig{
			Addr:                ":8642",
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		MCP: MCPConfig{
			Enabled:   true,
			Transport: "stdio",
		},
	}
}
