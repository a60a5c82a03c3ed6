// Package config implements TOML configuration loading and validation for
// gdocs-mcp. Values resolve through a three-layer override chain:
// defaults -> config file -> environment variables.
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	OAuth   OAuthConfig   `toml:"oauth"`
	Redis   RedisConfig   `toml:"redis"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
	Network NetworkConfig `toml:"network"`
}

// ServerConfig controls the HTTP surface. public_url is the externally
// reachable base URL; the OAuth redirect URL is derived from it, so it must
// match the redirect URI registered with the provider.
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
	PublicURL  string `toml:"public_url"`
}

// OAuthConfig is the OAuth client registration this process acts as and
// the TTL bound on in-flight handshakes.
type OAuthConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	StateTTL     string `toml:"state_ttl"`
}

// RedisConfig locates the redis instance backing the pending-authorization
// state store. An empty addr falls back to an in-process store, which is
// only suitable for single-instance development.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// StorageConfig locates the grant database and the key that seals
// credential pairs at rest. sealing_key is 32 bytes, hex-encoded.
type StorageConfig struct {
	DatabasePath string `toml:"database_path"`
	SealingKey   string `toml:"sealing_key"`
}

// LoggingConfig controls log output: level and format ("text", "json", or
// "auto" which picks by terminal detection).
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// NetworkConfig controls outbound HTTP client behavior.
type NetworkConfig struct {
	Timeout string `toml:"timeout"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:8080",
			PublicURL:  "http://localhost:8080",
		},
		OAuth: OAuthConfig{
			StateTTL: "10m",
		},
		Storage: StorageConfig{
			DatabasePath: "gdocs-mcp.db",
		},
		Logging: LoggingConfig{
			LogLevel:  "info",
			LogFormat: "auto",
		},
		Network: NetworkConfig{
			Timeout: "30s",
		},
	}
}
