package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, applies environment overrides,
// and validates the result. Unknown keys are fatal errors — silently
// ignoring a typo in a config file leads to hard-to-debug behavior.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(md); err != nil {
		return nil, err
	}

	applyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns a
// Config built from defaults plus environment overrides. This supports a
// config-file-free deployment where everything arrives via environment.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := DefaultConfig()
		applyEnv(cfg)

		if err := Validate(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}

// checkUnknownKeys rejects config keys that decoded into nothing.
func checkUnknownKeys(md toml.MetaData) error {
	undecoded := md.Undecoded()
	if len(undecoded) == 0 {
		return nil
	}

	keys := make([]string, len(undecoded))
	for i, k := range undecoded {
		keys[i] = k.String()
	}

	return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
}

// applyEnv overlays GDOCS_* environment variables onto cfg. Environment
// wins over file values so secrets can stay out of the config file.
func applyEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	set(&cfg.Server.ListenAddr, "GDOCS_LISTEN_ADDR")
	set(&cfg.Server.PublicURL, "GDOCS_PUBLIC_URL")
	set(&cfg.OAuth.ClientID, "GDOCS_CLIENT_ID")
	set(&cfg.OAuth.ClientSecret, "GDOCS_CLIENT_SECRET")
	set(&cfg.Redis.Addr, "GDOCS_REDIS_ADDR")
	set(&cfg.Redis.Password, "GDOCS_REDIS_PASSWORD")
	set(&cfg.Storage.DatabasePath, "GDOCS_DB_PATH")
	set(&cfg.Storage.SealingKey, "GDOCS_SEALING_KEY")
	set(&cfg.Logging.LogLevel, "GDOCS_LOG_LEVEL")
}
