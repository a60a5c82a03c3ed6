package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"time"
)

// sealingKeyBytes is the required decoded length of storage.sealing_key.
const sealingKeyBytes = 32

// Validate checks cross-field constraints and required values. Returns the
// first problem found.
func Validate(cfg *Config) error {
	if cfg.OAuth.ClientID == "" {
		return fmt.Errorf("oauth.client_id is required (or GDOCS_CLIENT_ID)")
	}

	if cfg.OAuth.ClientSecret == "" {
		return fmt.Errorf("oauth.client_secret is required (or GDOCS_CLIENT_SECRET)")
	}

	if _, err := cfg.SealingKey(); err != nil {
		return err
	}

	if _, err := cfg.StateTTL(); err != nil {
		return err
	}

	if _, err := cfg.Timeout(); err != nil {
		return err
	}

	u, err := url.Parse(cfg.Server.PublicURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("server.public_url %q is not an absolute URL", cfg.Server.PublicURL)
	}

	switch cfg.Logging.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.log_level %q is not one of debug, info, warn, error", cfg.Logging.LogLevel)
	}

	switch cfg.Logging.LogFormat {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("logging.log_format %q is not one of auto, text, json", cfg.Logging.LogFormat)
	}

	return nil
}

// SealingKey decodes storage.sealing_key into raw bytes.
func (c *Config) SealingKey() ([]byte, error) {
	key, err := hex.DecodeString(c.Storage.SealingKey)
	if err != nil {
		return nil, fmt.Errorf("storage.sealing_key is not valid hex: %w", err)
	}

	if len(key) != sealingKeyBytes {
		return nil, fmt.Errorf("storage.sealing_key must be %d bytes (%d hex chars), got %d bytes",
			sealingKeyBytes, sealingKeyBytes*2, len(key))
	}

	return key, nil
}

// StateTTL parses oauth.state_ttl.
func (c *Config) StateTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.OAuth.StateTTL)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("oauth.state_ttl %q is not a positive duration", c.OAuth.StateTTL)
	}

	return d, nil
}

// Timeout parses network.timeout.
func (c *Config) Timeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Network.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("network.timeout %q is not a positive duration", c.Network.Timeout)
	}

	return d, nil
}

// RedirectURL derives the OAuth callback URL from the public base URL.
func (c *Config) RedirectURL() string {
	u, _ := url.Parse(c.Server.PublicURL)
	u.Path = "/oauth/callback"

	return u.String()
}
