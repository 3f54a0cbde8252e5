package probe

import (
	"fmt"
	"net/url"
	"time"
)

const (
	DefaultURL              = "wss://pipecat.taile994c5.ts.net:7860/ws"
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultIdleWait         = 5 * time.Second
	DefaultResponseWait     = 5 * time.Second
)

// Config holds all configuration for a probe run.
type Config struct {
	URL string `yaml:"url"`

	// Insecure disables certificate and hostname verification for wss:// endpoints
	Insecure bool `yaml:"insecure"`

	HandshakeTimeout time.Duration `yaml:"handshake-timeout"`
	IdleWait         time.Duration `yaml:"idle-wait"`
	ResponseWait     time.Duration `yaml:"response-wait"`
}

// DefaultConfig returns the configuration of the fixed diagnostic run
func DefaultConfig() Config {
	return Config{
		URL:              DefaultURL,
		Insecure:         true,
		HandshakeTimeout: DefaultHandshakeTimeout,
		IdleWait:         DefaultIdleWait,
		ResponseWait:     DefaultResponseWait,
	}
}

// Validate checks that the configuration can drive a run
func (c Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", c.URL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid url %q: scheme must be ws or wss", c.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid url %q: missing host", c.URL)
	}
	if c.HandshakeTimeout <= 0 {
		return fmt.Errorf("handshake-timeout must be positive, got %s", c.HandshakeTimeout)
	}
	if c.IdleWait <= 0 {
		return fmt.Errorf("idle-wait must be positive, got %s", c.IdleWait)
	}
	if c.ResponseWait <= 0 {
		return fmt.Errorf("response-wait must be positive, got %s", c.ResponseWait)
	}
	return nil
}
