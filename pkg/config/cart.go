package config

import (
	"fmt"
	"strings"
	"time"
)

type CartConfig struct {
	SessionTTL time.Duration `koanf:"sessionTTL"`
	Sync       struct {
		Endpoint string        `koanf:"endpoint"`
		Timeout  time.Duration `koanf:"timeout"`
	} `koanf:"sync"`
	Breaker struct {
		ConsecutiveFailures uint32        `koanf:"consecutiveFailures"`
		Timeout             time.Duration `koanf:"timeout"`
	} `koanf:"breaker"`
}

// String returns a string representation of the cart configuration.
func (c *CartConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Cart ---\n")
	b.WriteString(fmt.Sprintf("  sessionTTL: %s\n", c.SessionTTL))
	b.WriteString(fmt.Sprintf("  sync.endpoint: %s\n", c.Sync.Endpoint))
	b.WriteString(fmt.Sprintf("  sync.timeout: %s\n", c.Sync.Timeout))
	b.WriteString(fmt.Sprintf("  breaker.consecutiveFailures: %d\n", c.Breaker.ConsecutiveFailures))
	b.WriteString(fmt.Sprintf("  breaker.timeout: %s\n", c.Breaker.Timeout))
	return b.String()
}

func (c *CartConfig) Validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("cart session TTL is not configured")
	}
	if c.Sync.Endpoint == "" {
		return fmt.Errorf("cart sync endpoint is not configured")
	}
	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("cart sync timeout is not configured")
	}
	if c.Breaker.ConsecutiveFailures == 0 {
		return fmt.Errorf("cart breaker failure threshold is not configured")
	}
	if c.Breaker.Timeout <= 0 {
		return fmt.Errorf("cart breaker open timeout is not configured")
	}
	return nil
}
