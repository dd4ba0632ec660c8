package config

import (
	"fmt"
	"strings"
	"time"
)

type AuthConfig struct {
	Issuer   string        `koanf:"issuer"`
	Secret   string        `koanf:"secret"`
	TokenTTL time.Duration `koanf:"tokenTTL"`
	OTP      struct {
		Length      int           `koanf:"length"`
		TTL         time.Duration `koanf:"ttl"`
		MaxAttempts int           `koanf:"maxAttempts"`
	} `koanf:"otp"`
}

// String returns a string representation of the auth configuration with the secret masked.
func (c *AuthConfig) String() string {
	var b strings.Builder
	b.WriteString("\n--- Auth ---\n")
	b.WriteString(fmt.Sprintf("  issuer: %s\n", c.Issuer))
	b.WriteString("  secret: ****\n")
	b.WriteString(fmt.Sprintf("  tokenTTL: %s\n", c.TokenTTL))
	b.WriteString(fmt.Sprintf("  otp.length: %d\n", c.OTP.Length))
	b.WriteString(fmt.Sprintf("  otp.ttl: %s\n", c.OTP.TTL))
	b.WriteString(fmt.Sprintf("  otp.maxAttempts: %d\n", c.OTP.MaxAttempts))
	return b.String()
}

func (c *AuthConfig) Validate() error {
	if c.Issuer == "" {
		return fmt.Errorf("auth issuer is not configured")
	}
	if len(c.Secret) < 32 {
		return fmt.Errorf("auth secret must be at least 32 bytes")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("auth token TTL is not configured")
	}
	if c.OTP.Length < 4 || c.OTP.Length > 8 {
		return fmt.Errorf("otp length must be between 4 and 8 digits")
	}
	if c.OTP.TTL <= 0 {
		return fmt.Errorf("otp TTL is not configured")
	}
	if c.OTP.MaxAttempts <= 0 {
		return fmt.Errorf("otp max attempts is not configured")
	}
	return nil
}
