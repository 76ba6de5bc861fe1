package config

import (
	"fmt"
	"time"

	"github.com/jonathan/internship-radar/internal/notify"
)

// Signer returns the unsubscribe token signer, or an error when no signing
// secret is configured.
func (c *Config) Signer() (*notify.TokenSigner, error) {
	if c.SigningSecret == "" {
		return nil, fmt.Errorf("EMAIL_SIGNING_SECRET is required but not set")
	}
	if c.TokenTTLHours < 0 {
		return nil, fmt.Errorf("UNSUBSCRIBE_TOKEN_TTL_HOURS must be non-negative, got: %d", c.TokenTTLHours)
	}
	return notify.NewTokenSigner(c.SigningSecret, time.Duration(c.TokenTTLHours)*time.Hour), nil
}
