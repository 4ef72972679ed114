package middleware

import (
	"fmt"
	"os"
	"strconv"
)

// AuthConfig holds OIDC verification settings for the auth middleware.
type AuthConfig struct {
	Enabled   bool   `toml:"enabled"`
	Issuer    string `toml:"issuer"`
	ClientID  string `toml:"client_id"`
	RoleClaim string `toml:"role_claim"`
	NameClaim string `toml:"name_claim"`
}

// AuthEnv maps auth config fields to environment variable names for override injection.
type AuthEnv struct {
	Enabled   string
	Issuer    string
	ClientID  string
	RoleClaim string
	NameClaim string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AuthConfig) Finalize(env *AuthEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Enabled always applies; string fields
// only when non-empty.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	c.Enabled = overlay.Enabled

	if overlay.Issuer != "" {
		c.Issuer = overlay.Issuer
	}
	if overlay.ClientID != "" {
		c.ClientID = overlay.ClientID
	}
	if overlay.RoleClaim != "" {
		c.RoleClaim = overlay.RoleClaim
	}
	if overlay.NameClaim != "" {
		c.NameClaim = overlay.NameClaim
	}
}

func (c *AuthConfig) loadDefaults() {
	if c.RoleClaim == "" {
		c.RoleClaim = "role"
	}
	if c.NameClaim == "" {
		c.NameClaim = "name"
	}
}

func (c *AuthConfig) loadEnv(env *AuthEnv) {
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			if enabled, err := strconv.ParseBool(v); err == nil {
				c.Enabled = enabled
			}
		}
	}
	if env.Issuer != "" {
		if v := os.Getenv(env.Issuer); v != "" {
			c.Issuer = v
		}
	}
	if env.ClientID != "" {
		if v := os.Getenv(env.ClientID); v != "" {
			c.ClientID = v
		}
	}
	if env.RoleClaim != "" {
		if v := os.Getenv(env.RoleClaim); v != "" {
			c.RoleClaim = v
		}
	}
	if env.NameClaim != "" {
		if v := os.Getenv(env.NameClaim); v != "" {
			c.NameClaim = v
		}
	}
}

func (c *AuthConfig) validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Issuer == "" {
		return fmt.Errorf("issuer required when auth enabled")
	}
	if c.ClientID == "" {
		return fmt.Errorf("client_id required when auth enabled")
	}
	return nil
}
