package authgate

import (
	"errors"
	"time"

	"github.com/nuralyx/authgate/routes"
	"github.com/nuralyx/authgate/token"
)

// Config defines a public type used by authgate APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Token    TokenConfig
	Routes   RouteConfig
	Throttle ThrottleConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by authgate APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	Leeway time.Duration
}

/*
====================================
ROUTE CONFIG
====================================
*/

// RouteConfig defines a public type used by authgate APIs.
//
// RouteConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RouteConfig struct {
	MountPrefixes []string
	PublicRules   []routes.Rule
}

/*
====================================
THROTTLE CONFIG
====================================
*/

// ThrottleConfig defines a public type used by authgate APIs.
//
// ThrottleConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type ThrottleConfig struct {
	EnableIPThrottle bool
	MaxAuthFailures  int
	AuthCooldown     time.Duration
}

// AuditConfig defines a public type used by authgate APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by authgate APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the gateway defaults: 24h token TTL, the
// standard public route allow-list, and throttling/audit/metrics off.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			TTL:    24 * time.Hour,
			Leeway: 0,
		},
		Routes: RouteConfig{
			MountPrefixes: routes.DefaultPrefixes(),
			PublicRules:   routes.DefaultPublicRules(),
		},
		Throttle: ThrottleConfig{
			EnableIPThrottle: false,
			MaxAuthFailures:  10,
			AuthCooldown:     15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	if len(cfg.Routes.MountPrefixes) > 0 {
		out.Routes.MountPrefixes = make([]string, len(cfg.Routes.MountPrefixes))
		copy(out.Routes.MountPrefixes, cfg.Routes.MountPrefixes)
	}
	if len(cfg.Routes.PublicRules) > 0 {
		out.Routes.PublicRules = make([]routes.Rule, len(cfg.Routes.PublicRules))
		copy(out.Routes.PublicRules, cfg.Routes.PublicRules)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Secret) < token.MinSecretLength {
		return errors.New("Token Secret must be at least 32 bytes")
	}
	if c.Token.TTL <= 0 {
		return errors.New("Token TTL must be > 0")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}

	// Routes
	for _, prefix := range c.Routes.MountPrefixes {
		if prefix == "" || prefix[0] != '/' || prefix == "/" {
			return errors.New("Routes MountPrefixes entries must start with '/' and not be the root path")
		}
	}
	for _, rule := range c.Routes.PublicRules {
		if rule.Method == "" {
			return errors.New("Routes PublicRules entries require a method")
		}
		if rule.Path == "" || rule.Path[0] != '/' {
			return errors.New("Routes PublicRules entries require a path starting with '/'")
		}
	}

	// Throttle
	if c.Throttle.EnableIPThrottle {
		if c.Throttle.MaxAuthFailures <= 0 {
			return errors.New("Throttle MaxAuthFailures must be > 0 when IP throttling is enabled")
		}
		if c.Throttle.AuthCooldown <= 0 {
			return errors.New("Throttle AuthCooldown must be > 0 when IP throttling is enabled")
		}
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
