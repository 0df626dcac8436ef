package namewrap

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by namewrap APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Wrapper  WrapperConfig
	Store    StoreConfig
	Rate     RateConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
	Security SecurityConfig
}

/*
====================================
WRAPPER CONFIG
====================================
*/

// WrapperConfig defines a public type used by namewrap APIs.
//
// WrapperConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type WrapperConfig struct {
	// TLD is the reserved top-level label whose direct children are backed
	// by the registrar. Names directly under it must use the top-level
	// operations; plain Wrap refuses them.
	TLD string
	// Identity is the identity the engine claims registry ownership under
	// while a name is wrapped.
	Identity string
	// Admin, when set, is the only identity allowed to manage the
	// registration controller allowlist and the metadata service. Empty
	// disables those operations.
	Admin string
	// RegistrarIdentity is the only trusted source for ReceiveRegistration
	// callbacks. Empty disables the callback path.
	RegistrarIdentity string
}

/*
====================================
STORE CONFIG
====================================
*/

// StoreConfig defines a public type used by namewrap APIs.
//
// StoreConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type StoreConfig struct {
	RedisPrefix string
}

/*
====================================
RATE CONFIG
====================================
*/

// RateConfig defines a public type used by namewrap APIs.
//
// RateConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RateConfig struct {
	EnableRegistrationThrottle bool
	EnableRenewThrottle        bool
	MaxRegistrations           int
	RegistrationWindow         time.Duration
	MaxRenewals                int
	RenewWindow                time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by namewrap APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by namewrap APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig defines a public type used by namewrap APIs.
//
// SecurityConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SecurityConfig struct {
	ProductionMode bool
	// MaxBatchSize caps the number of nodes accepted by BatchTransfer.
	// Zero means unlimited.
	MaxBatchSize int
	// MaxNameDepth caps the label depth accepted by Wrap and walked during
	// vulnerability classification.
	MaxNameDepth int
}

/*
====================================
DEFAULTS
====================================
*/

const defaultRedisPrefix = "nw"

// DefaultConfig describes the defaultconfig operation and its observable behavior.
//
// DefaultConfig may return an error when input validation, dependency calls, or security checks fail.
// DefaultConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func DefaultConfig() Config {
	return Config{
		Wrapper: WrapperConfig{
			TLD:               "eth",
			Identity:          "sys:namewrap",
			Admin:             "",
			RegistrarIdentity: "sys:registrar",
		},
		Store: StoreConfig{
			RedisPrefix: defaultRedisPrefix,
		},
		Rate: RateConfig{
			EnableRegistrationThrottle: false,
			EnableRenewThrottle:        false,
			MaxRegistrations:           20,
			RegistrationWindow:         time.Minute,
			MaxRenewals:                60,
			RenewWindow:                time.Minute,
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
		Security: SecurityConfig{
			ProductionMode: false,
			MaxBatchSize:   128,
			MaxNameDepth:   64,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
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
	// Wrapper
	if c.Wrapper.TLD == "" {
		return errors.New("Wrapper TLD is required")
	}
	if strings.Contains(c.Wrapper.TLD, ".") {
		return errors.New("Wrapper TLD must be a single label")
	}
	if len(c.Wrapper.TLD) > 255 {
		return errors.New("Wrapper TLD must be <= 255 bytes")
	}
	if c.Wrapper.Identity == "" {
		return errors.New("Wrapper Identity is required")
	}
	if c.Wrapper.Admin != "" && c.Wrapper.Admin == c.Wrapper.Identity {
		return errors.New("Wrapper Admin must differ from Identity")
	}
	if c.Wrapper.RegistrarIdentity == c.Wrapper.Identity {
		return errors.New("Wrapper RegistrarIdentity must differ from Identity")
	}

	// Store
	if c.Store.RedisPrefix == "" {
		return errors.New("Store RedisPrefix is required")
	}

	// Rate
	if c.Rate.EnableRegistrationThrottle {
		if c.Rate.MaxRegistrations <= 0 {
			return errors.New("Rate MaxRegistrations must be > 0 when registration throttle is enabled")
		}
		if c.Rate.RegistrationWindow <= 0 {
			return errors.New("Rate RegistrationWindow must be > 0 when registration throttle is enabled")
		}
	}
	if c.Rate.EnableRenewThrottle {
		if c.Rate.MaxRenewals <= 0 {
			return errors.New("Rate MaxRenewals must be > 0 when renew throttle is enabled")
		}
		if c.Rate.RenewWindow <= 0 {
			return errors.New("Rate RenewWindow must be > 0 when renew throttle is enabled")
		}
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	// Security
	if c.Security.MaxBatchSize < 0 {
		return errors.New("Security MaxBatchSize must be >= 0")
	}
	if c.Security.MaxNameDepth <= 0 {
		return errors.New("Security MaxNameDepth must be > 0")
	}

	if c.Security.ProductionMode {
		if !c.Audit.Enabled {
			return errors.New("ProductionMode requires Audit Enabled")
		}
		if c.Wrapper.Admin == "" {
			return errors.New("ProductionMode requires Wrapper Admin")
		}
		if !c.Rate.EnableRegistrationThrottle {
			return errors.New("ProductionMode requires registration throttle")
		}
		if c.Security.MaxBatchSize <= 0 {
			return errors.New("ProductionMode requires a finite Security MaxBatchSize")
		}
	}

	return nil
}
