package namewrap

import (
	"fmt"
	"strings"
	"time"
)

/*
====================================
CONFIG LINT
====================================
*/

// LintSeverity defines a public type used by namewrap APIs.
//
// LintSeverity instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LintSeverity uint8

const (
	// LintInfo is an exported constant or variable used by the wrapping engine.
	LintInfo LintSeverity = iota
	// LintWarn is an exported constant or variable used by the wrapping engine.
	LintWarn
	// LintHigh is an exported constant or variable used by the wrapping engine.
	LintHigh
)

// String describes the string operation and its observable behavior.
//
// String may return an error when input validation, dependency calls, or security checks fail.
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return "UNKNOWN"
	}
}

// LintWarning defines a public type used by namewrap APIs.
//
// LintWarning instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings defines a public type used by namewrap APIs.
//
// LintWarnings instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LintWarnings []LintWarning

// Codes describes the codes operation and its observable behavior.
//
// Codes may return an error when input validation, dependency calls, or security checks fail.
// Codes does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity describes the byseverity operation and its observable behavior.
//
// BySeverity may return an error when input validation, dependency calls, or security checks fail.
// BySeverity does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (ws LintWarnings) BySeverity(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError describes the aserror operation and its observable behavior.
//
// AsError may return an error when input validation, dependency calls, or security checks fail.
// AsError does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (ws LintWarnings) AsError(min LintSeverity) error {
	flagged := ws.BySeverity(min)
	if len(flagged) == 0 {
		return nil
	}
	parts := make([]string, 0, len(flagged))
	for _, w := range flagged {
		parts = append(parts, fmt.Sprintf("%s[%s]: %s", w.Code, w.Severity, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint describes the lint operation and its observable behavior.
//
// Lint may return an error when input validation, dependency calls, or security checks fail.
// Lint does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Lint flags valid but risky combinations that Validate deliberately accepts.
// It never rejects a configuration; callers gate on severity via AsError.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	if !c.Audit.Enabled {
		add("audit_disabled", LintWarn,
			"audit pipeline is off; registrations, burns and denials leave no trail")
	} else if !c.Audit.DropIfFull {
		add("audit_backpressure", LintWarn,
			"audit DropIfFull is off; a stalled sink will stall wrapper operations")
	}

	if !c.Rate.EnableRegistrationThrottle && !c.Rate.EnableRenewThrottle {
		add("rate_limits_disabled", LintWarn,
			"registration and renewal throttles are both off")
	} else if !c.Rate.EnableRegistrationThrottle {
		add("registration_throttle_disabled", LintInfo,
			"renewal throttle is on but registration throttle is off")
	}
	if c.Rate.EnableRegistrationThrottle && c.Rate.RegistrationWindow > time.Hour {
		add("registration_window_long", LintInfo,
			"registration throttle window exceeds an hour; counts reset slowly after bursts")
	}

	if c.Security.MaxBatchSize == 0 {
		add("batch_cap_unbounded", LintHigh,
			"BatchTransfer accepts batches of any size; set Security.MaxBatchSize")
	}
	if c.Security.MaxNameDepth > 128 {
		add("name_depth_high", LintWarn, fmt.Sprintf(
			"MaxNameDepth %d allows very deep hierarchies; classification walks every level", c.Security.MaxNameDepth))
	}

	if c.Store.RedisPrefix == "" || c.Store.RedisPrefix == defaultRedisPrefix {
		add("default_store_prefix", LintInfo,
			"store prefix is the library default; instances sharing a redis will collide")
	}

	if !c.Metrics.Enabled {
		add("metrics_disabled", LintInfo,
			"metrics are off; operation counters will read zero")
	}

	if c.Wrapper.Admin == "" {
		add("admin_unset", LintInfo,
			"no admin identity; the controller roster and metadata service cannot be changed")
	}

	return ws
}

/*
====================================
HIGH SECURITY CONFIG
====================================
*/

// HighSecurityConfig describes the highsecurityconfig operation and its observable behavior.
//
// HighSecurityConfig may return an error when input validation, dependency calls, or security checks fail.
// HighSecurityConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// HighSecurityConfig enables every protective layer. Callers must still set
// Wrapper.Admin before Build: ProductionMode validation requires a distinct
// admin identity.
func HighSecurityConfig() Config {
	cfg := DefaultConfig()

	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 4096
	cfg.Audit.DropIfFull = true

	cfg.Rate.EnableRegistrationThrottle = true
	cfg.Rate.MaxRegistrations = 10
	cfg.Rate.RegistrationWindow = time.Minute
	cfg.Rate.EnableRenewThrottle = true
	cfg.Rate.MaxRenewals = 30
	cfg.Rate.RenewWindow = time.Minute

	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	cfg.Security.ProductionMode = true
	cfg.Security.MaxBatchSize = 64
	cfg.Security.MaxNameDepth = 32

	return cfg
}

/*
====================================
HIGH THROUGHPUT CONFIG
====================================
*/

// HighThroughputConfig describes the highthroughputconfig operation and its observable behavior.
//
// HighThroughputConfig may return an error when input validation, dependency calls, or security checks fail.
// HighThroughputConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// HighThroughputConfig keeps the production gates on while trading per-call
// overhead for volume: latency histograms stay off, the audit pipeline sheds
// load instead of blocking, and the throttle and batch budgets are generous.
// Callers must still set Wrapper.Admin before Build.
func HighThroughputConfig() Config {
	cfg := DefaultConfig()

	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 8192
	cfg.Audit.DropIfFull = true

	cfg.Rate.EnableRegistrationThrottle = true
	cfg.Rate.MaxRegistrations = 120
	cfg.Rate.RegistrationWindow = time.Minute
	cfg.Rate.EnableRenewThrottle = true
	cfg.Rate.MaxRenewals = 300
	cfg.Rate.RenewWindow = time.Minute

	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = false

	cfg.Security.ProductionMode = true
	cfg.Security.MaxBatchSize = 512
	cfg.Security.MaxNameDepth = 64

	return cfg
}
