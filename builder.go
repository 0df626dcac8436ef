package namewrap

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rvellem/namewrap/internal/limiters"
	"github.com/rvellem/namewrap/internal/stores"
	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/record"
)

// Builder defines a public type used by namewrap APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	registry  Registry
	registrar Registrar
	metadata  Metadata
	auditSink AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRegistry describes the withregistry operation and its observable behavior.
//
// WithRegistry may return an error when input validation, dependency calls, or security checks fail.
// WithRegistry does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRegistry(r Registry) *Builder {
	b.registry = r
	return b
}

// WithRegistrar describes the withregistrar operation and its observable behavior.
//
// WithRegistrar may return an error when input validation, dependency calls, or security checks fail.
// WithRegistrar does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRegistrar(r Registrar) *Builder {
	b.registrar = r
	return b
}

// WithMetadata describes the withmetadata operation and its observable behavior.
//
// WithMetadata may return an error when input validation, dependency calls, or security checks fail.
// WithMetadata does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetadata(m Metadata) *Builder {
	b.metadata = m
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink may return an error when input validation, dependency calls, or security checks fail.
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled may return an error when input validation, dependency calls, or security checks fail.
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms may return an error when input validation, dependency calls, or security checks fail.
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.registry == nil {
		return nil, errors.New("registry collaborator required")
	}

	if b.registrar == nil {
		return nil, errors.New("registrar collaborator required")
	}

	// -------- RESERVED NAMESPACE --------
	tldLabel, err := node.HashLabel(cfg.Wrapper.TLD)
	if err != nil {
		return nil, err
	}
	tldWire, err := node.EncodeName(cfg.Wrapper.TLD)
	if err != nil {
		return nil, err
	}
	tldNode := node.SubnodeFromHash(node.Root, tldLabel)

	engine := &Engine{
		config:    cfg,
		registry:  b.registry,
		registrar: b.registrar,
		metadata:  b.metadata,
		self:      cfg.Wrapper.Identity,
		tldNode:   tldNode,
		tldLabel:  tldLabel,
		tldWire:   tldWire,
		clock:     time.Now,
	}

	engine.records = record.NewStore(b.redis, cfg.Store.RedisPrefix)
	engine.controllers = stores.NewControllerStore(b.redis, cfg.Store.RedisPrefix)
	engine.approvals = stores.NewApprovalStore(b.redis, cfg.Store.RedisPrefix)
	engine.regLimiter = limiters.NewRegistrationLimiter(b.redis, limiters.RegistrationConfig{
		EnableRegistrationThrottle: cfg.Rate.EnableRegistrationThrottle,
		EnableRenewThrottle:        cfg.Rate.EnableRenewThrottle,
		MaxRegistrations:           cfg.Rate.MaxRegistrations,
		RegistrationWindow:         cfg.Rate.RegistrationWindow,
		MaxRenewals:                cfg.Rate.MaxRenewals,
		RenewWindow:                cfg.Rate.RenewWindow,
	})
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
