package namewrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/record"
)

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	RedisAvailable bool
	RedisLatency   time.Duration
}

// SetMetadataService describes the setmetadataservice operation and its observable behavior.
//
// SetMetadataService may return an error when input validation, dependency calls, or security checks fail.
// SetMetadataService does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SetMetadataService(ctx context.Context, caller string, svc Metadata) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(err error) error {
		e.emitAudit(ctx, auditEventSetMetadataService, false, node.ID{}, caller, err, nil)
		return err
	}

	if e.config.Wrapper.Admin == "" || caller != e.config.Wrapper.Admin {
		return deny(fmt.Errorf("%w: admin access required", ErrUnauthorised))
	}

	e.metadata = svc
	e.emitAudit(ctx, auditEventSetMetadataService, true, node.ID{}, caller, nil, nil)

	return nil
}

// URI describes the uri operation and its observable behavior.
//
// URI may return an error when input validation, dependency calls, or security checks fail.
// URI does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) URI(ctx context.Context, n node.ID) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.metadata == nil {
		return "", nil
	}
	return e.metadata.URI(ctx, n)
}

// WrappedCountEstimate describes the wrappedcountestimate operation and its observable behavior.
//
// WrappedCountEstimate may return an error when input validation, dependency calls, or security checks fail.
// WrappedCountEstimate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) WrappedCountEstimate(ctx context.Context) (int, error) {
	count, err := e.records.Count(ctx)
	if err == nil {
		return count, nil
	}
	if errors.Is(err, record.ErrRedisUnavailable) {
		return 0, err
	}
	return e.records.EstimateWrapped(ctx)
}

// Health describes the health operation and its observable behavior.
//
// Health may return an error when input validation, dependency calls, or security checks fail.
// Health does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	latency, err := e.records.Ping(ctx)
	return HealthStatus{
		RedisAvailable: err == nil,
		RedisLatency:   latency,
	}
}
