package namewrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rvellem/namewrap/fuses"
	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/record"
)

// FuseReport defines a public type used by namewrap APIs.
//
// FuseReport carries a wrapped node's burned fuse mask together with its
// vulnerability classification, the node that classification failed at, and
// the stored expiry. For unwrapped nodes all fields are zero.
type FuseReport struct {
	Fuses          fuses.Fuses
	Vulnerability  Vulnerability
	VulnerableNode node.ID
	Expiry         uint64
}

// SetFuses describes the setfuses operation and its observable behavior.
//
// SetFuses may return an error when input validation, dependency calls, or security checks fail.
// SetFuses does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SetFuses(ctx context.Context, caller string, n node.ID, f fuses.Fuses) (fuses.Fuses, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, err := e.getRecord(ctx, n)
	if err != nil {
		e.metricInc(MetricFuseBurnDenied)
		e.emitAudit(ctx, auditEventSetFuses, false, n, caller, err, nil)
		return 0, err
	}

	if f&^fuses.OwnerSettable != 0 {
		err := fmt.Errorf("%w: requested mask contains parent-only bits", ErrOperationProhibited)
		e.metricInc(MetricFuseBurnDenied)
		e.emitAudit(ctx, auditEventSetFuses, false, n, caller, err, func() map[string]string {
			return map[string]string{
				"reason": "parent_only_bits",
				"fuses":  f.String(),
			}
		})
		return 0, err
	}

	if err := e.authorize(ctx, caller, n, rec, opSetFuses); err != nil {
		e.metricInc(MetricFuseBurnDenied)
		e.emitAudit(ctx, auditEventSetFuses, false, n, caller, err, func() map[string]string {
			return map[string]string{
				"fuses": f.String(),
			}
		})
		return 0, err
	}

	if !fuses.CanBurn(rec.Fuses, f) {
		err := fmt.Errorf("%w: burning fuses requires CannotUnwrap", ErrOperationProhibited)
		e.metricInc(MetricFuseBurnDenied)
		e.emitAudit(ctx, auditEventSetFuses, false, n, caller, err, func() map[string]string {
			return map[string]string{
				"reason": "missing_cannot_unwrap",
				"fuses":  f.String(),
			}
		})
		return 0, err
	}

	combined := fuses.Combine(rec.Fuses, f)
	rec.Fuses = combined
	if err := e.records.Put(ctx, n, rec); err != nil {
		e.metricInc(MetricFuseBurnDenied)
		e.emitAudit(ctx, auditEventSetFuses, false, n, caller, err, nil)
		return 0, err
	}

	e.metricInc(MetricFuseBurnSuccess)
	e.emitAudit(ctx, auditEventSetFuses, true, n, caller, nil, func() map[string]string {
		return map[string]string{
			"fuses": combined.String(),
		}
	})

	return combined, nil
}

// GetFuses describes the getfuses operation and its observable behavior.
//
// GetFuses may return an error when input validation, dependency calls, or security checks fail.
// GetFuses does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) GetFuses(ctx context.Context, n node.ID) (FuseReport, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rec, err := e.records.Get(ctx, n)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return FuseReport{}, nil
		}
		return FuseReport{}, err
	}

	start := time.Now()
	v, vn, err := e.classify(ctx, n, rec)
	e.metricObserve(MetricAnalyzeLatency, time.Since(start))
	if err != nil {
		return FuseReport{}, err
	}

	return FuseReport{
		Fuses:          rec.Fuses,
		Vulnerability:  v,
		VulnerableNode: vn,
		Expiry:         rec.Expiry,
	}, nil
}

// AllFusesBurned describes the allfusesburned operation and its observable behavior.
//
// AllFusesBurned may return an error when input validation, dependency calls, or security checks fail.
// AllFusesBurned does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AllFusesBurned(ctx context.Context, n node.ID, mask fuses.Fuses) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rec, err := e.records.Get(ctx, n)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return mask == 0, nil
		}
		return false, err
	}
	return rec.Fuses.Has(mask), nil
}
