package namewrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/record"
)

// SetResolver describes the setresolver operation and its observable behavior.
//
// SetResolver may return an error when input validation, dependency calls, or security checks fail.
// SetResolver does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SetResolver(ctx context.Context, caller string, n node.ID, resolver string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(err error) error {
		e.metricInc(MetricRecordUpdateDenied)
		e.emitAudit(ctx, auditEventSetResolver, false, n, caller, err, nil)
		return err
	}

	rec, err := e.getRecord(ctx, n)
	if err != nil {
		return deny(err)
	}
	if err := e.authorize(ctx, caller, n, rec, opSetResolver); err != nil {
		return deny(err)
	}

	if err := e.registry.SetResolver(ctx, n, resolver); err != nil {
		return deny(fmt.Errorf("registry resolver: %w", err))
	}

	e.metricInc(MetricRecordUpdateSuccess)
	e.emitAudit(ctx, auditEventSetResolver, true, n, caller, nil, func() map[string]string {
		return map[string]string{"resolver": resolver}
	})

	return nil
}

// SetTTL describes the setttl operation and its observable behavior.
//
// SetTTL may return an error when input validation, dependency calls, or security checks fail.
// SetTTL does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SetTTL(ctx context.Context, caller string, n node.ID, ttl uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(err error) error {
		e.metricInc(MetricRecordUpdateDenied)
		e.emitAudit(ctx, auditEventSetTTL, false, n, caller, err, nil)
		return err
	}

	rec, err := e.getRecord(ctx, n)
	if err != nil {
		return deny(err)
	}
	if err := e.authorize(ctx, caller, n, rec, opSetTTL); err != nil {
		return deny(err)
	}

	if err := e.registry.SetTTL(ctx, n, ttl); err != nil {
		return deny(fmt.Errorf("registry ttl: %w", err))
	}

	e.metricInc(MetricRecordUpdateSuccess)
	e.emitAudit(ctx, auditEventSetTTL, true, n, caller, nil, nil)

	return nil
}

// SetRecord describes the setrecord operation and its observable behavior.
//
// SetRecord may return an error when input validation, dependency calls, or security checks fail.
// SetRecord does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// The resolver and TTL registry writes land before the owner swap and are not
// rolled back if the swap fails: the registry then carries the new resolver
// and TTL while the record keeps its previous owner.
func (e *Engine) SetRecord(ctx context.Context, caller string, n node.ID, owner, resolver string, ttl uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(err error) error {
		e.metricInc(MetricRecordUpdateDenied)
		e.emitAudit(ctx, auditEventSetRecord, false, n, caller, err, func() map[string]string {
			return map[string]string{"owner": owner}
		})
		return err
	}

	rec, err := e.getRecord(ctx, n)
	if err != nil {
		return deny(err)
	}
	if err := e.checkTargetOwner(owner); err != nil {
		return deny(err)
	}
	if err := e.authorize(ctx, caller, n, rec, opSetRecord); err != nil {
		return deny(err)
	}

	if err := e.registry.SetResolver(ctx, n, resolver); err != nil {
		return deny(fmt.Errorf("registry resolver: %w", err))
	}
	if err := e.registry.SetTTL(ctx, n, ttl); err != nil {
		return deny(fmt.Errorf("registry ttl: %w", err))
	}
	if owner != rec.Owner {
		if _, err := e.records.SwapOwner(ctx, n, rec.Owner, owner); err != nil {
			if errors.Is(err, record.ErrOwnerMismatch) {
				err = fmt.Errorf("%w: record owner changed concurrently", ErrUnauthorised)
			}
			return deny(err)
		}
	}

	e.metricInc(MetricRecordUpdateSuccess)
	e.emitAudit(ctx, auditEventSetRecord, true, n, caller, nil, func() map[string]string {
		return map[string]string{"owner": owner}
	})

	return nil
}

// OwnerOf describes the ownerof operation and its observable behavior.
//
// OwnerOf may return an error when input validation, dependency calls, or security checks fail.
// OwnerOf does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) OwnerOf(ctx context.Context, n node.ID) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rec, err := e.records.Get(ctx, n)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	labels, err := node.DecodeLabels(rec.Name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", record.ErrCorruptRecord, err)
	}
	now := e.now()
	if e.isTopLevelLabels(labels) {
		// The leaf authority is authoritative for top-level lifetimes; the
		// stored expiry is a snapshot that a direct renewal can outrun.
		lh, err := node.HashLabel(labels[0])
		if err != nil {
			return "", err
		}
		live, err := e.registrar.NameExpires(ctx, lh)
		if err != nil {
			return "", fmt.Errorf("registrar expiry lookup: %w", err)
		}
		if live == 0 || now > live+e.graceSeconds() {
			return "", nil
		}
		return rec.Owner, nil
	}
	if rec.Expiry != 0 && now > rec.Expiry {
		return "", nil
	}
	return rec.Owner, nil
}
