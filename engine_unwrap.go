package namewrap

import (
	"context"
	"fmt"

	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/record"
)

// Unwrap describes the unwrap operation and its observable behavior.
//
// Unwrap may return an error when input validation, dependency calls, or security checks fail.
// Unwrap does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Unwrap(ctx context.Context, caller string, n node.ID, target string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(err error) error {
		e.metricInc(MetricUnwrapDenied)
		e.emitAudit(ctx, auditEventUnwrap, false, n, caller, err, func() map[string]string {
			return map[string]string{"target": target}
		})
		return err
	}

	rec, err := e.getRecord(ctx, n)
	if err != nil {
		return deny(err)
	}

	labels, err := node.DecodeLabels(rec.Name)
	if err != nil {
		return deny(fmt.Errorf("%w: %v", record.ErrCorruptRecord, err))
	}
	if e.isTopLevelLabels(labels) {
		return deny(fmt.Errorf("%w: direct children of %q unwrap through UnwrapTopLevel", ErrIncompatibleParent, e.config.Wrapper.TLD))
	}

	if err := e.checkTargetOwner(target); err != nil {
		return deny(err)
	}
	if err := e.authorize(ctx, caller, n, rec, opUnwrap); err != nil {
		return deny(err)
	}

	if err := e.registry.SetOwner(ctx, n, target); err != nil {
		return deny(fmt.Errorf("registry handover: %w", err))
	}
	if err := e.records.Delete(ctx, n); err != nil {
		return deny(err)
	}

	e.metricInc(MetricUnwrapSuccess)
	e.emitAudit(ctx, auditEventUnwrap, true, n, caller, nil, func() map[string]string {
		return map[string]string{"target": target}
	})

	return nil
}

// UnwrapTopLevel describes the unwraptoplevel operation and its observable behavior.
//
// UnwrapTopLevel may return an error when input validation, dependency calls, or security checks fail.
// UnwrapTopLevel does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) UnwrapTopLevel(ctx context.Context, caller, label, registrant, controller string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	lh, err := node.HashLabel(label)
	if err != nil {
		e.metricInc(MetricUnwrapDenied)
		e.emitAudit(ctx, auditEventUnwrapTopLevel, false, node.ID{}, caller, err, func() map[string]string {
			return map[string]string{"label": label}
		})
		return err
	}
	n := node.SubnodeFromHash(e.tldNode, lh)

	deny := func(err error) error {
		e.metricInc(MetricUnwrapDenied)
		e.emitAudit(ctx, auditEventUnwrapTopLevel, false, n, caller, err, func() map[string]string {
			return map[string]string{
				"label":      label,
				"registrant": registrant,
				"controller": controller,
			}
		})
		return err
	}

	rec, err := e.getRecord(ctx, n)
	if err != nil {
		return deny(err)
	}

	if err := e.checkTargetOwner(registrant); err != nil {
		return deny(err)
	}
	if err := e.checkTargetOwner(controller); err != nil {
		return deny(err)
	}
	if err := e.authorize(ctx, caller, n, rec, opUnwrap); err != nil {
		return deny(err)
	}

	// Hand the registration back first so a registrar refusal leaves the
	// wrapped state untouched.
	if err := e.registrar.Transfer(ctx, lh, e.self, registrant); err != nil {
		return deny(fmt.Errorf("registrar handover: %w", err))
	}
	if err := e.registry.SetOwner(ctx, n, controller); err != nil {
		return deny(fmt.Errorf("registry handover: %w", err))
	}
	if err := e.records.Delete(ctx, n); err != nil {
		return deny(err)
	}

	e.metricInc(MetricUnwrapSuccess)
	e.emitAudit(ctx, auditEventUnwrapTopLevel, true, n, caller, nil, func() map[string]string {
		return map[string]string{
			"label":      label,
			"registrant": registrant,
			"controller": controller,
		}
	})

	return nil
}
