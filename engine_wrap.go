package namewrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rvellem/namewrap/fuses"
	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/record"
	"github.com/rvellem/namewrap/registrar"
)

// RegistrationPayload defines a public type used by namewrap APIs.
//
// RegistrationPayload carries the wrap parameters delivered alongside a
// registrar registration callback.
type RegistrationPayload struct {
	Owner    string
	Fuses    fuses.Fuses
	Resolver string
}

// Wrap describes the wrap operation and its observable behavior.
//
// Wrap may return an error when input validation, dependency calls, or security checks fail.
// Wrap does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
//
// Registry writes land before the record write and are not rolled back on a
// later failure: a record-store error after the registry claim leaves the
// registry owned by the wrapper with no wrapped record, and the caller must
// re-issue the wrap to complete it.
func (e *Engine) Wrap(ctx context.Context, caller string, name []byte, owner string, f fuses.Fuses, expiry uint64, resolver string) (node.ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(id node.ID, err error, reason string) (node.ID, error) {
		e.metricInc(MetricWrapDenied)
		e.emitWrapAudit(ctx, auditEventWrap, false, id, caller, owner, name, f, expiry, err, func() map[string]string {
			if reason == "" {
				return nil
			}
			return map[string]string{"reason": reason}
		})
		return node.ID{}, err
	}

	labels, err := node.DecodeLabels(name)
	if err != nil {
		return deny(node.ID{}, err, "")
	}
	if len(labels) == 0 {
		return deny(node.ID{}, fmt.Errorf("%w: cannot wrap the root", node.ErrMalformedName), "")
	}
	if err := e.checkDepth(labels); err != nil {
		return deny(node.ID{}, err, "")
	}

	id, err := node.NamehashLabels(labels)
	if err != nil {
		return deny(node.ID{}, err, "")
	}
	parent, err := node.NamehashLabels(labels[1:])
	if err != nil {
		return deny(id, err, "")
	}
	if parent == e.tldNode {
		return deny(id, fmt.Errorf("%w: direct children of %q wrap through WrapTopLevel", ErrIncompatibleParent, e.config.Wrapper.TLD), "")
	}

	if err := e.checkTargetOwner(owner); err != nil {
		return deny(id, err, "")
	}
	if f&^fuses.OwnerSettable != 0 {
		return deny(id, fmt.Errorf("%w: requested mask contains parent-only bits", ErrOperationProhibited), "parent_only_bits")
	}
	if !fuses.CanBurn(0, f) {
		return deny(id, fmt.Errorf("%w: burning fuses requires CannotUnwrap", ErrOperationProhibited), "missing_cannot_unwrap")
	}

	regOwner, err := e.registry.Owner(ctx, id)
	if err != nil {
		return deny(id, fmt.Errorf("registry owner lookup: %w", err), "")
	}
	authorized := caller != "" && caller == regOwner
	if !authorized && caller != "" && regOwner != "" {
		ok, err := e.registry.IsApprovedForAll(ctx, regOwner, caller)
		if err != nil {
			return deny(id, fmt.Errorf("registry approval lookup: %w", err), "")
		}
		authorized = ok
	}
	if !authorized {
		return deny(id, fmt.Errorf("%w: %s does not control node %s at the registry", ErrUnauthorised, caller, id), "")
	}

	if err := e.registry.SetOwner(ctx, id, e.self); err != nil {
		return deny(id, fmt.Errorf("registry claim: %w", err), "")
	}
	if resolver != "" {
		if err := e.registry.SetResolver(ctx, id, resolver); err != nil {
			return deny(id, fmt.Errorf("registry resolver: %w", err), "")
		}
	}

	// Cap the child expiry at a wrapped parent's expiry; an unwrapped
	// parent imposes no cap.
	parentCap := uint64(0)
	if !parent.IsZero() {
		prec, err := e.records.Get(ctx, parent)
		switch {
		case err == nil:
			parentCap = prec.Expiry
		case errors.Is(err, record.ErrNotFound):
		default:
			return deny(id, err, "")
		}
	}
	expiry = normalizeExpiry(expiry, 0, parentCap)

	rec := &record.Record{Owner: owner, Fuses: f, Expiry: expiry, Name: name}
	if err := e.records.Put(ctx, id, rec); err != nil {
		return deny(id, err, "")
	}

	e.metricInc(MetricWrapSuccess)
	e.emitWrapAudit(ctx, auditEventWrap, true, id, caller, owner, name, f, expiry, nil, nil)

	return id, nil
}

// WrapTopLevel describes the wraptoplevel operation and its observable behavior.
//
// WrapTopLevel may return an error when input validation, dependency calls, or security checks fail.
// WrapTopLevel does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) WrapTopLevel(ctx context.Context, caller, label, owner string, f fuses.Fuses, resolver string) (node.ID, uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(id node.ID, name []byte, err error, reason string) (node.ID, uint64, error) {
		e.metricInc(MetricWrapDenied)
		e.emitWrapAudit(ctx, auditEventWrapTopLevel, false, id, caller, owner, name, f, 0, err, func() map[string]string {
			meta := map[string]string{"label": label}
			if reason != "" {
				meta["reason"] = reason
			}
			return meta
		})
		return node.ID{}, 0, err
	}

	lh, err := node.HashLabel(label)
	if err != nil {
		return deny(node.ID{}, nil, err, "")
	}
	n := node.SubnodeFromHash(e.tldNode, lh)
	name, err := node.AppendLabel(label, e.tldWire)
	if err != nil {
		return deny(n, nil, err, "")
	}

	if err := e.checkTargetOwner(owner); err != nil {
		return deny(n, name, err, "")
	}
	final := fuses.Combine(f, fuses.ParentCannotControl)
	if !fuses.CanBurn(0, final) {
		return deny(n, name, fmt.Errorf("%w: burning fuses requires CannotUnwrap", ErrOperationProhibited), "missing_cannot_unwrap")
	}

	ok, err := e.registrar.IsApprovedOrOwner(ctx, caller, lh)
	if err != nil {
		return deny(n, name, fmt.Errorf("registrar standing lookup: %w", err), "")
	}
	if !ok {
		return deny(n, name, fmt.Errorf("%w: %s has no registrar standing for %q", ErrUnauthorised, caller, label), "")
	}

	registrant, err := e.registrar.RegistrantOf(ctx, lh)
	if err != nil {
		return deny(n, name, fmt.Errorf("registrant lookup: %w", err), "")
	}
	if registrant != e.self {
		if err := e.registrar.Transfer(ctx, lh, registrant, e.self); err != nil {
			return deny(n, name, fmt.Errorf("registrar transfer: %w", err), "")
		}
	}
	live, err := e.registrar.NameExpires(ctx, lh)
	if err != nil {
		return deny(n, name, fmt.Errorf("registrar expiry lookup: %w", err), "")
	}

	if _, err := e.registry.SetSubnodeOwner(ctx, e.tldNode, lh, e.self); err != nil {
		return deny(n, name, fmt.Errorf("registry claim: %w", err), "")
	}
	if resolver != "" {
		if err := e.registry.SetResolver(ctx, n, resolver); err != nil {
			return deny(n, name, fmt.Errorf("registry resolver: %w", err), "")
		}
	}

	expiry := live + e.graceSeconds()
	rec := &record.Record{Owner: owner, Fuses: final, Expiry: expiry, Name: name}
	if err := e.records.Put(ctx, n, rec); err != nil {
		return deny(n, name, err, "")
	}

	e.metricInc(MetricWrapSuccess)
	e.emitWrapAudit(ctx, auditEventWrapTopLevel, true, n, caller, owner, name, final, expiry, nil, nil)

	return n, expiry, nil
}

// ReceiveRegistration describes the receiveregistration operation and its observable behavior.
//
// ReceiveRegistration may return an error when input validation, dependency calls, or security checks fail.
// ReceiveRegistration does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ReceiveRegistration(ctx context.Context, source, label string, payload RegistrationPayload) (node.ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(id node.ID, name []byte, err error) (node.ID, error) {
		e.metricInc(MetricWrapDenied)
		e.emitWrapAudit(ctx, auditEventReceiveRegistration, false, id, source, payload.Owner, name, payload.Fuses, 0, err, func() map[string]string {
			return map[string]string{"label": label}
		})
		return node.ID{}, err
	}

	if e.config.Wrapper.RegistrarIdentity == "" || source != e.config.Wrapper.RegistrarIdentity {
		return deny(node.ID{}, nil, fmt.Errorf("%w: %q", ErrIncorrectTokenType, source))
	}

	lh, err := node.HashLabel(label)
	if err != nil {
		return deny(node.ID{}, nil, err)
	}
	n := node.SubnodeFromHash(e.tldNode, lh)
	name, err := node.AppendLabel(label, e.tldWire)
	if err != nil {
		return deny(n, nil, err)
	}

	if err := e.checkTargetOwner(payload.Owner); err != nil {
		return deny(n, name, err)
	}
	final := fuses.Combine(payload.Fuses, fuses.ParentCannotControl)
	if !fuses.CanBurn(0, final) {
		return deny(n, name, fmt.Errorf("%w: burning fuses requires CannotUnwrap", ErrOperationProhibited))
	}

	live, err := e.registrar.NameExpires(ctx, lh)
	if err != nil {
		return deny(n, name, fmt.Errorf("registrar expiry lookup: %w", err))
	}
	if live == 0 {
		return deny(n, name, fmt.Errorf("%w: label %q", registrar.ErrNotRegistered, label))
	}

	// The leaf authority outranks the wrapper, so the registration itself
	// must be held by the wrapper identity before any fuse can bind.
	registrant, err := e.registrar.RegistrantOf(ctx, lh)
	if err != nil {
		return deny(n, name, fmt.Errorf("registrant lookup: %w", err))
	}
	if registrant != e.self {
		if err := e.registrar.Transfer(ctx, lh, registrant, e.self); err != nil {
			return deny(n, name, fmt.Errorf("registrar transfer: %w", err))
		}
	}

	if _, err := e.registry.SetSubnodeOwner(ctx, e.tldNode, lh, e.self); err != nil {
		return deny(n, name, fmt.Errorf("registry claim: %w", err))
	}
	if payload.Resolver != "" {
		if err := e.registry.SetResolver(ctx, n, payload.Resolver); err != nil {
			return deny(n, name, fmt.Errorf("registry resolver: %w", err))
		}
	}

	expiry := live + e.graceSeconds()
	rec := &record.Record{Owner: payload.Owner, Fuses: final, Expiry: expiry, Name: name}
	if err := e.records.Put(ctx, n, rec); err != nil {
		return deny(n, name, err)
	}

	e.metricInc(MetricWrapSuccess)
	e.emitWrapAudit(ctx, auditEventReceiveRegistration, true, n, source, payload.Owner, name, final, expiry, nil, func() map[string]string {
		return map[string]string{"label": label}
	})

	return n, nil
}
