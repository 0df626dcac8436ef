package namewrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/rvellem/namewrap/fuses"
	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/record"
)

// subnodeState captures the derived inputs shared by the subnode operations
// after the parent and child have been resolved and gated.
type subnodeState struct {
	labelHash node.LabelHash
	child     node.ID
	name      []byte
	childRec  *record.Record
	creating  bool
}

// prepareSubnode resolves the child of a wrapped parent and runs the shared
// gate sequence: parent authority, then the creation gate when the child has
// no registry presence, or the child's ParentCannotControl protection when a
// wrapped child would be replaced.
func (e *Engine) prepareSubnode(ctx context.Context, caller string, parent node.ID, prec *record.Record, label string) (subnodeState, error) {
	var st subnodeState

	lh, err := node.HashLabel(label)
	if err != nil {
		return st, err
	}
	st.labelHash = lh
	st.child = node.SubnodeFromHash(parent, lh)

	name, err := node.AppendLabel(label, prec.Name)
	if err != nil {
		return st, err
	}
	st.name = name

	labels, err := node.DecodeLabels(name)
	if err != nil {
		return st, err
	}
	if err := e.checkDepth(labels); err != nil {
		return st, err
	}

	if err := e.authorize(ctx, caller, parent, prec, opNone); err != nil {
		return st, err
	}

	childRegOwner, err := e.registry.Owner(ctx, st.child)
	if err != nil {
		return st, fmt.Errorf("registry owner lookup: %w", err)
	}

	childRec, err := e.records.Get(ctx, st.child)
	switch {
	case err == nil:
		st.childRec = childRec
	case errors.Is(err, record.ErrNotFound):
	default:
		return st, err
	}

	if childRegOwner == "" {
		st.creating = true
		if err := e.checkFuses(ctx, parent, prec, opCreateSubdomain); err != nil {
			return st, err
		}
	} else if st.childRec != nil && st.childRec.Fuses.Has(fuses.ParentCannotControl) {
		v, _, err := e.classify(ctx, st.child, st.childRec)
		if err != nil {
			return st, err
		}
		if v.Enforceable() {
			return st, fmt.Errorf("%w: node %s is protected from parent control", ErrOperationProhibited, st.child)
		}
	}

	return st, nil
}

// SetSubnodeOwner describes the setsubnodeowner operation and its observable behavior.
//
// SetSubnodeOwner may return an error when input validation, dependency calls, or security checks fail.
// SetSubnodeOwner does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SetSubnodeOwner(ctx context.Context, caller string, parent node.ID, label, owner string, f fuses.Fuses, expiry uint64) (node.ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(id node.ID, name []byte, err error) (node.ID, error) {
		e.metricInc(MetricSubnodeDenied)
		e.emitWrapAudit(ctx, auditEventSetSubnodeOwner, false, id, caller, owner, name, f, expiry, err, func() map[string]string {
			return map[string]string{"label": label}
		})
		return node.ID{}, err
	}

	prec, err := e.getRecord(ctx, parent)
	if err != nil {
		return deny(parent, nil, err)
	}

	st, err := e.prepareSubnode(ctx, caller, parent, prec, label)
	if err != nil {
		return deny(st.child, st.name, err)
	}

	if err := e.checkTargetOwner(owner); err != nil {
		return deny(st.child, st.name, err)
	}

	// Registry-only assignment: no fuses, no expiry, nothing wrapped to
	// merge with. The child gets a registry entry and no record.
	if f == 0 && expiry == 0 && st.childRec == nil {
		if _, err := e.registry.SetSubnodeOwner(ctx, parent, st.labelHash, owner); err != nil {
			return deny(st.child, st.name, fmt.Errorf("registry assignment: %w", err))
		}
		e.metricInc(MetricSubnodeCreated)
		e.emitWrapAudit(ctx, auditEventSetSubnodeOwner, true, st.child, caller, owner, st.name, 0, 0, nil, func() map[string]string {
			return map[string]string{"label": label, "mode": "registry_only"}
		})
		return st.child, nil
	}

	var current fuses.Fuses
	var currentExpiry uint64
	if st.childRec != nil {
		current = st.childRec.Fuses
		currentExpiry = st.childRec.Expiry
	}
	if !fuses.CanBurn(current, f) {
		return deny(st.child, st.name, fmt.Errorf("%w: burning fuses requires CannotUnwrap", ErrOperationProhibited))
	}
	newFuses := fuses.Combine(current, f)
	newExpiry := normalizeExpiry(expiry, currentExpiry, prec.Expiry)

	if _, err := e.registry.SetSubnodeOwner(ctx, parent, st.labelHash, e.self); err != nil {
		return deny(st.child, st.name, fmt.Errorf("registry claim: %w", err))
	}
	rec := &record.Record{Owner: owner, Fuses: newFuses, Expiry: newExpiry, Name: st.name}
	if err := e.records.Put(ctx, st.child, rec); err != nil {
		return deny(st.child, st.name, err)
	}

	if st.creating {
		e.metricInc(MetricSubnodeCreated)
	} else {
		e.metricInc(MetricSubnodeUpdated)
	}
	e.emitWrapAudit(ctx, auditEventSetSubnodeOwner, true, st.child, caller, owner, st.name, newFuses, newExpiry, nil, func() map[string]string {
		return map[string]string{"label": label}
	})

	return st.child, nil
}

// SetSubnodeRecord describes the setsubnoderecord operation and its observable behavior.
//
// SetSubnodeRecord may return an error when input validation, dependency calls, or security checks fail.
// SetSubnodeRecord does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SetSubnodeRecord(ctx context.Context, caller string, parent node.ID, label, owner, resolver string, ttl uint64, f fuses.Fuses, expiry uint64) (node.ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(id node.ID, name []byte, err error) (node.ID, error) {
		e.metricInc(MetricSubnodeDenied)
		e.emitWrapAudit(ctx, auditEventSetSubnodeRecord, false, id, caller, owner, name, f, expiry, err, func() map[string]string {
			return map[string]string{"label": label}
		})
		return node.ID{}, err
	}

	prec, err := e.getRecord(ctx, parent)
	if err != nil {
		return deny(parent, nil, err)
	}

	st, err := e.prepareSubnode(ctx, caller, parent, prec, label)
	if err != nil {
		return deny(st.child, st.name, err)
	}

	if err := e.checkTargetOwner(owner); err != nil {
		return deny(st.child, st.name, err)
	}

	if f == 0 && expiry == 0 && st.childRec == nil {
		if _, err := e.registry.SetSubnodeOwner(ctx, parent, st.labelHash, owner); err != nil {
			return deny(st.child, st.name, fmt.Errorf("registry assignment: %w", err))
		}
		if err := e.registry.SetResolver(ctx, st.child, resolver); err != nil {
			return deny(st.child, st.name, fmt.Errorf("registry resolver: %w", err))
		}
		if err := e.registry.SetTTL(ctx, st.child, ttl); err != nil {
			return deny(st.child, st.name, fmt.Errorf("registry ttl: %w", err))
		}
		e.metricInc(MetricSubnodeCreated)
		e.emitWrapAudit(ctx, auditEventSetSubnodeRecord, true, st.child, caller, owner, st.name, 0, 0, nil, func() map[string]string {
			return map[string]string{"label": label, "mode": "registry_only"}
		})
		return st.child, nil
	}

	var current fuses.Fuses
	var currentExpiry uint64
	if st.childRec != nil {
		current = st.childRec.Fuses
		currentExpiry = st.childRec.Expiry
	}
	if !fuses.CanBurn(current, f) {
		return deny(st.child, st.name, fmt.Errorf("%w: burning fuses requires CannotUnwrap", ErrOperationProhibited))
	}
	newFuses := fuses.Combine(current, f)
	newExpiry := normalizeExpiry(expiry, currentExpiry, prec.Expiry)

	if _, err := e.registry.SetSubnodeOwner(ctx, parent, st.labelHash, e.self); err != nil {
		return deny(st.child, st.name, fmt.Errorf("registry claim: %w", err))
	}
	if err := e.registry.SetResolver(ctx, st.child, resolver); err != nil {
		return deny(st.child, st.name, fmt.Errorf("registry resolver: %w", err))
	}
	if err := e.registry.SetTTL(ctx, st.child, ttl); err != nil {
		return deny(st.child, st.name, fmt.Errorf("registry ttl: %w", err))
	}
	rec := &record.Record{Owner: owner, Fuses: newFuses, Expiry: newExpiry, Name: st.name}
	if err := e.records.Put(ctx, st.child, rec); err != nil {
		return deny(st.child, st.name, err)
	}

	if st.creating {
		e.metricInc(MetricSubnodeCreated)
	} else {
		e.metricInc(MetricSubnodeUpdated)
	}
	e.emitWrapAudit(ctx, auditEventSetSubnodeRecord, true, st.child, caller, owner, st.name, newFuses, newExpiry, nil, func() map[string]string {
		return map[string]string{"label": label}
	})

	return st.child, nil
}
