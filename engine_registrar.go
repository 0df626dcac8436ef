package namewrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/rvellem/namewrap/fuses"
	"github.com/rvellem/namewrap/internal/limiters"
	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/record"
	"github.com/rvellem/namewrap/registrar"
)

// RegisterAndWrapTopLevel describes the registerandwraptoplevel operation and its observable behavior.
//
// RegisterAndWrapTopLevel may return an error when input validation, dependency calls, or security checks fail.
// RegisterAndWrapTopLevel does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RegisterAndWrapTopLevel(ctx context.Context, caller, label, owner string, duration time.Duration, resolver string, f fuses.Fuses) (node.ID, uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(n node.ID, err error) (node.ID, uint64, error) {
		e.metricInc(MetricRegistrationDenied)
		e.emitAudit(ctx, auditEventRegisterAndWrap, false, n, caller, err, func() map[string]string {
			return map[string]string{"label": label}
		})
		return node.ID{}, 0, err
	}

	ok, err := e.controllers.IsController(ctx, caller)
	if err != nil {
		return deny(node.ID{}, fmt.Errorf("controller lookup: %w", err))
	}
	if !ok {
		return deny(node.ID{}, fmt.Errorf("%w: %s is not an approved controller", ErrUnauthorised, caller))
	}

	if err := e.regLimiter.EnforceRegister(ctx, caller); err != nil {
		if errors.Is(err, limiters.ErrRegistrationRateLimited) {
			e.emitRateLimit(ctx, "register", caller, func() map[string]string {
				return map[string]string{"label": label}
			})
			err = fmt.Errorf("%w: controller %s", ErrRegistrationRateLimited, caller)
		}
		return deny(node.ID{}, err)
	}

	lh, err := node.HashLabel(label)
	if err != nil {
		return deny(node.ID{}, err)
	}
	n := node.SubnodeFromHash(e.tldNode, lh)
	name, err := node.AppendLabel(label, e.tldWire)
	if err != nil {
		return deny(n, err)
	}
	if err := e.checkTargetOwner(owner); err != nil {
		return deny(n, err)
	}

	final := fuses.Combine(f, fuses.ParentCannotControl)
	if !fuses.CanBurn(0, final) {
		return deny(n, fmt.Errorf("%w: burning fuses without CannotUnwrap", ErrOperationProhibited))
	}

	avail, err := e.registrar.Available(ctx, lh)
	if err != nil {
		return deny(n, fmt.Errorf("registrar availability lookup: %w", err))
	}
	if !avail {
		return deny(n, fmt.Errorf("%w: label %q", registrar.ErrNotAvailable, label))
	}

	live, err := e.registrar.Register(ctx, lh, e.self, duration)
	if err != nil {
		return deny(n, err)
	}
	if _, err := e.registry.SetSubnodeOwner(ctx, e.tldNode, lh, e.self); err != nil {
		return deny(n, fmt.Errorf("registry claim: %w", err))
	}
	if resolver != "" {
		if err := e.registry.SetResolver(ctx, n, resolver); err != nil {
			return deny(n, fmt.Errorf("registry resolver: %w", err))
		}
	}

	expiry := live + e.graceSeconds()
	rec := &record.Record{Owner: owner, Fuses: final, Expiry: expiry, Name: name}
	if err := e.records.Put(ctx, n, rec); err != nil {
		return deny(n, err)
	}

	e.metricInc(MetricRegistrationSuccess)
	e.emitWrapAudit(ctx, auditEventRegisterAndWrap, true, n, caller, owner, name, final, expiry, nil, nil)

	return n, expiry, nil
}

// Renew describes the renew operation and its observable behavior.
//
// Renew may return an error when input validation, dependency calls, or security checks fail.
// Renew does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Renew(ctx context.Context, caller, label string, duration time.Duration) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(n node.ID, err error) (uint64, error) {
		e.metricInc(MetricRenewDenied)
		e.emitAudit(ctx, auditEventRenew, false, n, caller, err, func() map[string]string {
			return map[string]string{"label": label}
		})
		return 0, err
	}

	if err := e.regLimiter.EnforceRenew(ctx, caller); err != nil {
		if errors.Is(err, limiters.ErrRenewRateLimited) {
			e.emitRateLimit(ctx, "renew", caller, func() map[string]string {
				return map[string]string{"label": label}
			})
			err = fmt.Errorf("%w: caller %s", ErrRenewRateLimited, caller)
		}
		return deny(node.ID{}, err)
	}

	lh, err := node.HashLabel(label)
	if err != nil {
		return deny(node.ID{}, err)
	}
	n := node.SubnodeFromHash(e.tldNode, lh)

	live, err := e.registrar.Renew(ctx, lh, duration)
	if err != nil {
		return deny(n, err)
	}
	expiry := live + e.graceSeconds()

	// The registration is already extended; a record sync failure must not
	// surface as a renew failure.
	rec, err := e.records.Get(ctx, n)
	switch {
	case err == nil:
		rec.Expiry = expiry
		if perr := e.records.Put(ctx, n, rec); perr != nil {
			log.Print("namewrap: renew record sync failed: ", perr)
		}
	case errors.Is(err, record.ErrNotFound):
		// Renewing an unwrapped name only touches the registrar.
	default:
		log.Print("namewrap: renew record lookup failed: ", err)
	}

	e.metricInc(MetricRenewSuccess)
	e.emitAudit(ctx, auditEventRenew, true, n, caller, nil, func() map[string]string {
		return map[string]string{
			"label":  label,
			"expiry": strconv.FormatUint(expiry, 10),
		}
	})

	return expiry, nil
}

// SetController describes the setcontroller operation and its observable behavior.
//
// SetController may return an error when input validation, dependency calls, or security checks fail.
// SetController does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SetController(ctx context.Context, caller, identity string, enabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(err error) error {
		e.emitAudit(ctx, auditEventSetController, false, node.ID{}, caller, err, func() map[string]string {
			return map[string]string{"identity": identity}
		})
		return err
	}

	if e.config.Wrapper.Admin == "" || caller != e.config.Wrapper.Admin {
		return deny(fmt.Errorf("%w: admin access required", ErrUnauthorised))
	}
	if identity == "" {
		return deny(fmt.Errorf("%w: empty controller identity", ErrIncorrectTargetOwner))
	}

	if err := e.controllers.Set(ctx, identity, enabled); err != nil {
		return deny(err)
	}

	e.metricInc(MetricControllerChanged)
	e.emitAudit(ctx, auditEventSetController, true, node.ID{}, caller, nil, func() map[string]string {
		return map[string]string{
			"identity": identity,
			"enabled":  strconv.FormatBool(enabled),
		}
	})

	return nil
}

// IsController describes the iscontroller operation and its observable behavior.
//
// IsController may return an error when input validation, dependency calls, or security checks fail.
// IsController does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) IsController(ctx context.Context, identity string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.controllers.IsController(ctx, identity)
}

// Controllers describes the controllers operation and its observable behavior.
//
// Controllers may return an error when input validation, dependency calls, or security checks fail.
// Controllers does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Controllers(ctx context.Context) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.controllers.List(ctx)
}
