package namewrap

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/record"
)

// Transfer describes the transfer operation and its observable behavior.
//
// Transfer may return an error when input validation, dependency calls, or security checks fail.
// Transfer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Transfer(ctx context.Context, caller string, n node.ID, from, to string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(err error) error {
		e.metricInc(MetricTransferDenied)
		e.emitAudit(ctx, auditEventTransfer, false, n, caller, err, func() map[string]string {
			return map[string]string{"from": from, "to": to}
		})
		return err
	}

	rec, err := e.getRecord(ctx, n)
	if err != nil {
		return deny(err)
	}
	if rec.Owner != from {
		return deny(fmt.Errorf("%w: %s does not own node %s", ErrUnauthorised, from, n))
	}
	if err := e.checkTargetOwner(to); err != nil {
		return deny(err)
	}
	if err := e.authorize(ctx, caller, n, rec, opTransfer); err != nil {
		return deny(err)
	}

	if _, err := e.records.SwapOwner(ctx, n, from, to); err != nil {
		if errors.Is(err, record.ErrOwnerMismatch) {
			err = fmt.Errorf("%w: record owner changed concurrently", ErrUnauthorised)
		}
		return deny(err)
	}

	e.metricInc(MetricTransferSuccess)
	e.emitAudit(ctx, auditEventTransfer, true, n, caller, nil, func() map[string]string {
		return map[string]string{"from": from, "to": to}
	})

	return nil
}

// BatchTransfer describes the batchtransfer operation and its observable behavior.
//
// BatchTransfer may return an error when input validation, dependency calls, or security checks fail.
// BatchTransfer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) BatchTransfer(ctx context.Context, caller string, ns []node.ID, from, to string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(err error) error {
		e.metricInc(MetricTransferDenied)
		e.emitAudit(ctx, auditEventBatchTransfer, false, node.ID{}, caller, err, func() map[string]string {
			return map[string]string{
				"from":  from,
				"to":    to,
				"count": strconv.Itoa(len(ns)),
			}
		})
		return err
	}

	if len(ns) == 0 {
		return nil
	}
	if max := e.config.Security.MaxBatchSize; max > 0 && len(ns) > max {
		return deny(fmt.Errorf("batch size %d exceeds limit %d", len(ns), max))
	}
	if err := e.checkTargetOwner(to); err != nil {
		return deny(err)
	}

	if caller == "" {
		return deny(fmt.Errorf("%w: empty caller", ErrUnauthorised))
	}
	if caller != from {
		ok, err := e.approvals.IsApproved(ctx, from, caller)
		if err != nil {
			return deny(fmt.Errorf("approval lookup: %w", err))
		}
		if !ok {
			return deny(fmt.Errorf("%w: %s is not %s or an approved operator", ErrUnauthorised, caller, from))
		}
	}

	// Validate every node before touching any of them; the whole batch
	// applies in one pipeline or not at all.
	recs := make([]*record.Record, 0, len(ns))
	for _, n := range ns {
		rec, err := e.getRecord(ctx, n)
		if err != nil {
			return deny(err)
		}
		if rec.Owner != from {
			return deny(fmt.Errorf("%w: %s does not own node %s", ErrUnauthorised, from, n))
		}
		if err := e.checkFuses(ctx, n, rec, opTransfer); err != nil {
			return deny(err)
		}
		rec.Owner = to
		recs = append(recs, rec)
	}

	if err := e.records.PutMany(ctx, ns, recs); err != nil {
		return deny(err)
	}

	e.metricInc(MetricTransferSuccess)
	e.emitAudit(ctx, auditEventBatchTransfer, true, node.ID{}, caller, nil, func() map[string]string {
		return map[string]string{
			"from":  from,
			"to":    to,
			"count": strconv.Itoa(len(ns)),
		}
	})

	return nil
}

// SetApprovalForAll describes the setapprovalforall operation and its observable behavior.
//
// SetApprovalForAll may return an error when input validation, dependency calls, or security checks fail.
// SetApprovalForAll does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) SetApprovalForAll(ctx context.Context, caller, operator string, approved bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	deny := func(err error) error {
		e.emitAudit(ctx, auditEventSetApprovalForAll, false, node.ID{}, caller, err, func() map[string]string {
			return map[string]string{"operator": operator}
		})
		return err
	}

	if caller == "" {
		return deny(fmt.Errorf("%w: empty caller", ErrUnauthorised))
	}
	if operator == "" || operator == caller {
		return deny(fmt.Errorf("%w: %q", ErrIncorrectTargetOwner, operator))
	}

	if err := e.approvals.Set(ctx, caller, operator, approved); err != nil {
		return deny(err)
	}

	if approved {
		e.metricInc(MetricApprovalGranted)
	} else {
		e.metricInc(MetricApprovalRevoked)
	}
	e.emitAudit(ctx, auditEventSetApprovalForAll, true, node.ID{}, caller, nil, func() map[string]string {
		return map[string]string{
			"operator": operator,
			"approved": strconv.FormatBool(approved),
		}
	})

	return nil
}

// IsApprovedForAll describes the isapprovedforall operation and its observable behavior.
//
// IsApprovedForAll may return an error when input validation, dependency calls, or security checks fail.
// IsApprovedForAll does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) IsApprovedForAll(ctx context.Context, owner, operator string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.approvals.IsApproved(ctx, owner, operator)
}
