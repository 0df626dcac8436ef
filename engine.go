package namewrap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rvellem/namewrap/fuses"
	"github.com/rvellem/namewrap/internal/limiters"
	"github.com/rvellem/namewrap/internal/stores"
	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/record"
)

// Engine defines a public type used by namewrap APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config      Config
	registry    Registry
	registrar   Registrar
	metadata    Metadata
	records     *record.Store
	controllers *stores.ControllerStore
	approvals   *stores.ApprovalStore
	regLimiter  *limiters.RegistrationLimiter
	audit       *auditDispatcher
	metrics     *Metrics

	self     string
	tldNode  node.ID
	tldLabel node.LabelHash
	tldWire  []byte

	clock func() time.Time

	// mu serializes state-changing operations so each one observes and
	// applies its registrar, registry, and record effects without
	// interleaving. Reads take the shared side.
	mu sync.RWMutex
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

func (e *Engine) now() uint64 {
	return uint64(e.clock().Unix())
}

func (e *Engine) graceSeconds() uint64 {
	return uint64(e.registrar.GracePeriod() / time.Second)
}

/*
====================================
OPERATION GATE
====================================
*/

type operation uint8

const (
	opNone operation = iota
	opUnwrap
	opSetFuses
	opSetResolver
	opSetTTL
	opSetRecord
	opTransfer
	opCreateSubdomain
	operationCount
)

// operationFuseTable maps each gated operation to the fuse bits that must
// remain clear for it to proceed.
var operationFuseTable = [operationCount]fuses.Fuses{
	opUnwrap:          fuses.CannotUnwrap,
	opSetFuses:        fuses.CannotBurnFuses,
	opSetResolver:     fuses.CannotSetResolver,
	opSetTTL:          fuses.CannotSetTTL,
	opSetRecord:       fuses.CannotTransfer | fuses.CannotSetResolver | fuses.CannotSetTTL,
	opTransfer:        fuses.CannotTransfer,
	opCreateSubdomain: fuses.CannotCreateSubdomain,
}

// authorize runs the two-stage gate shared by operations on wrapped nodes:
// the caller must be the record owner or an approved operator, and the
// operation's required-clear fuse mask must not intersect the record's burned
// fuses. A burned fuse only denies when the node's vulnerability
// classification leaves it enforceable.
func (e *Engine) authorize(ctx context.Context, caller string, id node.ID, rec *record.Record, op operation) error {
	if caller == "" {
		return fmt.Errorf("%w: empty caller", ErrUnauthorised)
	}
	if caller != rec.Owner {
		ok, err := e.approvals.IsApproved(ctx, rec.Owner, caller)
		if err != nil {
			return fmt.Errorf("approval lookup: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s is not owner or operator of node %s", ErrUnauthorised, caller, id)
		}
	}
	return e.checkFuses(ctx, id, rec, op)
}

func (e *Engine) checkFuses(ctx context.Context, id node.ID, rec *record.Record, op operation) error {
	mask := operationFuseTable[op]
	if mask == 0 || !rec.Fuses.Any(mask) {
		return nil
	}

	v, _, err := e.classify(ctx, id, rec)
	if err != nil {
		return err
	}
	if v.Enforceable() {
		return fmt.Errorf("%w: node %s", ErrOperationProhibited, id)
	}
	return nil
}

func (e *Engine) getRecord(ctx context.Context, id node.ID) (*record.Record, error) {
	rec, err := e.records.Get(ctx, id)
	if err != nil {
		if errors.Is(err, record.ErrNotFound) {
			return nil, fmt.Errorf("%w: node %s", ErrNotWrapped, id)
		}
		return nil, err
	}
	return rec, nil
}

func (e *Engine) checkTargetOwner(owner string) error {
	if owner == "" || owner == e.self {
		return fmt.Errorf("%w: %q", ErrIncorrectTargetOwner, owner)
	}
	return nil
}

// normalizeExpiry clamps a requested expiry into [current, max]. A zero max
// means no parent cap applies; a requested value below the current one keeps
// the current value so expiries never move backwards.
func normalizeExpiry(requested, current, max uint64) uint64 {
	if max != 0 && requested > max {
		requested = max
	}
	if requested < current {
		requested = current
	}
	return requested
}

// isTopLevelLabels reports whether decoded labels name a direct child of the
// reserved top-level name.
func (e *Engine) isTopLevelLabels(labels []string) bool {
	return len(labels) == 2 && labels[1] == e.config.Wrapper.TLD
}

func (e *Engine) checkDepth(labels []string) error {
	if max := e.config.Security.MaxNameDepth; max > 0 && len(labels) > max {
		return fmt.Errorf("%w: name depth %d exceeds limit %d", node.ErrMalformedName, len(labels), max)
	}
	return nil
}
