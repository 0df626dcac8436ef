package namewrap

import (
	"context"
	"encoding/hex"
	"errors"
	"time"

	"github.com/rvellem/namewrap/fuses"
	"github.com/rvellem/namewrap/internal/rate"
	"github.com/rvellem/namewrap/internal/stores"
	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/record"
	"github.com/rvellem/namewrap/registrar"
)

const (
	auditEventWrap                = "wrap"
	auditEventWrapTopLevel        = "wrap_top_level"
	auditEventReceiveRegistration = "receive_registration"
	auditEventUnwrap              = "unwrap"
	auditEventUnwrapTopLevel      = "unwrap_top_level"
	auditEventSetFuses            = "set_fuses"
	auditEventSetSubnodeOwner     = "set_subnode_owner"
	auditEventSetSubnodeRecord    = "set_subnode_record"
	auditEventSetResolver         = "set_resolver"
	auditEventSetTTL              = "set_ttl"
	auditEventSetRecord           = "set_record"
	auditEventTransfer            = "transfer"
	auditEventBatchTransfer       = "batch_transfer"
	auditEventSetApprovalForAll   = "set_approval_for_all"
	auditEventRegisterAndWrap     = "register_and_wrap"
	auditEventRenew               = "renew"
	auditEventSetController       = "set_controller"
	auditEventSetMetadataService  = "set_metadata_service"
	auditEventRateLimitTriggered  = "rate_limit_triggered"
)

// AuditErrorCode defines a public type used by namewrap APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrUnauthorised         AuditErrorCode = "unauthorised"
	auditErrOperationProhibited  AuditErrorCode = "operation_prohibited"
	auditErrIncompatibleParent   AuditErrorCode = "incompatible_parent"
	auditErrIncorrectTargetOwner AuditErrorCode = "incorrect_target_owner"
	auditErrIncorrectTokenType   AuditErrorCode = "incorrect_token_type"
	auditErrNotWrapped           AuditErrorCode = "not_wrapped"
	auditErrNameInvalid          AuditErrorCode = "name_invalid"
	auditErrRateLimited          AuditErrorCode = "rate_limited"
	auditErrStoreUnavailable     AuditErrorCode = "store_unavailable"
	auditErrRegistrarRejected    AuditErrorCode = "registrar_rejected"
	auditErrCorruptRecord        AuditErrorCode = "corrupt_record"
	auditErrInternal             AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	n node.ID,
	caller string,
	err error,
	metadataBuilder func() map[string]string,
) {
	e.emitWrapAudit(ctx, eventType, success, n, caller, "", nil, 0, 0, err, metadataBuilder)
}

// emitWrapAudit is the full-width emitter used by wrap-class operations that
// record the target owner, encoded name, fuse mask, and expiry on the event.
func (e *Engine) emitWrapAudit(
	ctx context.Context,
	eventType string,
	success bool,
	n node.ID,
	caller string,
	owner string,
	name []byte,
	f fuses.Fuses,
	expiry uint64,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:     time.Now().UTC(),
		EventType:     eventType,
		Caller:        caller,
		Owner:         owner,
		Fuses:         uint32(f),
		Expiry:        expiry,
		IP:            clientIPFromContext(ctx),
		CorrelationID: correlationIDFromContext(ctx),
		Success:       success,
		Metadata:      metadata,
	}
	if !n.IsZero() {
		event.Node = n.String()
	}
	if len(name) > 0 {
		event.Name = hex.EncodeToString(name)
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(
	ctx context.Context,
	scope string,
	caller string,
	metadataBuilder func() map[string]string,
) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, node.ID{}, caller, nil, func() map[string]string {
		base := map[string]string{
			"scope": scope,
		}
		if metadataBuilder == nil {
			return base
		}
		for k, v := range metadataBuilder() {
			base[k] = v
		}
		return base
	})
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnauthorised),
		errors.Is(err, record.ErrOwnerMismatch):
		return auditErrUnauthorised
	case errors.Is(err, ErrOperationProhibited):
		return auditErrOperationProhibited
	case errors.Is(err, ErrIncompatibleParent):
		return auditErrIncompatibleParent
	case errors.Is(err, ErrIncorrectTargetOwner):
		return auditErrIncorrectTargetOwner
	case errors.Is(err, ErrIncorrectTokenType):
		return auditErrIncorrectTokenType
	case errors.Is(err, ErrNotWrapped),
		errors.Is(err, record.ErrNotFound):
		return auditErrNotWrapped
	case errors.Is(err, node.ErrLabelTooShort),
		errors.Is(err, node.ErrLabelTooLong),
		errors.Is(err, node.ErrMalformedName),
		errors.Is(err, node.ErrInvalidID):
		return auditErrNameInvalid
	case errors.Is(err, ErrRegistrationRateLimited),
		errors.Is(err, ErrRenewRateLimited),
		errors.Is(err, rate.ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, record.ErrRedisUnavailable),
		errors.Is(err, stores.ErrControllerRedisUnavailable),
		errors.Is(err, stores.ErrApprovalRedisUnavailable),
		errors.Is(err, rate.ErrRedisUnavailable):
		return auditErrStoreUnavailable
	case errors.Is(err, registrar.ErrNotAvailable),
		errors.Is(err, registrar.ErrNotRegistered),
		errors.Is(err, registrar.ErrNotRegistrant):
		return auditErrRegistrarRejected
	case errors.Is(err, record.ErrCorruptRecord):
		return auditErrCorruptRecord
	default:
		return auditErrInternal
	}
}
