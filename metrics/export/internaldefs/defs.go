package internaldefs

import (
	namewrap "github.com/rvellem/namewrap"
)

// CounterDef defines a public type used by namewrap APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   namewrap.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by namewrap APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   namewrap.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the wrapping engine.
var CounterDefs = []CounterDef{
	{ID: namewrap.MetricWrapSuccess, Name: "namewrap_wrap_success_total", Help: "Successful wrap operations."},
	{ID: namewrap.MetricWrapDenied, Name: "namewrap_wrap_denied_total", Help: "Denied wrap operations."},
	{ID: namewrap.MetricUnwrapSuccess, Name: "namewrap_unwrap_success_total", Help: "Successful unwrap operations."},
	{ID: namewrap.MetricUnwrapDenied, Name: "namewrap_unwrap_denied_total", Help: "Denied unwrap operations."},
	{ID: namewrap.MetricFuseBurnSuccess, Name: "namewrap_fuse_burn_success_total", Help: "Successful fuse burns."},
	{ID: namewrap.MetricFuseBurnDenied, Name: "namewrap_fuse_burn_denied_total", Help: "Denied fuse burns."},
	{ID: namewrap.MetricSubnodeCreated, Name: "namewrap_subnode_created_total", Help: "Subnodes created under parent authority."},
	{ID: namewrap.MetricSubnodeUpdated, Name: "namewrap_subnode_updated_total", Help: "Existing subnodes replaced under parent authority."},
	{ID: namewrap.MetricSubnodeDenied, Name: "namewrap_subnode_denied_total", Help: "Denied subnode operations."},
	{ID: namewrap.MetricRecordUpdateSuccess, Name: "namewrap_record_update_success_total", Help: "Successful resolver, TTL, and record updates."},
	{ID: namewrap.MetricRecordUpdateDenied, Name: "namewrap_record_update_denied_total", Help: "Denied resolver, TTL, and record updates."},
	{ID: namewrap.MetricTransferSuccess, Name: "namewrap_transfer_success_total", Help: "Successful wrapped-ownership transfers."},
	{ID: namewrap.MetricTransferDenied, Name: "namewrap_transfer_denied_total", Help: "Denied wrapped-ownership transfers."},
	{ID: namewrap.MetricApprovalGranted, Name: "namewrap_approval_granted_total", Help: "Operator approvals granted."},
	{ID: namewrap.MetricApprovalRevoked, Name: "namewrap_approval_revoked_total", Help: "Operator approvals revoked."},
	{ID: namewrap.MetricRegistrationSuccess, Name: "namewrap_registration_success_total", Help: "Successful register-and-wrap operations."},
	{ID: namewrap.MetricRegistrationDenied, Name: "namewrap_registration_denied_total", Help: "Denied register-and-wrap operations."},
	{ID: namewrap.MetricRenewSuccess, Name: "namewrap_renew_success_total", Help: "Successful renewals."},
	{ID: namewrap.MetricRenewDenied, Name: "namewrap_renew_denied_total", Help: "Denied renewals."},
	{ID: namewrap.MetricControllerChanged, Name: "namewrap_controller_changed_total", Help: "Controller allowlist changes."},
	{ID: namewrap.MetricRateLimitHit, Name: "namewrap_rate_limit_hit_total", Help: "Rate-limit checks that denied requests."},
}

// HistogramDefs is an exported constant or variable used by the wrapping engine.
var HistogramDefs = []HistogramDef{
	{ID: namewrap.MetricAnalyzeLatency, Name: "namewrap_analyze_latency_seconds", Help: "Vulnerability analysis latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the wrapping engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the wrapping engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets may return an error when input validation, dependency calls, or security checks fail.
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets may return an error when input validation, dependency calls, or security checks fail.
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
