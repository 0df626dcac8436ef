package namewrap

import (
	"context"
	"time"

	"github.com/rvellem/namewrap/node"
)

// Registry is the external name registry the engine sits in front of. It
// stores the authoritative owner, resolver, and TTL fields per node and an
// owner-scoped operator approval map. The engine claims registry ownership of
// wrapped nodes and layers fuse enforcement on top; the registry itself never
// gates callers.
//
// Implementations must treat absent nodes as zero values rather than errors.
// [registry.InMemory] is the bundled implementation.
type Registry interface {
	Owner(ctx context.Context, id node.ID) (string, error)
	SetOwner(ctx context.Context, id node.ID, owner string) error
	SetResolver(ctx context.Context, id node.ID, resolver string) error
	SetTTL(ctx context.Context, id node.ID, ttl uint64) error
	SetSubnodeOwner(ctx context.Context, parent node.ID, label node.LabelHash, owner string) (node.ID, error)
	IsApprovedForAll(ctx context.Context, owner, operator string) (bool, error)
}

// Registrar is the leaf authority for direct children of the reserved
// top-level name. It tracks registrants and expiries by label hash and applies
// a grace window after expiry during which the lapsed holder retains standing.
// Expiry values are Unix seconds; zero means never registered.
//
// [registrar.InMemory] is the bundled implementation.
type Registrar interface {
	Register(ctx context.Context, label node.LabelHash, owner string, duration time.Duration) (uint64, error)
	Renew(ctx context.Context, label node.LabelHash, duration time.Duration) (uint64, error)
	NameExpires(ctx context.Context, label node.LabelHash) (uint64, error)
	Available(ctx context.Context, label node.LabelHash) (bool, error)
	RegistrantOf(ctx context.Context, label node.LabelHash) (string, error)
	IsApprovedOrOwner(ctx context.Context, caller string, label node.LabelHash) (bool, error)
	Transfer(ctx context.Context, label node.LabelHash, from, to string) error
	GracePeriod() time.Duration
}

// Metadata resolves a descriptive URI for a wrapped node. It is optional;
// when no service is configured [Engine.URI] returns the empty string.
type Metadata interface {
	URI(ctx context.Context, id node.ID) (string, error)
}

// Vulnerability defines a public type used by namewrap APIs.
//
// Vulnerability classifies how a wrapped name's guarantees can still be
// subverted from outside the wrapped record. Classification is computed on
// demand and never stored.
type Vulnerability uint8

const (
	// VulnerabilitySafe is an exported constant or variable used by the wrapping engine.
	VulnerabilitySafe Vulnerability = iota
	// VulnerabilityRegistrant is an exported constant or variable used by the wrapping engine.
	VulnerabilityRegistrant
	// VulnerabilityController is an exported constant or variable used by the wrapping engine.
	VulnerabilityController
	// VulnerabilityFuses is an exported constant or variable used by the wrapping engine.
	VulnerabilityFuses
	// VulnerabilityExpired is an exported constant or variable used by the wrapping engine.
	VulnerabilityExpired
)

// String describes the string operation and its observable behavior.
func (v Vulnerability) String() string {
	switch v {
	case VulnerabilitySafe:
		return "safe"
	case VulnerabilityRegistrant:
		return "registrant"
	case VulnerabilityController:
		return "controller"
	case VulnerabilityFuses:
		return "fuses"
	case VulnerabilityExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Enforceable reports whether fuses burned on a record with this
// classification actually bind. Expired, Registrant, and Controller
// classifications void enforcement; Safe and Fuses keep the owner's own
// burned fuses binding.
func (v Vulnerability) Enforceable() bool {
	switch v {
	case VulnerabilityExpired, VulnerabilityRegistrant, VulnerabilityController:
		return false
	default:
		return true
	}
}
