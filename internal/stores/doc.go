// Package stores provides small Redis-backed sets supporting engine
// authorization: the registration controller allowlist and approved-for-all
// operator delegations.
//
// # Design
//
// Both stores are plain Redis sets with idempotent add/remove. They carry no
// TTL: allowlist membership and delegation are durable administrative state,
// revoked only by an explicit call. Enumeration is expected to stay small
// (controllers are admin-curated, operator sets are per rights-holder).
//
// # Architecture boundaries
//
// This package owns persistence only. It does NOT decide who may mutate the
// allowlist or what an approval permits — those responsibilities belong to
// the engine's authorization gate.
//
// # What this package must NOT do
//
//   - Import namewrap or any sibling internal package.
//   - Cache membership in process memory.
//   - Encode policy (admin identity, fuse checks) into keys or values.
package stores
