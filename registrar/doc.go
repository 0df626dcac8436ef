// Package registrar provides an in-memory registration authority for
// direct children of a single top-level name.
//
// # Design
//
// Registrations are keyed by label hash and carry a registrant identity
// plus an expiry in unix seconds. A lapsed label stays claimable by its
// registrant for a configurable grace period; only after the grace window
// passes does the label become available again, and from that point the
// old registrant is no longer reported as holding it.
//
// Renewal extends from the recorded expiry rather than from the current
// time, so renewing early never shortens a registration.
//
// # Architecture boundaries
//
// This package must NOT:
//   - track fuses, wrapped records, or second-level hierarchy (the
//     engine owns those)
//   - import the root package or any store package
//   - gate operations on callers (the engine authorizes before calling)
package registrar
