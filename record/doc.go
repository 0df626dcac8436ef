// Package record provides Redis-backed persistence and compact binary
// encoding for wrapped-name records.
//
// # Binary encoding
//
// Records are stored as a compact binary format (schema v1): version byte,
// length-prefixed owner, big-endian fuses and expiry, length-prefixed wire
// name. The owner sits at a fixed offset so the owner compare-and-swap
// script can parse and splice it inside Redis without a read-modify-write
// round trip.
//
// # Key lifetime
//
// Record keys carry no Redis TTL. A record's expiry is domain state: the
// engine must still read an expired record to classify it, so eviction is
// always an explicit Delete.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Record] model.
// It does NOT evaluate fuses, authorize callers, or talk to the external
// registry — those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import namewrap, registry, or registrar (no upward imports).
//   - Apply TTLs to record keys.
//   - Interpret fuse semantics beyond carrying the mask.
package record
