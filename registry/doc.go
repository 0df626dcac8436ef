// Package registry provides an in-memory implementation of the external
// name registry the wrapping engine synchronizes against.
//
// # Design
//
// The registry is a flat map from node identifier to {owner, resolver, ttl}.
// It knows nothing about fuses, expiries, or wrapped state; the engine
// layers those on top. Reads of absent nodes return zero values rather
// than errors, matching how a live registry answers queries for names
// that were never created.
//
// # Architecture boundaries
//
// This package must NOT:
//   - import the root package or any store package
//   - enforce authorization (the engine gates every mutation before
//     calling into the registry)
//   - interpret node identifiers (derivation lives in package node)
package registry
