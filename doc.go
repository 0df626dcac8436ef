// Package namewrap provides a hierarchical name-ownership and delegation engine
// layered over an external name registry, with irrevocable per-name
// restrictions (fuses), Redis-backed ownership records, and registrar-driven
// expiry for top-level names.
//
// The package is designed for concurrent server workloads: Engine methods are safe to call
// from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// namewrap is the public surface. It exposes [Engine], [Builder], [Config], and value types
// (FuseReport, SecurityReport, MetricsSnapshot, etc.). Name hashing, the record
// codec, and the registry and registrar contracts live in their own sub-packages
// (node, record, registry, registrar). Internal coordination, such as throttle
// accounting, approval and controller storage, and the security self-scan, lives
// under internal/ and is never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its public API.
//   - Perform I/O outside of Engine methods (construction via Builder is allocation-only
//     until Build).
//   - Import any sub-package that re-imports namewrap (no import cycles).
//
// # Performance contract
//
// OwnerOf, GetFuses, and AllFusesBurned are the hot read paths. Each completes
// in one Redis round-trip against the record store. Wrap-class operations are
// allowed the registry and registrar calls they orchestrate plus a single
// record write.
package namewrap
