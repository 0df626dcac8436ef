// Package httpapi exposes a read-only HTTP surface for a wrapping engine:
// record ownership, fuse and vulnerability reports, metadata URIs, backend
// health, and Prometheus metrics.
//
// # Routes
//
//   - GET /v1/owner/{node}: stored owner, empty for unwrapped or expired nodes.
//   - GET /v1/fuses/{node}: burned fuses with the vulnerability classification.
//   - GET /v1/uri/{node}: metadata service pass-through.
//   - GET /v1/health: store ping result.
//   - GET /metrics: Prometheus text exposition.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT make
// ownership or fuse decisions itself; all reads are delegated to the engine.
//
// # What this package must NOT do
//
//   - Expose mutating engine operations.
//   - Access Redis (the engine handles I/O).
package httpapi
