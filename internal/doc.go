// Package internal is the root of helper packages that are intentionally
// private to namewrap.
//
// # Sub-packages
//
//   - limiters — registration and renewal throttles for the registrar adapter
//   - rate — core Redis-backed fixed-window rate limit primitives
//   - security — deployment posture report derived from wrapper configuration
//   - stores — Redis sets for the controller allowlist and operator approvals
//
// # What this package must NOT do
//
//   - Export types that appear in the public namewrap API.
//   - Be imported by any package outside the namewrap module.
package internal
