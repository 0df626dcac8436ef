// Package rate provides internal primitives used to build Redis-backed rate
// limit keys, errors, and limiter behavior for the registration adapter.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - nwreg: — registration per-controller
//   - nwrnw: — renewal per-caller
//
// # What this package must NOT do
//
//   - Implement domain-specific policies (those live in internal/limiters).
//   - Be imported outside the namewrap module.
package rate
