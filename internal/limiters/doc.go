// Package limiters provides domain-specific rate limiters built on top of
// the internal/rate primitives.
//
// # Limiters
//
//   - [RegistrationLimiter] — per-controller registration throttle and
//     per-caller renewal throttle for the registration adapter.
//
// All limiters are nil-safe: calling any method on a nil receiver returns nil.
//
// # Architecture boundaries
//
// Each limiter owns its own error types; key namespaces live in
// internal/rate. Policy thresholds come from Config structs supplied at
// construction time.
//
// # What this package must NOT do
//
//   - Import namewrap or any sibling internal package except internal/rate.
//   - Make policy decisions beyond counting — the engine decides consequences.
package limiters
