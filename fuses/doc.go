// Package fuses holds the capability bitmask and the pure burn rules the
// engine applies before any state mutation.
//
// # Burn semantics
//
// Masks only grow: [Combine] is a bitwise OR, and nothing in this module or
// its callers clears a bit short of discarding the whole record. [CanBurn]
// encodes the one ordering rule: every bit except CannotUnwrap and
// ParentCannotControl is meaningless while the wrapping itself is still
// reversible, so CannotUnwrap must land first or in the same request.
// Unnamed bits are legal and burn freely.
//
// # What this package must NOT do
//
//   - Perform storage, registry, or network I/O.
//   - Decide authorization or vulnerability (engine concerns).
//   - Special-case any bit beyond the two named above.
package fuses
