// Package node derives hierarchical name identifiers and handles the wire
// form of names used in wrap events and stored records.
//
// # Derivation
//
// A node ID is the right-to-left fold of a name's labels over Keccak-256:
// id(child) = keccak256(id(parent) || keccak256(label)), with the empty name
// mapping to the zero ID ([Root]). Derivation is one-way: ancestry is
// recovered from a stored wire-form name, never from the ID alone.
//
// # Wire form
//
// Names travel and persist as length-prefixed labels terminated by a zero
// byte ("a.b.tld" becomes \x01a\x01b\x03tld\x00). Labels are byte-exact:
// this package applies no case folding or unicode normalization — callers
// normalize before hashing if their namespace requires it.
//
// # What this package must NOT do
//
//   - Access Redis, stores, or the network.
//   - Import namewrap, record, or registry (no upward imports).
//   - Enforce authorization or fuse policy.
package node
