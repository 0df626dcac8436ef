package node

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ID identifies a node in the name tree: the hash of its full hierarchical
// path. IDs are always derived, never constructed field by field; the parent
// relationship is recovered by re-hashing the name, not by stored pointers.
type ID [32]byte

// LabelHash is the Keccak-256 digest of a single label.
type LabelHash [32]byte

// Root is the ID of the name tree root (the empty name).
var Root ID

// ErrInvalidID is returned when parsing a malformed hex node ID.
var ErrInvalidID = errors.New("invalid node id")

func keccak(parts ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}

// HashLabel returns the Keccak-256 hash of one label after bounds checking.
func HashLabel(label string) (LabelHash, error) {
	if err := CheckLabel(label); err != nil {
		return LabelHash{}, err
	}
	return keccak([]byte(label)), nil
}

// SubnodeFromHash derives the child ID for a parent and a pre-hashed label.
func SubnodeFromHash(parent ID, label LabelHash) ID {
	return keccak(parent[:], label[:])
}

// Subnode derives the child ID for a parent and a raw label.
func Subnode(parent ID, label string) (ID, error) {
	lh, err := HashLabel(label)
	if err != nil {
		return ID{}, err
	}
	return SubnodeFromHash(parent, lh), nil
}

// Namehash folds a dotted name right to left into its node ID. The empty
// name hashes to Root. Each label must satisfy the configured bounds.
func Namehash(name string) (ID, error) {
	if name == "" {
		return Root, nil
	}
	return NamehashLabels(strings.Split(name, "."))
}

// NamehashLabels folds an already-split label sequence, leftmost label
// deepest, into its node ID.
func NamehashLabels(labels []string) (ID, error) {
	id := Root
	for i := len(labels) - 1; i >= 0; i-- {
		lh, err := HashLabel(labels[i])
		if err != nil {
			return ID{}, err
		}
		id = SubnodeFromHash(id, lh)
	}
	return id, nil
}

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

func (id ID) IsZero() bool {
	return id == Root
}

// ParseID decodes a 64-character hex node ID.
func ParseID(s string) (ID, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(raw) != 32 {
		return ID{}, ErrInvalidID
	}
	var id ID
	copy(id[:], raw)
	return id, nil
}
