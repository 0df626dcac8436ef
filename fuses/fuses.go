package fuses

import (
	"fmt"
	"strings"
)

// Fuses is a burn-only capability bitmask. A set bit means the named right
// has been irrevocably relinquished for the node carrying the mask.
type Fuses uint32

const (
	CannotUnwrap Fuses = 1 << iota
	CannotBurnFuses
	CannotTransfer
	CannotSetResolver
	CannotSetTTL
	CannotCreateSubdomain
)

// ParentCannotControl asserts the parent has irrevocably ceded reclamation
// rights over this node. It is only ever set through a wrap or subnode
// operation running under the parent's (or leaf authority's) own standing,
// never by the node's owner.
const ParentCannotControl Fuses = 1 << 16

// CanDoEverything is the empty mask.
const CanDoEverything Fuses = 0

// OwnerSettable covers every bit a node's own mutation path may burn.
// Unknown bits burn freely; only ParentCannotControl is reserved.
const OwnerSettable = ^ParentCannotControl

func (f Fuses) Has(mask Fuses) bool {
	return f&mask == mask
}

func (f Fuses) Any(mask Fuses) bool {
	return f&mask != 0
}

// Combine merges a burn request into the current mask. Strictly additive:
// burning an already-burned bit is a no-op, bits are never cleared.
func Combine(current, requested Fuses) Fuses {
	return current | requested
}

// CanBurn reports whether requested may land on top of current. Any bit
// other than CannotUnwrap and ParentCannotControl requires CannotUnwrap to
// be already burned or included in the same request.
func CanBurn(current, requested Fuses) bool {
	others := requested &^ (CannotUnwrap | ParentCannotControl)
	if others == 0 {
		return true
	}
	return (current | requested).Has(CannotUnwrap)
}

var names = []struct {
	bit  Fuses
	name string
}{
	{CannotUnwrap, "CANNOT_UNWRAP"},
	{CannotBurnFuses, "CANNOT_BURN_FUSES"},
	{CannotTransfer, "CANNOT_TRANSFER"},
	{CannotSetResolver, "CANNOT_SET_RESOLVER"},
	{CannotSetTTL, "CANNOT_SET_TTL"},
	{CannotCreateSubdomain, "CANNOT_CREATE_SUBDOMAIN"},
	{ParentCannotControl, "PARENT_CANNOT_CONTROL"},
}

// Names lists the named bits present in the mask; unrecognized bits are
// rendered as a single hex remainder.
func (f Fuses) Names() []string {
	var out []string
	rest := f
	for _, n := range names {
		if f.Has(n.bit) {
			out = append(out, n.name)
			rest &^= n.bit
		}
	}
	if rest != 0 {
		out = append(out, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return out
}

func (f Fuses) String() string {
	if f == CanDoEverything {
		return "NONE"
	}
	return strings.Join(f.Names(), "|")
}
