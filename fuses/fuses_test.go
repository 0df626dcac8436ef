package fuses

import "testing"

func TestCombineIsBitwiseOr(t *testing.T) {
	samples := []Fuses{
		0,
		CannotUnwrap,
		CannotTransfer,
		CannotUnwrap | CannotSetResolver,
		ParentCannotControl,
		ParentCannotControl | CannotUnwrap | CannotSetTTL,
		1 << 20, // unknown bit
		0xFFFFFFFF,
	}
	for _, a := range samples {
		for _, b := range samples {
			got := Combine(a, b)
			if got != a|b {
				t.Fatalf("combine(%s, %s) = %s, want %s", a, b, got, a|b)
			}
			if got&a != a || got&b != b {
				t.Fatalf("combine(%s, %s) dropped bits", a, b)
			}
		}
	}
}

func TestCombineNeverSubtractive(t *testing.T) {
	current := CannotUnwrap | CannotTransfer
	for req := Fuses(0); req < 1<<8; req++ {
		if Combine(current, req)&current != current {
			t.Fatalf("combine cleared bits for request %s", req)
		}
	}
}

func TestCanBurnPreconditionOrdering(t *testing.T) {
	cases := []struct {
		name      string
		current   Fuses
		requested Fuses
		want      bool
	}{
		{"nothing requested", 0, 0, true},
		{"unwrap alone", 0, CannotUnwrap, true},
		{"parent bit alone", 0, ParentCannotControl, true},
		{"unwrap plus parent", 0, CannotUnwrap | ParentCannotControl, true},
		{"transfer without unwrap", 0, CannotTransfer, false},
		{"resolver without unwrap", 0, CannotSetResolver, false},
		{"transfer with unwrap in same request", 0, CannotUnwrap | CannotTransfer, true},
		{"transfer with unwrap already burned", CannotUnwrap, CannotTransfer, true},
		{"unknown bit without unwrap", 0, 1 << 24, false},
		{"unknown bit with unwrap burned", CannotUnwrap, 1 << 24, true},
		{"unknown bit with unwrap in request", 0, CannotUnwrap | 1<<24, true},
		{"parent bit does not satisfy precondition", ParentCannotControl, CannotSetTTL, false},
		{"reburn already burned bit", CannotUnwrap | CannotTransfer, CannotTransfer, true},
	}
	for _, tc := range cases {
		if got := CanBurn(tc.current, tc.requested); got != tc.want {
			t.Fatalf("%s: canBurn(%s, %s) = %v, want %v", tc.name, tc.current, tc.requested, got, tc.want)
		}
	}
}

func TestOwnerSettableExcludesParentBit(t *testing.T) {
	if OwnerSettable.Has(ParentCannotControl) {
		t.Fatal("owner-settable range must exclude the parent bit")
	}
	for _, bit := range []Fuses{
		CannotUnwrap, CannotBurnFuses, CannotTransfer,
		CannotSetResolver, CannotSetTTL, CannotCreateSubdomain,
		1 << 8, 1 << 30,
	} {
		if !OwnerSettable.Has(bit) {
			t.Fatalf("bit %s should be owner settable", bit)
		}
	}
}

func TestHasAndAny(t *testing.T) {
	f := CannotUnwrap | CannotTransfer
	if !f.Has(CannotUnwrap) || !f.Has(CannotUnwrap | CannotTransfer) {
		t.Fatal("has failed on present bits")
	}
	if f.Has(CannotUnwrap | CannotSetTTL) {
		t.Fatal("has must require every bit in the mask")
	}
	if !f.Any(CannotSetTTL | CannotTransfer) {
		t.Fatal("any failed on partially present mask")
	}
	if f.Any(CannotSetTTL | CannotSetResolver) {
		t.Fatal("any matched absent bits")
	}
}

func TestString(t *testing.T) {
	if s := CanDoEverything.String(); s != "NONE" {
		t.Fatalf("zero mask string = %q", s)
	}
	f := CannotUnwrap | ParentCannotControl
	if s := f.String(); s != "CANNOT_UNWRAP|PARENT_CANNOT_CONTROL" {
		t.Fatalf("named mask string = %q", s)
	}
	withUnknown := CannotUnwrap | 1<<24
	if s := withUnknown.String(); s != "CANNOT_UNWRAP|0x1000000" {
		t.Fatalf("unknown-bit mask string = %q", s)
	}
}
