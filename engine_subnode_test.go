package namewrap

import (
	"context"
	"errors"
	"testing"

	"github.com/rvellem/namewrap/fuses"
	"github.com/rvellem/namewrap/node"
)

func TestSetSubnodeOwnerRegistryOnlyAssignment(t *testing.T) {
	engine, reg, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	parent, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	child, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "sub", "carol", 0, 0)
	if err != nil {
		t.Fatalf("SetSubnodeOwner failed: %v", err)
	}
	if want := mustNamehash(t, "sub.alice-name.eth"); child != want {
		t.Fatalf("expected child %s, got %s", want, child)
	}

	regOwner, err := reg.Owner(context.Background(), child)
	if err != nil {
		t.Fatalf("registry Owner failed: %v", err)
	}
	if regOwner != "carol" {
		t.Fatalf("expected registry owner carol, got %q", regOwner)
	}

	// No fuses and no expiry requested: the child gets a bare registry
	// entry and stays unwrapped.
	owner, err := engine.OwnerOf(context.Background(), child)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != "" {
		t.Fatalf("expected no wrapped record for registry-only child, got %q", owner)
	}
}

func TestSetSubnodeOwnerWrapsChildWithFuses(t *testing.T) {
	engine, reg, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	parent, parentExpiry := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	child, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "sub",
		"carol", fuses.ParentCannotControl|fuses.CannotUnwrap, parentExpiry)
	if err != nil {
		t.Fatalf("SetSubnodeOwner failed: %v", err)
	}

	regOwner, err := reg.Owner(context.Background(), child)
	if err != nil {
		t.Fatalf("registry Owner failed: %v", err)
	}
	if regOwner != "sys:namewrap" {
		t.Fatalf("expected registry entry held by the wrapper, got %q", regOwner)
	}

	owner, err := engine.OwnerOf(context.Background(), child)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != "carol" {
		t.Fatalf("expected wrapped owner carol, got %q", owner)
	}

	report, err := engine.GetFuses(context.Background(), child)
	if err != nil {
		t.Fatalf("GetFuses failed: %v", err)
	}
	if want := fuses.ParentCannotControl | fuses.CannotUnwrap; report.Fuses != want {
		t.Fatalf("expected fuses %s, got %s", want, report.Fuses)
	}
	if report.Vulnerability != VulnerabilitySafe {
		t.Fatalf("expected safe classification, got %s", report.Vulnerability)
	}
	if report.Expiry != parentExpiry {
		t.Fatalf("expected expiry %d, got %d", parentExpiry, report.Expiry)
	}
}

func TestSetSubnodeExpiryCappedAtParent(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	parent, parentExpiry := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	child, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "sub",
		"carol", fuses.CannotUnwrap, parentExpiry+500_000)
	if err != nil {
		t.Fatalf("SetSubnodeOwner failed: %v", err)
	}

	report, err := engine.GetFuses(context.Background(), child)
	if err != nil {
		t.Fatalf("GetFuses failed: %v", err)
	}
	if report.Expiry != parentExpiry {
		t.Fatalf("expected child expiry capped at %d, got %d", parentExpiry, report.Expiry)
	}
}

func TestSetSubnodeExpiryNeverMovesBackwards(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	parent, parentExpiry := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	child, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "sub",
		"carol", fuses.CannotUnwrap, parentExpiry-1000)
	if err != nil {
		t.Fatalf("SetSubnodeOwner failed: %v", err)
	}

	if _, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "sub",
		"carol", 0, parentExpiry-500_000); err != nil {
		t.Fatalf("second SetSubnodeOwner failed: %v", err)
	}

	report, err := engine.GetFuses(context.Background(), child)
	if err != nil {
		t.Fatalf("GetFuses failed: %v", err)
	}
	if want := parentExpiry - 1000; report.Expiry != want {
		t.Fatalf("expected expiry held at %d, got %d", want, report.Expiry)
	}
}

func TestSetSubnodeOwnerHonorsChildParentCannotControl(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	parent, parentExpiry := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	if _, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "sub",
		"carol", fuses.ParentCannotControl|fuses.CannotUnwrap, parentExpiry); err != nil {
		t.Fatalf("SetSubnodeOwner failed: %v", err)
	}

	// The parent ceded control; it cannot reassign the child while the
	// protection is enforceable.
	_, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "sub", "mallory", 0, 0)
	if !errors.Is(err, ErrOperationProhibited) {
		t.Fatalf("expected ErrOperationProhibited, got %v", err)
	}

	owner, err := engine.OwnerOf(context.Background(), mustNamehash(t, "sub.alice-name.eth"))
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != "carol" {
		t.Fatalf("expected child still owned by carol, got %q", owner)
	}
}

func TestSetSubnodeOwnerWithoutPCCParentMayReassign(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	parent, parentExpiry := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	child, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "sub",
		"carol", fuses.CannotUnwrap, parentExpiry)
	if err != nil {
		t.Fatalf("SetSubnodeOwner failed: %v", err)
	}

	if _, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "sub", "dave", 0, 0); err != nil {
		t.Fatalf("reassign without PARENT_CANNOT_CONTROL failed: %v", err)
	}

	owner, err := engine.OwnerOf(context.Background(), child)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != "dave" {
		t.Fatalf("expected child reassigned to dave, got %q", owner)
	}
}

func TestSetSubnodeOwnerCreationBlockedByCannotCreateSubdomain(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	parent, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice",
		fuses.CannotUnwrap|fuses.CannotCreateSubdomain)

	_, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "sub", "carol", 0, 0)
	if !errors.Is(err, ErrOperationProhibited) {
		t.Fatalf("expected ErrOperationProhibited, got %v", err)
	}
}

func TestSetSubnodeOwnerExistingChildBypassesCreationGate(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	parent, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", fuses.CannotUnwrap)

	if _, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "sub", "carol", 0, 0); err != nil {
		t.Fatalf("SetSubnodeOwner failed: %v", err)
	}

	// Burning CANNOT_CREATE_SUBDOMAIN blocks new children but not changes
	// to ones that already exist in the registry.
	if _, err := engine.SetFuses(context.Background(), "alice", parent, fuses.CannotCreateSubdomain); err != nil {
		t.Fatalf("SetFuses failed: %v", err)
	}

	if _, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "sub", "dave", 0, 0); err != nil {
		t.Fatalf("update of existing child failed: %v", err)
	}
	_, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "other", "carol", 0, 0)
	if !errors.Is(err, ErrOperationProhibited) {
		t.Fatalf("expected ErrOperationProhibited for new child, got %v", err)
	}
}

func TestSetSubnodeOwnerUnauthorizedCallerRejected(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	parent, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	_, err := engine.SetSubnodeOwner(context.Background(), "mallory", parent, "sub", "mallory", 0, 0)
	if !errors.Is(err, ErrUnauthorised) {
		t.Fatalf("expected ErrUnauthorised, got %v", err)
	}
}

func TestSetSubnodeOwnerUnwrappedParentRejected(t *testing.T) {
	engine, _, _, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	_, err := engine.SetSubnodeOwner(context.Background(), "alice", mustNamehash(t, "never-wrapped.eth"), "sub", "alice", 0, 0)
	if !errors.Is(err, ErrNotWrapped) {
		t.Fatalf("expected ErrNotWrapped, got %v", err)
	}
}

func TestSetSubnodeRecordSetsResolverAndTTL(t *testing.T) {
	engine, reg, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	parent, parentExpiry := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	child, err := engine.SetSubnodeRecord(context.Background(), "alice", parent, "sub",
		"carol", "resolver:public", 3600, fuses.CannotUnwrap, parentExpiry)
	if err != nil {
		t.Fatalf("SetSubnodeRecord failed: %v", err)
	}

	resolver, err := reg.Resolver(context.Background(), child)
	if err != nil {
		t.Fatalf("registry Resolver failed: %v", err)
	}
	if resolver != "resolver:public" {
		t.Fatalf("expected resolver set, got %q", resolver)
	}
	ttl, err := reg.TTL(context.Background(), child)
	if err != nil {
		t.Fatalf("registry TTL failed: %v", err)
	}
	if ttl != 3600 {
		t.Fatalf("expected ttl 3600, got %d", ttl)
	}

	owner, err := engine.OwnerOf(context.Background(), child)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != "carol" {
		t.Fatalf("expected wrapped owner carol, got %q", owner)
	}
}

func TestSetSubnodeRecordRegistryOnlyAssignment(t *testing.T) {
	engine, reg, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	parent, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	child, err := engine.SetSubnodeRecord(context.Background(), "alice", parent, "sub",
		"carol", "resolver:public", 600, 0, 0)
	if err != nil {
		t.Fatalf("SetSubnodeRecord failed: %v", err)
	}

	regOwner, err := reg.Owner(context.Background(), child)
	if err != nil {
		t.Fatalf("registry Owner failed: %v", err)
	}
	if regOwner != "carol" {
		t.Fatalf("expected registry owner carol, got %q", regOwner)
	}

	owner, err := engine.OwnerOf(context.Background(), child)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != "" {
		t.Fatalf("expected no wrapped record, got owner %q", owner)
	}
}

func TestSetSubnodeDepthLimitEnforced(t *testing.T) {
	cfg := wrapperTestConfig()
	cfg.Security.MaxNameDepth = 3
	engine, _, rar, done := newWrapEngine(t, cfg)
	defer done()

	parent, parentExpiry := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	child, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "sub",
		"alice", fuses.CannotUnwrap, parentExpiry)
	if err != nil {
		t.Fatalf("SetSubnodeOwner at depth 3 failed: %v", err)
	}

	_, err = engine.SetSubnodeOwner(context.Background(), "alice", child, "deep", "alice", 0, 0)
	if !errors.Is(err, node.ErrMalformedName) {
		t.Fatalf("expected ErrMalformedName past the depth limit, got %v", err)
	}
}
