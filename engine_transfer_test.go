package namewrap

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rvellem/namewrap/fuses"
	"github.com/rvellem/namewrap/node"
)

func TestTransferMovesRecordOwnership(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	n, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	if err := engine.Transfer(context.Background(), "alice", n, "alice", "bob"); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	owner, err := engine.OwnerOf(context.Background(), n)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != "bob" {
		t.Fatalf("expected owner bob, got %q", owner)
	}
}

func TestTransferBlockedByCannotTransfer(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	n, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", fuses.CannotUnwrap|fuses.CannotTransfer)

	err := engine.Transfer(context.Background(), "alice", n, "alice", "bob")
	if !errors.Is(err, ErrOperationProhibited) {
		t.Fatalf("expected ErrOperationProhibited, got %v", err)
	}

	owner, err := engine.OwnerOf(context.Background(), n)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != "alice" {
		t.Fatalf("expected owner unchanged, got %q", owner)
	}
}

func TestTransferFromMismatchRejected(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	n, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	err := engine.Transfer(context.Background(), "alice", n, "bob", "carol")
	if !errors.Is(err, ErrUnauthorised) {
		t.Fatalf("expected ErrUnauthorised, got %v", err)
	}
}

func TestTransferByApprovedOperator(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	n, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)
	if err := engine.SetApprovalForAll(context.Background(), "alice", "operator-1", true); err != nil {
		t.Fatalf("SetApprovalForAll failed: %v", err)
	}

	if err := engine.Transfer(context.Background(), "operator-1", n, "alice", "bob"); err != nil {
		t.Fatalf("Transfer by operator failed: %v", err)
	}

	owner, err := engine.OwnerOf(context.Background(), n)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != "bob" {
		t.Fatalf("expected owner bob, got %q", owner)
	}
}

func TestTransferRejectsWrapperIdentityAsTarget(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	n, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	err := engine.Transfer(context.Background(), "alice", n, "alice", "sys:namewrap")
	if !errors.Is(err, ErrIncorrectTargetOwner) {
		t.Fatalf("expected ErrIncorrectTargetOwner, got %v", err)
	}
}

func TestBatchTransferMovesAllNodes(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	var ns []node.ID
	for i := 0; i < 3; i++ {
		n, _ := wrapTopLevelName(t, engine, rar, fmt.Sprintf("alice-name-%d", i), "alice", 0)
		ns = append(ns, n)
	}

	if err := engine.BatchTransfer(context.Background(), "alice", ns, "alice", "bob"); err != nil {
		t.Fatalf("BatchTransfer failed: %v", err)
	}

	for _, n := range ns {
		owner, err := engine.OwnerOf(context.Background(), n)
		if err != nil {
			t.Fatalf("OwnerOf failed: %v", err)
		}
		if owner != "bob" {
			t.Fatalf("expected owner bob for %s, got %q", n, owner)
		}
	}
}

func TestBatchTransferAllOrNothing(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	clean, _ := wrapTopLevelName(t, engine, rar, "alice-clean", "alice", 0)
	locked, _ := wrapTopLevelName(t, engine, rar, "alice-locked", "alice", fuses.CannotUnwrap|fuses.CannotTransfer)

	err := engine.BatchTransfer(context.Background(), "alice", []node.ID{clean, locked}, "alice", "bob")
	if !errors.Is(err, ErrOperationProhibited) {
		t.Fatalf("expected ErrOperationProhibited, got %v", err)
	}

	// The clean node listed before the locked one must be untouched.
	owner, err := engine.OwnerOf(context.Background(), clean)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != "alice" {
		t.Fatalf("expected clean node untouched, got owner %q", owner)
	}
}

func TestBatchTransferSizeCap(t *testing.T) {
	cfg := wrapperTestConfig()
	cfg.Security.MaxBatchSize = 2
	engine, _, rar, done := newWrapEngine(t, cfg)
	defer done()

	var ns []node.ID
	for i := 0; i < 3; i++ {
		n, _ := wrapTopLevelName(t, engine, rar, fmt.Sprintf("alice-name-%d", i), "alice", 0)
		ns = append(ns, n)
	}

	err := engine.BatchTransfer(context.Background(), "alice", ns, "alice", "bob")
	if err == nil {
		t.Fatal("expected batch size error")
	}
}

func TestBatchTransferEmptyBatchIsNoOp(t *testing.T) {
	engine, _, _, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	if err := engine.BatchTransfer(context.Background(), "alice", nil, "alice", "bob"); err != nil {
		t.Fatalf("empty BatchTransfer failed: %v", err)
	}
}

func TestBatchTransferByApprovedOperator(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	n, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)
	if err := engine.SetApprovalForAll(context.Background(), "alice", "operator-1", true); err != nil {
		t.Fatalf("SetApprovalForAll failed: %v", err)
	}

	if err := engine.BatchTransfer(context.Background(), "operator-1", []node.ID{n}, "alice", "bob"); err != nil {
		t.Fatalf("BatchTransfer by operator failed: %v", err)
	}

	if err := engine.BatchTransfer(context.Background(), "mallory", []node.ID{n}, "bob", "mallory"); !errors.Is(err, ErrUnauthorised) {
		t.Fatalf("expected ErrUnauthorised, got %v", err)
	}
}

func TestSetApprovalForAllRejectsEmptyAndSelfOperator(t *testing.T) {
	engine, _, _, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	if err := engine.SetApprovalForAll(context.Background(), "alice", "", true); !errors.Is(err, ErrIncorrectTargetOwner) {
		t.Fatalf("expected ErrIncorrectTargetOwner for empty operator, got %v", err)
	}
	if err := engine.SetApprovalForAll(context.Background(), "alice", "alice", true); !errors.Is(err, ErrIncorrectTargetOwner) {
		t.Fatalf("expected ErrIncorrectTargetOwner for self approval, got %v", err)
	}
	if err := engine.SetApprovalForAll(context.Background(), "", "operator-1", true); !errors.Is(err, ErrUnauthorised) {
		t.Fatalf("expected ErrUnauthorised for empty caller, got %v", err)
	}
}

func TestApprovalLifecycle(t *testing.T) {
	engine, _, _, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	ok, err := engine.IsApprovedForAll(context.Background(), "alice", "operator-1")
	if err != nil {
		t.Fatalf("IsApprovedForAll failed: %v", err)
	}
	if ok {
		t.Fatal("expected no approval initially")
	}

	if err := engine.SetApprovalForAll(context.Background(), "alice", "operator-1", true); err != nil {
		t.Fatalf("SetApprovalForAll grant failed: %v", err)
	}
	ok, err = engine.IsApprovedForAll(context.Background(), "alice", "operator-1")
	if err != nil {
		t.Fatalf("IsApprovedForAll failed: %v", err)
	}
	if !ok {
		t.Fatal("expected approval after grant")
	}

	if err := engine.SetApprovalForAll(context.Background(), "alice", "operator-1", false); err != nil {
		t.Fatalf("SetApprovalForAll revoke failed: %v", err)
	}
	ok, err = engine.IsApprovedForAll(context.Background(), "alice", "operator-1")
	if err != nil {
		t.Fatalf("IsApprovedForAll failed: %v", err)
	}
	if ok {
		t.Fatal("expected approval revoked")
	}
}

func TestTransferExpiredNodeFusesDoNotBind(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()
	clock := pinClocks(engine, rar)

	parent, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	childExpiry := uint64(clock.Unix()) + 1000
	child, err := engine.SetSubnodeOwner(context.Background(), "alice", parent, "sub",
		"carol", fuses.ParentCannotControl|fuses.CannotUnwrap|fuses.CannotTransfer, childExpiry)
	if err != nil {
		t.Fatalf("SetSubnodeOwner failed: %v", err)
	}

	if err := engine.Transfer(context.Background(), "carol", child, "carol", "dave"); !errors.Is(err, ErrOperationProhibited) {
		t.Fatalf("expected ErrOperationProhibited while live, got %v", err)
	}

	*clock = clock.Add(2000 * time.Second)

	// Past its own expiry the node's burned fuses are no longer enforceable,
	// so the stored record can still be moved.
	if err := engine.Transfer(context.Background(), "carol", child, "carol", "dave"); err != nil {
		t.Fatalf("Transfer of expired node failed: %v", err)
	}
}
