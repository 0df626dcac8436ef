//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"testing"

	"github.com/rvellem/namewrap/record"
)

func TestStoreConsistencyDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _, cleanup := newIntegrationStore(t)
	defer cleanup()

	id := mustID(t, "consistency-delete.zone")
	if err := store.Put(ctx, id, makeRecord(t, "alice", 0, 0, "consistency-delete.zone")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("first Delete failed: %v", err)
	}
	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected wrapped count 0, got %d", count)
	}
	if _, err := store.Get(ctx, id); !errors.Is(err, record.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStoreConsistencyCounterNeverNegative(t *testing.T) {
	ctx := context.Background()
	store, _, cleanup := newIntegrationStore(t)
	defer cleanup()

	absent := mustID(t, "consistency-absent.zone")
	if err := store.Delete(ctx, absent); err != nil {
		t.Fatalf("Delete of absent record failed: %v", err)
	}
	if err := store.Delete(ctx, absent); err != nil {
		t.Fatalf("repeat Delete of absent record failed: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("wrapped count must never go negative, got %d", count)
	}

	id := mustID(t, "consistency-counter.zone")
	if err := store.Put(ctx, id, makeRecord(t, "alice", 0, 0, "consistency-counter.zone")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Put(ctx, id, makeRecord(t, "bob", 0, 0, "consistency-counter.zone")); err != nil {
		t.Fatalf("overwrite Put failed: %v", err)
	}

	count, err = store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("overwriting the same node must keep count at 1, got %d", count)
	}
}

func TestStoreConsistencyRejectedSwapKeepsRecord(t *testing.T) {
	ctx := context.Background()
	store, _, cleanup := newIntegrationStore(t)
	defer cleanup()

	id := mustID(t, "consistency-swap.zone")
	if err := store.Put(ctx, id, makeRecord(t, "alice", 0, 0, "consistency-swap.zone")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := store.SwapOwner(ctx, id, "mallory", "eve"); !errors.Is(err, record.ErrOwnerMismatch) {
		t.Fatalf("expected ErrOwnerMismatch, got %v", err)
	}

	// A rejected swap is a no-op: the record stays in place with its owner and
	// the counter untouched.
	rec, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get after rejected swap failed: %v", err)
	}
	if rec.Owner != "alice" {
		t.Fatalf("expected owner alice after rejected swap, got %q", rec.Owner)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected wrapped count 1, got %d", count)
	}
}

func TestStoreConsistencySwapOfMissingRecord(t *testing.T) {
	ctx := context.Background()
	store, _, cleanup := newIntegrationStore(t)
	defer cleanup()

	id := mustID(t, "consistency-missing.zone")
	if _, err := store.SwapOwner(ctx, id, "alice", "bob"); !errors.Is(err, record.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing record, got %v", err)
	}
}
