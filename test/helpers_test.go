//go:build integration
// +build integration

package test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rvellem/namewrap/fuses"
	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/record"
)

// newIntegrationStore builds a record store backed by an in-process miniredis.
// The backend matrix in redis_compat_test.go covers real deployments; the
// remaining suites only need a fast local instance.
func newIntegrationStore(t *testing.T) (*record.Store, *redis.Client, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := record.NewStore(rdb, "nw")

	return store, rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func makeRecord(t *testing.T, owner string, f fuses.Fuses, expiry uint64, name string) *record.Record {
	t.Helper()

	wire, err := node.EncodeName(name)
	if err != nil {
		t.Fatalf("encode %q: %v", name, err)
	}

	return &record.Record{
		Owner:  owner,
		Fuses:  f,
		Expiry: expiry,
		Name:   wire,
	}
}

func mustID(t *testing.T, name string) node.ID {
	t.Helper()

	id, err := node.Namehash(name)
	if err != nil {
		t.Fatalf("namehash %q: %v", name, err)
	}
	return id
}
