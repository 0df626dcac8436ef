package namewrap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rvellem/namewrap/node"
)

type staticMetadata struct {
	base string
}

func (m staticMetadata) URI(ctx context.Context, id node.ID) (string, error) {
	return m.base + "/" + id.String(), nil
}

func TestIntrospectionWrappedCountTracksRecords(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		wrapTopLevelName(t, engine, rar, fmt.Sprintf("alice-name-%d", i), "alice", 0)
	}

	count, err := engine.WrappedCountEstimate(ctx)
	if err != nil {
		t.Fatalf("WrappedCountEstimate failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 wrapped records, got %d", count)
	}

	if err := engine.UnwrapTopLevel(ctx, "alice", "alice-name-2", "alice", "alice"); err != nil {
		t.Fatalf("UnwrapTopLevel failed: %v", err)
	}

	countAfter, err := engine.WrappedCountEstimate(ctx)
	if err != nil {
		t.Fatalf("WrappedCountEstimate after unwrap failed: %v", err)
	}
	if countAfter != 2 {
		t.Fatalf("expected 2 wrapped records after unwrap, got %d", countAfter)
	}
}

func TestIntrospectionMetadataServiceAdminGate(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, adminTestConfig())
	defer done()

	ctx := context.Background()
	svc := staticMetadata{base: "https://meta.example"}

	if err := engine.SetMetadataService(ctx, "mallory", svc); !errors.Is(err, ErrUnauthorised) {
		t.Fatalf("expected ErrUnauthorised for non-admin, got %v", err)
	}

	if err := engine.SetMetadataService(ctx, "ops:admin", svc); err != nil {
		t.Fatalf("SetMetadataService failed: %v", err)
	}

	n, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)
	uri, err := engine.URI(ctx, n)
	if err != nil {
		t.Fatalf("URI failed: %v", err)
	}
	if want := "https://meta.example/" + n.String(); uri != want {
		t.Fatalf("expected uri %s, got %s", want, uri)
	}
}

func TestIntrospectionMetadataServiceDisabledWithoutAdmin(t *testing.T) {
	engine, _, _, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	err := engine.SetMetadataService(context.Background(), "ops:admin", staticMetadata{})
	if !errors.Is(err, ErrUnauthorised) {
		t.Fatalf("expected ErrUnauthorised without configured admin, got %v", err)
	}
}

func TestIntrospectionURIWithoutServiceEmpty(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	n, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	uri, err := engine.URI(context.Background(), n)
	if err != nil {
		t.Fatalf("URI failed: %v", err)
	}
	if uri != "" {
		t.Fatalf("expected empty uri without metadata service, got %s", uri)
	}
}

func TestIntrospectionHealthRedisUnavailable(t *testing.T) {
	engine, _, _, done := newWrapEngine(t, wrapperTestConfig())
	done()

	health := engine.Health(context.Background())
	if health.RedisAvailable {
		t.Fatal("expected redis unavailable after test redis shutdown")
	}
}

func TestIntrospectionNoPanicWhenRedisDown(t *testing.T) {
	engine, _, _, done := newWrapEngine(t, wrapperTestConfig())
	done()

	if _, err := engine.WrappedCountEstimate(context.Background()); err == nil {
		t.Fatal("expected WrappedCountEstimate to fail when redis is down")
	}
}

func TestIntrospectionReadOnlyDoesNotModifyState(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	clock := pinClocks(engine, rar)
	ctx := context.Background()

	parent, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)
	expiry := uint64(clock.Unix()) + 1000
	child, err := engine.SetSubnodeOwner(ctx, "alice", parent, "sub", "carol", 0, expiry)
	if err != nil {
		t.Fatalf("SetSubnodeOwner failed: %v", err)
	}

	*clock = clock.Add(2000 * time.Second)

	owner, err := engine.OwnerOf(ctx, child)
	if err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if owner != "" {
		t.Fatalf("expected expired record masked, got owner %s", owner)
	}

	// Masking is a read-side view; the stored record must survive.
	if _, err := engine.records.Get(ctx, child); err != nil {
		t.Fatalf("expected stored record to remain after read, got %v", err)
	}
}

func TestIntrospectionConcurrentCallsSafe(t *testing.T) {
	engine, _, rar, done := newWrapEngine(t, wrapperTestConfig())
	defer done()

	ctx := context.Background()
	n, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	errCh := make(chan error, 1)
	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := engine.GetFuses(ctx, n); err != nil {
					select {
					case errCh <- err:
					default:
					}
					return
				}
				if _, err := engine.OwnerOf(ctx, n); err != nil {
					select {
					case errCh <- err:
					default:
					}
					return
				}
				if _, err := engine.WrappedCountEstimate(ctx); err != nil {
					select {
					case errCh <- err:
					default:
					}
					return
				}
				_ = engine.Health(ctx)
			}
		}()
	}
	wg.Wait()

	select {
	case err := <-errCh:
		t.Fatalf("concurrent introspection failed: %v", err)
	default:
	}
}

func TestIntrospectionMetricsSnapshotUnaffected(t *testing.T) {
	cfg := wrapperTestConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = false

	engine, _, rar, done := newWrapEngine(t, cfg)
	defer done()

	ctx := context.Background()
	n, _ := wrapTopLevelName(t, engine, rar, "alice-name", "alice", 0)

	before := engine.MetricsSnapshot()

	if _, err := engine.OwnerOf(ctx, n); err != nil {
		t.Fatalf("OwnerOf failed: %v", err)
	}
	if _, err := engine.GetFuses(ctx, n); err != nil {
		t.Fatalf("GetFuses failed: %v", err)
	}
	if _, err := engine.WrappedCountEstimate(ctx); err != nil {
		t.Fatalf("WrappedCountEstimate failed: %v", err)
	}
	if _, err := engine.URI(ctx, n); err != nil {
		t.Fatalf("URI failed: %v", err)
	}
	_ = engine.Health(ctx)

	after := engine.MetricsSnapshot()
	for id := MetricID(0); id < metricIDCount; id++ {
		if before.Counters[id] != after.Counters[id] {
			t.Fatalf("expected metrics counter %d unchanged, before=%d after=%d", id, before.Counters[id], after.Counters[id])
		}
	}
}
