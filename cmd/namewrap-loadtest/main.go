package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	namewrap "github.com/rvellem/namewrap"
	"github.com/rvellem/namewrap/node"
	"github.com/rvellem/namewrap/registrar"
	"github.com/rvellem/namewrap/registry"
)

type nameState struct {
	id    node.ID
	owner string
	alt   string
	mu    sync.Mutex
}

func main() {
	var (
		names       = flag.Int("names", 50000, "number of wrapped names to seed")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase (read + transfer)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "nw", "record key prefix")
	)
	flag.Parse()

	if *names <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "names, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	// Scope this run's keys so repeated runs against a shared Redis do not
	// collide.
	runID := uuid.NewString()[:8]

	cfg := namewrap.DefaultConfig()
	cfg.Store.RedisPrefix = *prefix + runID
	cfg.Metrics.Enabled = true

	rar := registrar.NewInMemory(90 * 24 * time.Hour)
	engine, err := namewrap.New().
		WithConfig(cfg).
		WithRedis(client).
		WithRegistry(registry.NewInMemory()).
		WithRegistrar(rar).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("run %s: seeding %d wrapped names...\n", runID, *names)
	states := make([]nameState, *names)
	startSeed := time.Now()
	for i := 0; i < *names; i++ {
		label := fmt.Sprintf("load-%s-%d", runID, i)
		owner := fmt.Sprintf("holder-a-%d", i)

		lh, err := node.HashLabel(label)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash label failed: %v\n", err)
			os.Exit(1)
		}
		if _, err := rar.Register(ctx, lh, owner, 365*24*time.Hour); err != nil {
			fmt.Fprintf(os.Stderr, "seed registration failed: %v\n", err)
			os.Exit(1)
		}
		n, _, err := engine.WrapTopLevel(ctx, owner, label, owner, 0, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed wrap failed: %v\n", err)
			os.Exit(1)
		}
		states[i] = nameState{id: n, owner: owner, alt: fmt.Sprintf("holder-b-%d", i)}
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	readStats := runReadPhase(ctx, engine, states, *ops, *concurrency)
	transferStats := runTransferPhase(ctx, engine, states, *ops, *concurrency)

	fmt.Println("---- results ----")
	printStats("read", readStats)
	printStats("transfer", transferStats)

	if est, err := engine.WrappedCountEstimate(ctx); err == nil {
		fmt.Printf("wrapped estimate: %d\n", est)
	}
}

func runReadPhase(ctx context.Context, engine *namewrap.Engine, states []nameState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				t0 := time.Now()
				var err error
				if i%2 == 0 {
					_, err = engine.OwnerOf(ctx, states[idx].id)
				} else {
					_, err = engine.GetFuses(ctx, states[idx].id)
				}
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

func runTransferPhase(ctx context.Context, engine *namewrap.Engine, states []nameState, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*6151))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := r.Intn(len(states))
				state := &states[idx]

				state.mu.Lock()
				from, to := state.owner, state.alt
				t0 := time.Now()
				err := engine.Transfer(ctx, from, state.id, from, to)
				d := time.Since(t0)
				if err == nil {
					state.owner, state.alt = to, from
				} else {
					atomic.AddInt64(&failures, 1)
				}
				state.mu.Unlock()

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
