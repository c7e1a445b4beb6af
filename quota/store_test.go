package quota

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis, *testClock) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	clock := &testClock{now: time.Now()}
	store := New(Options{
		Client:    rdb,
		Window:    DefaultWindow,
		OpTimeout: 500 * time.Millisecond,
		Logger:    discardLogger(),
		Now:       clock.Now,
	})
	if err := store.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	return store, mr, clock
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(discard{})
	return l
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestGetCounterInitializesWindow(t *testing.T) {
	store, mr, clock := newTestStore(t)
	ctx := context.Background()

	c := store.GetCounter(ctx, "anon:10.0.0.1")
	if c.Count != 0 {
		t.Fatalf("fresh counter Count = %d, want 0", c.Count)
	}
	want := clock.Now().Add(DefaultWindow)
	if c.ResetAt.Sub(want) > time.Second || want.Sub(c.ResetAt) > time.Second {
		t.Fatalf("ResetAt = %v, want ~%v", c.ResetAt, want)
	}

	// The shared-backend key must self-clean via TTL.
	if ttl := mr.TTL("rate_limit:anon:10.0.0.1"); ttl <= 0 {
		t.Fatalf("counter key has no TTL (%v)", ttl)
	}
}

func TestIncrementWithinLiveWindow(t *testing.T) {
	store, _, _ := newTestStore(t)
	ctx := context.Background()

	store.GetCounter(ctx, "user-1")
	for i := 0; i < 3; i++ {
		store.Increment(ctx, "user-1")
	}

	if c := store.GetCounter(ctx, "user-1"); c.Count != 3 {
		t.Fatalf("Count = %d, want 3", c.Count)
	}
}

func TestIncrementElapsedWindowIsNoOp(t *testing.T) {
	store, mr, clock := newTestStore(t)
	ctx := context.Background()

	store.GetCounter(ctx, "user-1")
	store.Increment(ctx, "user-1")

	clock.Advance(DefaultWindow + time.Minute)

	// Elapsed window: the stored count must not move.
	store.Increment(ctx, "user-1")
	if got := mr.HGet("rate_limit:user-1", "count"); got != "1" {
		t.Fatalf("stored count after elapsed increment = %q, want 1", got)
	}
}

func TestGetCounterLazilyResetsElapsedWindow(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	store.GetCounter(ctx, "user-1")
	store.Increment(ctx, "user-1")

	clock.Advance(DefaultWindow + time.Minute)

	c := store.GetCounter(ctx, "user-1")
	if c.Count != 0 {
		t.Fatalf("Count after window reset = %d, want 0", c.Count)
	}
	if !c.ResetAt.After(clock.Now()) {
		t.Fatalf("ResetAt %v not in the future of %v", c.ResetAt, clock.Now())
	}
}

func TestWindowBoundaryResets(t *testing.T) {
	store, _, clock := newTestStore(t)
	ctx := context.Background()

	c := store.GetCounter(ctx, "user-1")
	store.Increment(ctx, "user-1")

	// Exactly at ResetAt the window counts as elapsed.
	clock.now = c.ResetAt

	if got := store.GetCounter(ctx, "user-1"); got.Count != 0 {
		t.Fatalf("Count at exact boundary = %d, want 0", got.Count)
	}
}

func TestFallbackOnBackendFailure(t *testing.T) {
	store, mr, _ := newTestStore(t)
	ctx := context.Background()

	store.GetCounter(ctx, "user-1")
	store.Increment(ctx, "user-1")

	mr.Close()

	// Same surface, local backend: shape and tier math keep working.
	c := store.GetCounter(ctx, "user-1")
	if store.Healthy() {
		t.Fatal("store still Healthy after backend loss")
	}
	if c.Count != 0 {
		t.Fatalf("local counter starts at %d, want 0 (no reconciliation)", c.Count)
	}

	store.Increment(ctx, "user-1")
	if c := store.GetCounter(ctx, "user-1"); c.Count != 1 {
		t.Fatalf("local Count = %d, want 1", c.Count)
	}
}

func TestDegradedUntilSuccessfulReconnect(t *testing.T) {
	store, mr, _ := newTestStore(t)
	ctx := context.Background()

	addr := mr.Addr()
	mr.Close()

	store.GetCounter(ctx, "user-1")
	if store.Healthy() {
		t.Fatal("expected Degraded after backend loss")
	}

	// A failed reconnect must not flip the flag.
	if err := store.Connect(ctx); err == nil {
		t.Fatal("Connect against dead backend succeeded")
	}
	if store.Healthy() {
		t.Fatal("store Healthy after failed reconnect")
	}

	// Bring the backend back on the same address; only a successful ping
	// restores Healthy.
	mr2 := miniredis.NewMiniRedis()
	if err := mr2.StartAddr(addr); err != nil {
		t.Skipf("cannot rebind %s: %v", addr, err)
	}
	defer mr2.Close()

	if err := store.Connect(ctx); err != nil {
		t.Fatalf("Connect after restart: %v", err)
	}
	if !store.Healthy() {
		t.Fatal("store not Healthy after successful reconnect")
	}
}

func TestNoBackendConfigured(t *testing.T) {
	store := New(Options{Logger: discardLogger()})
	ctx := context.Background()

	if store.Healthy() {
		t.Fatal("store without backend must start Degraded")
	}
	if err := store.Connect(ctx); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Connect = %v, want ErrNotConfigured", err)
	}

	store.GetCounter(ctx, "user-1")
	store.Increment(ctx, "user-1")
	if c := store.GetCounter(ctx, "user-1"); c.Count != 1 {
		t.Fatalf("local-only Count = %d, want 1", c.Count)
	}
}

func TestConnectBackoffIsBounded(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	var delays []time.Duration
	store := New(Options{
		Client:           rdb,
		OpTimeout:        200 * time.Millisecond,
		ConnectAttempts:  3,
		ConnectBaseDelay: 100 * time.Millisecond,
		ConnectMaxDelay:  3 * time.Second,
		Logger:           discardLogger(),
		Sleep: func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	})

	if err := store.Connect(context.Background()); err == nil {
		t.Fatal("Connect against dead backend succeeded")
	}
	if store.Healthy() {
		t.Fatal("store Healthy after exhausted retry budget")
	}

	// attempt*base between attempts: 100ms then 200ms for a budget of 3.
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("sleep calls = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay[%d] = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestConnectDelayCap(t *testing.T) {
	store := New(Options{
		ConnectBaseDelay: time.Second,
		ConnectMaxDelay:  3 * time.Second,
		Logger:           discardLogger(),
	})

	if d := store.connectDelay(2); d != 2*time.Second {
		t.Fatalf("connectDelay(2) = %v", d)
	}
	if d := store.connectDelay(10); d != 3*time.Second {
		t.Fatalf("connectDelay(10) = %v, want capped 3s", d)
	}
}

func TestCloseDegrades(t *testing.T) {
	store, _, _ := newTestStore(t)

	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if store.Healthy() {
		t.Fatal("store Healthy after Close")
	}
}
