package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/pixelmint/authcore/quota"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestEngine(t *testing.T) (*Engine, *miniredis.Miniredis, *testClock) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	logger := logrus.New()
	logger.SetOutput(nullWriter{})

	clock := &testClock{now: time.Now()}
	store := quota.New(quota.Options{
		Client:    rdb,
		OpTimeout: 500 * time.Millisecond,
		Logger:    logger,
		Now:       clock.Now,
	})
	if err := store.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	return New(store, Limits{}), mr, clock
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestEvaluateFreshIdentifier(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	anon := engine.Evaluate(ctx, "203.0.113.7", false)
	if !anon.Allowed || anon.Remaining != DefaultAnonymousLimit || anon.Limit != DefaultAnonymousLimit {
		t.Fatalf("anonymous status = %+v", anon)
	}

	authed := engine.Evaluate(ctx, "user-1", true)
	if !authed.Allowed || authed.Remaining != DefaultAuthenticatedLimit || authed.Limit != DefaultAuthenticatedLimit {
		t.Fatalf("authenticated status = %+v", authed)
	}
}

func TestAnonymousExhaustion(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()
	const id = "203.0.113.7"

	engine.Evaluate(ctx, id, false)
	for i := 0; i < DefaultAnonymousLimit; i++ {
		st := engine.Evaluate(ctx, id, false)
		if !st.Allowed {
			t.Fatalf("call %d unexpectedly denied: %+v", i, st)
		}
		engine.Record(ctx, id)
	}

	st := engine.Evaluate(ctx, id, false)
	if st.Allowed || st.Remaining != 0 {
		t.Fatalf("11th call status = %+v, want denied with 0 remaining", st)
	}
}

func TestRemainingMath(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	engine.Evaluate(ctx, "user-1", true)
	for i := 0; i < 7; i++ {
		engine.Record(ctx, "user-1")
	}

	st := engine.Evaluate(ctx, "user-1", true)
	if st.Remaining != DefaultAuthenticatedLimit-7 {
		t.Fatalf("Remaining = %d, want %d", st.Remaining, DefaultAuthenticatedLimit-7)
	}
}

func TestWindowBoundaryRecovery(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()
	const id = "203.0.113.7"

	engine.Evaluate(ctx, id, false)
	for i := 0; i < DefaultAnonymousLimit; i++ {
		engine.Record(ctx, id)
	}
	if st := engine.Evaluate(ctx, id, false); st.Allowed {
		t.Fatalf("exhausted identifier still allowed: %+v", st)
	}

	// At the window boundary the identifier recovers with a full budget and
	// no action by any counter owner.
	clock.now = clock.now.Add(quota.DefaultWindow)

	st := engine.Evaluate(ctx, id, false)
	if !st.Allowed || st.Remaining != DefaultAnonymousLimit {
		t.Fatalf("post-boundary status = %+v", st)
	}
}

func TestFallbackKeepsEnforcingTier(t *testing.T) {
	engine, mr, _ := newTestEngine(t)
	ctx := context.Background()
	const id = "203.0.113.7"

	engine.Evaluate(ctx, id, false)
	engine.Record(ctx, id)

	// Kill the shared backend mid-sequence; the pair below must keep the
	// anonymous ceiling using the local table, with an unchanged shape.
	mr.Close()

	st := engine.Evaluate(ctx, id, false)
	if !st.Allowed || st.Limit != DefaultAnonymousLimit {
		t.Fatalf("post-outage status = %+v", st)
	}
	if st.ResetAt.IsZero() {
		t.Fatal("post-outage ResetAt missing")
	}

	for i := 0; i < DefaultAnonymousLimit; i++ {
		engine.Record(ctx, id)
	}
	if st := engine.Evaluate(ctx, id, false); st.Allowed || st.Remaining != 0 {
		t.Fatalf("local backend not enforcing tier: %+v", st)
	}
}

func TestCustomLimits(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	engine.limits = Limits{Anonymous: 2, Authenticated: 5}
	ctx := context.Background()

	engine.Evaluate(ctx, "ip", false)
	engine.Record(ctx, "ip")
	engine.Record(ctx, "ip")

	if st := engine.Evaluate(ctx, "ip", false); st.Allowed {
		t.Fatalf("custom anonymous limit not applied: %+v", st)
	}
}
