package quota

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ErrNotConfigured is returned by Connect when no Redis address was given.
// The store then runs local-only for the life of the process.
var ErrNotConfigured = errors.New("quota: no shared backend configured")

// Counter is one identifier's usage within the current window. Count is
// monotonically non-decreasing until ResetAt passes, after which the next
// GetCounter reinitializes it to zero.
type Counter struct {
	Count   int
	ResetAt time.Time
}

// Defaults applied by New when the corresponding option is zero.
const (
	DefaultWindow           = 24 * time.Hour
	DefaultOpTimeout        = 2 * time.Second
	DefaultConnectAttempts  = 3
	DefaultConnectBaseDelay = 100 * time.Millisecond
	DefaultConnectMaxDelay  = 3 * time.Second
)

const keyPrefix = "rate_limit:"

// Options configures a [Store]. Client takes precedence over Addr; when both
// are empty the store is permanently Degraded and serves from the local
// table only.
type Options struct {
	Addr     string
	Password string

	// Client overrides Addr. Tests pass a miniredis-backed client here.
	Client redis.UniversalClient

	Window time.Duration

	// OpTimeout bounds every Redis call. A timeout is treated identically to
	// a connection error: the operation degrades and falls back locally.
	OpTimeout time.Duration

	// Reconnect policy: up to ConnectAttempts pings with delays of
	// attempt*ConnectBaseDelay capped at ConnectMaxDelay, then give up and
	// stay Degraded until the next Connect call.
	ConnectAttempts  int
	ConnectBaseDelay time.Duration
	ConnectMaxDelay  time.Duration

	Logger logrus.FieldLogger

	// Sleep and Now are injectable for clock-free tests.
	Sleep func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Store is the process-wide quota counter store. All methods are safe for
// concurrent use; per-identifier read-modify-write on the local table is
// internally synchronized.
type Store struct {
	redis  redis.UniversalClient
	local  *localTable
	window time.Duration

	opTimeout        time.Duration
	connectAttempts  int
	connectBaseDelay time.Duration
	connectMaxDelay  time.Duration

	degraded atomic.Bool
	log      logrus.FieldLogger
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// New builds a Store. It performs no I/O; call [Store.Connect] to establish
// the shared backend.
func New(opts Options) *Store {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.OpTimeout <= 0 {
		opts.OpTimeout = DefaultOpTimeout
	}
	if opts.ConnectAttempts <= 0 {
		opts.ConnectAttempts = DefaultConnectAttempts
	}
	if opts.ConnectBaseDelay <= 0 {
		opts.ConnectBaseDelay = DefaultConnectBaseDelay
	}
	if opts.ConnectMaxDelay <= 0 {
		opts.ConnectMaxDelay = DefaultConnectMaxDelay
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	client := opts.Client
	if client == nil && opts.Addr != "" {
		client = redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
		})
	}

	s := &Store{
		redis:            client,
		local:            newLocalTable(),
		window:           opts.Window,
		opTimeout:        opts.OpTimeout,
		connectAttempts:  opts.ConnectAttempts,
		connectBaseDelay: opts.ConnectBaseDelay,
		connectMaxDelay:  opts.ConnectMaxDelay,
		log:              opts.Logger,
		sleep:            opts.Sleep,
		now:              opts.Now,
	}

	// Starts Degraded; only a successful Connect flips to Healthy.
	s.degraded.Store(true)
	if client == nil {
		s.log.Warn("quota: no shared backend configured, using in-process counters")
	}

	return s
}

// Healthy reports whether operations currently run against the shared
// backend.
func (s *Store) Healthy() bool {
	return !s.degraded.Load()
}

// Connect attempts the shared-backend handshake with bounded backoff. On
// success the store flips to Healthy; after exhausting the retry budget it
// stays Degraded and returns the last ping error. Connect is the only
// transition back to Healthy.
func (s *Store) Connect(ctx context.Context) error {
	if s.redis == nil {
		return ErrNotConfigured
	}

	var lastErr error
	for attempt := 1; attempt <= s.connectAttempts; attempt++ {
		tctx, cancel := context.WithTimeout(ctx, s.opTimeout)
		err := s.redis.Ping(tctx).Err()
		cancel()

		if err == nil {
			s.markHealthy()
			return nil
		}
		lastErr = err

		if attempt < s.connectAttempts {
			if err := s.sleep(ctx, s.connectDelay(attempt)); err != nil {
				return err
			}
		}
	}

	s.markDegraded(lastErr)
	return fmt.Errorf("quota: connect failed after %d attempts: %w", s.connectAttempts, lastErr)
}

// Close releases the shared-backend connection and leaves the store
// Degraded.
func (s *Store) Close() error {
	s.markDegraded(errors.New("store closed"))
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}

// GetCounter returns the identifier's current window, lazily reinitializing
// a missing or elapsed record to {0, now+window}. It never fails: a shared-
// backend error degrades the store and the local table answers instead.
func (s *Store) GetCounter(ctx context.Context, identifier string) Counter {
	now := s.now()

	if s.Healthy() {
		c, err := s.redisGet(ctx, identifier, now)
		if err == nil {
			return c
		}
		s.markDegraded(err)
	}

	return s.local.get(identifier, now, s.window)
}

// Increment adds one unit of usage, but only when a live (non-elapsed)
// record exists; an elapsed window is left for the next GetCounter to
// reinitialize. Like GetCounter it never fails.
func (s *Store) Increment(ctx context.Context, identifier string) {
	now := s.now()

	if s.Healthy() {
		err := s.redisIncrement(ctx, identifier, now)
		if err == nil {
			return
		}
		s.markDegraded(err)
	}

	s.local.increment(identifier, now)
}

func (s *Store) connectDelay(attempt int) time.Duration {
	d := time.Duration(attempt) * s.connectBaseDelay
	if d > s.connectMaxDelay {
		d = s.connectMaxDelay
	}
	return d
}

func (s *Store) markDegraded(cause error) {
	if s.degraded.CompareAndSwap(false, true) {
		s.log.WithError(cause).Warn("quota: shared backend degraded, falling back to in-process counters")
	}
}

func (s *Store) markHealthy() {
	if s.degraded.CompareAndSwap(true, false) {
		s.log.Info("quota: shared backend healthy")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
