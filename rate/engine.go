package rate

import (
	"context"
	"time"

	"github.com/pixelmint/authcore/quota"
)

// Default per-window ceilings.
const (
	DefaultAnonymousLimit     = 10
	DefaultAuthenticatedLimit = 100
)

// Limits holds the two tier ceilings.
type Limits struct {
	Anonymous     int
	Authenticated int
}

// Status is the outcome of a quota decision.
type Status struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
	Limit     int       `json:"limit"`
}

// Engine turns counters into allow/deny decisions.
type Engine struct {
	store  *quota.Store
	limits Limits
}

// New builds an Engine over store. Zero limits select the defaults.
func New(store *quota.Store, limits Limits) *Engine {
	if limits.Anonymous <= 0 {
		limits.Anonymous = DefaultAnonymousLimit
	}
	if limits.Authenticated <= 0 {
		limits.Authenticated = DefaultAuthenticatedLimit
	}
	return &Engine{store: store, limits: limits}
}

// Evaluate reads the identifier's counter (lazily resetting an elapsed
// window first) and applies the tier selected by authenticated. It has no
// side effect on the count.
func (e *Engine) Evaluate(ctx context.Context, identifier string, authenticated bool) Status {
	limit := e.limits.Anonymous
	if authenticated {
		limit = e.limits.Authenticated
	}

	c := e.store.GetCounter(ctx, identifier)

	remaining := limit - c.Count
	if remaining < 0 {
		remaining = 0
	}

	return Status{
		Allowed:   c.Count < limit,
		Remaining: remaining,
		ResetAt:   c.ResetAt,
		Limit:     limit,
	}
}

// Record consumes one unit of usage for the identifier. It does not
// re-evaluate; call Evaluate afterward for the updated view.
func (e *Engine) Record(ctx context.Context, identifier string) {
	e.store.Increment(ctx, identifier)
}
