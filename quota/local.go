package quota

import (
	"sync"
	"time"
)

// localTable is the process-local fallback backend. It lives for the life of
// the process, is bounded only by window expiry, and is never reconciled
// back into the shared backend.
type localTable struct {
	mu      sync.Mutex
	records map[string]*localCounter
}

type localCounter struct {
	count   int
	resetAt time.Time
}

func newLocalTable() *localTable {
	return &localTable{records: make(map[string]*localCounter)}
}

func (t *localTable) get(identifier string, now time.Time, window time.Duration) Counter {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[identifier]
	if !ok || !rec.resetAt.After(now) {
		rec = &localCounter{count: 0, resetAt: now.Add(window)}
		t.records[identifier] = rec
	}

	return Counter{Count: rec.count, ResetAt: rec.resetAt}
}

func (t *localTable) increment(identifier string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.records[identifier]
	if ok && rec.resetAt.After(now) {
		rec.count++
	}
}
