package session

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry is an in-process [Registry] with the same contract as
// [GormRegistry]. It backs tests and database-less development; it does not
// persist across restarts.
type MemoryRegistry struct {
	mu        sync.Mutex
	bySubject map[string]*Session
	byToken   map[string]string // refresh token -> subject
}

// NewMemoryRegistry returns an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		bySubject: make(map[string]*Session),
		byToken:   make(map[string]string),
	}
}

// Replace swaps the subject's session under a single lock, so readers see
// either the old session or the new one, never neither or both.
func (r *MemoryRegistry) Replace(_ context.Context, subjectID, refreshToken string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.bySubject[subjectID]; ok {
		delete(r.byToken, prev.RefreshToken)
	}

	sess := &Session{
		SubjectID:    subjectID,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now(),
	}
	r.bySubject[subjectID] = sess
	r.byToken[refreshToken] = subjectID

	return nil
}

// Find returns a copy of the session holding refreshToken.
func (r *MemoryRegistry) Find(_ context.Context, refreshToken string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subjectID, ok := r.byToken[refreshToken]
	if !ok {
		return nil, ErrNotFound
	}

	sess := *r.bySubject[subjectID]
	return &sess, nil
}

// RevokeAll removes the subject's session if one exists.
func (r *MemoryRegistry) RevokeAll(_ context.Context, subjectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.bySubject[subjectID]; ok {
		delete(r.byToken, prev.RefreshToken)
		delete(r.bySubject, subjectID)
	}

	return nil
}
