package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by Find when no session matches the token.
	ErrNotFound = errors.New("session not found")
	// ErrUnavailable wraps infrastructure failures from the backing store.
	ErrUnavailable = errors.New("session store unavailable")
)

// Session is the authoritative record binding a live refresh credential to
// exactly one subject. There is no update operation: sessions are created on
// register/login, superseded on the next login, and destroyed on logout.
type Session struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time

	SubjectID    string    `gorm:"size:64;index;not null"`
	RefreshToken string    `gorm:"size:512;uniqueIndex;not null"`
	ExpiresAt    time.Time `gorm:"index;not null"`
}

// Live reports whether the session has not yet expired at the given instant.
func (s *Session) Live(now time.Time) bool {
	return s.ExpiresAt.After(now)
}

// Registry is the session persistence boundary. Exactly three mutations
// exist: replace-on-login, find-by-token, and revoke-all-on-logout.
type Registry interface {
	// Replace atomically deletes every session for subjectID and inserts a
	// new one bound to refreshToken.
	Replace(ctx context.Context, subjectID, refreshToken string, expiresAt time.Time) error

	// Find returns the session holding refreshToken, or ErrNotFound.
	Find(ctx context.Context, refreshToken string) (*Session, error)

	// RevokeAll deletes every session for subjectID.
	RevokeAll(ctx context.Context, subjectID string) error
}
