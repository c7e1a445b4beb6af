package authcore

import "errors"

var (
	// ErrInvalidCredentials covers unknown email, wrong password, and
	// disabled accounts. Callers translate it to 401 without sub-reason.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenInvalid is the collapsed outcome for any malformed, expired,
	// or mis-signed credential.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrSessionNotFound means a refresh token verified cryptographically
	// but no live session backs it; the caller must log in again, not retry.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionUnavailable wraps infrastructure failures on the session
	// path. There is no safe fallback for session truth, so it surfaces as
	// an internal error.
	ErrSessionUnavailable = errors.New("session store unavailable")
	// ErrEmailTaken is returned by Register for a duplicate email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken is returned by Register for a duplicate username.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUserNotFound is returned by user lookups.
	ErrUserNotFound = errors.New("user not found")
	// ErrEngineNotReady guards calls on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
