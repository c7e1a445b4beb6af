package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pixelmint/authcore/quota"
	"github.com/pixelmint/authcore/rate"
	"github.com/pixelmint/authcore/session"
	"github.com/pixelmint/authcore/token"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost  = 12
	defaultRole = "user"
)

// Engine composes the credential codec, session registry, and quota
// subsystem into the account operations the HTTP layer calls. All methods
// are safe for concurrent use.
type Engine struct {
	config   Config
	codec    *token.Codec
	users    UserStore
	sessions session.Registry
	quota    *quota.Store
	rate     *rate.Engine
	log      logrus.FieldLogger
}

// Codec exposes the credential codec for the HTTP access gate.
func (e *Engine) Codec() *token.Codec {
	return e.codec
}

// ConnectQuota dials the shared quota backend with bounded backoff. A
// failure leaves quota tracking in local-only mode and is safe to ignore at
// startup.
func (e *Engine) ConnectQuota(ctx context.Context) error {
	return e.quota.Connect(ctx)
}

// QuotaHealthy reports whether quota counters currently live in the shared
// backend.
func (e *Engine) QuotaHealthy() bool {
	return e.quota.Healthy()
}

// Close releases the quota backend connection.
func (e *Engine) Close() error {
	if e == nil {
		return nil
	}
	return e.quota.Close()
}

// Register creates an account, mints a credential pair, and installs the
// initial session. Duplicate email/username surface as ErrEmailTaken /
// ErrUsernameTaken.
func (e *Engine) Register(ctx context.Context, email, password, username string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := e.users.Create(ctx, CreateUserInput{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		Role:         defaultRole,
	})
	if err != nil {
		return nil, err
	}

	return e.establishSession(ctx, user)
}

// Login verifies credentials and replaces the subject's session. Unknown
// email, wrong password, and inactive accounts all collapse to
// ErrInvalidCredentials.
func (e *Engine) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	user, err := e.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.Active {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return e.establishSession(ctx, user)
}

// Refresh exchanges a refresh token for a fresh access token. The token must
// verify cryptographically AND resolve to a live session; either check
// failing yields an unauthenticated outcome.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	subjectID, err := e.codec.VerifyRefresh(refreshToken)
	if err != nil {
		return "", ErrTokenInvalid
	}

	sess, err := e.sessions.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	if sess.SubjectID != subjectID || !sess.Live(time.Now()) {
		return "", ErrSessionNotFound
	}

	user, err := e.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", ErrSessionNotFound
		}
		return "", err
	}

	return e.codec.IssueAccess(token.Claims{
		Subject: user.ID,
		Email:   user.Email,
		Role:    user.Role,
	})
}

// Logout revokes every session for the subject. Logging out with no live
// session is a no-op.
func (e *Engine) Logout(ctx context.Context, subjectID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.sessions.RevokeAll(ctx, subjectID); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}
	return nil
}

// GetUser looks up an account by subject ID.
func (e *Engine) GetUser(ctx context.Context, subjectID string) (UserRecord, error) {
	if e == nil {
		return UserRecord{}, ErrEngineNotReady
	}
	return e.users.GetByID(ctx, subjectID)
}

// CheckQuota reports the identifier's current quota with no side effect.
// It never fails; a degraded shared backend answers from the local table.
func (e *Engine) CheckQuota(ctx context.Context, identifier string, authenticated bool) rate.Status {
	return e.rate.Evaluate(ctx, identifier, authenticated)
}

// RecordUsage consumes one unit of generation quota and returns the updated
// view, per the record-then-report endpoint contract.
func (e *Engine) RecordUsage(ctx context.Context, identifier string, authenticated bool) rate.Status {
	e.rate.Record(ctx, identifier)
	return e.rate.Evaluate(ctx, identifier, authenticated)
}

func (e *Engine) establishSession(ctx context.Context, user UserRecord) (*AuthResult, error) {
	pair, err := e.codec.IssuePair(token.Claims{
		Subject: user.ID,
		Email:   user.Email,
		Role:    user.Role,
	})
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(e.codec.RefreshTTL())
	if err := e.sessions.Replace(ctx, user.ID, pair.Refresh, expiresAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionUnavailable, err)
	}

	return &AuthResult{
		User:         user,
		AccessToken:  pair.Access,
		RefreshToken: pair.Refresh,
	}, nil
}
