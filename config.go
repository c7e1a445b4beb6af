package authcore

import (
	"bytes"
	"errors"
	"time"

	"github.com/pixelmint/authcore/quota"
	"github.com/pixelmint/authcore/rate"
	"github.com/pixelmint/authcore/token"
)

// Config is the engine configuration. Instances are treated as immutable
// after [Builder.Build].
type Config struct {
	Token   TokenConfig
	Quota   QuotaConfig
	Session SessionConfig
}

// TokenConfig carries the signing material for the credential codec. The two
// secrets are independent so an access token can never be replayed as a
// refresh token.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// QuotaConfig configures the dual-backend counter store and the two tier
// ceilings. An empty RedisAddr (with no injected client) forces local-only
// quota tracking for the life of the process.
type QuotaConfig struct {
	RedisAddr     string
	RedisPassword string

	AnonymousLimit     int
	AuthenticatedLimit int
	Window             time.Duration

	OpTimeout        time.Duration
	ConnectAttempts  int
	ConnectBaseDelay time.Duration
	ConnectMaxDelay  time.Duration
}

// SessionConfig bounds session-store round trips.
type SessionConfig struct {
	Timeout time.Duration
}

// DefaultConfig returns the production defaults: 15m/7d token lifetimes and
// 10/100 generations per 24h window.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  token.DefaultAccessTTL,
			RefreshTTL: token.DefaultRefreshTTL,
		},
		Quota: QuotaConfig{
			AnonymousLimit:     rate.DefaultAnonymousLimit,
			AuthenticatedLimit: rate.DefaultAuthenticatedLimit,
			Window:             quota.DefaultWindow,
			OpTimeout:          quota.DefaultOpTimeout,
			ConnectAttempts:    quota.DefaultConnectAttempts,
			ConnectBaseDelay:   quota.DefaultConnectBaseDelay,
			ConnectMaxDelay:    quota.DefaultConnectMaxDelay,
		},
		Session: SessionConfig{},
	}
}

// Validate checks the invariants Build depends on.
func (c Config) Validate() error {
	if len(c.Token.AccessSecret) == 0 || len(c.Token.RefreshSecret) == 0 {
		return errors.New("config: both token signing secrets are required")
	}
	if bytes.Equal(c.Token.AccessSecret, c.Token.RefreshSecret) {
		return errors.New("config: access and refresh secrets must differ")
	}
	if c.Token.AccessTTL < 0 || c.Token.RefreshTTL < 0 {
		return errors.New("config: token TTLs must be positive")
	}
	if c.Quota.AnonymousLimit < 0 || c.Quota.AuthenticatedLimit < 0 {
		return errors.New("config: quota limits must be positive")
	}
	if c.Quota.Window < 0 {
		return errors.New("config: quota window must be positive")
	}
	return nil
}
