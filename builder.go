package authcore

import (
	"errors"

	"github.com/pixelmint/authcore/quota"
	"github.com/pixelmint/authcore/rate"
	"github.com/pixelmint/authcore/session"
	"github.com/pixelmint/authcore/token"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Builder assembles an [Engine]. Construction is allocation-only; the quota
// backend is dialed later through [Engine.ConnectQuota].
type Builder struct {
	config Config

	users    UserStore
	sessions session.Registry
	redis    redis.UniversalClient
	quota    *quota.Store
	logger   logrus.FieldLogger

	built bool
}

// New returns a Builder preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithUserStore sets the user database adapter. Required.
func (b *Builder) WithUserStore(users UserStore) *Builder {
	b.users = users
	return b
}

// WithSessionRegistry sets the session persistence boundary. Required.
func (b *Builder) WithSessionRegistry(reg session.Registry) *Builder {
	b.sessions = reg
	return b
}

// WithRedis injects a Redis client for the quota store instead of dialing
// Config.Quota.RedisAddr. Tests pass a miniredis-backed client here.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithQuotaStore injects a fully built quota store, overriding WithRedis and
// the quota address configuration.
func (b *Builder) WithQuotaStore(store *quota.Store) *Builder {
	b.quota = store
	return b
}

// WithLogger sets the structured logger used for degradation events.
func (b *Builder) WithLogger(logger logrus.FieldLogger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration and wires the engine. The builder is
// single-use.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.sessions == nil {
		return nil, errors.New("session registry required")
	}

	logger := b.logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	codec, err := token.NewCodec(token.Config{
		AccessSecret:  b.config.Token.AccessSecret,
		RefreshSecret: b.config.Token.RefreshSecret,
		AccessTTL:     b.config.Token.AccessTTL,
		RefreshTTL:    b.config.Token.RefreshTTL,
		Issuer:        b.config.Token.Issuer,
	})
	if err != nil {
		return nil, err
	}

	quotaStore := b.quota
	if quotaStore == nil {
		quotaStore = quota.New(quota.Options{
			Addr:             b.config.Quota.RedisAddr,
			Password:         b.config.Quota.RedisPassword,
			Client:           b.redis,
			Window:           b.config.Quota.Window,
			OpTimeout:        b.config.Quota.OpTimeout,
			ConnectAttempts:  b.config.Quota.ConnectAttempts,
			ConnectBaseDelay: b.config.Quota.ConnectBaseDelay,
			ConnectMaxDelay:  b.config.Quota.ConnectMaxDelay,
			Logger:           logger,
		})
	}

	rateEngine := rate.New(quotaStore, rate.Limits{
		Anonymous:     b.config.Quota.AnonymousLimit,
		Authenticated: b.config.Quota.AuthenticatedLimit,
	})

	b.built = true

	return &Engine{
		config:   b.config,
		codec:    codec,
		users:    b.users,
		sessions: b.sessions,
		quota:    quotaStore,
		rate:     rateEngine,
		log:      logger,
	}, nil
}
