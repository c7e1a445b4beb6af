package token

import (
	"bytes"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid is returned by VerifyAccess and VerifyRefresh for any malformed,
// expired, or mis-signed token. Sub-reasons are deliberately not exposed.
var ErrInvalid = errors.New("invalid token")

// Claims is the identity claim set embedded in an access token. It is
// immutable once signed; it is a materialized claim bundle, not a database
// row.
type Claims struct {
	Subject string
	Email   string
	Role    string
}

// Pair bundles the two credentials minted on login and registration.
type Pair struct {
	Access  string
	Refresh string
}

// Config holds the signing material and lifetimes for a [Codec].
type Config struct {
	// AccessSecret and RefreshSecret are independent HMAC keys. They must be
	// non-empty and distinct.
	AccessSecret  []byte
	RefreshSecret []byte

	// AccessTTL defaults to 15 minutes, RefreshTTL to 7 days.
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	Issuer string
}

const (
	// DefaultAccessTTL is the access-token lifetime.
	DefaultAccessTTL = 15 * time.Minute
	// DefaultRefreshTTL is the refresh-token lifetime.
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Codec signs and verifies access and refresh tokens. It is immutable after
// construction and safe for concurrent use.
type Codec struct {
	config Config
	now    func() time.Time
}

type accessClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	jwt.RegisteredClaims
}

// NewCodec validates cfg and returns a ready [Codec].
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("token: both signing secrets are required")
	}
	if bytes.Equal(cfg.AccessSecret, cfg.RefreshSecret) {
		return nil, errors.New("token: access and refresh secrets must differ")
	}
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.AccessTTL < 0 || cfg.RefreshTTL < 0 {
		return nil, errors.New("token: invalid TTL configuration")
	}

	return &Codec{config: cfg, now: time.Now}, nil
}

// IssueAccess signs claims into an access token with the configured TTL.
func (c *Codec) IssueAccess(claims Claims) (string, error) {
	if claims.Subject == "" {
		return "", errors.New("token: subject is required")
	}

	now := c.now()
	payload := accessClaims{
		Email: claims.Email,
		Role:  claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			Issuer:    c.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.AccessTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(c.config.AccessSecret)
}

// IssueRefresh signs a refresh token carrying only the subject ID.
func (c *Codec) IssueRefresh(subjectID string) (string, error) {
	if subjectID == "" {
		return "", errors.New("token: subject is required")
	}

	now := c.now()
	payload := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    c.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.config.RefreshTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, payload).SignedString(c.config.RefreshSecret)
}

// IssuePair mints an access+refresh pair for the same identity.
func (c *Codec) IssuePair(claims Claims) (Pair, error) {
	access, err := c.IssueAccess(claims)
	if err != nil {
		return Pair{}, err
	}

	refresh, err := c.IssueRefresh(claims.Subject)
	if err != nil {
		return Pair{}, err
	}

	return Pair{Access: access, Refresh: refresh}, nil
}

// VerifyAccess checks signature and expiry against the access secret and
// returns the embedded claim set. Any failure returns [ErrInvalid].
func (c *Codec) VerifyAccess(tokenStr string) (Claims, error) {
	var payload accessClaims
	if err := c.parse(tokenStr, &payload, c.config.AccessSecret); err != nil {
		return Claims{}, ErrInvalid
	}
	if payload.Subject == "" {
		return Claims{}, ErrInvalid
	}

	return Claims{
		Subject: payload.Subject,
		Email:   payload.Email,
		Role:    payload.Role,
	}, nil
}

// VerifyRefresh checks signature and expiry against the refresh secret and
// returns the subject ID. Any failure returns [ErrInvalid].
func (c *Codec) VerifyRefresh(tokenStr string) (string, error) {
	var payload refreshClaims
	if err := c.parse(tokenStr, &payload, c.config.RefreshSecret); err != nil {
		return "", ErrInvalid
	}
	if payload.Subject == "" {
		return "", ErrInvalid
	}

	return payload.Subject, nil
}

// RefreshTTL reports the configured refresh lifetime. Callers use it to set
// the session expiry alongside the minted refresh token.
func (c *Codec) RefreshTTL() time.Duration {
	return c.config.RefreshTTL
}

func (c *Codec) parse(tokenStr string, payload jwt.Claims, secret []byte) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, payload, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return jwt.ErrTokenInvalidClaims
	}

	return nil
}
