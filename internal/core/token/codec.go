// Package token issues and verifies the HS512-signed bearer tokens used by the
// API. Tokens are stateless: the only server-side state is the signing key.
package token

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/oguzhanozgokce/account-service/internal/core/domain"
	"github.com/oguzhanozgokce/account-service/internal/core/ports"
)

// MinSecretLength is the minimum key size in bytes accepted for HS512.
const MinSecretLength = 64

const defaultTTL = 24 * time.Hour

var ErrWeakSecret = fmt.Errorf("token: signing secret must be at least %d bytes", MinSecretLength)

var signingMethod = jwt.SigningMethodHS512

// Timestamps are written with millisecond precision. jwt.NumericDate would
// truncate to whole seconds and round-trip through float64.
const timePrecision = time.Millisecond

// Claims is the decoded payload of a token.
type Claims struct {
	Subject   string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the claims are expired at now. A token without an
// expiry is treated as expired.
func (c *Claims) ExpiredAt(now time.Time) bool {
	if c.ExpiresAt.IsZero() {
		return true
	}
	return c.ExpiresAt.Before(now)
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// Codec signs and parses tokens. It is safe for concurrent use.
type Codec struct {
	key []byte
	ttl time.Duration
	now func() time.Time

	// lastExp holds the latest expiry handed out, in unix milliseconds.
	lastExp atomic.Int64
}

// NewCodec derives the signing key from secret. It fails when the secret is too
// short for HS512 so a misconfigured process stops at startup.
func NewCodec(secret string, ttl time.Duration, opts ...Option) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	c := &Codec{
		key: []byte(secret),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// TTL returns the configured token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a new token for subject. The expiry is now+TTL rounded up to the
// next millisecond, and strictly later than any expiry issued before it.
func (c *Codec) Issue(subject string) (ports.IssuedToken, error) {
	now := c.now()
	exp := c.nextExpiry(now.Add(c.ttl))

	claims := jwt.MapClaims{
		"sub": subject,
		"jti": uuid.NewString(),
		"iat": numericDate(now.Truncate(timePrecision)),
		"exp": numericDate(exp),
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString(c.key)
	if err != nil {
		return ports.IssuedToken{}, fmt.Errorf("sign token: %w", err)
	}
	return ports.IssuedToken{Token: signed, ExpiresAt: exp}, nil
}

func (c *Codec) nextExpiry(t time.Time) time.Time {
	ms := t.UnixMilli()
	if t.After(time.UnixMilli(ms)) {
		ms++
	}
	for {
		last := c.lastExp.Load()
		next := ms
		if next <= last {
			next = last + 1
		}
		if c.lastExp.CompareAndSwap(last, next) {
			return time.UnixMilli(next).UTC()
		}
	}
}

// Decode verifies the signature and returns the claims. Expiry is not checked
// here; an expired but well-formed token decodes without error.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, domain.ErrInvalidToken
	}

	mc := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(tokenString, mc, func(t *jwt.Token) (interface{}, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithoutClaimsValidation(),
		jwt.WithJSONNumber(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims := &Claims{}
	claims.Subject, _ = mc["sub"].(string)
	claims.ID, _ = mc["jti"].(string)
	if claims.IssuedAt, err = claimTime(mc, "iat"); err != nil {
		return nil, err
	}
	if claims.ExpiresAt, err = claimTime(mc, "exp"); err != nil {
		return nil, err
	}
	return claims, nil
}

func numericDate(t time.Time) json.Number {
	ms := t.UnixMilli()
	return json.Number(fmt.Sprintf("%d.%03d", ms/1000, ms%1000))
}

// claimTime reads a NumericDate claim from its decimal text so fractional
// seconds survive exactly. A missing claim yields the zero time.
func claimTime(mc jwt.MapClaims, name string) (time.Time, error) {
	raw, ok := mc[name]
	if !ok || raw == nil {
		return time.Time{}, nil
	}
	num, ok := raw.(json.Number)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s is not a number", domain.ErrInvalidToken, name)
	}
	t, err := parseNumericDate(num.String())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidToken, name, err)
	}
	return t, nil
}

func parseNumericDate(s string) (time.Time, error) {
	whole, frac, _ := strings.Cut(s, ".")
	sec, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	var nsec int64
	if frac != "" {
		if len(frac) > 9 {
			frac = frac[:9]
		}
		frac += strings.Repeat("0", 9-len(frac))
		if nsec, err = strconv.ParseInt(frac, 10, 64); err != nil {
			return time.Time{}, err
		}
	}
	return time.Unix(sec, nsec).UTC(), nil
}
