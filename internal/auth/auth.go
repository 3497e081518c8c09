// Package auth implements the stub token auth and scan accounting used by
// the mobile backend. Tokens carry the subscription tier; there is no user
// store behind them.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Tier is a subscription level.
type Tier string

const (
	TierFree     Tier = "free"
	TierMonthly  Tier = "monthly"
	TierYearly   Tier = "yearly"
	TierLifetime Tier = "lifetime"
)

// ParseTier validates a tier name.
func ParseTier(s string) (Tier, error) {
	switch Tier(strings.ToLower(strings.TrimSpace(s))) {
	case TierFree:
		return TierFree, nil
	case TierMonthly:
		return TierMonthly, nil
	case TierYearly:
		return TierYearly, nil
	case TierLifetime:
		return TierLifetime, nil
	}
	return "", fmt.Errorf("unknown subscription tier %q", s)
}

// User is the identity carried by a verified token.
type User struct {
	Email string
	Tier  Tier
}

// Claims is the JWT payload: registered claims plus the tier.
type Claims struct {
	Tier string `json:"tier"`
	jwt.RegisteredClaims
}

// ErrInvalidToken covers every verification failure.
var ErrInvalidToken = errors.New("invalid token")

// Authenticator issues and verifies HS256 tokens.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
}

// New constructs an authenticator. ttl bounds token lifetime.
func New(secret string, ttl time.Duration) *Authenticator {
	return &Authenticator{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token for the given email and tier.
func (a *Authenticator) Issue(email string, tier Tier) (string, error) {
	now := time.Now()
	claims := Claims{
		Tier: string(tier),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the user it identifies.
func (a *Authenticator) Verify(tokenString string) (User, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	tier, err := ParseTier(claims.Tier)
	if err != nil {
		tier = TierFree
	}
	if claims.Subject == "" {
		return User{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return User{Email: claims.Subject, Tier: tier}, nil
}

// FromAuthorizationHeader extracts the bearer token from an Authorization
// header value.
func FromAuthorizationHeader(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", fmt.Errorf("%w: missing bearer token", ErrInvalidToken)
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", fmt.Errorf("%w: empty bearer token", ErrInvalidToken)
	}
	return token, nil
}

// ScanCounter tracks scans per user so free-tier limits can be enforced.
// Counts live in memory; a production deployment would back this with the
// user store.
type ScanCounter struct {
	mu     sync.Mutex
	limit  int
	counts map[string]int
}

// NewScanCounter constructs a counter with the free-tier scan limit.
func NewScanCounter(limit int) *ScanCounter {
	return &ScanCounter{limit: limit, counts: make(map[string]int)}
}

// Allow records one scan attempt and reports whether the user may proceed.
// Paid tiers are unlimited.
func (c *ScanCounter) Allow(user User) (bool, string) {
	if user.Tier != TierFree {
		return true, "OK"
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts[user.Email] >= c.limit {
		return false, "Free trial limit reached. Please upgrade to continue."
	}
	c.counts[user.Email]++
	return true, "OK"
}

// Remaining reports how many free scans the user has left, or -1 for
// unlimited tiers.
func (c *ScanCounter) Remaining(user User) int {
	if user.Tier != TierFree {
		return -1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	remaining := c.limit - c.counts[user.Email]
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
