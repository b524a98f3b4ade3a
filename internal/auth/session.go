package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jcmexdev/ecommerce-storefront/internal/pkg/cache"
)

const sessionIssuer = "storefront"

// ErrInvalidSession is returned for tokens that are malformed, expired,
// signed with another key or revoked.
var ErrInvalidSession = errors.New("invalid session")

// Session is what a session token carries. Anonymous sessions have no user.
type Session struct {
	ID        string
	UserID    *int64
	BasketID  *int64
	ExpiresAt time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
	UserID   *int64 `json:"uid,omitempty"`
	BasketID *int64 `json:"bid,omitempty"`
}

// Sessions issues and verifies HMAC signed session tokens. Revoked token
// ids are kept in the cache until the token would have expired anyway.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	cache  cache.Cache
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration, c cache.Cache) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, cache: c, now: time.Now}
}

// Issue signs a new token for the given user and basket.
func (s *Sessions) Issue(userID, basketID *int64) (string, Session, error) {
	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		BasketID:  basketID,
		ExpiresAt: now.Add(s.ttl).Truncate(time.Second),
	}
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		UserID:   userID,
		BasketID: basketID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", Session{}, fmt.Errorf("sign session: %w", err)
	}
	return token, sess, nil
}

// Parse verifies token and returns its session.
func (s *Sessions) Parse(ctx context.Context, token string) (Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	revoked, err := s.cache.Get(ctx, s.revocationKey(claims.ID))
	if err != nil {
		return Session{}, fmt.Errorf("check session revocation: %w", err)
	}
	if revoked != "" {
		return Session{}, fmt.Errorf("%w: revoked", ErrInvalidSession)
	}

	return Session{
		ID:        claims.ID,
		UserID:    claims.UserID,
		BasketID:  claims.BasketID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke denies sess for the rest of its lifetime.
func (s *Sessions) Revoke(ctx context.Context, sess Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, s.revocationKey(sess.ID), "1", ttl); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (s *Sessions) revocationKey(id string) string {
	return s.cache.GenerateKey("revoked-session", id)
}

// TokenFromHeader extracts a token from a Session-Id header value or an
// "Authorization: Bearer" value, whichever is set.
func TokenFromHeader(sessionID, authorization string) string {
	if sessionID = strings.TrimSpace(sessionID); sessionID != "" {
		return sessionID
	}
	if rest, ok := strings.CutPrefix(authorization, "Bearer "); ok {
		return strings.TrimSpace(rest)
	}
	return ""
}
