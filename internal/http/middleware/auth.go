// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the authentication boundary. The engine does not own
// identities: an upstream issuer signs HS256 tokens carrying the user id
// (sub) and an IANA time zone (tz). When no secret is configured the
// middleware trusts the X-User-ID and X-User-TZ headers, which is how local
// development and the test suite talk to the API.
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Header and context keys used for identity.
const (
	HeaderUserID = "X-User-ID"
	HeaderUserTZ = "X-User-TZ"

	ctxKeyUserID = "userID"
	ctxKeyUserTZ = "userTZ"

	demoUser = "demo-user"
)

// Claims is the token payload accepted by Auth.
type Claims struct {
	TZ string `json:"tz,omitempty"`
	jwt.RegisteredClaims
}

// AuthOptions configures Auth.
type AuthOptions struct {
	// Secret is the HS256 key. Empty disables token checks.
	Secret []byte
	// Leeway tolerates clock skew on exp/nbf.
	Leeway time.Duration
}

// Auth resolves the caller's identity and time zone and stores them in the
// Gin context. With a secret, a missing or invalid bearer token is a 401.
func Auth(opts AuthOptions) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(opts.Leeway),
		jwt.WithExpirationRequired(),
	)
	return func(c *gin.Context) {
		if len(opts.Secret) == 0 {
			if uid := strings.TrimSpace(c.GetHeader(HeaderUserID)); uid != "" {
				c.Set(ctxKeyUserID, uid)
			}
			if tz := strings.TrimSpace(c.GetHeader(HeaderUserTZ)); tz != "" {
				c.Set(ctxKeyUserTZ, tz)
			}
			c.Next()
			return
		}

		raw, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}
		claims, err := ParseToken(parser, opts.Secret, strings.TrimSpace(raw))
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}
		c.Set(ctxKeyUserID, claims.Subject)
		if claims.TZ != "" {
			c.Set(ctxKeyUserTZ, claims.TZ)
		}
		c.Next()
	}
}

// ParseToken verifies raw with secret and returns its claims. The subject
// must be present.
func ParseToken(p *jwt.Parser, secret []byte, raw string) (*Claims, error) {
	tok, err := p.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// SignToken issues an HS256 token for userID. Used by tooling and tests.
func SignToken(secret []byte, userID, tz string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TZ: tz,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// UserID returns the authenticated user id, or "demo-user" when the request
// carries no identity (header mode only).
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return demoUser
}

// Location returns the caller's time zone, UTC when absent or unknown.
func Location(c *gin.Context) *time.Location {
	v, ok := c.Get(ctxKeyUserTZ)
	if !ok {
		return time.UTC
	}
	name, _ := v.(string)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="rehab"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
