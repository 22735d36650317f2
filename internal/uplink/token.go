// Package uplink issues and verifies short-lived signed links students
// follow to upload homework files out-of-band, and serves the upload
// endpoint itself.
package uplink

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the upload context bound into a signed link.
type Claims struct {
	UserID       int64  `json:"userId"`
	UserName     string `json:"userName"`
	HomeworkID   int64  `json:"homeworkId"`
	HomeworkName string `json:"homeworkName"`
	GroupTitle   string `json:"groupTitle"`
	jwt.RegisteredClaims
}

// Signer mints and verifies HS256 upload tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl}
}

// TTL returns the validity window of issued tokens.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token valid for the signer's TTL.
func (s *Signer) Issue(claims Claims) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign upload token: %w", err)
	}
	return signed, nil
}

// ErrInvalidToken covers tampered, malformed and expired tokens.
var ErrInvalidToken = errors.New("invalid upload token")

// Verify parses a token and returns its claims. Expired or tampered
// tokens yield ErrInvalidToken.
func (s *Signer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
