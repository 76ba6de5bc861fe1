package notify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const unsubscribePurpose = "unsubscribe"

// DefaultTokenTTL is how long an unsubscribe link stays valid
const DefaultTokenTTL = 180 * 24 * time.Hour

// ErrInvalidToken is returned for tokens that fail verification
var ErrInvalidToken = errors.New("invalid unsubscribe token")

type unsubscribeClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies signed unsubscribe tokens
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenSigner returns a signer. A non-positive ttl uses DefaultTokenTTL.
func NewTokenSigner(secret string, ttl time.Duration) *TokenSigner {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a token naming email as its subject
func (s *TokenSigner) Sign(email string) (string, error) {
	now := s.now()
	claims := &unsubscribeClaims{
		Purpose: unsubscribePurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strings.ToLower(strings.TrimSpace(email)),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify checks a token and returns the email it was issued for
func (s *TokenSigner) Verify(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	claims := &unsubscribeClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Purpose != unsubscribePurpose || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// UnsubscribeURL builds the link placed in alerts for email
func (s *TokenSigner) UnsubscribeURL(baseURL, email string) (string, error) {
	token, err := s.Sign(email)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(baseURL, "/") + "/unsubscribe?token=" + url.QueryEscape(token), nil
}
