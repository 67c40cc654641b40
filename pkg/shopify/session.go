package shopify

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims of an App Bridge session token.
type SessionClaims struct {
	Dest string `json:"dest"`
	jwt.RegisteredClaims
}

// ParseSessionToken verifies an HS256 session token and returns the shop
// domain from its dest claim. When apiKey is set the audience must match it.
func ParseSessionToken(token, apiKey, secret string, leeway time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	}
	if apiKey != "" {
		opts = append(opts, jwt.WithAudience(apiKey))
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return "", errors.Join(ErrInvalidSession, err)
	}
	if !parsed.Valid {
		return "", ErrInvalidSession
	}

	domain, err := NormalizeShopDomain(claims.Dest)
	if err != nil {
		return "", errors.Join(ErrInvalidSession, fmt.Errorf("dest %q: %w", claims.Dest, err))
	}
	return domain, nil
}

// SignSessionToken issues a session token for shop. Useful for local tooling
// and tests; production tokens come from App Bridge.
func SignSessionToken(shop, apiKey, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Dest: "https://" + shop,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://" + shop + "/admin",
			Audience:  jwt.ClaimStrings{apiKey},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
