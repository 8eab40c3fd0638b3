package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const TabCookieName = "tab_token"

// TabTokens signs and parses the cookie that ties a browser tab to a
// server-side Tab.
type TabTokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTabTokens(secret string, ttl time.Duration) *TabTokens {
	return &TabTokens{secret: []byte(secret), ttl: ttl}
}

func (t *TabTokens) Issue(tabID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   tabID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign tab token: %w", err)
	}
	return signed, nil
}

// Parse returns the tab id of a valid, unexpired token.
func (t *TabTokens) Parse(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("failed to parse tab token: %w", err)
	}
	if claims.Subject == "" {
		return "", errors.New("tab token has no subject")
	}
	return claims.Subject, nil
}
