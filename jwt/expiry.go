package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned when a token carries no exp claim.
var ErrNoExpiry = errors.New("token has no exp claim")

// ExpiresAt returns the exp claim of tokenStr without verifying its signature.
// Signature verification is the backend's job; the client only schedules refreshes.
func ExpiresAt(tokenStr string) (time.Time, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Subject returns the sub claim of tokenStr without verifying its signature.
func Subject(tokenStr string) (string, error) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, &claims); err != nil {
		return "", err
	}
	return claims.Subject, nil
}
