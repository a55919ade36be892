package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the exp claim of a bearer token without verifying it. The
// token is issued and checked by the remote API; here it only sizes the
// session lifetime.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// TTLFor returns how long a session holding token should live: until the
// token expires, or fallback when the expiry is unknown or already past.
func TTLFor(token string, fallback time.Duration, now time.Time) time.Duration {
	exp, ok := TokenExpiry(token)
	if !ok || !exp.After(now) {
		return fallback
	}
	return exp.Sub(now)
}
