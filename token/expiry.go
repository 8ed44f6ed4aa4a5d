package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UnverifiedExpiry reads the exp claim without checking the signature. The
// result is informational; only the server decides whether a token is valid.
func UnverifiedExpiry(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
