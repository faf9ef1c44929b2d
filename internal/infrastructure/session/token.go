package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenUsable reports whether token can authenticate a request at now.
// The signature is not checked here: the server remains the authority. A
// token that is not a JWT is treated as opaque and usable while present.
func TokenUsable(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return now.Before(exp.Time)
}
