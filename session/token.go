package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const minTokenLength = 8

// NormalizeToken trims a raw token and rejects values too short to plausibly
// be a backend-issued credential.
func NormalizeToken(raw string) (string, error) {
	token := strings.TrimSpace(raw)
	if len(token) < minTokenLength {
		return "", InvalidTokenErr
	}
	return token, nil
}

// tokenExpired reports whether token is a JWT whose exp claim is in the past.
// Opaque (non-JWT) tokens are never considered expired here; validity of those
// is deferred to the first authenticated API call. The signature is not
// checked — the backend is the verifier, the client only needs the claim.
func tokenExpired(token string, now time.Time) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	expiry, err := parsed.Claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return false
	}
	return expiry.Before(now)
}
