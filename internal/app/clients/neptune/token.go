package neptune

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScopedClaims is what we read from the scoped credential.
type ScopedClaims struct {
	Scope     string
	ExpiresAt time.Time
}

type scopedClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// InspectScopedToken reads the scope and expiry of a scoped credential.
// The signature is not checked here; Neptune verifies its own tokens.
func InspectScopedToken(token string) (ScopedClaims, error) {
	var claims scopedClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return ScopedClaims{}, fmt.Errorf("parse scoped token: %w", err)
	}
	out := ScopedClaims{Scope: claims.Scope}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// Expired reports whether the claims carry an expiry at or before now.
func (c ScopedClaims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
