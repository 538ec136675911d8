// Package token reads the user id out of the access token the client
// connects with.
package token

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg"
)

// UserID parses raw without verifying its signature and returns the
// "user_id" claim, falling back to "sub". Verification is the server's job;
// a forged token only fools the local cache of the forger.
func UserID(raw string) (string, error) {
	claims := &models.TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return "", fmt.Errorf("%w: %w", pkg.ErrUnauthorized, err)
	}

	if claims.UserID != "" {
		return claims.UserID, nil
	}
	if claims.Subject != "" {
		return claims.Subject, nil
	}
	return "", fmt.Errorf("%w: token carries no user id", pkg.ErrUnauthorized)
}
