package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the payload of the access token the transport connects with.
//
// The sync engine never verifies the signature (the server does); it only
// reads the user id to know who "the current user" is.
type TokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}
