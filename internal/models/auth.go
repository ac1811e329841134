package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims is the access-token payload for API clients. This service does
// not manage users; tokens are minted by the calling platform and only
// verified here.
type JWTClaims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}
