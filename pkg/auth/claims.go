package auth

import (
	"github.com/angelmondragon/buttery-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	NetID string
	Role  enums.UserRole
	JTI   string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	NetID string         `json:"netid"`
	Role  enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
