package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/yardops-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Email  string
	Role   enums.OperatorRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT presented by dashboard operators.
type AccessTokenClaims struct {
	UserID uuid.UUID          `json:"user_id"`
	Email  string             `json:"email,omitempty"`
	Role   enums.OperatorRole `json:"role"`
	jwt.RegisteredClaims
}
