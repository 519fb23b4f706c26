package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// EmailTokenPayload captures what a verification or reset link proves.
type EmailTokenPayload struct {
	UserID  uuid.UUID
	Purpose enums.EmailCodePurpose
	Code    string
}

// EmailTokenClaims is the typed JWT embedded in e-mail links.
type EmailTokenClaims struct {
	UserID  uuid.UUID              `json:"user_id"`
	Purpose enums.EmailCodePurpose `json:"purpose"`
	Code    string                 `json:"code"`
	jwt.RegisteredClaims
}
