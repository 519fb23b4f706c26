package auth

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/users"
)

// SignUpRequest creates an unverified account.
type SignUpRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignInRequest captures the user credentials sent to the sign-in endpoint.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EmailRequest drives the resend and forgot-password flows.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyEmailRequest is the token and user id taken from the verification link.
type VerifyEmailRequest struct {
	Token  string    `json:"token" validate:"required"`
	UserID uuid.UUID `json:"userId" validate:"required"`
}

type ResetPasswordRequest struct {
	Token    string    `json:"token" validate:"required"`
	UserID   uuid.UUID `json:"userId" validate:"required"`
	Password string    `json:"password" validate:"required"`
}

// SessionResult is returned by every flow that signs the user in. SessionID is
// empty when no new session was created.
type SessionResult struct {
	SessionID       string
	User            *users.UserDTO
	AlreadyVerified bool
}
