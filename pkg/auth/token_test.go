package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "storefront", EmailTokenMinutes: 5}
}

func TestMintAndParseEmailToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	token, err := MintEmailToken(cfg, time.Now().UTC(), EmailTokenPayload{
		UserID:  userID,
		Purpose: enums.EmailCodeVerifyEmail,
		Code:    "abc123",
	})
	if err != nil {
		t.Fatalf("mint email token: %v", err)
	}

	claims, err := ParseEmailToken(cfg, token)
	if err != nil {
		t.Fatalf("parse email token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, claims.UserID)
	}
	if claims.Purpose != enums.EmailCodeVerifyEmail || claims.Code != "abc123" {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Sub(claims.IssuedAt.Time) != 5*time.Minute {
		t.Fatalf("expected 5 minute lifetime")
	}
}

func TestParseEmailTokenExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintEmailToken(cfg, time.Now().Add(-10*time.Minute), EmailTokenPayload{
		UserID:  uuid.New(),
		Purpose: enums.EmailCodeResetPassword,
		Code:    "c",
	})
	if err != nil {
		t.Fatalf("mint email token: %v", err)
	}

	if _, err := ParseEmailToken(cfg, token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseEmailTokenInvalid(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintEmailToken(cfg, time.Now(), EmailTokenPayload{UserID: uuid.New(), Purpose: enums.EmailCodeVerifyEmail, Code: "c"})
	if err != nil {
		t.Fatalf("mint email token: %v", err)
	}

	other := cfg
	other.Secret = "different"
	if _, err := ParseEmailToken(other, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for bad signature, got %v", err)
	}
	if _, err := ParseEmailToken(cfg, "garbage"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for garbage, got %v", err)
	}
}

func TestMintEmailTokenValidatesInput(t *testing.T) {
	cfg := testJWTConfig()
	if _, err := MintEmailToken(cfg, time.Now(), EmailTokenPayload{Purpose: "OTHER", Code: "c"}); err == nil {
		t.Fatal("expected invalid purpose error")
	}
	if _, err := MintEmailToken(cfg, time.Now(), EmailTokenPayload{Purpose: enums.EmailCodeVerifyEmail}); err == nil {
		t.Fatal("expected missing code error")
	}
	if _, err := MintEmailToken(config.JWTConfig{}, time.Now(), EmailTokenPayload{}); err == nil {
		t.Fatal("expected missing secret error")
	}
}
