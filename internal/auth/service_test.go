package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/dbtest"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/mail"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

var testJWT = config.JWTConfig{Secret: "test-secret", Issuer: "storefront", EmailTokenMinutes: 5, ResendCooldownSecs: 60}

var testPassword = config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

type fakeSessions struct {
	created map[string]uuid.UUID
	revoked []string
}

func (f *fakeSessions) Create(ctx context.Context, userID uuid.UUID, role enums.UserRole) (string, error) {
	id := "sess-" + uuid.NewString()
	f.created[id] = userID
	return id, nil
}

func (f *fakeSessions) Revoke(ctx context.Context, sessionID string) error {
	f.revoked = append(f.revoked, sessionID)
	return nil
}

type fakeCooldowns struct {
	held map[string]bool
}

func (f *fakeCooldowns) Cooldown(ctx context.Context, scope, id string, window time.Duration) (bool, time.Duration, error) {
	key := scope + ":" + id
	if f.held[key] {
		return false, 42 * time.Second, nil
	}
	f.held[key] = true
	return true, 0, nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (f *fakeMailer) Dispatch(ctx context.Context, msg mail.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
}

type harness struct {
	client    *db.Client
	svc       Service
	sessions  *fakeSessions
	cooldowns *fakeCooldowns
	mailer    *fakeMailer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	client := dbtest.Open(t)
	h := &harness{
		client:    client,
		sessions:  &fakeSessions{created: map[string]uuid.UUID{}},
		cooldowns: &fakeCooldowns{held: map[string]bool{}},
		mailer:    &fakeMailer{},
	}
	svc, err := NewService(ServiceParams{
		Users:          users.NewRepository(client.DB()),
		Tx:             client,
		Sessions:       h.sessions,
		Cooldowns:      h.cooldowns,
		Mailer:         h.mailer,
		JWTConfig:      testJWT,
		PasswordConfig: testPassword,
		ClientURL:      "http://shop.test/",
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

// linkToken mints the token a mailed link would carry for the newest stored code.
func (h *harness) linkToken(t *testing.T, userID uuid.UUID, purpose enums.EmailCodePurpose) string {
	t.Helper()
	var code models.EmailCode
	require.NoError(t, h.client.DB().
		Where("user_id = ? AND purpose = ?", userID, purpose).
		Order("created_at DESC").
		First(&code).Error)
	token, err := pkgAuth.MintEmailToken(testJWT, time.Now(), pkgAuth.EmailTokenPayload{UserID: userID, Purpose: purpose, Code: code.Code})
	require.NoError(t, err)
	return token
}

func (h *harness) user(t *testing.T, email string) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, h.client.DB().Where("email = ?", email).First(&u).Error)
	return u
}

func TestSignUpVerifySignInFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.svc.SignUp(ctx, SignUpRequest{Username: "ana", Email: "Ana@Example.com", Password: "hunter22"}))
	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, "ana@example.com", h.mailer.sent[0].To)
	assert.Contains(t, h.mailer.sent[0].HTML, "http://shop.test/verify-email?token=")

	err := h.svc.SignUp(ctx, SignUpRequest{Username: "ana", Email: "ana@example.com", Password: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = h.svc.SignIn(ctx, SignInRequest{Email: "ana@example.com", Password: "hunter22"})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "Email not verified", typed.Message())
	assert.Equal(t, map[string]any{"needVerification": true}, typed.Details())

	u := h.user(t, "ana@example.com")
	token := h.linkToken(t, u.ID, enums.EmailCodeVerifyEmail)
	verified, err := h.svc.VerifyEmail(ctx, VerifyEmailRequest{Token: token, UserID: u.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, verified.SessionID)
	assert.True(t, verified.User.IsVerified)

	again, err := h.svc.VerifyEmail(ctx, VerifyEmailRequest{Token: token, UserID: u.ID})
	require.NoError(t, err)
	assert.True(t, again.AlreadyVerified)
	assert.Empty(t, again.SessionID)

	_, err = h.svc.SignIn(ctx, SignInRequest{Email: "ana@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, "Incorrect password", pkgerrors.As(err).Message())

	signedIn, err := h.svc.SignIn(ctx, SignInRequest{Email: "ANA@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, h.sessions.created[signedIn.SessionID])
	assert.NotNil(t, signedIn.User.LastLoginAt)

	require.NoError(t, h.svc.SignOut(ctx, signedIn.SessionID))
	assert.Equal(t, []string{signedIn.SessionID}, h.sessions.revoked)
}

func TestSignInUpgradesOutdatedHash(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	weaker := testPassword
	weaker.ArgonKeyLen = 16
	oldHash, err := security.HashPassword("hunter22", weaker)
	require.NoError(t, err)
	u := models.User{Username: "bo", Email: "bo@example.com", PasswordHash: oldHash, IsVerified: true}
	require.NoError(t, h.client.DB().Create(&u).Error)

	_, err = h.svc.SignIn(ctx, SignInRequest{Email: "bo@example.com", Password: "hunter22"})
	require.NoError(t, err)

	stored := h.user(t, "bo@example.com")
	assert.NotEqual(t, oldHash, stored.PasswordHash)
	assert.False(t, security.NeedsRehash(stored.PasswordHash, testPassword))
	ok, err := security.VerifyPassword("hunter22", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignInUnknownUser(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.SignIn(context.Background(), SignInRequest{Email: "ghost@example.com", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, "User not found", pkgerrors.As(err).Message())
}

func TestVerifyEmailRejectsBadTokens(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.svc.SignUp(ctx, SignUpRequest{Username: "bo", Email: "bo@example.com", Password: "pw"}))
	u := h.user(t, "bo@example.com")

	wrongCode, err := pkgAuth.MintEmailToken(testJWT, time.Now(), pkgAuth.EmailTokenPayload{UserID: u.ID, Purpose: enums.EmailCodeVerifyEmail, Code: "nope00"})
	require.NoError(t, err)
	expired, err := pkgAuth.MintEmailToken(testJWT, time.Now().Add(-time.Hour), pkgAuth.EmailTokenPayload{UserID: u.ID, Purpose: enums.EmailCodeVerifyEmail, Code: "x"})
	require.NoError(t, err)
	resetToken := h.linkTokenForPurposeSwap(t, u.ID)

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{"garbage", "not-a-jwt", "Invalid token"},
		{"unknown code", wrongCode, "Invalid token"},
		{"expired", expired, "Token has expired"},
		{"wrong purpose", resetToken, "Invalid token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.VerifyEmail(ctx, VerifyEmailRequest{Token: tc.token, UserID: u.ID})
			require.Error(t, err)
			assert.Equal(t, tc.message, pkgerrors.As(err).Message())
		})
	}
	assert.False(t, h.user(t, "bo@example.com").IsVerified)
}

// linkTokenForPurposeSwap signs the stored verification code as a reset token.
func (h *harness) linkTokenForPurposeSwap(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	var code models.EmailCode
	require.NoError(t, h.client.DB().Where("user_id = ?", userID).First(&code).Error)
	token, err := pkgAuth.MintEmailToken(testJWT, time.Now(), pkgAuth.EmailTokenPayload{UserID: userID, Purpose: enums.EmailCodeResetPassword, Code: code.Code})
	require.NoError(t, err)
	return token
}

func TestResendVerificationCooldown(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.svc.SignUp(ctx, SignUpRequest{Username: "cy", Email: "cy@example.com", Password: "pw"}))

	err := h.svc.ResendVerification(ctx, "cy@example.com")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimit), "%v", err)
	assert.Equal(t, "Please wait 42 seconds before resending the email verification", pkgerrors.As(err).Message())
	assert.Len(t, h.mailer.sent, 1)

	err = h.svc.ResendVerification(ctx, "nobody@example.com")
	assert.Equal(t, "User not found", pkgerrors.As(err).Message())
}

func TestForgotAndResetPassword(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, h.svc.SignUp(ctx, SignUpRequest{Username: "di", Email: "di@example.com", Password: "old-pass"}))
	u := h.user(t, "di@example.com")
	require.NoError(t, h.client.DB().Model(&models.User{}).Where("id = ?", u.ID).Update("is_verified", true).Error)

	require.NoError(t, h.svc.ForgotPassword(ctx, "di@example.com"))
	require.Len(t, h.mailer.sent, 2)
	assert.Contains(t, h.mailer.sent[1].HTML, "http://shop.test/reset-password?token=")

	err := h.svc.ForgotPassword(ctx, "di@example.com")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeRateLimit))

	token := h.linkToken(t, u.ID, enums.EmailCodeResetPassword)
	require.NoError(t, h.svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, UserID: u.ID, Password: "new-pass"}))

	err = h.svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, UserID: u.ID, Password: "again"})
	require.Error(t, err)
	assert.Equal(t, "Invalid token", pkgerrors.As(err).Message(), "reset codes are single use")

	_, err = h.svc.SignIn(ctx, SignInRequest{Email: "di@example.com", Password: "old-pass"})
	assert.Error(t, err)
	_, err = h.svc.SignIn(ctx, SignInRequest{Email: "di@example.com", Password: "new-pass"})
	assert.NoError(t, err)
}

func TestCheckAuth(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.CheckAuth(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
