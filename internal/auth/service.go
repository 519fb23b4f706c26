package auth

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/users"
	pkgAuth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/mail"
	"github.com/angelmondragon/storefront-backend/pkg/security"
)

const (
	emailCodeLength = 6

	cooldownVerify = "verify-email"
	cooldownReset  = "reset-password"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	SignUp(ctx context.Context, req SignUpRequest) error
	SignIn(ctx context.Context, req SignInRequest) (*SessionResult, error)
	VerifyEmail(ctx context.Context, req VerifyEmailRequest) (*SessionResult, error)
	ResendVerification(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error
	SignOut(ctx context.Context, sessionID string) error
	CheckAuth(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

type sessionManager interface {
	Create(ctx context.Context, userID uuid.UUID, role enums.UserRole) (string, error)
	Revoke(ctx context.Context, sessionID string) error
}

type cooldowns interface {
	Cooldown(ctx context.Context, scope, id string, window time.Duration) (bool, time.Duration, error)
}

type mailer interface {
	Dispatch(ctx context.Context, msg mail.Message)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Users          *users.Repository
	Tx             db.TxRunner
	Sessions       sessionManager
	Cooldowns      cooldowns
	Mailer         mailer
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	ClientURL      string
}

type service struct {
	users     *users.Repository
	tx        db.TxRunner
	sessions  sessionManager
	cooldowns cooldowns
	mailer    mailer
	jwtCfg    config.JWTConfig
	pwCfg     config.PasswordConfig
	clientURL string
	now       func() time.Time
	newCode   func() (string, error)
}

// NewService constructs the auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Cooldowns == nil {
		return nil, fmt.Errorf("cooldown store is required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	return &service{
		users:     params.Users,
		tx:        params.Tx,
		sessions:  params.Sessions,
		cooldowns: params.Cooldowns,
		mailer:    params.Mailer,
		jwtCfg:    params.JWTConfig,
		pwCfg:     params.PasswordConfig,
		clientURL: strings.TrimRight(params.ClientURL, "/"),
		now:       time.Now,
		newCode:   func() (string, error) { return security.GenerateCode(emailCodeLength) },
	}, nil
}

func (s *service) SignUp(ctx context.Context, req SignUpRequest) error {
	username := strings.TrimSpace(req.Username)
	email := users.NormalizeEmail(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Missing username, password, or email")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "User already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}

	hash, err := security.HashPassword(req.Password, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         enums.UserRoleUser,
	}
	var token string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		if err := repo.Create(ctx, user); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeValidation, "User already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		minted, err := s.issueCode(ctx, repo, user.ID, enums.EmailCodeVerifyEmail)
		token = minted
		return err
	})
	if err != nil {
		return err
	}

	// the first mail starts the resend window
	if _, _, err := s.cooldowns.Cooldown(ctx, cooldownVerify, user.ID.String(), s.jwtCfg.ResendCooldown()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start resend cooldown")
	}
	s.mailer.Dispatch(ctx, mail.VerifyEmailMessage(email, username, mail.VerificationLink(s.clientURL, token, user.ID.String())))
	return nil
}

func (s *service) SignIn(ctx context.Context, req SignInRequest) (*SessionResult, error) {
	email := users.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing email or password")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if !user.IsVerified {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Email not verified").
			WithDetails(map[string]any{"needVerification": true})
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Incorrect password")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update last login")
	}
	if security.NeedsRehash(user.PasswordHash, s.pwCfg) {
		// The plaintext is only available here, so upgrade old hashes now.
		if hash, err := security.HashPassword(req.Password, s.pwCfg); err == nil {
			if err := s.users.Update(ctx, user.ID, map[string]any{"password_hash": hash}); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upgrade password hash")
			}
		}
	}
	return s.startSession(ctx, user.ID)
}

func (s *service) VerifyEmail(ctx context.Context, req VerifyEmailRequest) (*SessionResult, error) {
	if req.Token == "" || req.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid token")
	}
	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	if user.IsVerified {
		return &SessionResult{User: users.FromModel(user), AlreadyVerified: true}, nil
	}

	claims, err := s.parseToken(req.Token, req.UserID, enums.EmailCodeVerifyEmail)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		if err := s.consumeCode(ctx, repo, req.UserID, enums.EmailCodeVerifyEmail, claims.Code); err != nil {
			return err
		}
		if err := repo.Update(ctx, req.UserID, map[string]any{"is_verified": true}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark verified")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.startSession(ctx, req.UserID)
}

func (s *service) ResendVerification(ctx context.Context, email string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.IsVerified {
		return pkgerrors.New(pkgerrors.CodeValidation, "Email already verified")
	}
	if err := s.claimCooldown(ctx, cooldownVerify, user.ID, "resending the email verification"); err != nil {
		return err
	}
	token, err := s.issueCode(ctx, s.users, user.ID, enums.EmailCodeVerifyEmail)
	if err != nil {
		return err
	}
	s.mailer.Dispatch(ctx, mail.VerifyEmailMessage(user.Email, user.Username, mail.VerificationLink(s.clientURL, token, user.ID.String())))
	return nil
}

func (s *service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err := s.claimCooldown(ctx, cooldownReset, user.ID, "resending the reset password email"); err != nil {
		return err
	}
	token, err := s.issueCode(ctx, s.users, user.ID, enums.EmailCodeResetPassword)
	if err != nil {
		return err
	}
	s.mailer.Dispatch(ctx, mail.ResetPasswordMessage(user.Email, user.Username, mail.ResetPasswordLink(s.clientURL, token, user.ID.String())))
	return nil
}

// ResetPassword consumes every outstanding reset code for the user.
func (s *service) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if req.Token == "" || req.UserID == uuid.Nil || req.Password == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Missing token, userId, or password")
	}
	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "User not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	claims, err := s.parseToken(req.Token, req.UserID, enums.EmailCodeResetPassword)
	if err != nil {
		return err
	}
	hash, err := security.HashPassword(req.Password, s.pwCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		if err := s.consumeCode(ctx, repo, req.UserID, enums.EmailCodeResetPassword, claims.Code); err != nil {
			return err
		}
		if err := repo.Update(ctx, req.UserID, map[string]any{"password_hash": hash}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
		}
		return nil
	})
}

func (s *service) SignOut(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) CheckAuth(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	return users.FromModel(user), nil
}

func (s *service) startSession(ctx context.Context, userID uuid.UUID) (*SessionResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user")
	}
	sessionID, err := s.sessions.Create(ctx, user.ID, user.Role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return &SessionResult{SessionID: sessionID, User: users.FromModel(user)}, nil
}

func (s *service) userByEmail(ctx context.Context, email string) (*models.User, error) {
	email = users.NormalizeEmail(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing email")
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
	}
	return user, nil
}

func (s *service) claimCooldown(ctx context.Context, scope string, userID uuid.UUID, action string) error {
	ok, remaining, err := s.cooldowns.Cooldown(ctx, scope, userID.String(), s.jwtCfg.ResendCooldown())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check cooldown")
	}
	if !ok {
		seconds := int(math.Ceil(remaining.Seconds()))
		return pkgerrors.New(pkgerrors.CodeRateLimit, fmt.Sprintf("Please wait %d seconds before %s", seconds, action)).
			WithDetails(map[string]any{"retryAfterSeconds": seconds})
	}
	return nil
}

// issueCode stores a fresh code and returns the signed link token carrying it.
func (s *service) issueCode(ctx context.Context, repo *users.Repository, userID uuid.UUID, purpose enums.EmailCodePurpose) (string, error) {
	code, err := s.newCode()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}
	if err := repo.CreateEmailCode(ctx, &models.EmailCode{UserID: userID, Purpose: purpose, Code: code}); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store email code")
	}
	token, err := pkgAuth.MintEmailToken(s.jwtCfg, s.now(), pkgAuth.EmailTokenPayload{UserID: userID, Purpose: purpose, Code: code})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint email token")
	}
	return token, nil
}

func (s *service) parseToken(token string, userID uuid.UUID, purpose enums.EmailCodePurpose) (*pkgAuth.EmailTokenClaims, error) {
	claims, err := pkgAuth.ParseEmailToken(s.jwtCfg, token)
	if err != nil {
		if errors.Is(err, pkgAuth.ErrTokenExpired) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Token has expired")
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid token")
	}
	if claims.UserID != userID || claims.Purpose != purpose {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Invalid token")
	}
	return claims, nil
}

func (s *service) consumeCode(ctx context.Context, repo *users.Repository, userID uuid.UUID, purpose enums.EmailCodePurpose, code string) error {
	if _, err := repo.FindEmailCode(ctx, userID, purpose, code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "Invalid token")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load email code")
	}
	if err := repo.DeleteEmailCodes(ctx, userID, purpose); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear email codes")
	}
	return nil
}
