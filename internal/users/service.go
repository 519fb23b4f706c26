package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/media"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Service covers profile management and the admin roster.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	AdminEmails(ctx context.Context) ([]string, error)
	AddAdmin(ctx context.Context, email string) (string, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*UserDTO, error)
	DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) (*types.Address, error)
}

// ProfileInput updates the non-credential fields of a user. Nil fields are kept.
type ProfileInput struct {
	Username  *string
	Phone     *string
	Avatar    *string
	Addresses []AddressInput
}

type imageResolver interface {
	Resolve(ctx context.Context, folder, value string) (string, error)
	Remove(ctx context.Context, urls ...string)
}

type service struct {
	repo   *Repository
	tx     db.TxRunner
	images imageResolver
}

func NewService(repo *Repository, tx db.TxRunner, images imageResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if images == nil {
		return nil, fmt.Errorf("image resolver required")
	}
	return &service{repo: repo, tx: tx, images: images}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return FromModel(user), nil
}

func (s *service) AdminEmails(ctx context.Context) ([]string, error) {
	emails, err := s.repo.ListEmailsByRole(ctx, enums.UserRoleAdmin)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list admins")
	}
	if emails == nil {
		emails = []string{}
	}
	return emails, nil
}

// AddAdmin promotes an existing account. Unknown e-mails are not invited.
func (s *service) AddAdmin(ctx context.Context, email string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Email is required")
	}
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", mapLookupError(err)
	}
	if user.Role == enums.UserRoleAdmin {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "User is already an admin")
	}
	if err := s.repo.SetRole(ctx, user.ID, enums.UserRoleAdmin); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote user")
	}
	return email, nil
}

// UpdateProfile upserts addresses and updates the user row in one transaction.
func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*UserDTO, error) {
	fields := map[string]any{}
	if input.Username != nil {
		name := strings.TrimSpace(*input.Username)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Username is required")
		}
		fields["username"] = name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		if phone == "" {
			fields["phone"] = nil
		} else {
			fields["phone"] = phone
		}
	}

	var uploaded string
	if input.Avatar != nil {
		url, err := s.images.Resolve(ctx, media.FolderAvatars, *input.Avatar)
		if err != nil {
			return nil, err
		}
		if url != strings.TrimSpace(*input.Avatar) {
			uploaded = url
		}
		fields["avatar"] = url
	}

	var (
		out       *UserDTO
		oldAvatar string
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		current, err := repo.FindByID(ctx, userID)
		if err != nil {
			return mapLookupError(err)
		}
		oldAvatar = current.Avatar

		for _, in := range input.Addresses {
			addr := in.toModel(userID)
			if in.ID == nil {
				if err := repo.CreateAddress(ctx, addr); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
				}
				continue
			}
			if _, err := repo.FindAddress(ctx, *in.ID, userID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeValidation, "Address not found").
						WithDetails(map[string]any{"addressId": in.ID.String()})
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
			}
			if err := repo.UpdateAddress(ctx, addr); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
			}
		}

		if err := repo.Update(ctx, userID, fields); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
		}
		updated, err := repo.FindByID(ctx, userID)
		if err != nil {
			return mapLookupError(err)
		}
		out = FromModel(updated)
		return nil
	})
	if err != nil {
		s.images.Remove(ctx, uploaded)
		return nil, err
	}
	if input.Avatar != nil && oldAvatar != out.Avatar {
		s.images.Remove(ctx, oldAvatar)
	}
	return out, nil
}

// DeleteAddress removes an address owned by userID. Addresses still referenced
// by cart lines are kept.
func (s *service) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) (*types.Address, error) {
	var out *types.Address
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		addr, err := repo.FindAddress(ctx, addressID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Address not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
		}
		inUse, err := repo.AddressInUse(ctx, addressID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check address usage")
		}
		if inUse {
			return pkgerrors.New(pkgerrors.CodeConflict, "Address is used by cart items").
				WithDetails(map[string]any{"addressId": addressID.String()})
		}
		if err := repo.DeleteAddress(ctx, addressID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
		}
		out = types.AddressFromModel(addr)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// NormalizeEmail trims and lower-cases an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
}
