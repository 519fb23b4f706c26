package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Repository exposes user-related persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit("Addresses").Create(user).Error
}

// FindByEmail retrieves the user matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID loads a user with their addresses.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Addresses", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields).Error
}

func (r *Repository) SetRole(ctx context.Context, id uuid.UUID, role enums.UserRole) error {
	return r.Update(ctx, id, map[string]any{"role": role})
}

func (r *Repository) ListEmailsByRole(ctx context.Context, role enums.UserRole) ([]string, error) {
	var emails []string
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", role).
		Order("email").
		Pluck("email", &emails).Error
	return emails, err
}

func (r *Repository) FindAddress(ctx context.Context, id, userID uuid.UUID) (*models.Address, error) {
	var addr models.Address
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&addr).Error; err != nil {
		return nil, err
	}
	return &addr, nil
}

func (r *Repository) CreateAddress(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).Create(addr).Error
}

// UpdateAddress writes every location field, including zero values.
func (r *Repository) UpdateAddress(ctx context.Context, addr *models.Address) error {
	return r.db.WithContext(ctx).
		Model(addr).
		Select("lat", "lng", "house_number", "road", "suburb", "city", "state", "country", "postcode").
		Updates(addr).Error
}

func (r *Repository) DeleteAddress(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Address{}).Error
}

// AddressInUse reports whether any cart line still ships to the address.
func (r *Repository) AddressInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CartItem{}).Where("address_id = ?", id).Count(&count).Error
	return count > 0, err
}

// Email codes back verification and password reset links.

func (r *Repository) CreateEmailCode(ctx context.Context, code *models.EmailCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *Repository) FindEmailCode(ctx context.Context, userID uuid.UUID, purpose enums.EmailCodePurpose, code string) (*models.EmailCode, error) {
	var row models.EmailCode
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ? AND code = ?", userID, purpose, code).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) DeleteEmailCodes(ctx context.Context, userID uuid.UUID, purpose enums.EmailCodePurpose) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND purpose = ?", userID, purpose).
		Delete(&models.EmailCode{}).Error
}

// DeleteEmailCodesBefore purges codes whose links can no longer be valid.
func (r *Repository) DeleteEmailCodesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.EmailCode{})
	return res.RowsAffected, res.Error
}
