package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	"github.com/himalayan-naturals/storefront-backend/pkg/pagination"
)

const (
	// EmailUniqueConstraint is the unique key on identities.email.
	EmailUniqueConstraint = "identities_email_key"
	// ReferralCodeUniqueConstraint is the unique key on profiles.referral_code.
	ReferralCodeUniqueConstraint = "profiles_referral_code_key"
)

// Repository exposes identity and profile persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// CreateIdentity inserts login credentials.
func (r *Repository) CreateIdentity(ctx context.Context, identity *models.Identity) error {
	return r.db.WithContext(ctx).Create(identity).Error
}

// FindIdentityByEmail retrieves the identity matching the lowercased email.
func (r *Repository) FindIdentityByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var identity models.Identity
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&identity).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

func (r *Repository) FindIdentityByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	var identity models.Identity
	if err := r.db.WithContext(ctx).First(&identity, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &identity, nil
}

// UpdateLastLogin refreshes the identity's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

func (r *Repository) UpdateIdentityEmail(ctx context.Context, id uuid.UUID, email string) error {
	return r.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		UpdateColumn("email", email).Error
}

// InsertProfileIfAbsent inserts profile unless a row with its id exists.
func (r *Repository) InsertProfileIfAbsent(ctx context.Context, profile *models.Profile) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(profile)
	return res.RowsAffected > 0, res.Error
}

// ProfileExists reports whether a profile row exists for id.
func (r *Repository) ProfileExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) FindProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// LockProfile reads the profile with SELECT ... FOR UPDATE.
func (r *Repository) LockProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *Repository) FindProfileByReferralCode(ctx context.Context, code string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "referral_code = ?", code).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// SetReferralCode stores code only when the profile has none yet. It
// reports whether the row was updated.
func (r *Repository) SetReferralCode(ctx context.Context, id uuid.UUID, code string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ? AND referral_code IS NULL", id).
		Update("referral_code", code)
	return res.RowsAffected > 0, res.Error
}

// SetReferredBy links the profile to its referrer once.
func (r *Repository) SetReferredBy(ctx context.Context, id, referrerID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ? AND referred_by IS NULL", id).
		Update("referred_by", referrerID)
	return res.RowsAffected > 0, res.Error
}

// UpdateProfile applies column updates and returns whether the row exists.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Profile{}).
		Where("id = ?", id).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// ListProfiles returns profiles newest first using cursor pagination.
func (r *Repository) ListProfiles(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.Profile, error) {
	query := r.db.WithContext(ctx)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.Profile
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListReferredBy returns profiles that signed up with referrerID's code.
func (r *Repository) ListReferredBy(ctx context.Context, referrerID uuid.UUID) ([]models.Profile, error) {
	var rows []models.Profile
	if err := r.db.WithContext(ctx).
		Where("referred_by = ?", referrerID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteUser removes the profile and identity. Wallet transactions and
// orders keep their user id.
func (r *Repository) DeleteUser(ctx context.Context, id uuid.UUID) (bool, error) {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Profile{}).Where("referred_by = ?", id).Update("referred_by", nil).Error; err != nil {
		return false, err
	}
	profiles := db.Delete(&models.Profile{}, "id = ?", id)
	if profiles.Error != nil {
		return false, profiles.Error
	}
	identities := db.Delete(&models.Identity{}, "id = ?", id)
	if identities.Error != nil {
		return false, identities.Error
	}
	return profiles.RowsAffected > 0 || identities.RowsAffected > 0, nil
}
