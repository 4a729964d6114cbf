package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/himalayan-naturals/storefront-backend/pkg/db"
	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	"github.com/himalayan-naturals/storefront-backend/pkg/enums"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/pagination"
)

// Service covers profile reads and edits for the owner and for admins.
type Service interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*ProfileDTO, error)
	UpdateMe(ctx context.Context, id uuid.UUID, input UpdateMeInput) (*ProfileDTO, error)
	List(ctx context.Context, params pagination.Params) (*pagination.Page[ProfileDTO], error)
	AdminUpdate(ctx context.Context, id uuid.UUID, input AdminUpdateInput) (*ProfileDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// EnsureProfile inserts the profile unless one exists. It reports whether
	// a row was created; an existing row is not an error.
	EnsureProfile(ctx context.Context, tx *gorm.DB, profile *models.Profile) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo *Repository
	tx   txRunner
	logg *logger.Logger
}

func NewService(repo *Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) GetProfile(ctx context.Context, id uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo.FindProfile(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return FromModel(profile), nil
}

func (s *service) UpdateMe(ctx context.Context, id uuid.UUID, input UpdateMeInput) (*ProfileDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		updates["name"] = name
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		updates["address"] = strings.TrimSpace(*input.Address)
	}
	return s.applyUpdates(ctx, id, updates)
}

func (s *service) List(ctx context.Context, params pagination.Params) (*pagination.Page[ProfileDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListProfiles(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list profiles")
	}
	page := pagination.Trim(rows, params.Limit, func(p models.Profile) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID.String()}
	})
	items := make([]ProfileDTO, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, *FromModel(&page.Items[i]))
	}
	return &pagination.Page[ProfileDTO]{Items: items, NextCursor: page.NextCursor}, nil
}

// AdminUpdate may also change role and email. Email changes are mirrored on
// the identity so login keeps working.
func (s *service) AdminUpdate(ctx context.Context, id uuid.UUID, input AdminUpdateInput) (*ProfileDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		updates["name"] = name
	}
	if input.Role != nil {
		role, err := enums.ParseProfileRole(*input.Role)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role")
		}
		updates["role"] = role
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Address != nil {
		updates["address"] = strings.TrimSpace(*input.Address)
	}
	if input.Email == nil {
		return s.applyUpdates(ctx, id, updates)
	}

	email := NormalizeEmail(*input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	updates["email"] = email
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		found, err := repo.UpdateProfile(ctx, id, updates)
		if err != nil {
			return err
		}
		if !found {
			return gorm.ErrRecordNotFound
		}
		return repo.UpdateIdentityEmail(ctx, id, email)
	})
	if err != nil {
		if db.IsUniqueViolation(err, EmailUniqueConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already in use")
		}
		return nil, mapLookupError(err)
	}
	return s.GetProfile(ctx, id)
}

func (s *service) applyUpdates(ctx context.Context, id uuid.UUID, updates map[string]any) (*ProfileDTO, error) {
	if len(updates) > 0 {
		found, err := s.repo.UpdateProfile(ctx, id, updates)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
		}
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
	}
	return s.GetProfile(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	var deleted bool
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		deleted, err = s.repo.WithTx(tx).DeleteUser(ctx, id)
		return err
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	s.logg.Info(s.logg.WithUserID(ctx, id.String()), "users.deleted")
	return nil
}

func (s *service) EnsureProfile(ctx context.Context, tx *gorm.DB, profile *models.Profile) (bool, error) {
	repo := s.repo.WithTx(tx)
	exists, err := repo.ProfileExists(ctx, profile.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	return repo.InsertProfileIfAbsent(ctx, profile)
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func mapLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
}
