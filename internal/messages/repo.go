package messages

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	"github.com/himalayan-naturals/storefront-backend/pkg/pagination"
)

type Repository interface {
	Create(ctx context.Context, msg *models.ContactMessage) error
	List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.ContactMessage, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, msg *models.ContactMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *repository) List(ctx context.Context, limit int, cursor *pagination.Cursor) ([]models.ContactMessage, error) {
	query := r.db.WithContext(ctx).Model(&models.ContactMessage{})
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.ContactMessage
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.ContactMessage{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}
