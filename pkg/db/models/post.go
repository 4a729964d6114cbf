package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a blog entry.
type Post struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title     string    `gorm:"column:title;not null"`
	Author    string    `gorm:"column:author;not null"`
	Content   string    `gorm:"column:content;not null"`
	Image     *string   `gorm:"column:image"`
	Avatar    *string   `gorm:"column:avatar"`
	Likes     int       `gorm:"column:likes;not null;default:0"`
	Comments  int       `gorm:"column:comments;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
