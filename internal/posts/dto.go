package posts

import (
	"time"

	"github.com/google/uuid"

	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
)

// PostDTO is the transport shape of a blog post.
type PostDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	Image     *string   `json:"image,omitempty"`
	Avatar    *string   `json:"avatar,omitempty"`
	Likes     int       `json:"likes"`
	Comments  int       `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateInput carries a new post. Likes and comments start at zero.
type CreateInput struct {
	Title   string  `json:"title" validate:"required,max=255"`
	Author  string  `json:"author" validate:"required,max=120"`
	Content string  `json:"content" validate:"required"`
	Image   *string `json:"image" validate:"omitempty,url"`
	Avatar  *string `json:"avatar" validate:"omitempty,url"`
}

// UpdateInput changes the provided fields only. A blank image or avatar clears it.
type UpdateInput struct {
	Title    *string `json:"title" validate:"omitempty,max=255"`
	Author   *string `json:"author" validate:"omitempty,max=120"`
	Content  *string `json:"content"`
	Image    *string `json:"image"`
	Avatar   *string `json:"avatar"`
	Likes    *int    `json:"likes" validate:"omitempty,min=0"`
	Comments *int    `json:"comments" validate:"omitempty,min=0"`
}

func toDTO(p models.Post) PostDTO {
	return PostDTO{
		ID:        p.ID,
		Title:     p.Title,
		Author:    p.Author,
		Content:   p.Content,
		Image:     p.Image,
		Avatar:    p.Avatar,
		Likes:     p.Likes,
		Comments:  p.Comments,
		CreatedAt: p.CreatedAt,
	}
}
