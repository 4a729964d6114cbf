package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/himalayan-naturals/storefront-backend/pkg/db/models"
	pkgerrors "github.com/himalayan-naturals/storefront-backend/pkg/errors"
	"github.com/himalayan-naturals/storefront-backend/pkg/logger"
	"github.com/himalayan-naturals/storefront-backend/pkg/pagination"
)

// Service exposes the blog. Reads are public, writes are admin only.
type Service interface {
	List(ctx context.Context, params pagination.Params) (*pagination.Page[PostDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*PostDTO, error)
	Create(ctx context.Context, input CreateInput) (*PostDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*PostDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("posts repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*pagination.Page[PostDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list posts")
	}
	page := pagination.Trim(rows, params.Limit, func(p models.Post) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID.String()}
	})
	items := make([]PostDTO, 0, len(page.Items))
	for _, row := range page.Items {
		items = append(items, toDTO(row))
	}
	return &pagination.Page[PostDTO]{Items: items, NextCursor: page.NextCursor}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*PostDTO, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load post")
	}
	dto := toDTO(*post)
	return &dto, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*PostDTO, error) {
	title := strings.TrimSpace(input.Title)
	author := strings.TrimSpace(input.Author)
	if title == "" || author == "" || strings.TrimSpace(input.Content) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title, author and content are required")
	}
	now := s.now()
	post := models.Post{
		ID:        uuid.New(),
		Title:     title,
		Author:    author,
		Content:   input.Content,
		Image:     blankToNil(input.Image),
		Avatar:    blankToNil(input.Avatar),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, &post); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create post")
	}
	s.logg.Info(s.logg.WithField(ctx, "post_id", post.ID.String()), "posts.created")
	dto := toDTO(post)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*PostDTO, error) {
	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be blank")
		}
		updates["title"] = title
	}
	if input.Author != nil {
		author := strings.TrimSpace(*input.Author)
		if author == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "author cannot be blank")
		}
		updates["author"] = author
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "content cannot be blank")
		}
		updates["content"] = *input.Content
	}
	if input.Image != nil {
		updates["image"] = blankToNil(input.Image)
	}
	if input.Avatar != nil {
		updates["avatar"] = blankToNil(input.Avatar)
	}
	if input.Likes != nil {
		if *input.Likes < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "likes cannot be negative")
		}
		updates["likes"] = *input.Likes
	}
	if input.Comments != nil {
		if *input.Comments < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "comments cannot be negative")
		}
		updates["comments"] = *input.Comments
	}
	if len(updates) > 0 {
		updates["updated_at"] = s.now()
		found, err := s.repo.Update(ctx, id, updates)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update post")
		}
		if !found {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete post")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
	}
	s.logg.Info(s.logg.WithField(ctx, "post_id", id.String()), "posts.deleted")
	return nil
}

func blankToNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
