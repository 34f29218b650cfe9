package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/sujalbistaa/cleancook/internal/models"
)

const (
	defaultPage  = 1
	defaultLimit = 10

	// AnonymousIdentifier is used for callers without a network address. All
	// of them share a single like per story.
	AnonymousIdentifier = "anonymous"
)

// StoryInput carries the fields of a new story. ImageURL is set by the upload
// store when an image was attached.
type StoryInput struct {
	Title      string
	Content    string
	Location   string
	FuelType   string
	AuthorName string
	ImageURL   *string
}

// Validate checks required fields and the fuel type.
func (in StoryInput) Validate() error {
	if isBlank(in.Title) || isBlank(in.Content) || isBlank(in.AuthorName) {
		return invalid("Title, content, and author name are required")
	}
	if in.FuelType != "" && !models.IsFuelType(in.FuelType) {
		return invalid("Invalid fuel type")
	}
	return nil
}

// Pagination describes one page of a story listing.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// StoryPage is the response body of a story listing.
type StoryPage struct {
	Stories    []models.Story `json:"stories"`
	Pagination Pagination     `json:"pagination"`
}

// NormalizePage applies the listing defaults. Values below 1 fall back to
// page 1 and limit 10. There is no upper bound on limit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

// PageCount is ceil(total/limit). It holds for any limit up to math.MaxInt.
func PageCount(total int64, limit int) int {
	if limit < 1 || total < 1 {
		return 0
	}
	l := int64(limit)
	pages := total / l
	if total%l != 0 {
		pages++
	}
	return int(pages)
}

// pageOffset is (page-1)*limit. ok is false when the product does not fit in
// an int; no row can sit that far into the table.
func pageOffset(page, limit int) (offset int, ok bool) {
	skip := page - 1
	if skip > 0 && limit > math.MaxInt/skip {
		return 0, false
	}
	return skip * limit, true
}

// ListStories returns a page of stories, newest first, optionally restricted
// to one fuel type.
func (s *Service) ListStories(ctx context.Context, page, limit int, fuelType string) (*StoryPage, error) {
	page, limit = NormalizePage(page, limit)

	filtered := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.Story{})
		if fuelType != "" {
			q = q.Where("fuel_type = ?", fuelType)
		}
		return q
	}

	stories := []models.Story{}
	if offset, ok := pageOffset(page, limit); ok {
		err := filtered().
			Order("created_at desc, id desc").
			Limit(limit).
			Offset(offset).
			Find(&stories).Error
		if err != nil {
			return nil, fmt.Errorf("fetch stories: %w", err)
		}
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count stories: %w", err)
	}

	return &StoryPage{
		Stories: stories,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: PageCount(total, limit),
		},
	}, nil
}

// CreateStory validates and inserts a story, then returns the stored row.
func (s *Service) CreateStory(ctx context.Context, in StoryInput) (*models.Story, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	story := models.Story{
		Title:      in.Title,
		Content:    in.Content,
		ImageURL:   in.ImageURL,
		Location:   optional(in.Location),
		FuelType:   optional(in.FuelType),
		AuthorName: in.AuthorName,
	}
	db := s.db.WithContext(ctx)
	if err := db.Create(&story).Error; err != nil {
		return nil, fmt.Errorf("insert story: %w", err)
	}

	var created models.Story
	if err := db.First(&created, story.ID).Error; err != nil {
		return nil, fmt.Errorf("fetch created story %d: %w", story.ID, err)
	}
	return &created, nil
}

// LikeStory records a like from identifier and bumps the story's counter in a
// single transaction. A second like from the same identifier returns
// ErrAlreadyLiked and changes nothing.
func (s *Service) LikeStory(ctx context.Context, storyID uint, identifier string) (*models.Story, error) {
	if identifier == "" {
		identifier = AnonymousIdentifier
	}

	var liked models.Story
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Story{}, storyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrStoryNotFound
			}
			return err
		}

		var existing int64
		err := tx.Model(&models.StoryLike{}).
			Where("story_id = ? AND user_identifier = ?", storyID, identifier).
			Count(&existing).Error
		if err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyLiked
		}

		like := models.StoryLike{StoryID: storyID, UserIdentifier: identifier}
		if err := tx.Create(&like).Error; err != nil {
			// A concurrent like from the same identifier won the race.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyLiked
			}
			return err
		}

		err = tx.Model(&models.Story{}).
			Where("id = ?", storyID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error
		if err != nil {
			return err
		}
		return tx.First(&liked, storyID).Error
	})
	if err != nil {
		if errors.Is(err, ErrStoryNotFound) || errors.Is(err, ErrAlreadyLiked) {
			return nil, err
		}
		return nil, fmt.Errorf("like story %d: %w", storyID, err)
	}
	return &liked, nil
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
