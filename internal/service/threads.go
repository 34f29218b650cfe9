package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sujalbistaa/cleancook/internal/models"
)

// ThreadInput carries the fields of a new forum thread.
type ThreadInput struct {
	Title      string `json:"title" form:"title"`
	Content    string `json:"content" form:"content"`
	AuthorName string `json:"author_name" form:"author_name"`
}

// CommentInput carries the fields of a new comment.
type CommentInput struct {
	Content    string `json:"content" form:"content"`
	AuthorName string `json:"author_name" form:"author_name"`
}

// ListThreads returns every thread, newest first.
func (s *Service) ListThreads(ctx context.Context) ([]models.Thread, error) {
	threads := []models.Thread{}
	if err := s.db.WithContext(ctx).Order("created_at desc, id desc").Find(&threads).Error; err != nil {
		return nil, fmt.Errorf("fetch threads: %w", err)
	}
	return threads, nil
}

// CreateThread inserts a thread and returns the stored row.
func (s *Service) CreateThread(ctx context.Context, in ThreadInput) (*models.Thread, error) {
	if isBlank(in.Title) || isBlank(in.Content) || isBlank(in.AuthorName) {
		return nil, invalid("Title, content, and author name are required")
	}

	thread := models.Thread{Title: in.Title, Content: in.Content, AuthorName: in.AuthorName}
	db := s.db.WithContext(ctx)
	if err := db.Create(&thread).Error; err != nil {
		return nil, fmt.Errorf("insert thread: %w", err)
	}

	var created models.Thread
	if err := db.First(&created, thread.ID).Error; err != nil {
		return nil, fmt.Errorf("fetch created thread %d: %w", thread.ID, err)
	}
	return &created, nil
}

// ListComments returns a thread's comments, oldest first. An unknown thread
// yields an empty list.
func (s *Service) ListComments(ctx context.Context, threadID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("created_at asc, id asc").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("fetch comments for thread %d: %w", threadID, err)
	}
	return comments, nil
}

// CreateComment inserts a comment and increments the thread's replies_count
// in one transaction.
func (s *Service) CreateComment(ctx context.Context, threadID uint, in CommentInput) (*models.Comment, error) {
	if isBlank(in.Content) || isBlank(in.AuthorName) {
		return nil, invalid("Content and author name are required")
	}

	comment := models.Comment{ThreadID: threadID, Content: in.Content, AuthorName: in.AuthorName}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Thread{}, threadID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrThreadNotFound
			}
			return err
		}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Thread{}).
			Where("id = ?", threadID).
			UpdateColumn("replies_count", gorm.Expr("replies_count + ?", 1)).Error
	})
	if err != nil {
		if errors.Is(err, ErrThreadNotFound) {
			return nil, err
		}
		s.log.WithError(err).WithField("thread_id", threadID).Error("comment transaction rolled back")
		return nil, fmt.Errorf("create comment on thread %d: %w", threadID, err)
	}

	var created models.Comment
	if err := s.db.WithContext(ctx).First(&created, comment.ID).Error; err != nil {
		return nil, fmt.Errorf("fetch created comment %d: %w", comment.ID, err)
	}
	return &created, nil
}
