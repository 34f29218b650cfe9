package service

import "errors"

var (
	// ErrStoryNotFound is returned when a story id does not exist.
	ErrStoryNotFound = errors.New("story not found")
	// ErrThreadNotFound is returned when a thread id does not exist.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrAlreadyLiked is returned when the caller identifier already liked the story.
	ErrAlreadyLiked = errors.New("already liked this story")
)

// ValidationError reports missing or invalid caller input. Message is safe to
// show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalid(msg string) error { return &ValidationError{Message: msg} }
