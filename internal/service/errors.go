package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrAuthentication   = errors.New("authentication required")

	ErrDuplicateReview  = NewValidationError("", "one review per title per author")
	ErrInvalidCode      = NewValidationError("confirmation_code", "confirmation code does not match")
	ErrUserNotFound     = notFound("user not found")
	ErrTitleNotFound    = notFound("title not found")
	ErrReviewNotFound   = notFound("review not found")
	ErrCommentNotFound  = notFound("comment not found")
	ErrCategoryNotFound = notFound("category not found")
	ErrGenreNotFound    = notFound("genre not found")
)

// ValidationError carries per-field messages. An empty field key means the
// message applies to the whole payload.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records another field message and returns the receiver for chaining.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			parts = append(parts, e.Fields[k])
			continue
		}
		parts = append(parts, k+": "+e.Fields[k])
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// notFoundError keeps a readable message while matching ErrNotFound.
type notFoundError struct {
	msg string
}

func notFound(msg string) error {
	return &notFoundError{msg: msg}
}

func (e *notFoundError) Error() string        { return e.msg }
func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }
