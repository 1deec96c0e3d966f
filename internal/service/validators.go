package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
)

const (
	MaxUsernameLength = 150
	MaxEmailLength    = 254
	MaxNameLength     = 150
	MaxTitleLength    = 256
	MaxSlugLength     = 50
)

var (
	usernameRegex = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	slugRegex     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

	reservedUsernames = map[string]struct{}{"me": {}}
)

// longerThan compares in characters, not bytes.
func longerThan(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

// ValidateUsername checks the username pattern, length and reserved names.
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return NewValidationError("username", "this field is required")
	case longerThan(username, MaxUsernameLength):
		return NewValidationError("username", fmt.Sprintf("must be at most %d characters", MaxUsernameLength))
	case !usernameRegex.MatchString(username):
		return NewValidationError("username", "only letters, digits and @/./+/-/_ are allowed")
	}
	if _, reserved := reservedUsernames[username]; reserved {
		return NewValidationError("username", fmt.Sprintf("username %q is reserved", username))
	}
	return nil
}

func ValidateEmail(email string) error {
	switch {
	case email == "":
		return NewValidationError("email", "this field is required")
	case longerThan(email, MaxEmailLength):
		return NewValidationError("email", fmt.Sprintf("must be at most %d characters", MaxEmailLength))
	case !emailRegex.MatchString(email):
		return NewValidationError("email", "invalid email format")
	}
	return nil
}

func ValidateSlug(slug string) error {
	switch {
	case slug == "":
		return NewValidationError("slug", "this field is required")
	case longerThan(slug, MaxSlugLength):
		return NewValidationError("slug", fmt.Sprintf("must be at most %d characters", MaxSlugLength))
	case !slugRegex.MatchString(slug):
		return NewValidationError("slug", "only latin letters, digits, - and _ are allowed")
	}
	return nil
}

func ValidateRole(role models.Role) error {
	if !role.Valid() {
		return NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}
	return nil
}

// ValidateTitleYear rejects release years after the current year. now must
// already be in the configured time zone.
func ValidateTitleYear(year int, now time.Time) error {
	if year > now.Year() {
		return NewValidationError("year", "release year cannot be later than the current year")
	}
	return nil
}

func ValidateScore(score int) error {
	if score < models.MinScore || score > models.MaxScore {
		return NewValidationError("score", fmt.Sprintf("must be between %d and %d", models.MinScore, models.MaxScore))
	}
	return nil
}

func validateText(field, text string) error {
	if strings.TrimSpace(text) == "" {
		return NewValidationError(field, "this field may not be blank")
	}
	return nil
}
