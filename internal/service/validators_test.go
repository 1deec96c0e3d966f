package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	testCases := []struct {
		name     string
		username string
		valid    bool
	}{
		{"plain", "reviewer", true},
		{"allowed symbols", "john.doe+test@site-x_1", true},
		{"unicode letters", "рецензент", true},
		{"reserved me", "me", false},
		{"only lowercase me is reserved", "Me", true},
		{"empty", "", false},
		{"space", "john doe", false},
		{"slash", "john/doe", false},
		{"too long", strings.Repeat("a", MaxUsernameLength+1), false},
		{"max length", strings.Repeat("a", MaxUsernameLength), true},
		{"cyrillic max length", strings.Repeat("ж", MaxUsernameLength), true},
		{"cyrillic too long", strings.Repeat("ж", MaxUsernameLength+1), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateUsername(tc.username)
			if tc.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation), "username errors must be validation errors")
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@example.com"))
}

func TestValidateSlug(t *testing.T) {
	assert.NoError(t, ValidateSlug("sci-fi_2"))
	assert.Error(t, ValidateSlug(""))
	assert.Error(t, ValidateSlug("sci fi"))
	assert.Error(t, ValidateSlug("фантастика"))
	assert.Error(t, ValidateSlug(strings.Repeat("s", MaxSlugLength+1)))
}

func TestLengthLimitsCountCharacters(t *testing.T) {
	assert.NoError(t, validateNameSlug(strings.Repeat("ф", MaxTitleLength), "films"))
	assert.Error(t, validateNameSlug(strings.Repeat("ф", MaxTitleLength+1), "films"))

	assert.NoError(t, validateProfileNames(strings.Repeat("Ё", MaxNameLength), strings.Repeat("й", MaxNameLength)))
	err := validateProfileNames(strings.Repeat("Ё", MaxNameLength+1), "Иванов")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "first_name")
	assert.NotContains(t, verr.Fields, "last_name")
}

func TestValidateRole(t *testing.T) {
	assert.NoError(t, ValidateRole(models.RoleUser))
	assert.NoError(t, ValidateRole(models.RoleModerator))
	assert.NoError(t, ValidateRole(models.RoleAdmin))
	assert.Error(t, ValidateRole("superuser"))
}

func TestValidateTitleYear(t *testing.T) {
	now := time.Now().UTC()

	assert.NoError(t, ValidateTitleYear(now.Year(), now), "current year is allowed")
	assert.NoError(t, ValidateTitleYear(1895, now))

	err := ValidateTitleYear(now.Year()+1, now)
	require.Error(t, err, "next year is rejected")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestValidateTitleYear_UsesGivenTimeZone(t *testing.T) {
	// 23:30 UTC on Dec 31 is already Jan 1 in UTC+3.
	loc := time.FixedZone("UTC+3", 3*60*60)
	utc := time.Date(2030, time.December, 31, 23, 30, 0, 0, time.UTC)

	assert.Error(t, ValidateTitleYear(2031, utc))
	assert.NoError(t, ValidateTitleYear(2031, utc.In(loc)))
}

func TestValidateScore(t *testing.T) {
	for score := models.MinScore; score <= models.MaxScore; score++ {
		assert.NoError(t, ValidateScore(score))
	}
	assert.Error(t, ValidateScore(0))
	assert.Error(t, ValidateScore(11))
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError("name", "required").Add("slug", "taken")

	assert.Equal(t, "name: required; slug: taken", err.Error())
	assert.True(t, errors.Is(err, ErrValidation))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(ErrTitleNotFound, ErrNotFound))
}
