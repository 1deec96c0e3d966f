package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	TestJWTSecret          = "test-secret-key"
	TestConfirmationSecret = "test-confirmation-secret"
)

// CreateTestUser inserts a user with email <username>@example.com.
func CreateTestUser(t *testing.T, db *gorm.DB, username string, role models.Role) *models.User {
	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Role:     role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user %s: %v", username, err)
	}
	return user
}

func CreateTestCategory(t *testing.T, db *gorm.DB, name, slug string) *models.Category {
	category := &models.Category{Name: name, Slug: slug}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("Failed to create test category %s: %v", slug, err)
	}
	return category
}

func CreateTestGenre(t *testing.T, db *gorm.DB, name, slug string) *models.Genre {
	genre := &models.Genre{Name: name, Slug: slug}
	if err := db.Create(genre).Error; err != nil {
		t.Fatalf("Failed to create test genre %s: %v", slug, err)
	}
	return genre
}

// CreateTestTitle inserts a title linked to the given category and genres.
func CreateTestTitle(t *testing.T, db *gorm.DB, name string, year int, category *models.Category, genres ...*models.Genre) *models.Title {
	title := &models.Title{Name: name, Year: year}
	if category != nil {
		title.CategoryID = &category.ID
	}
	if err := db.Omit(clause.Associations).Create(title).Error; err != nil {
		t.Fatalf("Failed to create test title %s: %v", name, err)
	}
	for _, g := range genres {
		link := &models.GenreTitle{TitleID: title.ID, GenreID: g.ID}
		if err := db.Omit(clause.Associations).Create(link).Error; err != nil {
			t.Fatalf("Failed to link genre %s: %v", g.Slug, err)
		}
	}
	return title
}

func CreateTestReview(t *testing.T, db *gorm.DB, title *models.Title, author *models.User, score int) *models.Review {
	review := &models.Review{
		TitleID:  title.ID,
		AuthorID: author.ID,
		Text:     fmt.Sprintf("review by %s", author.Username),
		Score:    score,
	}
	if err := db.Omit(clause.Associations).Create(review).Error; err != nil {
		t.Fatalf("Failed to create test review: %v", err)
	}
	return review
}

func CreateTestComment(t *testing.T, db *gorm.DB, review *models.Review, author *models.User, text string) *models.Comment {
	comment := &models.Comment{ReviewID: review.ID, AuthorID: author.ID, Text: text}
	if err := db.Omit(clause.Associations).Create(comment).Error; err != nil {
		t.Fatalf("Failed to create test comment: %v", err)
	}
	return comment
}

// AuthHeader returns a Bearer header value with a fresh access token for user.
func AuthHeader(t *testing.T, user *models.User) string {
	token, err := utils.GenerateToken(user, utils.AccessToken, TestJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return "Bearer " + token
}
