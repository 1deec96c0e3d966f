package repository

import (
	"context"
	"errors"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *UserRepository) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetUserByUsernameAndEmail matches both fields exactly.
func (r *UserRepository) GetUserByUsernameAndEmail(ctx context.Context, username, email string) (*models.User, error) {
	return r.first(ctx, "username = ? AND email = ?", username, email)
}

// first returns (nil, nil) when nothing matches.
func (r *UserRepository) first(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns one page of users ordered by username. A non-empty
// username filters by exact match.
func (r *UserRepository) ListUsers(ctx context.Context, username string, opts ListOptions) ([]models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})
	if username != "" {
		query = query.Where("username = ?", username)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := opts.apply(query.Order("username")).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateUser writes the given columns and reloads the user.
func (r *UserRepository) UpdateUser(ctx context.Context, user *models.User, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	if err := db.Model(user).Updates(fields).Error; err != nil {
		return err
	}
	return db.First(user, user.ID).Error
}

// DeleteUser removes the user together with their reviews, the comments on
// those reviews, and their own comments.
func (r *UserRepository) DeleteUser(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("author_id = ? OR review_id IN (SELECT id FROM reviews WHERE author_id = ?)", id, id).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
}
