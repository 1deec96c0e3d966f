package repository

import (
	"context"
	"errors"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) CreateReview(ctx context.Context, review *models.Review) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(review).Error; err != nil {
		return err
	}
	return db.Preload("Author").First(review, review.ID).Error
}

// GetReview looks the review up under its title, returning (nil, nil) when
// either does not match.
func (r *ReviewRepository) GetReview(ctx context.Context, titleID, reviewID uint) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).Preload("Author").
		Where("id = ? AND title_id = ?", reviewID, titleID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

func (r *ReviewRepository) ReviewExists(ctx context.Context, titleID, authorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("title_id = ? AND author_id = ?", titleID, authorID).
		Count(&count).Error
	return count > 0, err
}

func (r *ReviewRepository) ListReviews(ctx context.Context, titleID uint, opts ListOptions) ([]models.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{}).Where("title_id = ?", titleID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reviews []models.Review
	err := opts.apply(query.Preload("Author").Order("pub_date, id")).Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// UpdateReview writes the given columns and reloads the review.
func (r *ReviewRepository) UpdateReview(ctx context.Context, review *models.Review, fields map[string]interface{}) error {
	db := r.db.WithContext(ctx)
	if len(fields) > 0 {
		if err := db.Model(&models.Review{ID: review.ID}).Omit(clause.Associations).Updates(fields).Error; err != nil {
			return err
		}
	}
	return db.Preload("Author").First(review, review.ID).Error
}

func (r *ReviewRepository) DeleteReview(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Review{}, id).Error
	})
}
