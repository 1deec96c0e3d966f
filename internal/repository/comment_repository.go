package repository

import (
	"context"
	"errors"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(comment).Error; err != nil {
		return err
	}
	return db.Preload("Author").First(comment, comment.ID).Error
}

func (r *CommentRepository) GetComment(ctx context.Context, reviewID, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Preload("Author").
		Where("id = ? AND review_id = ?", commentID, reviewID).
		First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepository) ListComments(ctx context.Context, reviewID uint, opts ListOptions) ([]models.Comment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Comment{}).Where("review_id = ?", reviewID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var comments []models.Comment
	err := opts.apply(query.Preload("Author").Order("pub_date, id")).Find(&comments).Error
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *CommentRepository) UpdateComment(ctx context.Context, comment *models.Comment, text string) error {
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Comment{ID: comment.ID}).Omit(clause.Associations).
		Update("text", text).Error; err != nil {
		return err
	}
	return db.Preload("Author").First(comment, comment.ID).Error
}

func (r *CommentRepository) DeleteComment(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Comment{}, id).Error
}
