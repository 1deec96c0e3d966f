package service

import (
	"context"

	"github.com/3gr1v750v/api-yamdb-docker/internal/metrics"
	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/internal/permission"
	"github.com/3gr1v750v/api-yamdb-docker/internal/repository"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"go.uber.org/zap"
)

// ReviewPatch is a partial review update.
type ReviewPatch struct {
	Text  *string
	Score *int
}

type ReviewService struct {
	reviewRepo *repository.ReviewRepository
	titleRepo  *repository.TitleRepository
}

func NewReviewService(reviewRepo *repository.ReviewRepository, titleRepo *repository.TitleRepository) *ReviewService {
	return &ReviewService{
		reviewRepo: reviewRepo,
		titleRepo:  titleRepo,
	}
}

func (s *ReviewService) ListReviews(ctx context.Context, titleID uint, opts repository.ListOptions) ([]models.Review, int64, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, 0, err
	}
	return s.reviewRepo.ListReviews(ctx, titleID, opts)
}

func (s *ReviewService) GetReview(ctx context.Context, titleID, reviewID uint) (*models.Review, error) {
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}
	review, err := s.reviewRepo.GetReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	return review, nil
}

// CreateReview adds the actor's review of the title. A second review by the
// same author on the same title is a ValidationError.
func (s *ReviewService) CreateReview(ctx context.Context, actor permission.Actor, titleID uint, text string, score *int) (*models.Review, error) {
	if err := checkCollection(actor, permission.KindReview, permission.ActionCreate); err != nil {
		return nil, err
	}
	if err := s.requireTitle(ctx, titleID); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	mergeValidation(verr, validateText("text", text))
	if score == nil {
		verr.Add("score", "this field is required")
	} else {
		mergeValidation(verr, ValidateScore(*score))
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	exists, err := s.reviewRepo.ReviewExists(ctx, titleID, actor.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Log.Warn("Duplicate review rejected",
			zap.Uint("title_id", titleID),
			zap.Uint("author_id", actor.ID),
		)
		return nil, ErrDuplicateReview
	}

	review := &models.Review{
		TitleID:  titleID,
		AuthorID: actor.ID,
		Text:     text,
		Score:    *score,
	}
	if err := s.reviewRepo.CreateReview(ctx, review); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrDuplicateReview
		}
		logger.Log.Error("Failed to create review",
			zap.Uint("title_id", titleID),
			zap.Uint("author_id", actor.ID),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.ReviewsCreated.Inc()
	logger.Log.Info("Review created",
		zap.Uint("review_id", review.ID),
		zap.Uint("title_id", titleID),
		zap.Uint("author_id", actor.ID),
		zap.Int("score", review.Score),
	)
	return review, nil
}

// AuthorizeUpdate reports whether actor may edit the review, without
// touching it.
func (s *ReviewService) AuthorizeUpdate(ctx context.Context, actor permission.Actor, titleID, reviewID uint) error {
	_, err := s.editable(ctx, actor, titleID, reviewID)
	return err
}

func (s *ReviewService) editable(ctx context.Context, actor permission.Actor, titleID, reviewID uint) (*models.Review, error) {
	if err := checkCollection(actor, permission.KindReview, permission.ActionUpdate); err != nil {
		return nil, err
	}
	review, err := s.GetReview(ctx, titleID, reviewID)
	if err != nil {
		return nil, err
	}
	if err := checkObject(actor, permission.Resource{Kind: permission.KindReview, OwnerID: review.AuthorID}, permission.ActionUpdate); err != nil {
		logger.Log.Warn("Review update denied",
			zap.Uint("review_id", reviewID),
			zap.Uint("actor_id", actor.ID),
		)
		return nil, err
	}
	return review, nil
}

// UpdateReview edits text and/or score. The one-review rule is not
// re-checked here.
func (s *ReviewService) UpdateReview(ctx context.Context, actor permission.Actor, titleID, reviewID uint, patch ReviewPatch) (*models.Review, error) {
	review, err := s.editable(ctx, actor, titleID, reviewID)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	verr := &ValidationError{}
	if patch.Text != nil {
		mergeValidation(verr, validateText("text", *patch.Text))
		fields["text"] = *patch.Text
	}
	if patch.Score != nil {
		mergeValidation(verr, ValidateScore(*patch.Score))
		fields["score"] = *patch.Score
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	if err := s.reviewRepo.UpdateReview(ctx, review, fields); err != nil {
		logger.Log.Error("Failed to update review", zap.Uint("review_id", reviewID), zap.Error(err))
		return nil, err
	}

	logger.Log.Info("Review updated",
		zap.Uint("review_id", reviewID),
		zap.Uint("actor_id", actor.ID),
	)
	return review, nil
}

func (s *ReviewService) DeleteReview(ctx context.Context, actor permission.Actor, titleID, reviewID uint) error {
	if err := checkCollection(actor, permission.KindReview, permission.ActionDelete); err != nil {
		return err
	}
	review, err := s.GetReview(ctx, titleID, reviewID)
	if err != nil {
		return err
	}
	if err := checkObject(actor, permission.Resource{Kind: permission.KindReview, OwnerID: review.AuthorID}, permission.ActionDelete); err != nil {
		return err
	}

	if err := s.reviewRepo.DeleteReview(ctx, review.ID); err != nil {
		logger.Log.Error("Failed to delete review", zap.Uint("review_id", reviewID), zap.Error(err))
		return err
	}
	logger.Log.Info("Review deleted",
		zap.Uint("review_id", reviewID),
		zap.Uint("actor_id", actor.ID),
	)
	return nil
}

func (s *ReviewService) requireTitle(ctx context.Context, titleID uint) error {
	exists, err := s.titleRepo.TitleExists(ctx, titleID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrTitleNotFound
	}
	return nil
}
