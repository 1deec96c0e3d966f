package service

import (
	"context"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/internal/permission"
	"github.com/3gr1v750v/api-yamdb-docker/internal/repository"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"go.uber.org/zap"
)

// CommentService works on comments under /titles/{title}/reviews/{review}.
// The review must belong to the title.
type CommentService struct {
	commentRepo *repository.CommentRepository
	reviews     *ReviewService
}

func NewCommentService(commentRepo *repository.CommentRepository, reviews *ReviewService) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		reviews:     reviews,
	}
}

func (s *CommentService) ListComments(ctx context.Context, titleID, reviewID uint, opts repository.ListOptions) ([]models.Comment, int64, error) {
	if _, err := s.reviews.GetReview(ctx, titleID, reviewID); err != nil {
		return nil, 0, err
	}
	return s.commentRepo.ListComments(ctx, reviewID, opts)
}

func (s *CommentService) GetComment(ctx context.Context, titleID, reviewID, commentID uint) (*models.Comment, error) {
	if _, err := s.reviews.GetReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetComment(ctx, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if comment == nil {
		return nil, ErrCommentNotFound
	}
	return comment, nil
}

func (s *CommentService) CreateComment(ctx context.Context, actor permission.Actor, titleID, reviewID uint, text string) (*models.Comment, error) {
	if err := checkCollection(actor, permission.KindComment, permission.ActionCreate); err != nil {
		return nil, err
	}
	if _, err := s.reviews.GetReview(ctx, titleID, reviewID); err != nil {
		return nil, err
	}
	if err := validateText("text", text); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		ReviewID: reviewID,
		AuthorID: actor.ID,
		Text:     text,
	}
	if err := s.commentRepo.CreateComment(ctx, comment); err != nil {
		logger.Log.Error("Failed to create comment",
			zap.Uint("review_id", reviewID),
			zap.Uint("author_id", actor.ID),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Comment created",
		zap.Uint("comment_id", comment.ID),
		zap.Uint("review_id", reviewID),
		zap.Uint("author_id", actor.ID),
	)
	return comment, nil
}

// AuthorizeUpdate reports whether actor may edit the comment.
func (s *CommentService) AuthorizeUpdate(ctx context.Context, actor permission.Actor, titleID, reviewID, commentID uint) error {
	_, err := s.editable(ctx, actor, titleID, reviewID, commentID)
	return err
}

func (s *CommentService) editable(ctx context.Context, actor permission.Actor, titleID, reviewID, commentID uint) (*models.Comment, error) {
	if err := checkCollection(actor, permission.KindComment, permission.ActionUpdate); err != nil {
		return nil, err
	}
	comment, err := s.GetComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if err := checkObject(actor, permission.Resource{Kind: permission.KindComment, OwnerID: comment.AuthorID}, permission.ActionUpdate); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, actor permission.Actor, titleID, reviewID, commentID uint, text *string) (*models.Comment, error) {
	comment, err := s.editable(ctx, actor, titleID, reviewID, commentID)
	if err != nil {
		return nil, err
	}
	if text == nil {
		return comment, nil
	}
	if err := validateText("text", *text); err != nil {
		return nil, err
	}

	if err := s.commentRepo.UpdateComment(ctx, comment, *text); err != nil {
		logger.Log.Error("Failed to update comment", zap.Uint("comment_id", commentID), zap.Error(err))
		return nil, err
	}
	logger.Log.Info("Comment updated",
		zap.Uint("comment_id", commentID),
		zap.Uint("actor_id", actor.ID),
	)
	return comment, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, actor permission.Actor, titleID, reviewID, commentID uint) error {
	if err := checkCollection(actor, permission.KindComment, permission.ActionDelete); err != nil {
		return err
	}
	comment, err := s.GetComment(ctx, titleID, reviewID, commentID)
	if err != nil {
		return err
	}
	if err := checkObject(actor, permission.Resource{Kind: permission.KindComment, OwnerID: comment.AuthorID}, permission.ActionDelete); err != nil {
		return err
	}

	if err := s.commentRepo.DeleteComment(ctx, comment.ID); err != nil {
		logger.Log.Error("Failed to delete comment", zap.Uint("comment_id", commentID), zap.Error(err))
		return err
	}
	logger.Log.Info("Comment deleted",
		zap.Uint("comment_id", commentID),
		zap.Uint("actor_id", actor.ID),
	)
	return nil
}
