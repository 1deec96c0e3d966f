package handler

import (
	"net/http"
	"time"

	"github.com/3gr1v750v/api-yamdb-docker/internal/middleware"
	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/internal/service"
	"github.com/gin-gonic/gin"
)

// ReviewResponse names the title by id and the author by username.
type ReviewResponse struct {
	ID      uint      `json:"id"`
	Title   uint      `json:"title"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	Score   int       `json:"score"`
	PubDate time.Time `json:"pub_date"`
}

func newReviewResponse(r *models.Review) ReviewResponse {
	return ReviewResponse{
		ID:      r.ID,
		Title:   r.TitleID,
		Author:  r.Author.Username,
		Text:    r.Text,
		Score:   r.Score,
		PubDate: r.PubDate,
	}
}

type ReviewRequest struct {
	Text  *string `json:"text"`
	Score *int    `json:"score"`
}

type ReviewHandler struct {
	reviewService *service.ReviewService
	pages         Paginator
}

func NewReviewHandler(reviewService *service.ReviewService, pages Paginator) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		pages:         pages,
	}
}

// GET /titles/:title_id/reviews
func (h *ReviewHandler) ListReviews(c *gin.Context) {
	titleID, err := pathID(c, "title_id", service.ErrTitleNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	opts, page, err := h.pages.Options(c)
	if err != nil {
		respondError(c, err)
		return
	}

	reviews, count, err := h.reviewService.ListReviews(c.Request.Context(), titleID, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	results := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		results = append(results, newReviewResponse(&reviews[i]))
	}
	h.pages.Respond(c, page, count, results)
}

// POST /titles/:title_id/reviews
func (h *ReviewHandler) CreateReview(c *gin.Context) {
	titleID, err := pathID(c, "title_id", service.ErrTitleNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	var req ReviewRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	text := ""
	if req.Text != nil {
		text = *req.Text
	}
	review, err := h.reviewService.CreateReview(c.Request.Context(), middleware.ActorFrom(c), titleID, text, req.Score)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newReviewResponse(review))
}

// GET /titles/:title_id/reviews/:review_id
func (h *ReviewHandler) GetReview(c *gin.Context) {
	titleID, reviewID, err := reviewPath(c)
	if err != nil {
		respondError(c, err)
		return
	}
	review, err := h.reviewService.GetReview(c.Request.Context(), titleID, reviewID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReviewResponse(review))
}

// PATCH /titles/:title_id/reviews/:review_id
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	titleID, reviewID, err := reviewPath(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.reviewService.AuthorizeUpdate(c.Request.Context(), middleware.ActorFrom(c), titleID, reviewID); err != nil {
		respondError(c, err)
		return
	}
	var req ReviewRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), middleware.ActorFrom(c), titleID, reviewID,
		service.ReviewPatch{Text: req.Text, Score: req.Score})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReviewResponse(review))
}

// DELETE /titles/:title_id/reviews/:review_id
func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	titleID, reviewID, err := reviewPath(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.reviewService.DeleteReview(c.Request.Context(), middleware.ActorFrom(c), titleID, reviewID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func reviewPath(c *gin.Context) (uint, uint, error) {
	titleID, err := pathID(c, "title_id", service.ErrTitleNotFound)
	if err != nil {
		return 0, 0, err
	}
	reviewID, err := pathID(c, "review_id", service.ErrReviewNotFound)
	if err != nil {
		return 0, 0, err
	}
	return titleID, reviewID, nil
}
