package handler

import (
	"net/http"
	"time"

	"github.com/3gr1v750v/api-yamdb-docker/internal/middleware"
	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/internal/service"
	"github.com/gin-gonic/gin"
)

type CommentResponse struct {
	ID      uint      `json:"id"`
	Review  uint      `json:"review"`
	Author  string    `json:"author"`
	Text    string    `json:"text"`
	PubDate time.Time `json:"pub_date"`
}

func newCommentResponse(cm *models.Comment) CommentResponse {
	return CommentResponse{
		ID:      cm.ID,
		Review:  cm.ReviewID,
		Author:  cm.Author.Username,
		Text:    cm.Text,
		PubDate: cm.PubDate,
	}
}

type CommentRequest struct {
	Text *string `json:"text"`
}

type CommentHandler struct {
	commentService *service.CommentService
	pages          Paginator
}

func NewCommentHandler(commentService *service.CommentService, pages Paginator) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
		pages:          pages,
	}
}

// GET /titles/:title_id/reviews/:review_id/comments
func (h *CommentHandler) ListComments(c *gin.Context) {
	titleID, reviewID, err := reviewPath(c)
	if err != nil {
		respondError(c, err)
		return
	}
	opts, page, err := h.pages.Options(c)
	if err != nil {
		respondError(c, err)
		return
	}

	comments, count, err := h.commentService.ListComments(c.Request.Context(), titleID, reviewID, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	results := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		results = append(results, newCommentResponse(&comments[i]))
	}
	h.pages.Respond(c, page, count, results)
}

// POST /titles/:title_id/reviews/:review_id/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	titleID, reviewID, err := reviewPath(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req CommentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	text := ""
	if req.Text != nil {
		text = *req.Text
	}
	comment, err := h.commentService.CreateComment(c.Request.Context(), middleware.ActorFrom(c), titleID, reviewID, text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newCommentResponse(comment))
}

// GET /titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) GetComment(c *gin.Context) {
	titleID, reviewID, commentID, err := commentPath(c)
	if err != nil {
		respondError(c, err)
		return
	}
	comment, err := h.commentService.GetComment(c.Request.Context(), titleID, reviewID, commentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCommentResponse(comment))
}

// PATCH /titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	titleID, reviewID, commentID, err := commentPath(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.commentService.AuthorizeUpdate(c.Request.Context(), middleware.ActorFrom(c), titleID, reviewID, commentID); err != nil {
		respondError(c, err)
		return
	}
	var req CommentRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	comment, err := h.commentService.UpdateComment(c.Request.Context(), middleware.ActorFrom(c), titleID, reviewID, commentID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCommentResponse(comment))
}

// DELETE /titles/:title_id/reviews/:review_id/comments/:comment_id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	titleID, reviewID, commentID, err := commentPath(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.commentService.DeleteComment(c.Request.Context(), middleware.ActorFrom(c), titleID, reviewID, commentID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func commentPath(c *gin.Context) (uint, uint, uint, error) {
	titleID, reviewID, err := reviewPath(c)
	if err != nil {
		return 0, 0, 0, err
	}
	commentID, err := pathID(c, "comment_id", service.ErrCommentNotFound)
	if err != nil {
		return 0, 0, 0, err
	}
	return titleID, reviewID, commentID, nil
}
