package handler

import (
	"net/http"
	"strconv"

	"github.com/3gr1v750v/api-yamdb-docker/internal/middleware"
	"github.com/3gr1v750v/api-yamdb-docker/internal/permission"
	"github.com/3gr1v750v/api-yamdb-docker/internal/repository"
	"github.com/3gr1v750v/api-yamdb-docker/internal/service"
	"github.com/gin-gonic/gin"
)

type TitleHandler struct {
	titleService *service.TitleService
	pages        Paginator
}

func NewTitleHandler(titleService *service.TitleService, pages Paginator) *TitleHandler {
	return &TitleHandler{
		titleService: titleService,
		pages:        pages,
	}
}

// TitleRequest takes category and genres by slug. On PATCH absent fields
// are left unchanged.
type TitleRequest struct {
	Name        *string  `json:"name" binding:"omitempty,max=256"`
	Year        *int     `json:"year"`
	Description *string  `json:"description"`
	Category    *string  `json:"category" binding:"omitempty,slug"`
	Genre       []string `json:"genre" binding:"omitempty,dive,slug"`
}

func (r TitleRequest) input() service.TitleInput {
	return service.TitleInput{
		Name:        r.Name,
		Year:        r.Year,
		Description: r.Description,
		Category:    r.Category,
		Genre:       r.Genre,
	}
}

// ListTitles supports category, genre, name and year filters.
// GET /titles
func (h *TitleHandler) ListTitles(c *gin.Context) {
	opts, page, err := h.pages.Options(c)
	if err != nil {
		respondError(c, err)
		return
	}

	filter := repository.TitleFilter{
		Category: c.Query("category"),
		Genre:    c.Query("genre"),
		Name:     c.Query("name"),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, service.NewValidationError("year", "enter a whole number"))
			return
		}
		filter.Year = &year
	}

	titles, count, err := h.titleService.ListTitles(c.Request.Context(), filter, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	h.pages.Respond(c, page, count, titles)
}

// POST /titles
func (h *TitleHandler) CreateTitle(c *gin.Context) {
	if err := service.Authorize(middleware.ActorFrom(c), permission.KindTitle, permission.ActionCreate); err != nil {
		respondError(c, err)
		return
	}
	var req TitleRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	title, err := h.titleService.CreateTitle(c.Request.Context(), middleware.ActorFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, title)
}

// GET /titles/:title_id
func (h *TitleHandler) GetTitle(c *gin.Context) {
	id, err := pathID(c, "title_id", service.ErrTitleNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	title, err := h.titleService.GetTitle(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, title)
}

// PATCH /titles/:title_id
func (h *TitleHandler) UpdateTitle(c *gin.Context) {
	id, err := pathID(c, "title_id", service.ErrTitleNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := service.Authorize(middleware.ActorFrom(c), permission.KindTitle, permission.ActionUpdate); err != nil {
		respondError(c, err)
		return
	}
	var req TitleRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	title, err := h.titleService.UpdateTitle(c.Request.Context(), middleware.ActorFrom(c), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, title)
}

// DELETE /titles/:title_id
func (h *TitleHandler) DeleteTitle(c *gin.Context) {
	id, err := pathID(c, "title_id", service.ErrTitleNotFound)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.titleService.DeleteTitle(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
