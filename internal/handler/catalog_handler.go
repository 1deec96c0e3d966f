package handler

import (
	"net/http"

	"github.com/3gr1v750v/api-yamdb-docker/internal/middleware"
	"github.com/3gr1v750v/api-yamdb-docker/internal/permission"
	"github.com/3gr1v750v/api-yamdb-docker/internal/service"
	"github.com/gin-gonic/gin"
)

// CatalogHandler serves categories and genres. Both are name+slug pairs
// with identical routes.
type CatalogHandler struct {
	catalogService *service.CatalogService
	pages          Paginator
}

func NewCatalogHandler(catalogService *service.CatalogService, pages Paginator) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		pages:          pages,
	}
}

type NameSlugRequest struct {
	Name string `json:"name" binding:"max=256"`
	Slug string `json:"slug" binding:"omitempty,max=50,slug"`
}

// GET /categories?search=
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	opts, page, err := h.pages.Options(c)
	if err != nil {
		respondError(c, err)
		return
	}
	categories, count, err := h.catalogService.ListCategories(c.Request.Context(), c.Query("search"), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	h.pages.Respond(c, page, count, categories)
}

// POST /categories
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	if err := service.Authorize(middleware.ActorFrom(c), permission.KindCategory, permission.ActionCreate); err != nil {
		respondError(c, err)
		return
	}
	var req NameSlugRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	category, err := h.catalogService.CreateCategory(c.Request.Context(), middleware.ActorFrom(c), req.Name, req.Slug)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

// DELETE /categories/:slug
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	if err := h.catalogService.DeleteCategory(c.Request.Context(), middleware.ActorFrom(c), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /genres?search=
func (h *CatalogHandler) ListGenres(c *gin.Context) {
	opts, page, err := h.pages.Options(c)
	if err != nil {
		respondError(c, err)
		return
	}
	genres, count, err := h.catalogService.ListGenres(c.Request.Context(), c.Query("search"), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	h.pages.Respond(c, page, count, genres)
}

// POST /genres
func (h *CatalogHandler) CreateGenre(c *gin.Context) {
	if err := service.Authorize(middleware.ActorFrom(c), permission.KindGenre, permission.ActionCreate); err != nil {
		respondError(c, err)
		return
	}
	var req NameSlugRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	genre, err := h.catalogService.CreateGenre(c.Request.Context(), middleware.ActorFrom(c), req.Name, req.Slug)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, genre)
}

// DELETE /genres/:slug
func (h *CatalogHandler) DeleteGenre(c *gin.Context) {
	if err := h.catalogService.DeleteGenre(c.Request.Context(), middleware.ActorFrom(c), c.Param("slug")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
