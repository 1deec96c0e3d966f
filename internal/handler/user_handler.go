package handler

import (
	"net/http"

	"github.com/3gr1v750v/api-yamdb-docker/internal/middleware"
	"github.com/3gr1v750v/api-yamdb-docker/internal/permission"
	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/internal/service"
	"github.com/gin-gonic/gin"
)

// UserHandler serves admin user management and the caller's own profile.
type UserHandler struct {
	userService *service.UserService
	pages       Paginator
}

func NewUserHandler(userService *service.UserService, pages Paginator) *UserHandler {
	return &UserHandler{
		userService: userService,
		pages:       pages,
	}
}

type CreateUserRequest struct {
	Username  string      `json:"username" binding:"omitempty,max=150,username"`
	Email     string      `json:"email" binding:"omitempty,max=254"`
	FirstName string      `json:"first_name" binding:"max=150"`
	LastName  string      `json:"last_name" binding:"max=150"`
	Bio       string      `json:"bio"`
	Role      models.Role `json:"role"`
}

type UpdateUserRequest struct {
	Username  *string      `json:"username" binding:"omitempty,max=150,username"`
	Email     *string      `json:"email" binding:"omitempty,max=254"`
	FirstName *string      `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string      `json:"last_name" binding:"omitempty,max=150"`
	Bio       *string      `json:"bio"`
	Role      *models.Role `json:"role"`
}

func (r UpdateUserRequest) patch() service.UserPatch {
	return service.UserPatch{
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Bio:       r.Bio,
		Role:      r.Role,
	}
}

// ListUsers lists users, optionally filtered by exact username.
// GET /users?search=
func (h *UserHandler) ListUsers(c *gin.Context) {
	opts, page, err := h.pages.Options(c)
	if err != nil {
		respondError(c, err)
		return
	}

	users, count, err := h.userService.ListUsers(c.Request.Context(), middleware.ActorFrom(c), c.Query("search"), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	h.pages.Respond(c, page, count, users)
}

// CreateUser provisions an account with an explicit role.
// POST /users
func (h *UserHandler) CreateUser(c *gin.Context) {
	if err := service.Authorize(middleware.ActorFrom(c), permission.KindUser, permission.ActionCreate); err != nil {
		respondError(c, err)
		return
	}
	var req CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), middleware.ActorFrom(c), service.UserInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GET /users/:username
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), middleware.ActorFrom(c), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// PATCH /users/:username
func (h *UserHandler) UpdateUser(c *gin.Context) {
	if err := service.Authorize(middleware.ActorFrom(c), permission.KindUser, permission.ActionUpdate); err != nil {
		respondError(c, err)
		return
	}
	var req UpdateUserRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), middleware.ActorFrom(c), c.Param("username"), req.patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DELETE /users/:username
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.userService.DeleteUser(c.Request.Context(), middleware.ActorFrom(c), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the caller's profile.
// GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetProfile(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe edits the caller's profile. A role in the body is ignored.
// PATCH /users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req UpdateUserRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), middleware.ActorFrom(c), req.patch())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
