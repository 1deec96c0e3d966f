package handler

import (
	"net/http"
	"time"

	"github.com/3gr1v750v/api-yamdb-docker/internal/config"
	"github.com/3gr1v750v/api-yamdb-docker/internal/middleware"
	"github.com/3gr1v750v/api-yamdb-docker/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles what the routes call into.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Catalog  *service.CatalogService
	Titles   *service.TitleService
	Reviews  *service.ReviewService
	Comments *service.CommentService
}

// NewRouter builds the gin engine with every /api/v1 route. limiter guards
// /auth and may be nil when Redis is not configured.
func NewRouter(cfg *config.Config, svc Services, limiter *middleware.RateLimiter) *gin.Engine {
	registerValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.HSTSMiddleware(cfg.IsProduction()))
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	router.Use(corsMiddleware(cfg.CORSOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pages := Paginator{PageSize: cfg.PageSize}
	authHandler := NewAuthHandler(svc.Auth)
	userHandler := NewUserHandler(svc.Users, pages)
	catalogHandler := NewCatalogHandler(svc.Catalog, pages)
	titleHandler := NewTitleHandler(svc.Titles, pages)
	reviewHandler := NewReviewHandler(svc.Reviews, pages)
	commentHandler := NewCommentHandler(svc.Comments, pages)

	api := router.Group("/api/v1")

	auth := api.Group("/auth")
	if limiter != nil {
		auth.Use(limiter.Middleware())
	}
	auth.POST("/signup", authHandler.Signup)
	auth.POST("/token", authHandler.Token)
	auth.POST("/token/refresh", authHandler.Refresh)

	// Everything below may be called anonymously; writes need a user.
	public := api.Group("")
	public.Use(middleware.Authenticate(svc.Auth))
	authed := public.Group("")
	authed.Use(middleware.RequireAuth())

	public.GET("/categories", catalogHandler.ListCategories)
	authed.POST("/categories", catalogHandler.CreateCategory)
	authed.DELETE("/categories/:slug", catalogHandler.DeleteCategory)

	public.GET("/genres", catalogHandler.ListGenres)
	authed.POST("/genres", catalogHandler.CreateGenre)
	authed.DELETE("/genres/:slug", catalogHandler.DeleteGenre)

	public.GET("/titles", titleHandler.ListTitles)
	authed.POST("/titles", titleHandler.CreateTitle)
	public.GET("/titles/:title_id", titleHandler.GetTitle)
	authed.PATCH("/titles/:title_id", titleHandler.UpdateTitle)
	authed.DELETE("/titles/:title_id", titleHandler.DeleteTitle)

	reviews := "/titles/:title_id/reviews"
	public.GET(reviews, reviewHandler.ListReviews)
	authed.POST(reviews, reviewHandler.CreateReview)
	public.GET(reviews+"/:review_id", reviewHandler.GetReview)
	authed.PATCH(reviews+"/:review_id", reviewHandler.UpdateReview)
	authed.DELETE(reviews+"/:review_id", reviewHandler.DeleteReview)

	comments := reviews + "/:review_id/comments"
	public.GET(comments, commentHandler.ListComments)
	authed.POST(comments, commentHandler.CreateComment)
	public.GET(comments+"/:comment_id", commentHandler.GetComment)
	authed.PATCH(comments+"/:comment_id", commentHandler.UpdateComment)
	authed.DELETE(comments+"/:comment_id", commentHandler.DeleteComment)

	authed.GET("/users/me", userHandler.Me)
	authed.PATCH("/users/me", userHandler.UpdateMe)
	authed.GET("/users", userHandler.ListUsers)
	authed.POST("/users", userHandler.CreateUser)
	authed.GET("/users/:username", userHandler.GetUser)
	authed.PATCH("/users/:username", userHandler.UpdateUser)
	authed.DELETE("/users/:username", userHandler.DeleteUser)

	return router
}

// corsMiddleware allows the configured origins, or any origin when none are set.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
