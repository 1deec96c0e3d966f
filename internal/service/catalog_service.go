package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/internal/permission"
	"github.com/3gr1v750v/api-yamdb-docker/internal/repository"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"go.uber.org/zap"
)

// CatalogService manages categories and genres.
type CatalogService struct {
	categoryRepo *repository.CategoryRepository
	genreRepo    *repository.GenreRepository
}

func NewCatalogService(categoryRepo *repository.CategoryRepository, genreRepo *repository.GenreRepository) *CatalogService {
	return &CatalogService{
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
	}
}

func (s *CatalogService) ListCategories(ctx context.Context, search string, opts repository.ListOptions) ([]models.Category, int64, error) {
	return s.categoryRepo.ListCategories(ctx, search, opts)
}

func (s *CatalogService) CreateCategory(ctx context.Context, actor permission.Actor, name, slug string) (*models.Category, error) {
	if err := checkCollection(actor, permission.KindCategory, permission.ActionCreate); err != nil {
		return nil, err
	}
	name, slug = strings.TrimSpace(name), strings.TrimSpace(slug)
	if err := validateNameSlug(name, slug); err != nil {
		return nil, err
	}

	existing, err := s.categoryRepo.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewValidationError("slug", "category with this slug already exists")
	}

	category := &models.Category{Name: name, Slug: slug}
	if err := s.categoryRepo.CreateCategory(ctx, category); err != nil {
		return nil, translateUnique(err, "category with this name or slug already exists")
	}

	logger.Log.Info("Category created",
		zap.String("slug", slug),
		zap.Uint("admin_id", actor.ID),
	)
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, actor permission.Actor, slug string) error {
	if err := checkCollection(actor, permission.KindCategory, permission.ActionDelete); err != nil {
		return err
	}
	category, err := s.categoryRepo.GetCategoryBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}

	if err := s.categoryRepo.DeleteCategory(ctx, category.ID); err != nil {
		logger.Log.Error("Failed to delete category", zap.String("slug", slug), zap.Error(err))
		return err
	}
	logger.Log.Info("Category deleted", zap.String("slug", slug), zap.Uint("admin_id", actor.ID))
	return nil
}

func (s *CatalogService) ListGenres(ctx context.Context, search string, opts repository.ListOptions) ([]models.Genre, int64, error) {
	return s.genreRepo.ListGenres(ctx, search, opts)
}

func (s *CatalogService) CreateGenre(ctx context.Context, actor permission.Actor, name, slug string) (*models.Genre, error) {
	if err := checkCollection(actor, permission.KindGenre, permission.ActionCreate); err != nil {
		return nil, err
	}
	name, slug = strings.TrimSpace(name), strings.TrimSpace(slug)
	if err := validateNameSlug(name, slug); err != nil {
		return nil, err
	}

	existing, err := s.genreRepo.GetGenreBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, NewValidationError("slug", "genre with this slug already exists")
	}

	genre := &models.Genre{Name: name, Slug: slug}
	if err := s.genreRepo.CreateGenre(ctx, genre); err != nil {
		return nil, translateUnique(err, "genre with this name or slug already exists")
	}

	logger.Log.Info("Genre created",
		zap.String("slug", slug),
		zap.Uint("admin_id", actor.ID),
	)
	return genre, nil
}

func (s *CatalogService) DeleteGenre(ctx context.Context, actor permission.Actor, slug string) error {
	if err := checkCollection(actor, permission.KindGenre, permission.ActionDelete); err != nil {
		return err
	}
	genre, err := s.genreRepo.GetGenreBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if genre == nil {
		return ErrGenreNotFound
	}

	if err := s.genreRepo.DeleteGenre(ctx, genre.ID); err != nil {
		logger.Log.Error("Failed to delete genre", zap.String("slug", slug), zap.Error(err))
		return err
	}
	logger.Log.Info("Genre deleted", zap.String("slug", slug), zap.Uint("admin_id", actor.ID))
	return nil
}

func validateNameSlug(name, slug string) error {
	verr := &ValidationError{}
	switch {
	case name == "":
		verr.Add("name", "this field is required")
	case longerThan(name, MaxTitleLength):
		verr.Add("name", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
	}
	mergeValidation(verr, ValidateSlug(slug))
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
