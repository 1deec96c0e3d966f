package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *CategoryRepository) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepository) ListCategories(ctx context.Context, search string, opts ListOptions) ([]models.Category, int64, error) {
	var categories []models.Category
	total, err := listByName(r.db.WithContext(ctx).Model(&models.Category{}), search, opts, &categories)
	return categories, total, err
}

// DeleteCategory detaches the category from its titles before removing it.
func (r *CategoryRepository) DeleteCategory(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Title{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, id).Error
	})
}

type GenreRepository struct {
	db *gorm.DB
}

func NewGenreRepository(db *gorm.DB) *GenreRepository {
	return &GenreRepository{db: db}
}

func (r *GenreRepository) CreateGenre(ctx context.Context, genre *models.Genre) error {
	return r.db.WithContext(ctx).Create(genre).Error
}

func (r *GenreRepository) GetGenreBySlug(ctx context.Context, slug string) (*models.Genre, error) {
	var genre models.Genre
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&genre).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &genre, nil
}

// GetGenresBySlugs returns the genres that exist among slugs, in no particular order.
func (r *GenreRepository) GetGenresBySlugs(ctx context.Context, slugs []string) ([]models.Genre, error) {
	var genres []models.Genre
	if len(slugs) == 0 {
		return genres, nil
	}
	err := r.db.WithContext(ctx).Where("slug IN ?", slugs).Find(&genres).Error
	return genres, err
}

func (r *GenreRepository) ListGenres(ctx context.Context, search string, opts ListOptions) ([]models.Genre, int64, error) {
	var genres []models.Genre
	total, err := listByName(r.db.WithContext(ctx).Model(&models.Genre{}), search, opts, &genres)
	return genres, total, err
}

// DeleteGenre removes the genre and its title links.
func (r *GenreRepository) DeleteGenre(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("genre_id = ?", id).Delete(&models.GenreTitle{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Genre{}, id).Error
	})
}

// listByName pages through name/slug rows with an optional case-insensitive
// substring search on name.
func listByName(query *gorm.DB, search string, opts ListOptions, dest interface{}) (int64, error) {
	if search = strings.TrimSpace(search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	if err := opts.apply(query.Order("name")).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}
