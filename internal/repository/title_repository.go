package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TitleFilter narrows title listings. Zero values are ignored.
type TitleFilter struct {
	Category string
	Genre    string
	Name     string
	Year     *int
}

func (f TitleFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Category != "" {
		db = db.Where("titles.category_id IN (SELECT id FROM categories WHERE slug = ?)", f.Category)
	}
	if f.Genre != "" {
		db = db.Where("titles.id IN (SELECT genre_titles.title_id FROM genre_titles "+
			"JOIN genres ON genres.id = genre_titles.genre_id WHERE genres.slug = ?)", f.Genre)
	}
	if name := strings.TrimSpace(f.Name); name != "" {
		db = db.Where("LOWER(titles.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if f.Year != nil {
		db = db.Where("titles.year = ?", *f.Year)
	}
	return db
}

type TitleRepository struct {
	db *gorm.DB
}

func NewTitleRepository(db *gorm.DB) *TitleRepository {
	return &TitleRepository{db: db}
}

// withRating selects titles with their average review score and preloads
// category and genres.
func (r *TitleRepository) withRating(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.Title{}).
		Select("titles.*, CAST(AVG(reviews.score) AS FLOAT) AS rating").
		Joins("LEFT JOIN reviews ON reviews.title_id = titles.id").
		Group("titles.id").
		Preload("Category").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.name") })
}

// GetTitleByID returns the title with rating, or (nil, nil).
func (r *TitleRepository) GetTitleByID(ctx context.Context, id uint) (*models.Title, error) {
	var title models.Title
	err := r.withRating(ctx).Where("titles.id = ?", id).Take(&title).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &title, nil
}

func (r *TitleRepository) TitleExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Title{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

func (r *TitleRepository) ListTitles(ctx context.Context, filter TitleFilter, opts ListOptions) ([]models.Title, int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Title{}).Scopes(filter.scope).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var titles []models.Title
	err = opts.apply(r.withRating(ctx).Scopes(filter.scope).Order("titles.id")).Find(&titles).Error
	if err != nil {
		return nil, 0, err
	}
	return titles, total, nil
}

// CreateTitle inserts the title and its genre links in one transaction.
func (r *TitleRepository) CreateTitle(ctx context.Context, title *models.Title, genres []models.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(title).Error; err != nil {
			return err
		}
		return replaceGenres(tx, title.ID, genres)
	})
}

// UpdateTitle writes the given columns. A nil genres leaves the links alone.
func (r *TitleRepository) UpdateTitle(ctx context.Context, id uint, fields map[string]interface{}, genres []models.Genre) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&models.Title{ID: id}).Omit(clause.Associations).Updates(fields).Error; err != nil {
				return err
			}
		}
		if genres == nil {
			return nil
		}
		return replaceGenres(tx, id, genres)
	})
}

// DeleteTitle removes the title with its reviews, their comments and genre links.
func (r *TitleRepository) DeleteTitle(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id IN (SELECT id FROM reviews WHERE title_id = ?)", id).
			Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("title_id = ?", id).Delete(&models.GenreTitle{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Title{}, id).Error
	})
}

func replaceGenres(tx *gorm.DB, titleID uint, genres []models.Genre) error {
	if err := tx.Where("title_id = ?", titleID).Delete(&models.GenreTitle{}).Error; err != nil {
		return err
	}

	seen := make(map[uint]bool, len(genres))
	links := make([]models.GenreTitle, 0, len(genres))
	for _, g := range genres {
		if seen[g.ID] {
			continue
		}
		seen[g.ID] = true
		links = append(links, models.GenreTitle{TitleID: titleID, GenreID: g.ID})
	}
	if len(links) == 0 {
		return nil
	}
	return tx.Omit(clause.Associations).Create(&links).Error
}
