package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/internal/permission"
	"github.com/3gr1v750v/api-yamdb-docker/internal/repository"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"go.uber.org/zap"
)

// TitleInput is used for both create and partial update. On update, nil
// fields are left unchanged; Genre replaces the whole set when non-nil.
type TitleInput struct {
	Name        *string
	Year        *int
	Description *string
	Category    *string
	Genre       []string
}

type TitleService struct {
	titleRepo    *repository.TitleRepository
	categoryRepo *repository.CategoryRepository
	genreRepo    *repository.GenreRepository
	now          func() time.Time
}

// NewTitleService takes now so the year check uses the configured time zone.
func NewTitleService(titleRepo *repository.TitleRepository, categoryRepo *repository.CategoryRepository,
	genreRepo *repository.GenreRepository, now func() time.Time) *TitleService {
	if now == nil {
		now = time.Now
	}
	return &TitleService{
		titleRepo:    titleRepo,
		categoryRepo: categoryRepo,
		genreRepo:    genreRepo,
		now:          now,
	}
}

func (s *TitleService) ListTitles(ctx context.Context, filter repository.TitleFilter, opts repository.ListOptions) ([]models.Title, int64, error) {
	return s.titleRepo.ListTitles(ctx, filter, opts)
}

func (s *TitleService) GetTitle(ctx context.Context, id uint) (*models.Title, error) {
	title, err := s.titleRepo.GetTitleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if title == nil {
		return nil, ErrTitleNotFound
	}
	return title, nil
}

func (s *TitleService) CreateTitle(ctx context.Context, actor permission.Actor, in TitleInput) (*models.Title, error) {
	if err := checkCollection(actor, permission.KindTitle, permission.ActionCreate); err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if in.Name == nil {
		verr.Add("name", "this field is required")
	}
	if in.Year == nil {
		verr.Add("year", "this field is required")
	}
	if in.Category == nil {
		verr.Add("category", "this field is required")
	}
	if len(in.Genre) == 0 {
		verr.Add("genre", "this field is required")
	}
	mergeValidation(verr, s.validateFields(in))
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	category, genres, err := s.resolveRefs(ctx, in)
	if err != nil {
		return nil, err
	}

	title := &models.Title{
		Name:        strings.TrimSpace(*in.Name),
		Year:        *in.Year,
		Description: in.Description,
	}
	if category != nil {
		title.CategoryID = &category.ID
	}

	if err := s.titleRepo.CreateTitle(ctx, title, genres); err != nil {
		logger.Log.Error("Failed to create title",
			zap.String("name", title.Name),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Title created",
		zap.Uint("title_id", title.ID),
		zap.String("name", title.Name),
		zap.Int("genres", len(genres)),
		zap.Uint("admin_id", actor.ID),
	)
	return s.GetTitle(ctx, title.ID)
}

func (s *TitleService) UpdateTitle(ctx context.Context, actor permission.Actor, id uint, in TitleInput) (*models.Title, error) {
	if err := checkCollection(actor, permission.KindTitle, permission.ActionUpdate); err != nil {
		return nil, err
	}
	exists, err := s.titleRepo.TitleExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrTitleNotFound
	}

	if in.Genre != nil && len(in.Genre) == 0 {
		return nil, NewValidationError("genre", "this list may not be empty")
	}
	if err := s.validateFields(in); err != nil {
		return nil, err
	}

	category, genres, err := s.resolveRefs(ctx, in)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Name != nil {
		fields["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Year != nil {
		fields["year"] = *in.Year
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if category != nil {
		fields["category_id"] = category.ID
	}

	if err := s.titleRepo.UpdateTitle(ctx, id, fields, genres); err != nil {
		logger.Log.Error("Failed to update title",
			zap.Uint("title_id", id),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Log.Info("Title updated",
		zap.Uint("title_id", id),
		zap.Int("fields", len(fields)),
		zap.Bool("genres_replaced", genres != nil),
		zap.Uint("admin_id", actor.ID),
	)
	return s.GetTitle(ctx, id)
}

func (s *TitleService) DeleteTitle(ctx context.Context, actor permission.Actor, id uint) error {
	if err := checkCollection(actor, permission.KindTitle, permission.ActionDelete); err != nil {
		return err
	}
	exists, err := s.titleRepo.TitleExists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrTitleNotFound
	}

	if err := s.titleRepo.DeleteTitle(ctx, id); err != nil {
		logger.Log.Error("Failed to delete title", zap.Uint("title_id", id), zap.Error(err))
		return err
	}
	logger.Log.Info("Title deleted", zap.Uint("title_id", id), zap.Uint("admin_id", actor.ID))
	return nil
}

// validateFields checks the values that are present.
func (s *TitleService) validateFields(in TitleInput) error {
	verr := &ValidationError{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		switch {
		case name == "":
			verr.Add("name", "this field may not be blank")
		case longerThan(name, MaxTitleLength):
			verr.Add("name", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
		}
	}
	if in.Year != nil {
		mergeValidation(verr, ValidateTitleYear(*in.Year, s.now()))
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// resolveRefs looks up the category and genre slugs. Every slug must exist.
// genres is nil when in.Genre is nil.
func (s *TitleService) resolveRefs(ctx context.Context, in TitleInput) (*models.Category, []models.Genre, error) {
	verr := &ValidationError{}

	var category *models.Category
	if in.Category != nil {
		var err error
		category, err = s.categoryRepo.GetCategoryBySlug(ctx, *in.Category)
		if err != nil {
			return nil, nil, err
		}
		if category == nil {
			verr.Add("category", fmt.Sprintf("category %q does not exist", *in.Category))
		}
	}

	var genres []models.Genre
	if in.Genre != nil {
		found, err := s.genreRepo.GetGenresBySlugs(ctx, in.Genre)
		if err != nil {
			return nil, nil, err
		}
		known := make(map[string]bool, len(found))
		for _, g := range found {
			known[g.Slug] = true
		}
		var missing []string
		for _, slug := range in.Genre {
			if !known[slug] {
				missing = append(missing, slug)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			verr.Add("genre", fmt.Sprintf("genres do not exist: %s", strings.Join(missing, ", ")))
		}
		genres = found
	}

	if len(verr.Fields) > 0 {
		return nil, nil, verr
	}
	return category, genres, nil
}
