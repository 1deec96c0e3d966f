// Package importer bulk-loads the reference CSV dump (categories, genres,
// titles, users, reviews, comments) into an empty database, keeping ids.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/3gr1v750v/api-yamdb-docker/internal/metrics"
	"github.com/3gr1v750v/api-yamdb-docker/internal/models"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultBatchSize = 500

// FileError reports the file, and the line when known, that stopped the load.
type FileError struct {
	File string
	Line int
	Err  error
}

func (e *FileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// FileResult is the row count written for one file.
type FileResult struct {
	File string
	Rows int
}

type fileSpec struct {
	name  string
	table string // id sequence to realign; empty for tables without one
	parse func(rows []record) (interface{}, int, error)
}

// files is the load order; every file only references ones before it.
var files = []fileSpec{
	{"category.csv", "categories", parseAll(parseCategory)},
	{"genre.csv", "genres", parseAll(parseGenre)},
	{"titles.csv", "titles", parseAll(parseTitle)},
	{"genre_title.csv", "", parseAll(parseGenreTitle)},
	{"users.csv", "users", parseAll(parseUser)},
	{"review.csv", "reviews", parseAll(parseReview)},
	{"comments.csv", "comments", parseAll(parseComment)},
}

// FileNames lists the expected files in load order.
func FileNames() []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.name
	}
	return names
}

type Loader struct {
	db        *gorm.DB
	source    Source
	batchSize int
}

func NewLoader(db *gorm.DB, source Source) *Loader {
	return &Loader{db: db, source: source, batchSize: defaultBatchSize}
}

// Load writes every file in order, each in its own transaction, and stops at
// the first file that fails. Files loaded before the failure stay committed.
func (l *Loader) Load(ctx context.Context) ([]FileResult, error) {
	var (
		results []FileResult
		tables  []string
	)

	for _, file := range files {
		start := time.Now()
		n, err := l.loadFile(ctx, file)
		if err != nil {
			logger.Log.Error("CSV file not loaded",
				zap.String("file", file.name),
				zap.String("source", l.source.String()),
				zap.Error(err),
			)
			l.realign(ctx, tables)
			return results, err
		}

		metrics.ImportedRows.WithLabelValues(file.name).Add(float64(n))
		logger.Log.Info("CSV file loaded",
			zap.String("file", file.name),
			zap.Int("rows", n),
			zap.Duration("took", time.Since(start)),
		)
		results = append(results, FileResult{File: file.name, Rows: n})
		if file.table != "" {
			tables = append(tables, file.table)
		}
	}

	l.realign(ctx, tables)
	return results, nil
}

func (l *Loader) loadFile(ctx context.Context, file fileSpec) (int, error) {
	rc, err := l.source.Open(ctx, file.name)
	if err != nil {
		return 0, &FileError{File: file.name, Err: err}
	}
	defer rc.Close()

	rows, err := readCSV(rc)
	if err != nil {
		return 0, &FileError{File: file.name, Err: err}
	}

	batch, n, err := file.parse(rows)
	if err != nil {
		var fe *FileError
		if errors.As(err, &fe) {
			fe.File = file.name
			return 0, fe
		}
		return 0, &FileError{File: file.name, Err: err}
	}
	if n == 0 {
		return 0, nil
	}

	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).CreateInBatches(batch, l.batchSize).Error
	})
	if err != nil {
		return 0, &FileError{File: file.name, Err: err}
	}
	return n, nil
}

// realign moves postgres id sequences past the imported ids so later inserts
// do not collide with them.
func (l *Loader) realign(ctx context.Context, tables []string) {
	if l.db.Dialector.Name() != "postgres" {
		return
	}
	for _, table := range tables {
		query := fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE(MAX(id), 1), MAX(id) IS NOT NULL) FROM %[1]s",
			table,
		)
		if err := l.db.WithContext(ctx).Exec(query).Error; err != nil {
			logger.Log.Warn("Failed to realign id sequence", zap.String("table", table), zap.Error(err))
		}
	}
}

// record is one CSV row keyed by header name.
type record struct {
	line   int
	values map[string]string
}

func readCSV(r io.Reader) ([]record, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}

	var rows []record
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		values := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(fields) {
				values[name] = fields[i]
			}
		}
		rows = append(rows, record{line: line, values: values})
	}
}

func parseAll[T any](parse func(record) (T, error)) func([]record) (interface{}, int, error) {
	return func(rows []record) (interface{}, int, error) {
		out := make([]T, 0, len(rows))
		for _, row := range rows {
			item, err := parse(row)
			if err != nil {
				return nil, 0, &FileError{Line: row.line, Err: err}
			}
			out = append(out, item)
		}
		return &out, len(out), nil
	}
}

// str returns the first non-empty column among keys.
func (r record) str(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.values[k]); v != "" {
			return v
		}
	}
	return ""
}

func (r record) required(keys ...string) (string, error) {
	v := r.str(keys...)
	if v == "" {
		return "", fmt.Errorf("column %s is empty", keys[0])
	}
	return v, nil
}

func (r record) id(keys ...string) (uint, error) {
	raw, err := r.required(keys...)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("column %s: invalid id %q", keys[0], raw)
	}
	return uint(n), nil
}

func (r record) integer(key string) (int, error) {
	raw, err := r.required(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("column %s: invalid number %q", key, raw)
	}
	return n, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// pubDate is zero when the column is empty, letting the model default apply.
func (r record) pubDate() (time.Time, error) {
	raw := r.str("pub_date")
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("column pub_date: invalid time %q", raw)
}

func parseCategory(r record) (models.Category, error) {
	id, err := r.id("id")
	if err != nil {
		return models.Category{}, err
	}
	return models.Category{ID: id, Name: r.str("name"), Slug: r.str("slug")}, nil
}

func parseGenre(r record) (models.Genre, error) {
	id, err := r.id("id")
	if err != nil {
		return models.Genre{}, err
	}
	return models.Genre{ID: id, Name: r.str("name"), Slug: r.str("slug")}, nil
}

func parseTitle(r record) (models.Title, error) {
	id, err := r.id("id")
	if err != nil {
		return models.Title{}, err
	}
	year, err := r.integer("year")
	if err != nil {
		return models.Title{}, err
	}
	title := models.Title{ID: id, Name: r.str("name"), Year: year}
	if desc := r.str("description"); desc != "" {
		title.Description = &desc
	}
	if r.str("category", "category_id") != "" {
		categoryID, err := r.id("category", "category_id")
		if err != nil {
			return models.Title{}, err
		}
		title.CategoryID = &categoryID
	}
	return title, nil
}

func parseGenreTitle(r record) (models.GenreTitle, error) {
	titleID, err := r.id("title_id", "title")
	if err != nil {
		return models.GenreTitle{}, err
	}
	genreID, err := r.id("genre_id", "genre")
	if err != nil {
		return models.GenreTitle{}, err
	}
	return models.GenreTitle{TitleID: titleID, GenreID: genreID}, nil
}

func parseUser(r record) (models.User, error) {
	id, err := r.id("id")
	if err != nil {
		return models.User{}, err
	}
	role := models.Role(r.str("role"))
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return models.User{}, fmt.Errorf("column role: unknown role %q", role)
	}
	return models.User{
		ID:        id,
		Username:  r.str("username"),
		Email:     r.str("email"),
		Role:      role,
		Bio:       r.str("bio"),
		FirstName: r.str("first_name"),
		LastName:  r.str("last_name"),
	}, nil
}

func parseReview(r record) (models.Review, error) {
	id, err := r.id("id")
	if err != nil {
		return models.Review{}, err
	}
	titleID, err := r.id("title_id", "title")
	if err != nil {
		return models.Review{}, err
	}
	authorID, err := r.id("author", "author_id")
	if err != nil {
		return models.Review{}, err
	}
	score, err := r.integer("score")
	if err != nil {
		return models.Review{}, err
	}
	if score < models.MinScore || score > models.MaxScore {
		return models.Review{}, fmt.Errorf("column score: %d is outside %d..%d", score, models.MinScore, models.MaxScore)
	}
	pubDate, err := r.pubDate()
	if err != nil {
		return models.Review{}, err
	}
	return models.Review{
		ID:       id,
		TitleID:  titleID,
		AuthorID: authorID,
		Text:     r.str("text"),
		Score:    score,
		PubDate:  pubDate,
	}, nil
}

func parseComment(r record) (models.Comment, error) {
	id, err := r.id("id")
	if err != nil {
		return models.Comment{}, err
	}
	reviewID, err := r.id("review_id", "review")
	if err != nil {
		return models.Comment{}, err
	}
	authorID, err := r.id("author", "author_id")
	if err != nil {
		return models.Comment{}, err
	}
	pubDate, err := r.pubDate()
	if err != nil {
		return models.Comment{}, err
	}
	return models.Comment{
		ID:       id,
		ReviewID: reviewID,
		AuthorID: authorID,
		Text:     r.str("text"),
		PubDate:  pubDate,
	}, nil
}
