package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ListOptions is an offset/limit window for list queries.
type ListOptions struct {
	Offset int
	Limit  int
}

func (o ListOptions) apply(db *gorm.DB) *gorm.DB {
	if o.Offset > 0 {
		db = db.Offset(o.Offset)
	}
	if o.Limit > 0 {
		db = db.Limit(o.Limit)
	}
	return db
}

// IsUniqueViolation reports whether err comes from a unique index.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// ConstraintName returns the violated postgres constraint, if known.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
