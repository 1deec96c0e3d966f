package handler

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/3gr1v750v/api-yamdb-docker/internal/repository"
	"github.com/3gr1v750v/api-yamdb-docker/internal/service"
	"github.com/3gr1v750v/api-yamdb-docker/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errInvalidPage = errors.New("invalid page")

// respondError maps service errors to status codes. Anything unknown is a
// 500 with a generic message; the cause only goes to the log.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError

	switch {
	case errors.As(err, &verr):
		body := gin.H{"error": verr.Error()}
		if len(verr.Fields) > 0 {
			body["fields"] = verr.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAuthentication):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, errInvalidPage):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid page"})
	default:
		logger.Log.Error("Unhandled request error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// Page is the paginated list envelope.
type Page struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// Paginator turns ?page=N into a list window and builds the envelope.
type Paginator struct {
	PageSize int
}

func (p Paginator) size() int {
	if p.PageSize <= 0 {
		return 10
	}
	return p.PageSize
}

// Options parses the page query parameter. A missing page means the first.
func (p Paginator) Options(c *gin.Context) (repository.ListOptions, int, error) {
	page := 1
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return repository.ListOptions{}, 0, errInvalidPage
		}
		page = n
	}
	return repository.ListOptions{Offset: (page - 1) * p.size(), Limit: p.size()}, page, nil
}

// Respond writes the envelope, or 404 when page is past the last one.
func (p Paginator) Respond(c *gin.Context, page int, count int64, results interface{}) {
	last := int(math.Ceil(float64(count) / float64(p.size())))
	if last < 1 {
		last = 1
	}
	if page > last {
		respondError(c, errInvalidPage)
		return
	}

	resp := Page{Count: count, Results: results}
	if page < last {
		next := pageURL(c, page+1)
		resp.Next = &next
	}
	if page > 1 {
		prev := pageURL(c, page-1)
		resp.Previous = &prev
	}
	c.JSON(http.StatusOK, resp)
}

func pageURL(c *gin.Context, page int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if fwd := c.GetHeader("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}

	query := c.Request.URL.Query()
	if page == 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// pathID reads a numeric path parameter. Malformed ids are reported as not found.
func pathID(c *gin.Context, name string, notFound error) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%s %q: %w", name, c.Param(name), notFound)
	}
	return uint(id), nil
}
