package utils

import (
	"errors"
	"strconv"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"taskhive/models"
)

// RespondError maps a typed business failure to its HTTP status. Anything
// that is not a *models.Error is unexpected: it is reported to Sentry and
// surfaced as a generic 500.
func RespondError(c *fiber.Ctx, err error) error {
	var apiErr *models.Error
	if errors.As(err, &apiErr) {
		return c.Status(statusCode(apiErr.Kind)).JSON(fiber.Map{
			"error": apiErr.Message,
		})
	}

	sentry.CaptureException(err)
	logrus.WithField("path", c.Path()).Errorf("unhandled error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Something went wrong",
	})
}

func statusCode(kind models.ErrorKind) int {
	switch kind {
	case models.KindUnauthenticated:
		return fiber.StatusUnauthorized
	case models.KindForbidden:
		return fiber.StatusForbidden
	case models.KindNotFound:
		return fiber.StatusNotFound
	case models.KindInvalidInput:
		return fiber.StatusUnprocessableEntity
	case models.KindConflict:
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// Pagination carries the page/limit/sort triple shared by the list
// endpoints.
type Pagination struct {
	Page  int
	Limit int
	Sort  string
}

// ParsePagination reads page, limit and sort from the query string,
// falling back to the given defaults. The sort field is checked against a
// whitelist since it is interpolated into the ORDER BY clause.
func ParsePagination(c *fiber.Ctx, defaultLimit int, sortable map[string]bool) Pagination {
	p := Pagination{
		Page:  c.QueryInt("page", 1),
		Limit: c.QueryInt("limit", defaultLimit),
		Sort:  c.Query("sort", "created_at"),
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if !sortable[p.Sort] {
		p.Sort = "created_at"
	}
	return p
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// ParseUint safely parses a string to uint, returning 0 on failure.
func ParseUint(s string) uint {
	i, _ := strconv.ParseUint(s, 10, 32)
	return uint(i)
}
