package utils

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhive/models"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unauthenticated", models.Unauthenticated("no"), fiber.StatusUnauthorized},
		{"forbidden", models.Forbidden("no"), fiber.StatusForbidden},
		{"not found", models.NotFound("no"), fiber.StatusNotFound},
		{"invalid input", models.InvalidInput("no"), fiber.StatusUnprocessableEntity},
		{"conflict", models.Conflict("no"), fiber.StatusConflict},
		{"internal", models.Internal("no"), fiber.StatusInternalServerError},
		{"unclassified error", errors.New("boom"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				return RespondError(c, tt.err)
			})

			resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestParsePagination(t *testing.T) {
	sortable := map[string]bool{"created_at": true, "deadline": true}

	app := fiber.New()
	var got Pagination
	app.Get("/", func(c *fiber.Ctx) error {
		got = ParsePagination(c, 8, sortable)
		return nil
	})

	tests := []struct {
		name  string
		query string
		want  Pagination
	}{
		{"defaults", "", Pagination{Page: 1, Limit: 8, Sort: "created_at"}},
		{"explicit values", "page=3&limit=20&sort=deadline", Pagination{Page: 3, Limit: 20, Sort: "deadline"}},
		{"unknown sort falls back", "sort=password_hash", Pagination{Page: 1, Limit: 8, Sort: "created_at"}},
		{"negative page clamps", "page=-2&limit=0", Pagination{Page: 1, Limit: 8, Sort: "created_at"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.Test(httptest.NewRequest("GET", "/?"+tt.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaginationOffset(t *testing.T) {
	assert.Equal(t, 0, Pagination{Page: 1, Limit: 8}.Offset())
	assert.Equal(t, 16, Pagination{Page: 3, Limit: 8}.Offset())
}
