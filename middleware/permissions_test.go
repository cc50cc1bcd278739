package middleware

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"taskhive/config"
	"taskhive/models"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

// newGateApp routes through RequireTeamPermission into a handler that
// echoes the locals the gate is expected to stash.
func newGateApp(db *gorm.DB, userID uint, actions ...config.Action) *fiber.App {
	app := fiber.New()
	app.Get("/teams/:teamId/resource", func(c *fiber.Ctx) error {
		c.Locals("user", &models.User{Model: gorm.Model{ID: userID}})
		return c.Next()
	}, RequireTeamPermission(db, config.DefaultRolePolicy(), actions...), func(c *fiber.Ctx) error {
		team, membership := TeamFromContext(c)
		return c.JSON(fiber.Map{
			"team_id": team.ID,
			"kind":    membership.Kind.String(),
			"role":    string(membership.Role),
		})
	})
	return app
}

func expectTeamLoad(mock sqlmock.Sqlmock, role models.MemberRole) {
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(`SELECT \* FROM "teams"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "creator_id"}).
			AddRow(7, "Backend Crew", 99))
	mock.ExpectQuery(`SELECT \* FROM "team_admins"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "team_id", "user_id"}))
	mock.ExpectQuery(`SELECT \* FROM "team_members"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "team_id", "user_id", "role"}).
			AddRow(1, 7, 3, string(role)))
}

func TestRequireTeamPermission(t *testing.T) {
	t.Run("malformed team id", func(t *testing.T) {
		db, mock := newMockGorm(t)
		app := newGateApp(db, 3, config.ActionCreateTasks)

		resp, err := app.Test(httptest.NewRequest("GET", "/teams/abc/resource", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing team", func(t *testing.T) {
		db, mock := newMockGorm(t)
		app := newGateApp(db, 3, config.ActionCreateTasks)

		mock.ExpectQuery(`SELECT \* FROM "teams"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "creator_id"}))

		resp, err := app.Test(httptest.NewRequest("GET", "/teams/7/resource", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

		var out map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "Team not found", out["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("member without the action is blocked", func(t *testing.T) {
		db, mock := newMockGorm(t)
		app := newGateApp(db, 3, config.ActionCreateTasks)

		expectTeamLoad(mock, models.RoleMember)

		resp, err := app.Test(httptest.NewRequest("GET", "/teams/7/resource", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

		var out map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "Permission denied", out["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("granted action passes and stashes locals", func(t *testing.T) {
		db, mock := newMockGorm(t)
		app := newGateApp(db, 3, config.ActionCreateTasks)

		expectTeamLoad(mock, models.RoleEditor)

		resp, err := app.Test(httptest.NewRequest("GET", "/teams/7/resource", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var out struct {
			TeamID uint   `json:"team_id"`
			Kind   string `json:"kind"`
			Role   string `json:"role"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, uint(7), out.TeamID)
		assert.Equal(t, "member", out.Kind)
		assert.Equal(t, "editor", out.Role)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("creator bypasses the policy table", func(t *testing.T) {
		db, mock := newMockGorm(t)
		app := newGateApp(db, 99, config.ActionManageEverything)

		expectTeamLoad(mock, models.RoleMember)

		resp, err := app.Test(httptest.NewRequest("GET", "/teams/7/resource", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var out struct {
			Kind string `json:"kind"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "creator", out.Kind)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
