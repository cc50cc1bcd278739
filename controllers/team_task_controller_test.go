package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

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

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func boardTeam() *models.Team {
	team := &models.Team{
		CreatorID: 1,
		Admins:    []models.TeamAdmin{{UserID: 2}},
		Members:   []models.TeamMember{{UserID: 3, Role: models.RoleContributor}},
	}
	team.ID = 42
	return team
}

func TestCheckAssigneeSameTeamScope(t *testing.T) {
	team := boardTeam()
	tc := NewTeamTaskController(nil, testLogger(), AssigneeScopeSameTeam)

	assert.Nil(t, tc.checkAssignee(3, team), "member of the task's team")
	assert.Nil(t, tc.checkAssignee(2, team), "admin of the task's team")

	err := tc.checkAssignee(9, team)
	require.NotNil(t, err)
	assert.Equal(t, models.KindConflict, err.Kind)
	assert.Equal(t, "Member is not in your team", err.Message)
}

func TestCheckAssigneeAnyTeamScope(t *testing.T) {
	team := boardTeam()

	t.Run("assignee with zero teams conflicts", func(t *testing.T) {
		db, mock := newMockGorm(t)
		tc := NewTeamTaskController(db, testLogger(), AssigneeScopeAnyTeam)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "teams"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		err := tc.checkAssignee(9, team)
		require.NotNil(t, err)
		assert.Equal(t, models.KindConflict, err.Kind)
		assert.Equal(t, "Member is not in your team", err.Message)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("teammate from another team passes", func(t *testing.T) {
		db, mock := newMockGorm(t)
		tc := NewTeamTaskController(db, testLogger(), AssigneeScopeAnyTeam)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "teams"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		assert.Nil(t, tc.checkAssignee(9, team))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// assignApp wires UpdateTeamTask behind a stub that plants the locals the
// auth and permission middlewares normally provide.
func assignApp(tc *TeamTaskController, team *models.Team, m models.Membership, userID uint) *fiber.App {
	app := fiber.New()
	app.Put("/teams/:teamId/tasks/:taskId", func(c *fiber.Ctx) error {
		c.Locals("user", &models.User{Model: gorm.Model{ID: userID}})
		c.Locals("team", team)
		c.Locals("membership", m)
		return c.Next()
	}, tc.UpdateTeamTask)
	return app
}

func TestUpdateTeamTaskAssignMode(t *testing.T) {
	team := boardTeam()
	admin := models.Membership{Kind: models.MembershipAdmin}

	taskRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "title", "status", "creator_id", "team_id"}).
			AddRow(5, "Ship the release", "Not Started", 1, 42)
	}

	t.Run("assignee outside every team gets 409", func(t *testing.T) {
		db, mock := newMockGorm(t)
		tc := NewTeamTaskController(db, testLogger(), AssigneeScopeAnyTeam)
		app := assignApp(tc, team, admin, 2)

		mock.ExpectQuery(`SELECT \* FROM "tasks"`).WillReturnRows(taskRows())
		mock.ExpectQuery(`SELECT count\(\*\) FROM "teams"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		body, _ := json.Marshal(AssignTaskRequest{AssigneeID: uintPtr(9)})
		req := httptest.NewRequest(fiber.MethodPut, "/teams/42/tasks/5?mode=assign", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

		var out map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "Member is not in your team", out["error"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("valid assignee is persisted", func(t *testing.T) {
		db, mock := newMockGorm(t)
		tc := NewTeamTaskController(db, testLogger(), AssigneeScopeAnyTeam)
		app := assignApp(tc, team, admin, 2)

		mock.ExpectQuery(`SELECT \* FROM "tasks"`).WillReturnRows(taskRows())
		mock.ExpectQuery(`SELECT count\(\*\) FROM "teams"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "tasks" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		body, _ := json.Marshal(AssignTaskRequest{AssigneeID: uintPtr(3)})
		req := httptest.NewRequest(fiber.MethodPut, "/teams/42/tasks/5?mode=assign", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var out struct {
			Message string      `json:"message"`
			Task    models.Task `json:"task"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
		assert.Equal(t, "Assigned task to member", out.Message)
		require.NotNil(t, out.Task.AssignedTo)
		assert.Equal(t, uint(3), *out.Task.AssignedTo)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func uintPtr(v uint) *uint { return &v }
