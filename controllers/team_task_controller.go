package controller

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"taskhive/middleware"
	"taskhive/models"
	"taskhive/utils"
)

type AssignTaskRequest struct {
	AssigneeID *uint `json:"assignee_id"`
}

// AssigneeScope controls how widely an assignment target's membership is
// checked.
type AssigneeScope int

const (
	// AssigneeScopeAnyTeam accepts a target holding a position in any team.
	AssigneeScopeAnyTeam AssigneeScope = iota
	// AssigneeScopeSameTeam restricts targets to the task's own team.
	AssigneeScopeSameTeam
)

// TeamTaskController serves tasks that belong to a team, governed by the
// role policy resolved in the permission middleware.
type TeamTaskController struct {
	db            *gorm.DB
	log           *logrus.Logger
	assigneeScope AssigneeScope
}

func NewTeamTaskController(db *gorm.DB, log *logrus.Logger, scope AssigneeScope) *TeamTaskController {
	return &TeamTaskController{db: db, log: log, assigneeScope: scope}
}

// GetTeamTasks lists the team tasks the requester created. Visibility is
// deliberately narrow: members do not see each other's tasks through this
// endpoint.
func (tc *TeamTaskController) GetTeamTasks(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamID, err := strconv.ParseUint(c.Params("teamId"), 10, 32)
	if err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid team ID"))
	}

	p := utils.ParsePagination(c, 8, taskSortable)

	var tasks []models.Task
	err = tc.db.
		Where("creator_id = ? AND team_id = ?", user.ID, uint(teamID)).
		Offset(p.Offset()).Limit(p.Limit).Order(p.Sort).
		Find(&tasks).Error
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Fetched all team tasks successfully",
		"tasks":   tasks,
	})
}

func (tc *TeamTaskController) GetTeamTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamID, err := strconv.ParseUint(c.Params("teamId"), 10, 32)
	if err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid team ID"))
	}
	taskID, err := strconv.ParseUint(c.Params("taskId"), 10, 32)
	if err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid task ID format"))
	}

	var task models.Task
	err = tc.db.
		Where("id = ? AND creator_id = ? AND team_id = ?", uint(taskID), user.ID, uint(teamID)).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, models.NotFound("Task does not exist or has been deleted"))
		}
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Fetched team task successfully",
		"task":    task,
	})
}

func (tc *TeamTaskController) CreateTeamTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	team, membership := middleware.TeamFromContext(c)

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, models.InvalidInput(err.Error()))
	}

	// The gate already requires create_tasks, which the plain member role
	// never carries; this re-check guards against policy edits widening it.
	if membership.Kind == models.MembershipMember && membership.Role == models.RoleMember {
		return utils.RespondError(c, models.Forbidden("You do not have permission to create a task in this team"))
	}

	deadline, apiErr := parseDeadline(req.Deadline)
	if apiErr != nil {
		return utils.RespondError(c, apiErr)
	}

	task := models.Task{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Deadline:    deadline,
		CreatorID:   user.ID,
		TeamID:      &team.ID,
	}
	if err := tc.db.Create(&task).Error; err != nil {
		return utils.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Created a new team task",
		"task":    task,
	})
}

// UpdateTeamTask dispatches on ?mode=update|assign. Update mode edits the
// task fields under the contributor own-task restriction; assign mode sets
// or clears the assignee and is closed to contributors and editors.
func (tc *TeamTaskController) UpdateTeamTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	team, membership := middleware.TeamFromContext(c)
	mode := c.Query("mode")

	task, err := tc.findTeamTask(c.Params("taskId"), team.ID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var message string
	switch mode {
	case "update":
		if apiErr := task.CanUpdate(membership, user.ID); apiErr != nil {
			return utils.RespondError(c, apiErr)
		}

		var req UpdateTaskRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.RespondError(c, models.InvalidInput("Invalid request body"))
		}
		if apiErr := applyTaskUpdate(task, &req); apiErr != nil {
			return utils.RespondError(c, apiErr)
		}
		message = "Updated team task"

	case "assign":
		if apiErr := task.CanAssign(membership); apiErr != nil {
			return utils.RespondError(c, apiErr)
		}

		var req AssignTaskRequest
		if err := c.BodyParser(&req); err != nil {
			return utils.RespondError(c, models.InvalidInput("Invalid request body"))
		}

		if req.AssigneeID != nil {
			if apiErr := tc.checkAssignee(*req.AssigneeID, team); apiErr != nil {
				return utils.RespondError(c, apiErr)
			}
			task.AssignedTo = req.AssigneeID
			message = "Assigned task to member"
		} else {
			task.AssignedTo = nil
			message = "Removed task assignee"
		}

	default:
		return utils.RespondError(c, models.InvalidInput("Update mode not defined"))
	}

	if err := tc.db.Save(task).Error; err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": message,
		"task":    task,
	})
}

func (tc *TeamTaskController) DeleteTeamTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	team, membership := middleware.TeamFromContext(c)

	task, err := tc.findTeamTask(c.Params("taskId"), team.ID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	if apiErr := task.CanDelete(membership, user.ID); apiErr != nil {
		return utils.RespondError(c, apiErr)
	}

	if err := tc.db.Delete(task).Error; err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Deleted team task successfully",
	})
}

func (tc *TeamTaskController) findTeamTask(taskParam string, teamID uint) (*models.Task, error) {
	taskID, err := strconv.ParseUint(taskParam, 10, 32)
	if err != nil {
		return nil, models.InvalidInput("Invalid task ID format")
	}

	var task models.Task
	err = tc.db.Where("id = ? AND team_id = ?", uint(taskID), teamID).First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFound("Task does not exist or has been deleted")
		}
		return nil, err
	}
	return &task, nil
}

// checkAssignee verifies the assignment target holds a position in a team.
// The scope is a policy decision: same-team restricts to the task's own
// team, any-team accepts any org-wide teammate.
func (tc *TeamTaskController) checkAssignee(assigneeID uint, team *models.Team) *models.Error {
	if tc.assigneeScope == AssigneeScopeSameTeam {
		if !team.HasUser(assigneeID) {
			return models.Conflict("Member is not in your team")
		}
		return nil
	}

	var count int64
	err := tc.db.Model(&models.Team{}).
		Where(
			"creator_id = ? OR id IN (?) OR id IN (?)",
			assigneeID,
			tc.db.Model(&models.TeamAdmin{}).Select("team_id").Where("user_id = ?", assigneeID),
			tc.db.Model(&models.TeamMember{}).Select("team_id").Where("user_id = ?", assigneeID),
		).
		Count(&count).Error
	if err != nil {
		return models.Internal("Failed to verify assignee membership")
	}
	if count == 0 {
		return models.Conflict("Member is not in your team")
	}
	return nil
}
