package controller

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"taskhive/models"
	"taskhive/utils"
)

type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description" validate:"required"`
	Priority    *string `json:"priority"`
	Deadline    *string `json:"deadline"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Deadline    *string `json:"deadline"`
}

var taskSortable = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
	"status":     true,
	"priority":   true,
	"deadline":   true,
}

// TaskController serves personal tasks: rows with no team reference,
// visible and mutable only by their creator. No role is ever consulted
// here.
type TaskController struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewTaskController(db *gorm.DB, log *logrus.Logger) *TaskController {
	return &TaskController{db: db, log: log}
}

func (tc *TaskController) GetTasks(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	p := utils.ParsePagination(c, 8, taskSortable)

	var tasks []models.Task
	err := tc.db.
		Where("creator_id = ? AND team_id IS NULL", user.ID).
		Offset(p.Offset()).Limit(p.Limit).Order(p.Sort).
		Find(&tasks).Error
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Fetched all tasks successfully",
		"tasks":   tasks,
	})
}

func (tc *TaskController) GetTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	task, err := tc.findOwnTask(c.Params("id"), user.ID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Fetched task successfully",
		"task":    task,
	})
}

func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, models.InvalidInput(err.Error()))
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
	}
	if err := tc.db.Create(&task).Error; err != nil {
		return utils.RespondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Created new task",
		"task":    task,
	})
}

func (tc *TaskController) UpdateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	task, err := tc.findOwnTask(c.Params("id"), user.ID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid request body"))
	}

	if apiErr := applyTaskUpdate(task, &req); apiErr != nil {
		return utils.RespondError(c, apiErr)
	}

	if err := tc.db.Save(task).Error; err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Updated task",
		"task":    task,
	})
}

func (tc *TaskController) DeleteTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	task, err := tc.findOwnTask(c.Params("id"), user.ID)
	if err != nil {
		return utils.RespondError(c, err)
	}

	if err := tc.db.Delete(task).Error; err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Deleted task successfully",
	})
}

func (tc *TaskController) findOwnTask(idParam string, userID uint) (*models.Task, error) {
	taskID, err := strconv.ParseUint(idParam, 10, 32)
	if err != nil {
		return nil, models.InvalidInput("Invalid task ID format")
	}

	var task models.Task
	err = tc.db.
		Where("id = ? AND creator_id = ? AND team_id IS NULL", uint(taskID), userID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NotFound("Task does not exist or has been deleted")
		}
		return nil, err
	}
	return &task, nil
}

// applyTaskUpdate copies the provided fields onto the task. Shared with the
// team-task update path.
func applyTaskUpdate(task *models.Task, req *UpdateTaskRequest) *models.Error {
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = req.Priority
	}
	if req.Deadline != nil {
		deadline, apiErr := parseDeadline(req.Deadline)
		if apiErr != nil {
			return apiErr
		}
		task.Deadline = deadline
	}
	return nil
}

func parseDeadline(raw *string) (*time.Time, *models.Error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, models.InvalidInput("Deadline must be an RFC 3339 timestamp")
	}
	return &t, nil
}
