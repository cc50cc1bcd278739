package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"taskhive/config"
	controller "taskhive/controllers"
	"taskhive/middleware"
	"taskhive/utils"
)

// SetupRoutes registers the full HTTP surface. Team-scoped routes declare
// the action sets the permission gate checks against the role policy;
// creator and admin pass any gate unconditionally.
func SetupRoutes(app *fiber.App, db *gorm.DB, tokens *utils.TokenManager, policy config.RolePolicy, log *logrus.Logger) {
	authController := controller.NewAuthController(db, tokens, log)
	taskController := controller.NewTaskController(db, log)
	teamController := controller.NewTeamController(db, log)
	teamTaskController := controller.NewTeamTaskController(db, log, controller.AssigneeScopeAnyTeam)

	requestLogger := logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	})

	// Auth endpoints; credential routes are rate limited per IP.
	auth := app.Group("/auth", requestLogger)
	auth.Post("/register", middleware.AuthRateLimiter(), authController.Register)
	auth.Post("/login", middleware.AuthRateLimiter(), authController.Login)

	protectedAuth := auth.Group("", middleware.Protected(tokens, db))
	protectedAuth.Delete("/delete-account", authController.DeleteAccount)
	protectedAuth.Get("/me", authController.GetCurrentUser)

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(tokens, db), requestLogger)

	// Personal tasks
	tasks := api.Group("/tasks")
	tasks.Get("/", taskController.GetTasks)
	tasks.Post("/", taskController.CreateTask)
	tasks.Get("/:id", taskController.GetTask)
	tasks.Put("/:id", taskController.UpdateTask)
	tasks.Delete("/:id", taskController.DeleteTask)

	// Teams and membership management
	teams := api.Group("/teams")
	teams.Get("/", teamController.GetTeams)
	teams.Post("/", teamController.CreateTeam)
	teams.Get("/:teamId", teamController.GetTeam)
	teams.Put("/:teamId/title",
		middleware.RequireTeamPermission(db, policy, config.ActionManageEverything),
		teamController.UpdateTeamTitle)
	teams.Put("/:teamId/settings",
		middleware.RequireTeamPermission(db, policy, config.ActionManageTeamSettings, config.ActionManageEverything),
		teamController.UpdateTeamSettings)
	teams.Put("/:teamId/members",
		middleware.RequireTeamPermission(db, policy, config.ActionManageEverything),
		teamController.UpdateTeamMembers) // ?mode=add ?mode=remove
	teams.Put("/:teamId/members/role",
		middleware.RequireTeamPermission(db, policy, config.ActionManageEverything),
		teamController.UpdateTeamMemberRole) // ?role=
	teams.Put("/:teamId/admins",
		middleware.RequireTeamPermission(db, policy, config.ActionManageEverything),
		teamController.UpdateTeamAdmins) // ?mode=add ?mode=remove
	teams.Delete("/:teamId",
		middleware.RequireTeamPermission(db, policy, config.ActionManageEverything),
		teamController.DeleteTeam)

	// Team tasks
	teams.Get("/:teamId/tasks", teamTaskController.GetTeamTasks)
	teams.Get("/:teamId/tasks/:taskId", teamTaskController.GetTeamTask)
	teams.Post("/:teamId/tasks",
		middleware.RequireTeamPermission(db, policy,
			config.ActionCreateTasks, config.ActionManageEverything),
		teamTaskController.CreateTeamTask)
	teams.Put("/:teamId/tasks/:taskId",
		middleware.RequireTeamPermission(db, policy,
			config.ActionUpdateAnyTasks, config.ActionAssignTasks,
			config.ActionUpdateOwnTasks, config.ActionManageEverything),
		teamTaskController.UpdateTeamTask) // ?mode=update ?mode=assign
	teams.Delete("/:teamId/tasks/:taskId",
		middleware.RequireTeamPermission(db, policy,
			config.ActionDeleteAnyTasks, config.ActionDeleteOwnTasks,
			config.ActionManageEverything),
		teamTaskController.DeleteTeamTask)

	// Team board stream
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/teams/:teamId/board", websocket.New(controller.HandleTeamBoardWS(db, tokens, log)))

	log.Info("Routes initialized successfully")
}
