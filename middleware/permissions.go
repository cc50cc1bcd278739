package middleware

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"taskhive/config"
	"taskhive/models"
	"taskhive/utils"
)

// RequireTeamPermission is the blocking pre-check in front of every
// team-scoped operation. It loads the team from the :teamId path
// parameter, resolves the requester's effective standing and allows the
// request through iff the policy grants one of the declared actions.
// Creator and admin bypass the table entirely. The loaded team and the
// resolved membership are stored in request locals so handlers do not
// fetch the row again.
func RequireTeamPermission(db *gorm.DB, policy config.RolePolicy, actions ...config.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := c.Locals("user").(*models.User)

		teamID, err := strconv.ParseUint(c.Params("teamId"), 10, 32)
		if err != nil {
			return utils.RespondError(c, models.InvalidInput("Invalid team ID"))
		}

		var team models.Team
		if err := db.Preload("Admins").Preload("Members").First(&team, uint(teamID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.RespondError(c, models.NotFound("Team not found"))
			}
			return utils.RespondError(c, err)
		}

		membership := team.Membership(user.ID)
		if !policy.Allows(membership, actions...) {
			return utils.RespondError(c, models.Forbidden("Permission denied"))
		}

		c.Locals("team", &team)
		c.Locals("membership", membership)

		return c.Next()
	}
}

// TeamFromContext returns the team and membership stored by
// RequireTeamPermission.
func TeamFromContext(c *fiber.Ctx) (*models.Team, models.Membership) {
	return c.Locals("team").(*models.Team), c.Locals("membership").(models.Membership)
}
