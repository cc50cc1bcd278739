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

type CreateTeamRequest struct {
	Title string `json:"title" validate:"required"`
}

type UpdateTeamTitleRequest struct {
	Title string `json:"title" validate:"required"`
}

type TeamMemberRequest struct {
	MemberID uint `json:"member_id" validate:"required"`
}

type UpdateTeamSettingsRequest struct {
	WebhookURL string `json:"webhook_url" validate:"omitempty,url"`
}

var teamSortable = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"title":      true,
}

type TeamController struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewTeamController(db *gorm.DB, log *logrus.Logger) *TeamController {
	return &TeamController{db: db, log: log}
}

// memberOfScope filters teams down to those in which the user holds any
// position: creator, admin or member.
func (tc *TeamController) memberOfScope(userID uint) *gorm.DB {
	return tc.db.Where(
		"creator_id = ? OR id IN (?) OR id IN (?)",
		userID,
		tc.db.Model(&models.TeamAdmin{}).Select("team_id").Where("user_id = ?", userID),
		tc.db.Model(&models.TeamMember{}).Select("team_id").Where("user_id = ?", userID),
	)
}

func (tc *TeamController) GetTeams(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	p := utils.ParsePagination(c, 4, teamSortable)

	var teams []models.Team
	err := tc.memberOfScope(user.ID).
		Preload("Admins").Preload("Members").
		Offset(p.Offset()).Limit(p.Limit).Order(p.Sort).
		Find(&teams).Error
	if err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Fetched all teams",
		"teams":   teams,
	})
}

func (tc *TeamController) GetTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	teamID, err := strconv.ParseUint(c.Params("teamId"), 10, 32)
	if err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid team ID"))
	}

	// Scoping the fetch by membership keeps teams the user has no standing
	// in indistinguishable from teams that do not exist.
	var team models.Team
	err = tc.memberOfScope(user.ID).
		Preload("Admins").Preload("Members").
		First(&team, uint(teamID)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.RespondError(c, models.NotFound("No team found"))
		}
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Fetched team",
		"team":    team,
	})
}

func (tc *TeamController) CreateTeam(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var req CreateTeamRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, models.InvalidInput(err.Error()))
	}

	team := models.Team{
		Title:     req.Title,
		CreatorID: user.ID,
	}
	if err := tc.db.Create(&team).Error; err != nil {
		return utils.RespondError(c, err)
	}

	tc.log.WithFields(logrus.Fields{
		"team_id": team.ID,
		"user_id": user.ID,
	}).Info("created team")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Created team",
		"team":    team,
	})
}

func (tc *TeamController) UpdateTeamTitle(c *fiber.Ctx) error {
	team, _ := middleware.TeamFromContext(c)

	var req UpdateTeamTitleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, models.InvalidInput(err.Error()))
	}

	team.Title = req.Title
	if err := tc.db.Model(team).Update("title", req.Title).Error; err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Updated team title",
		"team":    team,
	})
}

// UpdateTeamSettings lets project managers and above manage team-level
// settings, currently the overdue-task webhook URL.
func (tc *TeamController) UpdateTeamSettings(c *fiber.Ctx) error {
	team, _ := middleware.TeamFromContext(c)

	var req UpdateTeamSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, models.InvalidInput(err.Error()))
	}

	team.WebhookURL = req.WebhookURL
	if err := tc.db.Model(team).Update("webhook_url", req.WebhookURL).Error; err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Updated team settings",
		"team":    team,
	})
}

// UpdateTeamMembers adds or removes a plain member, dispatching on the
// ?mode=add|remove query parameter.
func (tc *TeamController) UpdateTeamMembers(c *fiber.Ctx) error {
	team, _ := middleware.TeamFromContext(c)
	mode := c.Query("mode")

	var req TeamMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, models.InvalidInput(err.Error()))
	}

	var message string
	switch mode {
	case "add":
		var target models.User
		if err := tc.db.First(&target, req.MemberID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.RespondError(c, models.NotFound("No such user exists"))
			}
			return utils.RespondError(c, err)
		}

		entry, apiErr := team.AddMember(req.MemberID)
		if apiErr != nil {
			return utils.RespondError(c, apiErr)
		}
		if err := tc.db.Create(entry).Error; err != nil {
			return utils.RespondError(c, err)
		}
		message = "Added member"

	case "remove":
		removed, apiErr := team.RemoveMember(req.MemberID)
		if apiErr != nil {
			return utils.RespondError(c, apiErr)
		}
		if err := tc.db.Delete(removed).Error; err != nil {
			return utils.RespondError(c, err)
		}
		message = "Removed member"

	default:
		return utils.RespondError(c, models.InvalidInput("Update mode not defined in the query parameter"))
	}

	return c.JSON(fiber.Map{
		"message": message,
		"team":    team,
	})
}

// UpdateTeamMemberRole reassigns an existing member's declarative role. The
// role comes from the ?role= query parameter and must be one of the four
// member role names.
func (tc *TeamController) UpdateTeamMemberRole(c *fiber.Ctx) error {
	team, _ := middleware.TeamFromContext(c)
	role := models.MemberRole(c.Query("role"))

	var req TeamMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, models.InvalidInput(err.Error()))
	}

	entry, apiErr := team.ChangeMemberRole(req.MemberID, role)
	if apiErr != nil {
		return utils.RespondError(c, apiErr)
	}
	if err := tc.db.Model(entry).Update("role", role).Error; err != nil {
		return utils.RespondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Updated member's role",
		"member":  entry,
	})
}

// UpdateTeamAdmins promotes a member to the admin set or demotes an admin
// back to a plain member, dispatching on ?mode=add|remove. Only the team
// creator may mutate the admin set.
func (tc *TeamController) UpdateTeamAdmins(c *fiber.Ctx) error {
	team, membership := middleware.TeamFromContext(c)

	if membership.Kind != models.MembershipCreator {
		return utils.RespondError(c, models.Forbidden("You are not the owner of this team"))
	}

	mode := c.Query("mode")

	var req TeamMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.RespondError(c, models.InvalidInput("Invalid request body"))
	}
	if err := utils.ValidateStruct(req); err != nil {
		return utils.RespondError(c, models.InvalidInput(err.Error()))
	}

	var message string
	switch mode {
	case "add":
		removed, admin, apiErr := team.PromoteAdmin(req.MemberID)
		if apiErr != nil {
			return utils.RespondError(c, apiErr)
		}
		err := tc.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(removed).Error; err != nil {
				return err
			}
			return tx.Create(admin).Error
		})
		if err != nil {
			return utils.RespondError(c, err)
		}
		message = "Made member an admin"

	case "remove":
		removed, member, apiErr := team.DemoteAdmin(req.MemberID)
		if apiErr != nil {
			return utils.RespondError(c, apiErr)
		}
		err := tc.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(removed).Error; err != nil {
				return err
			}
			return tx.Create(member).Error
		})
		if err != nil {
			return utils.RespondError(c, err)
		}
		message = "Made admin a member"

	default:
		return utils.RespondError(c, models.InvalidInput("Update mode not defined in the query parameter"))
	}

	return c.JSON(fiber.Map{
		"message": message,
		"team":    team,
	})
}

// DeleteTeam destroys a team along with its admin and member entries. Only
// the creator may do this.
func (tc *TeamController) DeleteTeam(c *fiber.Ctx) error {
	team, membership := middleware.TeamFromContext(c)

	if membership.Kind != models.MembershipCreator {
		return utils.RespondError(c, models.Forbidden("You are not the owner of this team"))
	}

	err := tc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", team.ID).Delete(&models.TeamAdmin{}).Error; err != nil {
			return err
		}
		if err := tx.Where("team_id = ?", team.ID).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Team{}, team.ID).Error
	})
	if err != nil {
		return utils.RespondError(c, err)
	}

	tc.log.WithField("team_id", team.ID).Info("deleted team")

	return c.JSON(fiber.Map{
		"message": "Deleted team",
	})
}
