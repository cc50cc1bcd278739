package controller

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"taskhive/models"
	"taskhive/utils"
)

type boardUpdate struct {
	TeamID   uint           `json:"team_id"`
	Statuses map[string]int `json:"statuses"`
	Total    int            `json:"total"`
	SentAt   time.Time      `json:"sent_at"`
}

// HandleTeamBoardWS streams the team's task status counts to a connected
// client. Browsers cannot set an Authorization header on a websocket
// upgrade, so the token travels in the ?token= query parameter.
func HandleTeamBoardWS(db *gorm.DB, tokens *utils.TokenManager, log *logrus.Logger) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		claims, err := tokens.Parse(c.Query("token"))
		if err != nil {
			c.WriteJSON(map[string]string{"error": "Not authenticated"})
			return
		}

		teamID := utils.ParseUint(c.Params("teamId"))
		var team models.Team
		if err := db.Preload("Admins").Preload("Members").First(&team, teamID).Error; err != nil {
			c.WriteJSON(map[string]string{"error": "Team not found"})
			return
		}
		if !team.HasUser(claims.UserID) {
			c.WriteJSON(map[string]string{"error": "Permission denied"})
			return
		}

		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			update, err := snapshotBoard(db, team.ID)
			if err != nil {
				log.Warnf("board snapshot for team %d failed: %v", team.ID, err)
				return
			}
			if err := c.WriteJSON(update); err != nil {
				return
			}
			<-ticker.C
		}
	}
}

func snapshotBoard(db *gorm.DB, teamID uint) (*boardUpdate, error) {
	var rows []struct {
		Status string
		Count  int
	}
	err := db.Model(&models.Task{}).
		Select("status, count(*) as count").
		Where("team_id = ?", teamID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	update := &boardUpdate{
		TeamID:   teamID,
		Statuses: make(map[string]int, len(rows)),
		SentAt:   time.Now().UTC(),
	}
	for _, r := range rows {
		update.Statuses[r.Status] = r.Count
		update.Total += r.Count
	}
	return update, nil
}
