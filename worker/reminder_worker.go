package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"
	"gorm.io/gorm"

	"taskhive/models"
)

// ReminderWorker periodically scans for team tasks whose deadline has
// passed and delivers a webhook notification to the owning team, once per
// task.
type ReminderWorker struct {
	db       *gorm.DB
	client   *fasthttp.Client
	logger   *logrus.Logger
	interval time.Duration
}

func NewReminderWorker(db *gorm.DB, logger *logrus.Logger, interval time.Duration) *ReminderWorker {
	return &ReminderWorker{
		db:       db,
		client:   &fasthttp.Client{},
		logger:   logger,
		interval: interval,
	}
}

func (rw *ReminderWorker) Start(ctx context.Context) {
	rw.logger.Info("Reminder worker started")

	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("Reminder worker shutting down...")
			return
		case <-ticker.C:
			rw.processOverdueTasks()
		}
	}
}

func (rw *ReminderWorker) processOverdueTasks() {
	var tasks []models.Task
	err := rw.db.
		Where("team_id IS NOT NULL AND deadline IS NOT NULL AND deadline < ? AND reminder_sent_at IS NULL", time.Now()).
		Limit(100).
		Find(&tasks).Error
	if err != nil {
		rw.logger.Errorf("Error fetching overdue tasks: %v", err)
		return
	}

	for _, task := range tasks {
		if err := rw.notifyTeam(&task); err != nil {
			rw.logger.WithFields(logrus.Fields{
				"task_id": task.ID,
				"team_id": *task.TeamID,
			}).Errorf("Error delivering reminder: %v", err)
			continue
		}

		now := time.Now()
		if err := rw.db.Model(&task).Update("reminder_sent_at", &now).Error; err != nil {
			rw.logger.Errorf("Error marking reminder sent for task %d: %v", task.ID, err)
		}
	}
}

func (rw *ReminderWorker) notifyTeam(task *models.Task) error {
	var team models.Team
	if err := rw.db.First(&team, *task.TeamID).Error; err != nil {
		return fmt.Errorf("loading team: %w", err)
	}

	// Teams without a webhook URL simply get no reminders; the task is
	// still marked so it is not rescanned forever.
	if team.WebhookURL == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]interface{}{
		"event":      "task.overdue",
		"task_id":    task.ID,
		"team_id":    team.ID,
		"title":      task.Title,
		"status":     task.Status,
		"deadline":   task.Deadline,
		"created_by": task.CreatorID,
	})
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(team.WebhookURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(payload)

	if err := rw.client.DoTimeout(req, resp, 10*time.Second); err != nil {
		return err
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode())
	}

	rw.logger.WithFields(logrus.Fields{
		"task_id": task.ID,
		"team_id": team.ID,
	}).Info("Delivered overdue-task reminder")
	return nil
}
