package models

import (
	"time"

	"gorm.io/gorm"
)

// Task represents a unit of work. A nil TeamID marks a personal task,
// visible and mutable only by its creator. A non-nil TeamID marks a team
// task, governed by the role policy of that team.
type Task struct {
	gorm.Model
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Status      string     `gorm:"default:'Not Started'" json:"status"`
	Priority    *string    `json:"priority"`
	Deadline    *time.Time `json:"deadline"`
	CreatorID   uint       `gorm:"not null;index" json:"creator_id"`
	TeamID      *uint      `gorm:"index" json:"team_id"`
	AssignedTo  *uint      `json:"assigned_to"`

	// Set once the deadline reminder webhook has been delivered.
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
}

// CanUpdate decides whether a user with the given team membership may edit
// this task's fields. Contributors are restricted to tasks they created;
// every higher role is unrestricted.
func (t *Task) CanUpdate(m Membership, userID uint) *Error {
	if m.Structural() {
		return nil
	}
	if m.Kind == MembershipMember && m.Role == RoleContributor && t.CreatorID != userID {
		return Forbidden("You can only update your own tasks")
	}
	return nil
}

// CanAssign decides whether a membership may use assign mode at all.
// Contributors and editors are forbidden from assignment entirely.
func (t *Task) CanAssign(m Membership) *Error {
	if m.Structural() {
		return nil
	}
	if m.Kind == MembershipMember && (m.Role == RoleContributor || m.Role == RoleEditor) {
		return Forbidden("You do not have the permission to assign tasks")
	}
	return nil
}

// CanDelete decides whether a membership may delete this task. The plain
// member role never may; contributors only their own tasks.
func (t *Task) CanDelete(m Membership, userID uint) *Error {
	if m.Structural() {
		return nil
	}
	if m.Kind == MembershipMember && m.Role == RoleMember {
		return Forbidden("You do not have the permission to delete tasks in this team")
	}
	if m.Kind == MembershipMember && m.Role == RoleContributor && t.CreatorID != userID {
		return Forbidden("You can only delete your own tasks")
	}
	return nil
}
