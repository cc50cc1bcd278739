package models

import (
	"gorm.io/gorm"
)

// User represents a user account in the system
type User struct {
	gorm.Model

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	// Relations
	Tasks        []Task       `gorm:"foreignKey:CreatorID" json:"tasks,omitempty"`
	CreatedTeams []Team       `gorm:"foreignKey:CreatorID" json:"created_teams,omitempty"`
	Memberships  []TeamMember `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}
