package models

import (
	"gorm.io/gorm"
)

// MemberRole is the declarative role attached to a plain team member.
// Creator and admin are structural positions, not member roles, and must
// never appear as values here.
type MemberRole string

const (
	RoleMember         MemberRole = "member"
	RoleContributor    MemberRole = "contributor"
	RoleEditor         MemberRole = "editor"
	RoleProjectManager MemberRole = "projectManager"
)

// Valid reports whether r is one of the four assignable member roles.
func (r MemberRole) Valid() bool {
	switch r {
	case RoleMember, RoleContributor, RoleEditor, RoleProjectManager:
		return true
	}
	return false
}

// MembershipKind is a user's structural standing within one team.
type MembershipKind int

const (
	MembershipNone MembershipKind = iota
	MembershipMember
	MembershipAdmin
	MembershipCreator
)

func (k MembershipKind) String() string {
	switch k {
	case MembershipCreator:
		return "creator"
	case MembershipAdmin:
		return "admin"
	case MembershipMember:
		return "member"
	}
	return "none"
}

// Membership is the resolved authority of a user within one team. Role is
// only meaningful when Kind is MembershipMember, which keeps an "unknown
// role" state unrepresentable for creators and admins.
type Membership struct {
	Kind MembershipKind
	Role MemberRole
}

// Structural reports whether the membership bypasses the role policy table
// entirely. Structural ownership outranks declarative role grants.
func (m Membership) Structural() bool {
	return m.Kind == MembershipCreator || m.Kind == MembershipAdmin
}

// Team represents a group of users collaborating on tasks. The creator is
// immutable after creation; ownership never transfers.
type Team struct {
	gorm.Model
	Title      string `gorm:"not null" json:"title"`
	CreatorID  uint   `gorm:"not null;index" json:"creator_id"`
	WebhookURL string `json:"webhook_url"`

	// Relations
	Admins  []TeamAdmin  `gorm:"foreignKey:TeamID" json:"admins,omitempty"`
	Members []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
}

// TeamAdmin marks a user as an admin of a team
type TeamAdmin struct {
	gorm.Model
	TeamID uint `gorm:"not null;index" json:"team_id"`
	UserID uint `gorm:"not null;index" json:"user_id"`
}

// TeamMember joins a user to a team with a declarative role
type TeamMember struct {
	gorm.Model
	TeamID uint       `gorm:"not null;index" json:"team_id"`
	UserID uint       `gorm:"not null;index" json:"user_id"`
	Role   MemberRole `gorm:"not null;default:'member'" json:"role"`
}

// Membership resolves the effective standing of userID within the team.
// Creator wins over the admin set, which wins over member entries.
func (t *Team) Membership(userID uint) Membership {
	if t.CreatorID == userID {
		return Membership{Kind: MembershipCreator}
	}
	for _, a := range t.Admins {
		if a.UserID == userID {
			return Membership{Kind: MembershipAdmin}
		}
	}
	for _, m := range t.Members {
		if m.UserID == userID {
			return Membership{Kind: MembershipMember, Role: m.Role}
		}
	}
	return Membership{Kind: MembershipNone}
}

// HasUser reports whether userID holds any position in the team.
func (t *Team) HasUser(userID uint) bool {
	return t.Membership(userID).Kind != MembershipNone
}

// AddMember appends userID to the members collection with the default
// "member" role. The caller is responsible for checking that the user
// actually exists. Returns the new entry so it can be persisted.
func (t *Team) AddMember(userID uint) (*TeamMember, *Error) {
	if userID == t.CreatorID {
		return nil, InvalidInput("Cannot add the team creator as a member")
	}
	if t.Membership(userID).Kind != MembershipNone {
		return nil, Conflict("Member is already in the team")
	}
	t.Members = append(t.Members, TeamMember{
		TeamID: t.ID,
		UserID: userID,
		Role:   RoleMember,
	})
	return &t.Members[len(t.Members)-1], nil
}

// RemoveMember removes the first member entry for userID. Admins and the
// creator cannot be removed through this path; their authority is
// structural. Returns the removed entry so it can be deleted from storage.
func (t *Team) RemoveMember(userID uint) (*TeamMember, *Error) {
	for i, m := range t.Members {
		if m.UserID == userID {
			removed := m
			t.Members = append(t.Members[:i], t.Members[i+1:]...)
			return &removed, nil
		}
	}
	return nil, NotFound("Member not found or has already been removed")
}

// ChangeMemberRole reassigns the declarative role of an existing member
// entry. Creator and admin authority is not reassignable via this path.
func (t *Team) ChangeMemberRole(userID uint, role MemberRole) (*TeamMember, *Error) {
	if !role.Valid() {
		return nil, InvalidInput("Invalid role")
	}
	for i := range t.Members {
		if t.Members[i].UserID == userID {
			t.Members[i].Role = role
			return &t.Members[i], nil
		}
	}
	return nil, NotFound("No such member found in the team")
}

// PromoteAdmin moves an existing member entry into the admin set. Returns
// the removed member entry and the new admin entry for persistence.
func (t *Team) PromoteAdmin(userID uint) (*TeamMember, *TeamAdmin, *Error) {
	removed, err := t.RemoveMember(userID)
	if err != nil {
		return nil, nil, NotFound("Member is not in your team or already an admin")
	}
	t.Admins = append(t.Admins, TeamAdmin{TeamID: t.ID, UserID: userID})
	return removed, &t.Admins[len(t.Admins)-1], nil
}

// DemoteAdmin removes an existing admin entry and appends a fresh member
// entry with the role reset to "member". Demotion is a fresh membership,
// not a restore of any earlier role.
func (t *Team) DemoteAdmin(userID uint) (*TeamAdmin, *TeamMember, *Error) {
	for i, a := range t.Admins {
		if a.UserID == userID {
			removed := a
			t.Admins = append(t.Admins[:i], t.Admins[i+1:]...)
			t.Members = append(t.Members, TeamMember{
				TeamID: t.ID,
				UserID: userID,
				Role:   RoleMember,
			})
			return &removed, &t.Members[len(t.Members)-1], nil
		}
	}
	return nil, nil, NotFound("No such admin found in your team")
}
