package config

import (
	"taskhive/models"
)

// Action is a token identifying one permitted operation, checked against a
// role's permitted set.
type Action string

const (
	ActionCreateTasks        Action = "create_tasks"
	ActionUpdateOwnTasks     Action = "update_own_tasks"
	ActionUpdateAnyTasks     Action = "update_any_tasks"
	ActionDeleteOwnTasks     Action = "delete_own_tasks"
	ActionDeleteAnyTasks     Action = "delete_any_tasks"
	ActionAssignTasks        Action = "assign_tasks"
	ActionManageTeamSettings Action = "manage_team_settings"
	ActionManageEverything   Action = "manage_everything"
)

// RolePolicy maps a member role to its permitted actions. Creator and admin
// never appear here: they are structural positions resolved before the table
// is consulted, so they cannot be edited or removed as ordinary role
// strings.
type RolePolicy map[models.MemberRole]map[Action]bool

// DefaultRolePolicy returns the policy table. It is built once at process
// start and passed by injection; nothing mutates it at runtime.
func DefaultRolePolicy() RolePolicy {
	return RolePolicy{
		models.RoleMember: {},
		models.RoleContributor: {
			ActionCreateTasks:    true,
			ActionUpdateOwnTasks: true,
			ActionDeleteOwnTasks: true,
		},
		models.RoleEditor: {
			ActionCreateTasks:    true,
			ActionUpdateAnyTasks: true,
			ActionDeleteAnyTasks: true,
		},
		models.RoleProjectManager: {
			ActionCreateTasks:        true,
			ActionUpdateAnyTasks:     true,
			ActionDeleteAnyTasks:     true,
			ActionAssignTasks:        true,
			ActionManageTeamSettings: true,
		},
	}
}

// Allows decides whether a resolved membership may attempt an operation
// declared with the given acceptable actions. Creator and admin allow
// unconditionally; a member allows iff their role's permitted set intersects
// the declared list. A role missing from the table denies rather than
// failing the process.
func (p RolePolicy) Allows(m models.Membership, actions ...Action) bool {
	switch m.Kind {
	case models.MembershipCreator, models.MembershipAdmin:
		return true
	case models.MembershipMember:
		can, ok := p[m.Role]
		if !ok {
			return false
		}
		for _, a := range actions {
			if can[a] {
				return true
			}
		}
		return false
	default:
		return false
	}
}
