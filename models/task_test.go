package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teamTask(creator uint) *Task {
	teamID := uint(7)
	return &Task{
		Title:       "ship release",
		Description: "cut and tag",
		CreatorID:   creator,
		TeamID:      &teamID,
	}
}

func TestTaskCanUpdate(t *testing.T) {
	tests := []struct {
		name        string
		membership  Membership
		taskCreator uint
		requester   uint
		wantAllowed bool
	}{
		{"creator bypasses any restriction", Membership{Kind: MembershipCreator}, memberID, creatorID, true},
		{"admin bypasses any restriction", Membership{Kind: MembershipAdmin}, memberID, adminID, true},
		{"contributor may update own task", member(RoleContributor), memberID, memberID, true},
		{"contributor may not update another's task", member(RoleContributor), adminID, memberID, false},
		{"editor may update any task", member(RoleEditor), adminID, memberID, true},
		{"projectManager may update any task", member(RoleProjectManager), adminID, memberID, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := teamTask(tt.taskCreator)
			err := task.CanUpdate(tt.membership, tt.requester)
			if tt.wantAllowed {
				assert.Nil(t, err)
			} else {
				require.NotNil(t, err)
				assert.Equal(t, KindForbidden, err.Kind)
			}
		})
	}
}

func TestTaskCanAssign(t *testing.T) {
	task := teamTask(memberID)

	assert.Nil(t, task.CanAssign(Membership{Kind: MembershipCreator}))
	assert.Nil(t, task.CanAssign(Membership{Kind: MembershipAdmin}))
	assert.Nil(t, task.CanAssign(member(RoleProjectManager)))

	for _, role := range []MemberRole{RoleContributor, RoleEditor} {
		err := task.CanAssign(member(role))
		require.NotNil(t, err, "role %s must not assign", role)
		assert.Equal(t, KindForbidden, err.Kind)
	}
}

func TestTaskCanDelete(t *testing.T) {
	tests := []struct {
		name        string
		membership  Membership
		taskCreator uint
		requester   uint
		wantAllowed bool
	}{
		{"member role never deletes", member(RoleMember), memberID, memberID, false},
		{"contributor deletes own task", member(RoleContributor), memberID, memberID, true},
		{"contributor may not delete another's task", member(RoleContributor), adminID, memberID, false},
		{"editor deletes any task", member(RoleEditor), adminID, memberID, true},
		{"projectManager deletes any task", member(RoleProjectManager), adminID, memberID, true},
		{"admin deletes any task", Membership{Kind: MembershipAdmin}, memberID, adminID, true},
		{"creator deletes any task", Membership{Kind: MembershipCreator}, memberID, creatorID, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := teamTask(tt.taskCreator)
			err := task.CanDelete(tt.membership, tt.requester)
			if tt.wantAllowed {
				assert.Nil(t, err)
			} else {
				require.NotNil(t, err)
				assert.Equal(t, KindForbidden, err.Kind)
			}
		})
	}
}

// Mirrors the collaboration scenario: creator C, admin A, contributor M.
// M creates a task, A can push it to Done, M cannot delete a task A
// created.
func TestTeamTaskCollaborationScenario(t *testing.T) {
	team := newTeam()

	taskByM := teamTask(memberID)
	assert.Equal(t, uint(memberID), taskByM.CreatorID)
	require.NotNil(t, taskByM.TeamID)

	adminStanding := team.Membership(adminID)
	require.Equal(t, MembershipAdmin, adminStanding.Kind)
	assert.Nil(t, taskByM.CanUpdate(adminStanding, adminID))
	taskByM.Status = "Done"
	assert.Equal(t, "Done", taskByM.Status)

	taskByA := teamTask(adminID)
	contributorStanding := team.Membership(memberID)
	require.Equal(t, RoleContributor, contributorStanding.Role)
	err := taskByA.CanDelete(contributorStanding, memberID)
	require.NotNil(t, err)
	assert.Equal(t, KindForbidden, err.Kind)
}

func member(role MemberRole) Membership {
	return Membership{Kind: MembershipMember, Role: role}
}
