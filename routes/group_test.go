package routes

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"mpoint-server/models"
	"mpoint-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupApp(t *testing.T, h *Handler, callerID uint) *iris.Application {
	return buildApp(t, func(app *iris.Application) {
		groups := app.Party("/api/groups", asUser(callerID))
		groups.Post("/", h.CreateGroup)
		groups.Post("/{id:uint}/join", h.JoinGroup)
		groups.Post("/{id:uint}/members/{userID:uint}/approve", h.ApproveGroupMember)
		groups.Post("/{id:uint}/members/{userID:uint}/remove", h.RemoveGroupMember)
		groups.Post("/{id:uint}/invites", h.CreateGroupInvite)
		groups.Post("/invites/{token}/accept", h.AcceptGroupInvite)
	})
}

func TestJoinGroupRejectsDuplicateRequest(t *testing.T) {
	h := newTestHandler(t)
	owner := createTestUser(t, h.DB, "owner@example.com")
	joiner := createTestUser(t, h.DB, "joiner@example.com")

	group := models.Group{Name: "Netzwerk Nord", OwnerID: owner.ID}
	require.NoError(t, h.DB.Create(&group).Error)

	app := groupApp(t, h, joiner.ID)
	target := fmt.Sprintf("/api/groups/%d/join", group.ID)

	resp := doJSON(t, app, http.MethodPost, target, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	// Second request hits the unique index, not a racy lookup.
	resp = doJSON(t, app, http.MethodPost, target, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	var count int64
	h.DB.Model(&models.GroupMember{}).Where("group_id = ? AND user_id = ?", group.ID, joiner.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	assert.Equal(t, int64(1), notificationCount(h.DB, owner.ID, models.NotificationGroupRequest))
}

func TestApproveGroupMember(t *testing.T) {
	h := newTestHandler(t)
	owner := createTestUser(t, h.DB, "owner@example.com")
	joiner := createTestUser(t, h.DB, "joiner@example.com")

	group := models.Group{Name: "Netzwerk Nord", OwnerID: owner.ID}
	require.NoError(t, h.DB.Create(&group).Error)
	require.NoError(t, h.DB.Create(&models.GroupMember{
		GroupID: group.ID, UserID: joiner.ID, Status: models.GroupMemberRequest,
	}).Error)

	app := groupApp(t, h, owner.ID)
	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/groups/%d/members/%d/approve", group.ID, joiner.ID), nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var member models.GroupMember
	require.NoError(t, h.DB.Where("group_id = ? AND user_id = ?", group.ID, joiner.ID).First(&member).Error)
	assert.Equal(t, models.GroupMemberActive, member.Status)
	assert.NotNil(t, member.JoinedAt)

	assert.Equal(t, int64(1), notificationCount(h.DB, joiner.ID, models.NotificationGroupApproved))

	// Approving again conflicts; no second notification goes out.
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/groups/%d/members/%d/approve", group.ID, joiner.ID), nil)
	assert.Equal(t, http.StatusConflict, resp.Code)
	assert.Equal(t, int64(1), notificationCount(h.DB, joiner.ID, models.NotificationGroupApproved))
}

func TestApproveRequiresOwnership(t *testing.T) {
	h := newTestHandler(t)
	owner := createTestUser(t, h.DB, "owner@example.com")
	joiner := createTestUser(t, h.DB, "joiner@example.com")
	stranger := createTestUser(t, h.DB, "stranger@example.com")

	group := models.Group{Name: "Netzwerk Nord", OwnerID: owner.ID}
	require.NoError(t, h.DB.Create(&group).Error)
	require.NoError(t, h.DB.Create(&models.GroupMember{
		GroupID: group.ID, UserID: joiner.ID, Status: models.GroupMemberRequest,
	}).Error)

	app := groupApp(t, h, stranger.ID)
	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/groups/%d/members/%d/approve", group.ID, joiner.ID), nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestRemoveGroupOwnerRejected(t *testing.T) {
	h := newTestHandler(t)
	owner := createTestUser(t, h.DB, "owner@example.com")

	group := models.Group{Name: "Netzwerk Nord", OwnerID: owner.ID}
	require.NoError(t, h.DB.Create(&group).Error)
	now := time.Now()
	require.NoError(t, h.DB.Create(&models.GroupMember{
		GroupID: group.ID, UserID: owner.ID, Status: models.GroupMemberActive, JoinedAt: &now,
	}).Error)

	app := groupApp(t, h, owner.ID)
	resp := doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/groups/%d/members/%d/remove", group.ID, owner.ID), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGroupInviteAcceptFlow(t *testing.T) {
	h := newTestHandler(t)
	owner := createTestUser(t, h.DB, "owner@example.com")
	invitee := createTestUser(t, h.DB, "invitee@example.com")

	group := models.Group{Name: "Netzwerk Nord", OwnerID: owner.ID}
	require.NoError(t, h.DB.Create(&group).Error)

	ownerApp := groupApp(t, h, owner.ID)
	resp := doJSON(t, ownerApp, http.MethodPost, fmt.Sprintf("/api/groups/%d/invites", group.ID),
		iris.Map{"inviteeUserID": invitee.ID})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var invite models.GroupInvite
	require.NoError(t, h.DB.Where("group_id = ?", group.ID).First(&invite).Error)
	require.NotNil(t, invite.LinkToken)
	assert.Equal(t, int64(1), notificationCount(h.DB, invitee.ID, models.NotificationGroupInvite))

	inviteeApp := groupApp(t, h, invitee.ID)
	resp = doJSON(t, inviteeApp, http.MethodPost, "/api/groups/invites/"+*invite.LinkToken+"/accept", nil)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var member models.GroupMember
	require.NoError(t, h.DB.Where("group_id = ? AND user_id = ?", group.ID, invitee.ID).First(&member).Error)
	assert.Equal(t, models.GroupMemberActive, member.Status)

	h.DB.First(&invite, invite.ID)
	assert.Equal(t, "accepted", invite.Status)
}

func TestExpiredInviteReturnsGone(t *testing.T) {
	h := newTestHandler(t)
	owner := createTestUser(t, h.DB, "owner@example.com")
	invitee := createTestUser(t, h.DB, "invitee@example.com")

	group := models.Group{Name: "Netzwerk Nord", OwnerID: owner.ID}
	require.NoError(t, h.DB.Create(&group).Error)

	token := utils.GenerateShortToken(16)
	expired := time.Now().Add(-time.Hour)
	invite := models.GroupInvite{
		GroupID: group.ID, InviterID: owner.ID,
		LinkToken: &token, ExpiresAt: &expired, Status: "pending",
	}
	require.NoError(t, h.DB.Create(&invite).Error)

	app := groupApp(t, h, invitee.ID)
	resp := doJSON(t, app, http.MethodPost, "/api/groups/invites/"+token+"/accept", nil)
	assert.Equal(t, http.StatusGone, resp.Code)

	h.DB.First(&invite, invite.ID)
	assert.Equal(t, "expired", invite.Status)
}
