package routes

import (
	"errors"
	"log"
	"time"

	"mpoint-server/models"
	"mpoint-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

func (h *Handler) CreateGroup(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}

	var input CreateGroupInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	group := models.Group{
		Name:        input.Name,
		Description: input.Description,
		OwnerID:     userID,
	}
	if err := h.DB.Create(&group).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// The owner is an active member from the start
	now := time.Now()
	member := models.GroupMember{
		GroupID:  group.ID,
		UserID:   userID,
		Status:   models.GroupMemberActive,
		JoinedAt: &now,
	}
	if err := h.DB.Create(&member).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"group": group})
}

func (h *Handler) GetGroup(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid group id.", ctx)
		return
	}

	var group models.Group
	if err := h.DB.Preload("Owner").First(&group, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	var members []models.GroupMember
	h.DB.Where("group_id = ?", id).Preload("User").Find(&members)

	ctx.JSON(iris.Map{"group": group, "members": members})
}

// JoinGroup files a membership request. The composite unique index on
// (group_id, user_id) rejects duplicates regardless of status, so a racing
// second request fails on insert rather than slipping past a lookup.
func (h *Handler) JoinGroup(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}
	groupID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid group id.", ctx)
		return
	}

	var group models.Group
	if err := h.DB.First(&group, groupID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	member := models.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Status:  models.GroupMemberRequest,
	}
	if err := h.DB.Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.CreateError(iris.StatusBadRequest, "Membership Error", "A membership or request for this group already exists.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	var requester models.User
	h.DB.Select("id, first_name, last_name").First(&requester, userID)
	if _, err := h.Notifier.GroupJoinRequested(ctx.Request().Context(), group.OwnerID,
		requester.FirstName+" "+requester.LastName, group.Name, group.ID); err != nil {
		log.Printf("join request for group %d persisted but notification failed: %v", group.ID, err)
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"member": member})
}

// ApproveGroupMember flips a REQUEST membership to ACTIVE, stamps the join
// time and dispatches exactly one GROUP_APPROVED notification.
func (h *Handler) ApproveGroupMember(ctx iris.Context) {
	group, member, ok := h.loadOwnedMembership(ctx)
	if !ok {
		return
	}

	if member.Status != models.GroupMemberRequest {
		utils.CreateError(iris.StatusConflict, "Conflict", "Membership is not in a pending state.", ctx)
		return
	}

	now := time.Now()
	member.Status = models.GroupMemberActive
	member.JoinedAt = &now
	if err := h.DB.Save(member).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if _, err := h.Notifier.GroupApproved(ctx.Request().Context(), member.UserID, group.Name, group.ID); err != nil {
		log.Printf("membership %d approved but notification failed: %v", member.ID, err)
	}

	ctx.JSON(iris.Map{"member": member})
}

// DeclineGroupMember removes a pending request.
func (h *Handler) DeclineGroupMember(ctx iris.Context) {
	_, member, ok := h.loadOwnedMembership(ctx)
	if !ok {
		return
	}

	if member.Status != models.GroupMemberRequest {
		utils.CreateError(iris.StatusConflict, "Conflict", "Membership is not in a pending state.", ctx)
		return
	}

	if err := h.DB.Delete(member).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"declined": true})
}

// RemoveGroupMember deletes an active membership.
func (h *Handler) RemoveGroupMember(ctx iris.Context) {
	group, member, ok := h.loadOwnedMembership(ctx)
	if !ok {
		return
	}

	if member.UserID == group.OwnerID {
		utils.CreateError(iris.StatusBadRequest, "Membership Error", "The group owner cannot be removed.", ctx)
		return
	}

	if err := h.DB.Delete(member).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"removed": true})
}

// CreateGroupInvite issues a link-based invitation, optionally addressed to a
// specific user.
func (h *Handler) CreateGroupInvite(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}
	groupID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid group id.", ctx)
		return
	}

	var group models.Group
	if err := h.DB.First(&group, groupID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if group.OwnerID != userID {
		ctx.StopWithStatus(iris.StatusForbidden)
		return
	}

	var input CreateInviteInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	token := utils.GenerateShortToken(16)
	expires := time.Now().Add(7 * 24 * time.Hour)
	invite := models.GroupInvite{
		GroupID:       groupID,
		InviterID:     userID,
		InviteeUserID: input.InviteeUserID,
		LinkToken:     &token,
		ExpiresAt:     &expires,
		Status:        "pending",
	}
	if err := h.DB.Create(&invite).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if input.InviteeUserID != nil {
		var inviter models.User
		h.DB.Select("id, first_name, last_name").First(&inviter, userID)
		if _, err := h.Notifier.GroupInvited(ctx.Request().Context(), *input.InviteeUserID,
			inviter.FirstName+" "+inviter.LastName, group.Name, token); err != nil {
			log.Printf("invite %d created but notification failed: %v", invite.ID, err)
		}
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"invite": invite})
}

// AcceptGroupInvite redeems an invite link and creates an active membership.
func (h *Handler) AcceptGroupInvite(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}

	invite, found := h.loadPendingInvite(ctx)
	if !found {
		return
	}

	if invite.InviteeUserID != nil && *invite.InviteeUserID != userID {
		ctx.StopWithStatus(iris.StatusForbidden)
		return
	}

	now := time.Now()
	member := models.GroupMember{
		GroupID:  invite.GroupID,
		UserID:   userID,
		Status:   models.GroupMemberActive,
		JoinedAt: &now,
	}
	if err := h.DB.Create(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.CreateError(iris.StatusBadRequest, "Membership Error", "A membership or request for this group already exists.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	invite.Status = "accepted"
	h.DB.Save(invite)

	ctx.JSON(iris.Map{"member": member})
}

// DeclineGroupInvite marks an invite declined without creating a membership.
func (h *Handler) DeclineGroupInvite(ctx iris.Context) {
	if _, ok := utils.ContextUserID(ctx); !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}

	invite, found := h.loadPendingInvite(ctx)
	if !found {
		return
	}

	invite.Status = "declined"
	if err := h.DB.Save(invite).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"declined": true})
}

// loadOwnedMembership loads the {id}/{userID} route pair and verifies the
// caller owns the group. Responds and returns ok=false on failure.
func (h *Handler) loadOwnedMembership(ctx iris.Context) (*models.Group, *models.GroupMember, bool) {
	callerID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return nil, nil, false
	}
	groupID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid group id.", ctx)
		return nil, nil, false
	}
	memberUserID, err := ctx.Params().GetUint("userID")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid user id.", ctx)
		return nil, nil, false
	}

	var group models.Group
	if err := h.DB.First(&group, groupID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return nil, nil, false
	}
	if group.OwnerID != callerID {
		ctx.StopWithStatus(iris.StatusForbidden)
		return nil, nil, false
	}

	var member models.GroupMember
	if err := h.DB.Where("group_id = ? AND user_id = ?", groupID, memberUserID).First(&member).Error; err != nil {
		utils.CreateNotFound(ctx)
		return nil, nil, false
	}

	return &group, &member, true
}

// loadPendingInvite fetches the invite by link token, expiring it lazily.
func (h *Handler) loadPendingInvite(ctx iris.Context) (*models.GroupInvite, bool) {
	token := ctx.Params().Get("token")
	if token == "" {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Missing invite token.", ctx)
		return nil, false
	}

	var invite models.GroupInvite
	if err := h.DB.Where("link_token = ?", token).First(&invite).Error; err != nil {
		utils.CreateNotFound(ctx)
		return nil, false
	}

	if invite.Status != "pending" {
		utils.CreateError(iris.StatusConflict, "Conflict", "Invite is no longer pending.", ctx)
		return nil, false
	}
	if invite.ExpiresAt != nil && invite.ExpiresAt.Before(time.Now()) {
		invite.Status = "expired"
		h.DB.Save(&invite)
		utils.CreateError(iris.StatusGone, "Invite Expired", "This invitation has expired.", ctx)
		return nil, false
	}

	return &invite, true
}

type CreateGroupInput struct {
	Name        string `json:"name" validate:"required,max=256"`
	Description string `json:"description" validate:"max=3000"`
}

type CreateInviteInput struct {
	InviteeUserID *uint `json:"inviteeUserID"`
}
