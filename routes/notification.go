package routes

import (
	"time"

	"mpoint-server/models"
	"mpoint-server/utils"

	"github.com/kataras/iris/v12"
)

// ListNotifications returns the caller's notifications, newest first.
func (h *Handler) ListNotifications(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}

	page, perPage := utils.Pagination(ctx)

	query := h.DB.Model(&models.Notification{}).Where("user_id = ?", userID)
	if ctx.URLParamDefault("unread", "") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	query.Count(&total)

	var notifications []models.Notification
	query.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&notifications)

	utils.JSONPage(ctx, notifications, page, perPage, total)
}

// MarkNotificationRead toggles the read flag and stamps the read time.
func (h *Handler) MarkNotificationRead(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid notification id.", ctx)
		return
	}

	var notification models.Notification
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&notification).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if !notification.IsRead {
		now := time.Now()
		notification.IsRead = true
		notification.ReadAt = &now
		if err := h.DB.Save(&notification).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	ctx.JSON(iris.Map{"notification": notification})
}

// UnreadNotificationCount serves the polling badge in the UI widget.
func (h *Handler) UnreadNotificationCount(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}

	var count int64
	h.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count)

	ctx.JSON(iris.Map{"count": count})
}
