package routes

import (
	"mpoint-server/models"
	"mpoint-server/utils"

	"github.com/kataras/iris/v12"
)

// SendMessage stores a message to another user under the resolver-derived
// channel key.
func (h *Handler) SendMessage(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}
	otherID, err := ctx.Params().GetUint("userID")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid user id.", ctx)
		return
	}

	var input SendMessageInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	channel, resolveErr := h.Matcher.ResolveChatChannel(ctx.Request().Context(), userID, otherID)
	if resolveErr != nil {
		utils.HandleError(ctx, resolveErr)
		return
	}

	msg := models.Message{
		ChannelKey:  channel.Key(),
		SenderID:    userID,
		RecipientID: otherID,
		Content:     input.Content,
	}
	if err := h.DB.Create(&msg).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	h.DB.Preload("Sender").First(&msg, msg.ID)
	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"message": msg, "channelKey": msg.ChannelKey})
}

// ListMessages returns the last 100 messages of the channel between the
// caller and another user, in chronological order.
func (h *Handler) ListMessages(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}
	otherID, err := ctx.Params().GetUint("userID")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid user id.", ctx)
		return
	}

	channel, resolveErr := h.Matcher.ResolveChatChannel(ctx.Request().Context(), userID, otherID)
	if resolveErr != nil {
		utils.HandleError(ctx, resolveErr)
		return
	}

	var msgs []models.Message
	h.DB.Where("channel_key = ?", channel.Key()).
		Preload("Sender").
		Order("id DESC").Limit(100).Find(&msgs)
	// reverse to chronological
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	ctx.JSON(iris.Map{"messages": msgs, "channelKey": channel.Key()})
}

type SendMessageInput struct {
	Content string `json:"content" validate:"required,max=2000"`
}
