package routes

import (
	"errors"
	"log"

	"mpoint-server/models"
	"mpoint-server/services"
	"mpoint-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// ConnectMatchRequest creates a new PENDING match from the caller's company
// to the receiver's company and notifies the receiver.
func (h *Handler) ConnectMatchRequest(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}

	var input ConnectMatchInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.ReceiverUserID == userID {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Cannot request a match with yourself.", ctx)
		return
	}

	var senderCompany models.Company
	if err := h.DB.Where("owner_id = ?", userID).First(&senderCompany).Error; err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "You need a company profile before requesting matches.", ctx)
		return
	}

	var receiverCompany models.Company
	if err := h.DB.Where("owner_id = ?", input.ReceiverUserID).First(&receiverCompany).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	// Reject a second open match between the same pair
	var existing models.Match
	err := h.DB.Where(
		"((sender_user_id = ? AND receiver_user_id = ?) OR (sender_user_id = ? AND receiver_user_id = ?)) AND status NOT IN ?",
		userID, input.ReceiverUserID, input.ReceiverUserID, userID,
		[]models.MatchStatus{models.MatchDeclined, models.MatchExpired}).
		First(&existing).Error
	if err == nil {
		utils.CreateError(iris.StatusConflict, "Conflict", "A match between these companies already exists.", ctx)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.CreateInternalServerError(ctx)
		return
	}

	match := models.Match{
		SenderUserID:      userID,
		SenderCompanyID:   senderCompany.ID,
		ReceiverUserID:    input.ReceiverUserID,
		ReceiverCompanyID: receiverCompany.ID,
		Status:            models.MatchPending,
		Score:             input.Score,
	}
	if err := h.DB.Create(&match).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if _, err := h.Notifier.MatchRequested(ctx.Request().Context(), input.ReceiverUserID, senderCompany.Name, match.ID); err != nil {
		// the match is already persisted; surface nothing to the client
		log.Printf("match %d created but notification failed: %v", match.ID, err)
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"match": match, "scoreBand": services.ScoreBand(match.Score)})
}

// AcceptMatch records the caller's acceptance; both sides accepting meets in
// ACCEPTED.
func (h *Handler) AcceptMatch(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}
	matchID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid match id.", ctx)
		return
	}

	match, acceptErr := h.Matcher.Accept(ctx.Request().Context(), matchID, userID)
	if acceptErr != nil {
		utils.HandleError(ctx, acceptErr)
		return
	}

	other := match.SenderUserID
	accepterCompanyID := match.ReceiverCompanyID
	if userID == match.SenderUserID {
		other = match.ReceiverUserID
		accepterCompanyID = match.SenderCompanyID
	}
	var accepterCompany models.Company
	h.DB.First(&accepterCompany, accepterCompanyID)
	if _, err := h.Notifier.MatchAccepted(ctx.Request().Context(), other, accepterCompany.Name, match.ID); err != nil {
		log.Printf("match %d accepted but notification failed: %v", match.ID, err)
	}

	ctx.JSON(iris.Map{"match": match})
}

// DeclineMatch moves the match to its terminal DECLINED state.
func (h *Handler) DeclineMatch(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}
	matchID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid match id.", ctx)
		return
	}

	var match models.Match
	if err := h.DB.First(&match, matchID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if match.SenderUserID != userID && match.ReceiverUserID != userID {
		ctx.StopWithStatus(iris.StatusForbidden)
		return
	}

	updated, transErr := h.Matcher.TransitionMatch(ctx.Request().Context(), matchID, models.MatchDeclined)
	if transErr != nil {
		utils.HandleError(ctx, transErr)
		return
	}

	ctx.JSON(iris.Map{"match": updated})
}

// EstablishConnection moves an ACCEPTED match to CONNECTED and notifies both
// parties.
func (h *Handler) EstablishConnection(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}
	matchID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid match id.", ctx)
		return
	}

	var match models.Match
	if err := h.DB.First(&match, matchID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	if match.SenderUserID != userID && match.ReceiverUserID != userID {
		ctx.StopWithStatus(iris.StatusForbidden)
		return
	}

	updated, transErr := h.Matcher.TransitionMatch(ctx.Request().Context(), matchID, models.MatchConnected)
	if transErr != nil {
		utils.HandleError(ctx, transErr)
		return
	}

	var senderCompany, receiverCompany models.Company
	h.DB.First(&senderCompany, match.SenderCompanyID)
	h.DB.First(&receiverCompany, match.ReceiverCompanyID)
	if _, err := h.Notifier.MatchConnected(ctx.Request().Context(), match.SenderUserID, receiverCompany.Name, match.ID); err != nil {
		log.Printf("match %d connected but sender notification failed: %v", match.ID, err)
	}
	if _, err := h.Notifier.MatchConnected(ctx.Request().Context(), match.ReceiverUserID, senderCompany.Name, match.ID); err != nil {
		log.Printf("match %d connected but receiver notification failed: %v", match.ID, err)
	}

	ctx.JSON(iris.Map{"match": updated})
}

// ListMatches returns the caller's matches, optionally filtered by status,
// with the score band attached.
func (h *Handler) ListMatches(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}

	query := h.DB.
		Preload("SenderCompany").Preload("ReceiverCompany").
		Where("sender_user_id = ? OR receiver_user_id = ?", userID, userID)

	if status := ctx.URLParamDefault("status", ""); status != "" {
		query = query.Where("status = ?", models.MatchStatus(status))
	}

	var matches []models.Match
	if err := query.Order("updated_at DESC").Find(&matches).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	results := make([]iris.Map, 0, len(matches))
	for i := range matches {
		results = append(results, iris.Map{
			"match":     matches[i],
			"scoreBand": services.ScoreBand(matches[i].Score),
		})
	}
	ctx.JSON(iris.Map{"matches": results})
}

// GetChatChannel resolves the canonical messaging channel between the caller
// and another user.
func (h *Handler) GetChatChannel(ctx iris.Context) {
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

	ctx.JSON(iris.Map{"channel": channel, "channelKey": channel.Key()})
}

type ConnectMatchInput struct {
	ReceiverUserID uint `json:"receiverUserID" validate:"required"`
	Score          int  `json:"score" validate:"min=0,max=100"`
}
