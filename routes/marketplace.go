package routes

import (
	"errors"

	"mpoint-server/models"
	"mpoint-server/utils"

	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

var marketplaceCategories = []string{"offer", "request", "cooperation"}

func (h *Handler) CreateMarketplaceEntry(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}

	var input MarketplaceEntryInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !slices.Contains(marketplaceCategories, input.Category) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Unknown category.", ctx)
		return
	}

	entry := models.MarketplaceEntry{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		Status:      "active",
	}

	// attach the caller's company when they have one
	var company models.Company
	if err := h.DB.Where("owner_id = ?", userID).First(&company).Error; err == nil {
		entry.CompanyID = &company.ID
	}

	if err := h.DB.Create(&entry).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"entry": entry})
}

func (h *Handler) ListMarketplaceEntries(ctx iris.Context) {
	page, perPage := utils.Pagination(ctx)

	query := h.DB.Model(&models.MarketplaceEntry{}).Where("status = ?", "active")
	if category := ctx.URLParamDefault("category", ""); category != "" {
		query = query.Where("category = ?", category)
	}

	var total int64
	query.Count(&total)

	var entries []models.MarketplaceEntry
	query.Preload("Company").Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).Find(&entries)

	utils.JSONPage(ctx, entries, page, perPage, total)
}

func (h *Handler) GetMarketplaceEntry(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid entry id.", ctx)
		return
	}

	var entry models.MarketplaceEntry
	if err := h.DB.Preload("Company").Preload("User").First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"entry": entry})
}

func (h *Handler) UpdateMarketplaceEntry(ctx iris.Context) {
	entry, ok := h.loadOwnEntry(ctx)
	if !ok {
		return
	}

	var input MarketplaceEntryUpdateInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Title != "" {
		entry.Title = input.Title
	}
	if input.Description != "" {
		entry.Description = input.Description
	}
	if input.Price != nil {
		entry.Price = *input.Price
	}
	if input.Status != "" {
		if input.Status != "active" && input.Status != "closed" {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Status must be active or closed.", ctx)
			return
		}
		entry.Status = input.Status
	}

	if err := h.DB.Save(entry).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"entry": entry})
}

func (h *Handler) DeleteMarketplaceEntry(ctx iris.Context) {
	entry, ok := h.loadOwnEntry(ctx)
	if !ok {
		return
	}

	if err := h.DB.Delete(entry).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"deleted": true})
}

func (h *Handler) loadOwnEntry(ctx iris.Context) (*models.MarketplaceEntry, bool) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return nil, false
	}
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid entry id.", ctx)
		return nil, false
	}

	var entry models.MarketplaceEntry
	if err := h.DB.First(&entry, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return nil, false
	}
	if entry.UserID != userID {
		ctx.StopWithStatus(iris.StatusForbidden)
		return nil, false
	}

	return &entry, true
}

type MarketplaceEntryInput struct {
	Title       string  `json:"title" validate:"required,max=256"`
	Description string  `json:"description" validate:"max=3000"`
	Category    string  `json:"category" validate:"required"`
	Price       float64 `json:"price" validate:"min=0"`
}

type MarketplaceEntryUpdateInput struct {
	Title       string   `json:"title" validate:"omitempty,max=256"`
	Description string   `json:"description" validate:"omitempty,max=3000"`
	Price       *float64 `json:"price"`
	Status      string   `json:"status"`
}
