package routes

import (
	"encoding/json"
	"errors"

	"mpoint-server/models"
	"mpoint-server/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kataras/iris/v12"
)

// CreateOrUpdateCompany upserts the caller's company profile. A user owns at
// most one company (unique index on owner_id).
func (h *Handler) CreateOrUpdateCompany(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}

	var input CompanyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var company models.Company
	err := h.DB.Where("owner_id = ?", userID).First(&company).Error
	isNew := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !isNew {
		utils.CreateInternalServerError(ctx)
		return
	}

	company.OwnerID = userID
	company.Name = input.Name
	company.Sector = input.Sector
	company.Size = input.Size
	company.Description = input.Description
	company.Website = input.Website
	company.City = input.City
	if input.Goals != nil {
		company.Goals = datatypes.JSON(input.Goals)
	}

	if err := h.DB.Save(&company).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if isNew {
		ctx.StatusCode(iris.StatusCreated)
	}
	ctx.JSON(iris.Map{"company": company})
}

func (h *Handler) GetCompany(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid company id.", ctx)
		return
	}

	var company models.Company
	if err := h.DB.First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"company": company})
}

// GetMyCompany returns the caller's own company profile.
func (h *Handler) GetMyCompany(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}

	var company models.Company
	if err := h.DB.Where("owner_id = ?", userID).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"company": company})
}

// ListCompanies supports sector filtering and pagination for the directory.
func (h *Handler) ListCompanies(ctx iris.Context) {
	page, perPage := utils.Pagination(ctx)
	sector := ctx.URLParamDefault("sector", "")

	query := h.DB.Model(&models.Company{})
	if sector != "" {
		query = query.Where("sector = ?", sector)
	}

	var total int64
	query.Count(&total)

	var companies []models.Company
	query.Order("name").Offset((page - 1) * perPage).Limit(perPage).Find(&companies)

	utils.JSONPage(ctx, companies, page, perPage, total)
}

type CompanyInput struct {
	Name        string `json:"name" validate:"required,max=256"`
	Sector      string `json:"sector" validate:"max=128"`
	Size        string `json:"size" validate:"max=32"`
	Goals       json.RawMessage `json:"goals"`
	Description string `json:"description" validate:"max=3000"`
	Website     string `json:"website" validate:"omitempty,url,max=512"`
	City        string `json:"city" validate:"max=128"`
}
