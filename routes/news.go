package routes

import (
	"errors"
	"time"

	"mpoint-server/models"
	"mpoint-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// ListNews is public; it serves only published articles.
func (h *Handler) ListNews(ctx iris.Context) {
	page, perPage := utils.Pagination(ctx)

	query := h.DB.Model(&models.News{}).Where("published_at IS NOT NULL AND published_at <= ?", time.Now())

	var total int64
	query.Count(&total)

	var news []models.News
	query.Order("published_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&news)

	utils.JSONPage(ctx, news, page, perPage, total)
}

func (h *Handler) GetNews(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid news id.", ctx)
		return
	}

	var article models.News
	if err := h.DB.First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"news": article})
}

// AdminCreateNews lives behind the admin session cookie gate.
func (h *Handler) AdminCreateNews(ctx iris.Context) {
	var input NewsInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	article := models.News{
		Title:    input.Title,
		Teaser:   input.Teaser,
		Content:  input.Content,
		ImageURL: input.ImageURL,
	}
	if v := ctx.Values().Get("adminID"); v != nil {
		if id, ok := v.(uint); ok {
			article.AuthorID = id
		}
	}
	if input.Publish {
		now := time.Now()
		article.PublishedAt = &now
	}

	if err := h.DB.Create(&article).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, h.DB, "news.create", "news", article.ID, nil, article)

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"news": article})
}

func (h *Handler) AdminUpdateNews(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid news id.", ctx)
		return
	}

	var article models.News
	if err := h.DB.First(&article, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	before := article

	var input NewsInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	article.Title = input.Title
	article.Teaser = input.Teaser
	article.Content = input.Content
	article.ImageURL = input.ImageURL
	if input.Publish && article.PublishedAt == nil {
		now := time.Now()
		article.PublishedAt = &now
	}
	if !input.Publish {
		article.PublishedAt = nil
	}

	if err := h.DB.Save(&article).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, h.DB, "news.update", "news", article.ID, before, article)

	ctx.JSON(iris.Map{"news": article})
}

func (h *Handler) AdminDeleteNews(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid news id.", ctx)
		return
	}

	var article models.News
	if err := h.DB.First(&article, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if err := h.DB.Delete(&article).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, h.DB, "news.delete", "news", article.ID, article, nil)

	ctx.JSON(iris.Map{"deleted": true})
}

type NewsInput struct {
	Title    string `json:"title" validate:"required,max=256"`
	Teaser   string `json:"teaser" validate:"max=500"`
	Content  string `json:"content" validate:"required"`
	ImageURL string `json:"imageURL" validate:"max=512"`
	Publish  bool   `json:"publish"`
}
