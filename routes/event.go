package routes

import (
	"errors"
	"time"

	"mpoint-server/models"
	"mpoint-server/utils"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// ListEvents returns upcoming events; past ones are filtered unless asked for.
func (h *Handler) ListEvents(ctx iris.Context) {
	page, perPage := utils.Pagination(ctx)

	query := h.DB.Model(&models.Event{})
	if ctx.URLParamDefault("include_past", "") != "true" {
		query = query.Where("start_date >= ?", time.Now().Truncate(24*time.Hour))
	}

	var total int64
	query.Count(&total)

	var events []models.Event
	query.Order("start_date").Offset((page - 1) * perPage).Limit(perPage).Find(&events)

	utils.JSONPage(ctx, events, page, perPage, total)
}

func (h *Handler) GetEvent(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid event id.", ctx)
		return
	}

	var event models.Event
	if err := h.DB.Preload("Organizer").First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"event":           event,
		"availableSpaces": event.Capacity - event.BookedCount,
	})
}

// CreateEvent is admin-only (gated by middleware in main).
func (h *Handler) CreateEvent(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}

	var input CreateEventInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	startDate, err := time.Parse("2006-01-02", input.StartDate)
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid start date format, expected YYYY-MM-DD.", ctx)
		return
	}
	endDate := startDate
	if input.EndDate != "" {
		endDate, err = time.Parse("2006-01-02", input.EndDate)
		if err != nil || endDate.Before(startDate) {
			utils.CreateError(iris.StatusBadRequest, "Validation Error", "Invalid end date.", ctx)
			return
		}
	}

	currency := input.Currency
	if currency == "" {
		currency = "EUR"
	}

	event := models.Event{
		Title:       input.Title,
		Description: input.Description,
		Location:    input.Location,
		StartDate:   startDate,
		EndDate:     endDate,
		Price:       input.Price,
		Currency:    currency,
		ChargeFree:  input.ChargeFree,
		Capacity:    input.Capacity,
		OrganizerID: userID,
	}
	if err := h.DB.Create(&event).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"event": event})
}

type CreateEventInput struct {
	Title       string  `json:"title" validate:"required,max=256"`
	Description string  `json:"description" validate:"max=3000"`
	Location    string  `json:"location" validate:"max=256"`
	StartDate   string  `json:"startDate" validate:"required"`
	EndDate     string  `json:"endDate"`
	Price       float64 `json:"price" validate:"min=0"`
	Currency    string  `json:"currency" validate:"omitempty,len=3"`
	ChargeFree  bool    `json:"chargeFree"`
	Capacity    int     `json:"capacity" validate:"required,min=1"`
}
