package routes

import (
	"errors"
	"log"
	"time"

	"mpoint-server/models"
	"mpoint-server/utils"

	"github.com/google/uuid"
	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// CreateBooking reserves spaces on an event. The price fields are snapshotted
// from the event at booking time. Seat accounting happens in one conditional
// UPDATE so concurrent bookings cannot oversell the event.
func (h *Handler) CreateBooking(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}

	var input CreateBookingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var event models.Event
	if err := h.DB.First(&event, input.EventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateNotFound(ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	if event.StartDate.Before(time.Now().Truncate(24 * time.Hour)) {
		utils.CreateError(iris.StatusBadRequest, "Booking Error", "Cannot book past events.", ctx)
		return
	}

	// Claim the spaces atomically; the guard in the WHERE clause makes a
	// concurrent over-claim impossible.
	claim := h.DB.Model(&models.Event{}).
		Where("id = ? AND booked_count + ? <= capacity", event.ID, input.Spaces).
		Update("booked_count", gorm.Expr("booked_count + ?", input.Spaces))
	if claim.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if claim.RowsAffected == 0 {
		utils.CreateError(iris.StatusConflict, "Booking Error", "Not enough spaces available.", ctx)
		return
	}

	booking := models.Booking{
		EventID:   event.ID,
		UserID:    userID,
		Reference: uuid.NewString(),
		Spaces:    input.Spaces,
		Currency:  event.Currency,
	}

	if event.ChargeFree {
		booking.PricePerSpace = 0
		booking.TotalAmount = 0
		booking.PaymentStatus = models.PaymentNotRequired
		booking.Status = models.BookingConfirmed
	} else {
		booking.PricePerSpace = event.Price
		booking.TotalAmount = event.Price * float64(input.Spaces)
		booking.PaymentStatus = models.PaymentPending
		booking.Status = models.BookingPending
		booking.PayPalOrderID = input.PayPalOrderID
	}

	if err := h.DB.Create(&booking).Error; err != nil {
		// release the claimed spaces; the booking row never existed
		h.DB.Model(&models.Event{}).
			Where("id = ?", event.ID).
			Update("booked_count", gorm.Expr("booked_count - ?", input.Spaces))
		utils.CreateInternalServerError(ctx)
		return
	}

	if booking.Status == models.BookingConfirmed {
		if _, err := h.Notifier.BookingConfirmed(ctx.Request().Context(), userID, event.Title, booking.ID); err != nil {
			log.Printf("booking %d confirmed but notification failed: %v", booking.ID, err)
		}
	}

	ctx.StatusCode(iris.StatusCreated)
	ctx.JSON(iris.Map{"booking": booking})
}

// ListBookings returns the caller's bookings with their events.
func (h *Handler) ListBookings(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}

	var bookings []models.Booking
	if err := h.DB.Where("user_id = ?", userID).
		Preload("Event").
		Order("created_at DESC").Find(&bookings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"bookings": bookings})
}

// CapturePayment captures the booking's PayPal order and marks it paid.
// Re-capturing an already paid booking is a no-op success, so a duplicate
// capture callback cannot double-apply.
func (h *Handler) CapturePayment(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid booking id.", ctx)
		return
	}

	var booking models.Booking
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).Preload("Event").First(&booking).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if booking.PaymentStatus == models.PaymentPaid {
		ctx.JSON(iris.Map{"booking": booking, "alreadyCaptured": true})
		return
	}
	if booking.PaymentStatus != models.PaymentPending {
		utils.CreateError(iris.StatusConflict, "Payment Error", "Booking is not awaiting payment.", ctx)
		return
	}

	var input CapturePaymentInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	orderID := booking.PayPalOrderID
	if input.PayPalOrderID != "" {
		orderID = input.PayPalOrderID
	}

	result, captureErr := h.PayPal.CaptureOrder(ctx.Request().Context(), orderID)
	if captureErr != nil {
		utils.HandleError(ctx, captureErr)
		return
	}
	if result.Status != "COMPLETED" {
		utils.CreateError(iris.StatusBadGateway, "Payment Error", "Payment capture did not complete: "+result.Status, ctx)
		return
	}

	// Only the writer that flips PENDING to PAID confirms and notifies; a
	// concurrent duplicate capture sees zero rows and reports alreadyCaptured.
	now := time.Now()
	res := h.DB.Model(&models.Booking{}).
		Where("id = ? AND payment_status = ?", booking.ID, models.PaymentPending).
		Updates(map[string]interface{}{
			"payment_status":   models.PaymentPaid,
			"status":           models.BookingConfirmed,
			"pay_pal_order_id": orderID,
			"paid_at":          now,
		})
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if res.RowsAffected == 0 {
		h.DB.Preload("Event").First(&booking, booking.ID)
		ctx.JSON(iris.Map{"booking": booking, "alreadyCaptured": true})
		return
	}
	booking.PaymentStatus = models.PaymentPaid
	booking.Status = models.BookingConfirmed
	booking.PayPalOrderID = orderID
	booking.PaidAt = &now

	if _, err := h.Notifier.BookingConfirmed(ctx.Request().Context(), userID, booking.Event.Title, booking.ID); err != nil {
		log.Printf("booking %d paid but notification failed: %v", booking.ID, err)
	}

	ctx.JSON(iris.Map{"booking": booking})
}

// CancelBooking releases the claimed spaces and marks the booking cancelled.
func (h *Handler) CancelBooking(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		ctx.StopWithStatus(iris.StatusUnauthorized)
		return
	}
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid booking id.", ctx)
		return
	}

	var booking models.Booking
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&booking).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	if booking.Status == models.BookingCancelled {
		ctx.JSON(iris.Map{"booking": booking})
		return
	}
	if booking.PaymentStatus == models.PaymentPaid {
		utils.CreateError(iris.StatusConflict, "Booking Error", "Paid bookings must be refunded by an administrator.", ctx)
		return
	}

	// Guard on the observed payment status so a racing cancel, capture or
	// expiry sweep cannot both win; spaces are released exactly once, by the
	// writer whose update applied.
	paymentStatus := booking.PaymentStatus
	if paymentStatus == models.PaymentPending {
		paymentStatus = models.PaymentExpired
	}
	res := h.DB.Model(&models.Booking{}).
		Where("id = ? AND status = ? AND payment_status = ?", booking.ID, booking.Status, booking.PaymentStatus).
		Updates(map[string]interface{}{
			"status":         models.BookingCancelled,
			"payment_status": paymentStatus,
		})
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if res.RowsAffected == 0 {
		utils.CreateError(iris.StatusConflict, "Booking Error", "Booking changed concurrently.", ctx)
		return
	}
	booking.Status = models.BookingCancelled
	booking.PaymentStatus = paymentStatus

	h.DB.Model(&models.Event{}).
		Where("id = ?", booking.EventID).
		Update("booked_count", gorm.Expr("booked_count - ?", booking.Spaces))

	ctx.JSON(iris.Map{"booking": booking})
}

type CreateBookingInput struct {
	EventID       uint   `json:"eventID" validate:"required"`
	Spaces        int    `json:"spaces" validate:"required,min=1,max=50"`
	PayPalOrderID string `json:"paypalOrderID"`
}

type CapturePaymentInput struct {
	PayPalOrderID string `json:"paypalOrderID"`
}
