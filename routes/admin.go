package routes

import (
	"errors"
	"time"

	"mpoint-server/models"
	"mpoint-server/utils"

	"github.com/kataras/iris/v12"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AdminLogin authenticates against the same user table but only lets
// admins through, then hands out the HTTP-only session cookie the admin
// panel rides on.
func (h *Handler) AdminLogin(ctx iris.Context) {
	var input LoginUserInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	if err := h.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Invalid email or password.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Invalid email or password.", ctx)
		return
	}

	if !user.IsAdmin() {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Invalid email or password.", ctx)
		return
	}

	token, err := utils.SignAdminSession(&user)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	utils.SetAdminSessionCookie(ctx, token)

	ctx.Values().Set("adminID", user.ID)
	utils.Audit(ctx, h.DB, "admin.login", "user", user.ID, nil, nil)

	ctx.JSON(iris.Map{
		"ID":        user.ID,
		"email":     user.Email,
		"firstName": user.FirstName,
		"lastName":  user.LastName,
	})
}

func (h *Handler) AdminLogout(ctx iris.Context) {
	utils.ClearAdminSessionCookie(ctx)
	ctx.JSON(iris.Map{"loggedOut": true})
}

// AdminListUsers supports a free-text search over name and email.
func (h *Handler) AdminListUsers(ctx iris.Context) {
	page, perPage := utils.Pagination(ctx)

	query := h.DB.Model(&models.User{})
	if search := ctx.URLParam("q"); search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"lower(first_name) LIKE lower(?) OR lower(last_name) LIKE lower(?) OR lower(email) LIKE lower(?)",
			like, like, like)
	}

	var total int64
	query.Count(&total)

	var users []models.User
	query.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&users)

	utils.JSONPage(ctx, users, page, perPage, total)
}

func (h *Handler) AdminGetUser(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid user id.", ctx)
		return
	}

	var user models.User
	if err := h.DB.Preload("Company").First(&user, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	var bookings []models.Booking
	h.DB.Where("user_id = ?", user.ID).Order("created_at DESC").Find(&bookings)

	ctx.JSON(iris.Map{"user": user, "bookings": bookings})
}

// AdminStats powers the dashboard counters.
func (h *Handler) AdminStats(ctx iris.Context) {
	var users, companies, matches, bookings, entries int64
	h.DB.Model(&models.User{}).Count(&users)
	h.DB.Model(&models.Company{}).Count(&companies)
	h.DB.Model(&models.Match{}).Where("status = ?", models.MatchConnected).Count(&matches)
	h.DB.Model(&models.Booking{}).Where("status = ?", models.BookingConfirmed).Count(&bookings)
	h.DB.Model(&models.MarketplaceEntry{}).Where("status = ?", "active").Count(&entries)

	ctx.JSON(iris.Map{
		"users":              users,
		"companies":          companies,
		"connectedMatches":   matches,
		"confirmedBookings":  bookings,
		"marketplaceEntries": entries,
	})
}

// AdminExpireBookings flags stale unpaid bookings and releases their
// seats. Run from the panel rather than a scheduler so the action is
// audited like any other admin mutation.
func (h *Handler) AdminExpireBookings(ctx iris.Context) {
	cutoff := time.Now().Add(-30 * time.Minute)

	var stale []models.Booking
	if err := h.DB.Where("payment_status = ? AND created_at < ?", models.PaymentPending, cutoff).
		Find(&stale).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	expired := 0
	for i := range stale {
		b := &stale[i]
		res := h.DB.Model(&models.Booking{}).
			Where("id = ? AND payment_status = ?", b.ID, models.PaymentPending).
			Updates(map[string]interface{}{
				"payment_status": models.PaymentExpired,
				"status":         models.BookingCancelled,
			})
		if res.Error != nil || res.RowsAffected == 0 {
			continue
		}
		h.DB.Model(&models.Event{}).Where("id = ?", b.EventID).
			Update("booked_count", gorm.Expr("booked_count - ?", b.Spaces))
		utils.Audit(ctx, h.DB, "booking.expire", "booking", b.ID, b, nil)
		expired++
	}

	ctx.JSON(iris.Map{"expired": expired})
}

// AdminRefundBooking marks a paid booking refunded and frees its seats.
// The money movement happens in the PayPal dashboard; this records the
// outcome on our side.
func (h *Handler) AdminRefundBooking(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid booking id.", ctx)
		return
	}

	var booking models.Booking
	if err := h.DB.First(&booking, id).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}
	before := booking

	if booking.PaymentStatus != models.PaymentPaid {
		utils.CreateError(iris.StatusConflict, "Booking Error", "Only paid bookings can be refunded.", ctx)
		return
	}

	res := h.DB.Model(&models.Booking{}).
		Where("id = ? AND payment_status = ?", booking.ID, models.PaymentPaid).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentRefunded,
			"status":         models.BookingCancelled,
		})
	if res.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if res.RowsAffected == 0 {
		utils.CreateError(iris.StatusConflict, "Booking Error", "Booking changed concurrently.", ctx)
		return
	}

	h.DB.Model(&models.Event{}).Where("id = ?", booking.EventID).
		Update("booked_count", gorm.Expr("booked_count - ?", booking.Spaces))

	h.DB.First(&booking, booking.ID)
	utils.Audit(ctx, h.DB, "booking.refund", "booking", booking.ID, before, booking)

	ctx.JSON(iris.Map{"booking": booking})
}
