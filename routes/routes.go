package routes

import (
	"mpoint-server/services"
	"mpoint-server/storage"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler carries the injected dependencies for all route handlers. It is
// constructed once in main; handlers hang off it as methods.
type Handler struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Files    *storage.FileStore
	PayPal   *services.PayPalClient
	Notifier *services.NotificationDispatcher
	Matcher  *services.Matcher
}

func NewHandler(db *gorm.DB, rdb *redis.Client, files *storage.FileStore, paypal *services.PayPalClient) *Handler {
	return &Handler{
		DB:       db,
		Redis:    rdb,
		Files:    files,
		PayPal:   paypal,
		Notifier: services.NewNotificationDispatcher(db),
		Matcher:  services.NewMatcher(db),
	}
}
