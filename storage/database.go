package storage

import (
	"fmt"
	"log"
	"os"

	"mpoint-server/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnectDB opens the Postgres connection and runs migrations. The returned
// handle is owned by main and injected into handlers and services; no
// package-level singleton.
func ConnectDB() (*gorm.DB, error) {
	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		return nil, fmt.Errorf("DB_CONNECTION_STRING environment variable is required")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		// Needed so unique index violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to db: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("database connected and migrated")
	return db, nil
}

// Migrate creates or updates the schema for all platform entities.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Match{},
		&models.Group{},
		&models.GroupMember{},
		&models.GroupInvite{},
		&models.Notification{},
		&models.Event{},
		&models.Booking{},
		&models.Message{},
		&models.MarketplaceEntry{},
		&models.News{},
		&models.AuditLog{},
	)
}
