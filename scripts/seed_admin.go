package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"mpoint-server/models"
	"mpoint-server/storage"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Bootstraps the first admin account from ADMIN_EMAIL / ADMIN_PASSWORD.
// Run once after deploying; an existing account with that email is
// promoted instead of duplicated.
func main() {
	godotenv.Load()

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD are required")
	}

	db, err := storage.ConnectDB()
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	var user models.User
	err = db.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		if err := db.Model(&user).Update("role", "super_admin").Error; err != nil {
			log.Fatalf("promoting user: %v", err)
		}
		fmt.Printf("promoted existing user %s to super_admin\n", email)
	case errors.Is(err, gorm.ErrRecordNotFound):
		hashed, hashErr := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if hashErr != nil {
			log.Fatalf("hashing password: %v", hashErr)
		}
		user = models.User{
			FirstName: "Admin",
			LastName:  "Account",
			Email:     email,
			Password:  string(hashed),
			Role:      "super_admin",
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("creating admin: %v", err)
		}
		fmt.Printf("created super_admin %s\n", email)
	default:
		log.Fatalf("looking up user: %v", err)
	}
}
