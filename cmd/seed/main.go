package main

import (
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"syspres_app/internal/models"
	"syspres_app/internal/services"
)

// Seeds the admin operator and the default company settings. Safe to
// run more than once.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	username := os.Getenv("ADMIN_USER")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("ADMIN_PASSWORD not set")
	}

	var existing models.User
	err = db.Where("username = ?", username).First(&existing).Error
	switch {
	case err == nil:
		log.Printf("User %q already exists, skipping", username)
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := services.HashPassword(password)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		admin := models.User{
			Username:     username,
			PasswordHash: hash,
			Permissions:  models.JoinPermissions(models.AllPermissions),
			IsActive:     true,
		}
		if err := db.Create(&admin).Error; err != nil {
			log.Fatalf("Failed to create admin user: %v", err)
		}
		log.Printf("Created admin user %q", username)
	default:
		log.Fatalf("Failed to look up user: %v", err)
	}

	var settings models.CompanySettings
	err = db.First(&settings).Error
	switch {
	case err == nil:
		log.Println("Company settings already present, skipping")
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(&models.CompanySettings{Name: "SysPres"}).Error; err != nil {
			log.Fatalf("Failed to create company settings: %v", err)
		}
		log.Println("Created default company settings")
	default:
		log.Fatalf("Failed to look up company settings: %v", err)
	}
}
