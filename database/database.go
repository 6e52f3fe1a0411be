package database

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"modsquad-api/models"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.Build{},
		&models.Image{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := addCustomIndexes(db); err != nil {
		return fmt.Errorf("failed to add custom indexes: %w", err)
	}

	return nil
}

func addCustomIndexes(db *gorm.DB) error {
	// Garage views list an owner's builds newest first
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_builds_user_created ON builds(user_id, created_at DESC)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for builds: %v\n", err)
	}

	// Image rows are fetched per build, oldest first
	if err := db.Exec("CREATE INDEX IF NOT EXISTS idx_images_build_created ON images(build_id, created_at)").Error; err != nil {
		fmt.Printf("Warning: Could not create index for images: %v\n", err)
	}

	return nil
}

// SeedAdmin makes sure the administrator account exists. It is safe to call
// on every startup.
func SeedAdmin(db *gorm.DB) error {
	var existing models.User
	err := db.Where("email = ?", "admin@modsquad.com").First(&existing).Error
	if err == nil {
		if !existing.IsAdmin {
			return db.Model(&existing).Update("is_admin", true).Error
		}
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("Admin@123"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		ID:       uuid.New().String(),
		Username: "admin",
		Email:    "admin@modsquad.com",
		Password: string(hashedPassword),
		IsAdmin:  true,
		Profile: models.Profile{
			ID:       uuid.New().String(),
			Bio:      "ModSquad Administrator",
			Location: "ModSquad HQ",
		},
	}

	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	return nil
}
