package db

import (
	"gorm.io/gorm"

	"github.com/friendsincode/campday/internal/models"
)

// Migrate applies the schema for all persistent models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Day{},
		&models.Slot{},
		&models.Activity{},
	)
}
