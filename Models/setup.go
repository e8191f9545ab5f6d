package Models

import (
	"log"
	"os"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = "database.db"
	}

	connection, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	DB = connection

	// 1. Base records with no dependencies
	DB.AutoMigrate(
		&Organization{},
		&User{},
		&Site{},
		&FCMToken{},
	)

	// 2. Records keyed to an organization or site
	DB.AutoMigrate(
		&Asset{},
		&CheckTemplate{},
		&CheckSchedule{},
	)

	// 3. Records produced by the scheduling and completion workflows
	DB.AutoMigrate(
		&CheckTask{},
		&CheckEntry{},
		&Defect{},
		&FireDrill{},
		&TrainingRecord{},
	)
}
