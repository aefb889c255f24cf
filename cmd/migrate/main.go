package main

import (
	"log"
	"os"

	"identity-coach-be/internal/model"
	"identity-coach-be/pkg/database"

	"github.com/joho/godotenv"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn, database.WithLogLevel(gormlogger.Info))
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Starting coaching schema migration...")

	models := []interface{}{
		&model.CoachingSession{},
		&model.Identity{},
		&model.ActionLog{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// Post-Migration: indexes AutoMigrate cannot express
	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_identities_user_created ON identities (user_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_coaching_action_logs_user_created ON coaching_action_logs (user_id, created_at DESC);`,
	}

	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	log.Println("✅ Success: Coaching schema migration completed.")
}
