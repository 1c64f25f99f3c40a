package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/gwarren3210/song-recommender/internal/config"
)

// Connect opens the Postgres connection pool. The handle is returned to the
// caller and passed down explicitly; there is no package-level DB.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.DBPoolMin)
	sqlDB.SetMaxOpenConns(cfg.DBPoolMax)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Printf("[Database] connected to %s:%s/%s (pool %d-%d)",
		cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBPoolMin, cfg.DBPoolMax)
	return db, nil
}
