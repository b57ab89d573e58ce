package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openIncidentIndexSQL backs the single-open-incident invariant. Both
// PostgreSQL and SQLite support partial unique indexes with this syntax.
const openIncidentIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_incidents_open_monitor ON incidents (monitor_id) WHERE resolved_at IS NULL`

// Open connects to the database named by dsn. postgres:// and postgresql://
// DSNs use the PostgreSQL driver; anything else is treated as a SQLite path.
func Open(dsn string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(dialectorFor(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Printf("Database connection established (%s)", db.Dialector.Name())
	return db, nil
}

func dialectorFor(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
}

// AutoMigrate creates or updates the engine's tables and indexes
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&Monitor{},
		&Check{},
		&Incident{},
		&Alert{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := db.Exec(openIncidentIndexSQL).Error; err != nil {
		return fmt.Errorf("failed to create open incident index: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// ParseLogLevel maps LOG_LEVEL values onto gorm log levels
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Close closes the underlying connection pool
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
