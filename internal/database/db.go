package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/zaqqye/vdi_docgen/internal/config"
	"github.com/zaqqye/vdi_docgen/internal/models"
)

// GormConfig is shared by every driver. Driver errors are translated so a
// duplicate primary key surfaces as gorm.ErrDuplicatedKey.
func GormConfig(level logger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}
}

// Connect opens the database selected by DB_DRIVER.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	gcfg := GormConfig(logger.Warn)
	switch cfg.DBDriver {
	case "sqlite":
		if dir := filepath.Dir(cfg.DBPath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
		return gorm.Open(sqlite.Open(cfg.DBPath), gcfg)
	case "postgres", "":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode,
		)
		return gorm.Open(postgres.Open(dsn), gcfg)
	}
	return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.SubmissionEntry{})
}
