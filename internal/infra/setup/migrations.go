package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"thumbio/internal/domain"
)

// MigrateDB creates or updates the schema for every persisted model.
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}
	if err := db.AutoMigrate(&domain.Canvas{}); err != nil {
		logrus.WithError(err).Error("Setup: failed to auto-migrate canvases table")
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}
	logrus.Info("Setup: database migration completed")
	return nil
}
