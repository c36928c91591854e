package migration

import (
	coreport "github.com/amirhossein-jamali/payment-reconciler/internal/domain/port/core"
	"github.com/amirhossein-jamali/payment-reconciler/internal/infrastructure/adapter/model"
	"gorm.io/gorm"
)

// MigrationManager runs the schema migrations the store needs
type MigrationManager struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewMigrationManager creates a new migration manager
func NewMigrationManager(db *gorm.DB, logger coreport.Logger) *MigrationManager {
	return &MigrationManager{
		db:     db,
		logger: logger,
	}
}

// MigrateAll applies all schema migrations
func (m *MigrationManager) MigrateAll() error {
	m.logger.Info("Running database migrations", nil)

	if err := m.db.AutoMigrate(&model.PaymentTransaction{}); err != nil {
		m.logger.Error("Failed to migrate payment transactions", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	m.logger.Info("Database migrations completed", nil)
	return nil
}
