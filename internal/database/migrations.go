package database

import (
	"fmt"

	"github.com/yukikurage/tenant-task-api/internal/logger"
	"github.com/yukikurage/tenant-task-api/internal/models"
	"gorm.io/gorm"
)

// Models lists every persisted model in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.Tenant{},
		&models.User{},
		&models.Task{},
	}
}

// Migrate creates or updates the schema and the listing indexes.
func Migrate(db *gorm.DB) error {
	logger.Info("Running database migrations")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := addIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	logger.Info("Database migrations completed")
	return nil
}

// addIndexes creates the composite indexes used by tenant-scoped listing.
func addIndexes(db *gorm.DB) error {
	indexes := []struct {
		name    string
		columns string
	}{
		{"idx_tasks_tenant_created_at", "tenant_id, created_at"},
		{"idx_tasks_tenant_assigned_to", "tenant_id, assigned_to"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(&models.Task{}, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON tasks (%s)", idx.name, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
		logger.Info("Created index", "index", idx.name, "columns", idx.columns)
	}

	return nil
}
