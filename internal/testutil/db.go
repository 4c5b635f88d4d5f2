// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/tenant-task-api/internal/auth"
	"github.com/yukikurage/tenant-task-api/internal/database"
	"github.com/yukikurage/tenant-task-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory SQLite database that lives for the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db))
	return db
}

// CreateTenant inserts a tenant row.
func CreateTenant(t *testing.T, db *gorm.DB, id string) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{ID: id, Name: id}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

// CreateUser inserts a user with a real bcrypt hash of password.
func CreateUser(t *testing.T, db *gorm.DB, tenantID, email string, role models.Role) *models.User {
	t.Helper()
	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		TenantID:     tenantID,
		Name:         email,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTask inserts a task assigned to assignee.
func CreateTask(t *testing.T, db *gorm.DB, title string, assignee, creator *models.User) *models.Task {
	t.Helper()
	task := &models.Task{
		TenantID:    creator.TenantID,
		Title:       title,
		Description: "Test Description",
		AssignedTo:  assignee.ID,
		AssignedBy:  creator.ID,
		Status:      models.TaskStatusPending,
		Priority:    models.TaskPriorityMedium,
	}
	require.NoError(t, db.Create(task).Error)
	return task
}

// Claims builds verified claims for user.
func Claims(user *models.User) auth.Claims {
	return auth.Claims{UserID: user.ID, Role: user.Role, TenantID: user.TenantID}
}
