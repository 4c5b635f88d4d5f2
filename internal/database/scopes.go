package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/tenant-task-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset()).Limit(params.Limit)
	}
}

// ForTenant restricts a query on table to one tenant.
func ForTenant(table, tenantID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+".tenant_id = ?", tenantID)
	}
}
