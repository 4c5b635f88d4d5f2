package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/tenant-task-api/internal/models"
	"gorm.io/gorm"
)

// publicUserColumns is the projection returned by listings. Credential and
// token columns are never selected.
var publicUserColumns = []string{"id", "tenant_id", "name", "email", "role", "created_at", "updated_at"}

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// Create creates a new user
func (r *GormUserRepository) Create(ctx context.Context, user *models.User) error {
	return translateUserError(r.db.WithContext(ctx).Create(user).Error)
}

// CreateWithTenant creates a tenant and its first user atomically.
func (r *GormUserRepository) CreateWithTenant(ctx context.Context, user *models.User, tenant *models.Tenant) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: %v", ErrDuplicateTenant, err)
			}
			return fmt.Errorf("create tenant: %w", err)
		}

		user.TenantID = tenant.ID
		if err := tx.Create(user).Error; err != nil {
			return translateUserError(err)
		}
		return nil
	})
}

// TenantExists reports whether the tenant is registered
func (r *GormUserRepository) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Tenant{}).Where("id = ?", tenantID).Count(&count).Error
	return count > 0, err
}

// FindByID finds a user by ID
func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by email
func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindInTenant resolves an assignee reference, which may be an ID or an email
func (r *GormUserRepository) FindInTenant(ctx context.Context, tenantID, idOrEmail string) (*models.User, error) {
	var user models.User
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if strings.Contains(idOrEmail, "@") {
		query = query.Where("email = ?", normalizeEmail(idOrEmail))
	} else {
		query = query.Where("id = ?", idOrEmail)
	}

	if err := query.First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailExists checks the email across all tenants
func (r *GormUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", normalizeEmail(email)).
		Count(&count).Error
	return count > 0, err
}

// ListByTenant lists all users of a tenant
func (r *GormUserRepository) ListByTenant(ctx context.Context, tenantID string) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Select(publicUserColumns).
		Where("tenant_id = ?", tenantID).
		Order("created_at ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Delete removes the user and soft deletes the tasks assigned to them in a transaction
func (r *GormUserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assigned_to = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func translateUserError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrDuplicateEmail, err)
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
