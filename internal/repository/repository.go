package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/tenant-task-api/internal/models"
	"github.com/yukikurage/tenant-task-api/internal/utils"
)

var (
	// ErrDuplicateEmail is returned when the unique email index rejects a write.
	ErrDuplicateEmail = errors.New("user repository: email already exists")
	// ErrDuplicateTenant is returned when a tenant ID is already registered.
	ErrDuplicateTenant = errors.New("user repository: tenant already exists")
	// ErrStatusChanged is returned when a task's status moved between read and write.
	ErrStatusChanged = errors.New("task repository: status changed concurrently")
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id string, preload ...string) (*models.Task, error)

	// Count returns how many tasks match the filter
	Count(ctx context.Context, filter TaskFilter) (int64, error)

	// Find returns one sorted page of tasks matching the filter
	Find(ctx context.Context, filter TaskFilter, sort TaskSort, page utils.PaginationParams) ([]models.Task, error)

	// UpdateStatus moves a task from one status to another
	UpdateStatus(ctx context.Context, id string, from, to models.TaskStatus) error

	// Delete soft deletes a task
	Delete(ctx context.Context, id string) error
}

// TaskFilter holds filtering options for listing tasks. TenantID is mandatory.
type TaskFilter struct {
	TenantID   string
	Status     *models.TaskStatus
	Priority   *models.TaskPriority
	AssignedTo *string
}

// TaskSortField names a sortable task attribute as exposed in the API.
type TaskSortField string

const (
	SortByTitle     TaskSortField = "title"
	SortByStatus    TaskSortField = "status"
	SortByPriority  TaskSortField = "priority"
	SortByDueDate   TaskSortField = "dueDate"
	SortByCreatedAt TaskSortField = "createdAt"
	SortByUpdatedAt TaskSortField = "updatedAt"
)

// Valid reports whether f is a supported sort field.
func (f TaskSortField) Valid() bool {
	switch f {
	case SortByTitle, SortByStatus, SortByPriority, SortByDueDate, SortByCreatedAt, SortByUpdatedAt:
		return true
	}
	return false
}

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) Valid() bool {
	return o == SortAsc || o == SortDesc
}

// TaskSort selects the ordering of a task listing.
type TaskSort struct {
	Field TaskSortField
	Order SortOrder
}

// DefaultTaskSort is newest first.
func DefaultTaskSort() TaskSort {
	return TaskSort{Field: SortByCreatedAt, Order: SortDesc}
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user in an existing tenant
	Create(ctx context.Context, user *models.User) error

	// CreateWithTenant creates a tenant and its first user in one transaction
	CreateWithTenant(ctx context.Context, user *models.User, tenant *models.Tenant) error

	// TenantExists reports whether a tenant with the given ID exists
	TenantExists(ctx context.Context, tenantID string) (bool, error)

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindInTenant finds a user of the tenant by ID or email
	FindInTenant(ctx context.Context, tenantID, idOrEmail string) (*models.User, error)

	// EmailExists reports whether any tenant already uses the email
	EmailExists(ctx context.Context, email string) (bool, error)

	// ListByTenant lists the users of a tenant without credential fields
	ListByTenant(ctx context.Context, tenantID string) ([]models.User, error)

	// Delete removes a user and retires the tasks assigned to them
	Delete(ctx context.Context, id string) error
}

// RevocationStore remembers logged-out token IDs until they would have expired anyway.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
