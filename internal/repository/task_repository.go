package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/tenant-task-api/internal/database"
	"github.com/yukikurage/tenant-task-api/internal/models"
	"github.com/yukikurage/tenant-task-api/internal/utils"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id string, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.Where("tasks.id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// Count returns the number of tasks matching the filter
func (r *GormTaskRepository) Count(ctx context.Context, filter TaskFilter) (int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// Find retrieves one page of tasks matching the filter
func (r *GormTaskRepository) Find(ctx context.Context, filter TaskFilter, sort TaskSort, page utils.PaginationParams) ([]models.Task, error) {
	var tasks []models.Task

	err := r.filtered(ctx, filter).
		Order(orderClause(sort)).
		Order("tasks.id ASC").
		Scopes(database.Paginate(page)).
		Preload("Assignee", func(db *gorm.DB) *gorm.DB {
			return db.Select(publicUserColumns)
		}).
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *GormTaskRepository) filtered(ctx context.Context, filter TaskFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Scopes(database.ForTenant("tasks", filter.TenantID))

	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.AssignedTo != nil {
		query = query.Where("tasks.assigned_to = ?", *filter.AssignedTo)
	}

	return query
}

// orderClause maps a validated sort onto SQL. Enum columns sort by workflow
// rank rather than alphabetically, and tasks without a due date always come last.
func orderClause(sort TaskSort) string {
	dir := "DESC"
	if sort.Order == SortAsc {
		dir = "ASC"
	}

	switch sort.Field {
	case SortByTitle:
		return "tasks.title " + dir
	case SortByStatus:
		return rankExpression("tasks.status", statusStrings()) + " " + dir
	case SortByPriority:
		return rankExpression("tasks.priority", priorityStrings()) + " " + dir
	case SortByDueDate:
		return "CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END, tasks.due_date " + dir
	case SortByUpdatedAt:
		return "tasks.updated_at " + dir
	default:
		return "tasks.created_at " + dir
	}
}

func rankExpression(column string, values []string) string {
	var b strings.Builder
	b.WriteString("CASE " + column)
	for i, v := range values {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", v, i)
	}
	fmt.Fprintf(&b, " ELSE %d END", len(values))
	return b.String()
}

func statusStrings() []string {
	out := make([]string, len(models.TaskStatuses))
	for i, s := range models.TaskStatuses {
		out[i] = string(s)
	}
	return out
}

func priorityStrings() []string {
	out := make([]string, len(models.TaskPriorities))
	for i, p := range models.TaskPriorities {
		out[i] = string(p)
	}
	return out
}

// UpdateStatus changes the status only if the task still has the expected one
func (r *GormTaskRepository) UpdateStatus(ctx context.Context, id string, from, to models.TaskStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Task{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStatusChanged
	}
	return nil
}

// Delete soft deletes a task
func (r *GormTaskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Task{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
