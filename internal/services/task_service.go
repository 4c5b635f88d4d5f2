package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/tenant-task-api/internal/auth"
	"github.com/yukikurage/tenant-task-api/internal/models"
	"github.com/yukikurage/tenant-task-api/internal/policy"
	"github.com/yukikurage/tenant-task-api/internal/repository"
	"github.com/yukikurage/tenant-task-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound            = errors.New("task not found")
	ErrPageOutOfRange          = errors.New("page out of range")
	ErrInvalidStatusTransition = errors.New("status transition not allowed")
)

// PageOutOfRangeError reports a page beyond the last one. It matches
// ErrPageOutOfRange with errors.Is.
type PageOutOfRangeError struct {
	Page       int
	TotalPages int
}

func (e *PageOutOfRangeError) Error() string {
	return fmt.Sprintf("page %d out of range (total pages: %d)", e.Page, e.TotalPages)
}

func (e *PageOutOfRangeError) Is(target error) bool {
	return target == ErrPageOutOfRange
}

// TaskService handles task business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
	}
}

// CreateTaskInput represents input for creating a task. AssignedTo is a
// user ID or email; DueDate is RFC 3339 or YYYY-MM-DD.
type CreateTaskInput struct {
	Title       string
	Description string
	AssignedTo  string
	Status      string
	Priority    string
	DueDate     string
}

// ListTasksInput represents filters, sorting and paging for listing tasks
type ListTasksInput struct {
	Status     string
	Priority   string
	AssignedTo string
	SortBy     string
	SortOrder  string
	Pagination utils.PaginationParams
}

// TaskPage is one page of a task listing
type TaskPage struct {
	Tasks      []models.Task
	Page       int
	Limit      int
	Total      int64
	TotalPages int
}

// Empty reports whether the listing matched nothing at all.
func (p *TaskPage) Empty() bool {
	return p.Total == 0
}

// Create creates a task in the caller's tenant
func (s *TaskService) Create(ctx context.Context, input CreateTaskInput, claims auth.Claims) (*models.Task, error) {
	if err := policy.RequireRole(claims, models.RoleManager); err != nil {
		return nil, err
	}

	draft, err := validateTask(input)
	if err != nil {
		return nil, err
	}

	assignee, err := s.userRepo.FindInTenant(ctx, claims.TenantID, draft.assignedTo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fieldError("assignedTo", "must be a user of your company")
		}
		return nil, fmt.Errorf("failed to resolve assignee: %w", err)
	}

	task := &models.Task{
		TenantID:    claims.TenantID,
		Title:       draft.title,
		Description: draft.description,
		AssignedTo:  assignee.ID,
		AssignedBy:  claims.UserID,
		Status:      draft.status,
		Priority:    draft.priority,
		DueDate:     draft.dueDate,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	task.Assignee = *assignee
	return task, nil
}

// List returns one page of the caller's tenant tasks. Employees only ever
// see the tasks assigned to them.
func (s *TaskService) List(ctx context.Context, input ListTasksInput, claims auth.Claims) (*TaskPage, error) {
	q, err := validateListTasks(input)
	if err != nil {
		return nil, err
	}

	q.filter.TenantID = claims.TenantID
	page := &TaskPage{
		Tasks: []models.Task{},
		Page:  q.pagination.Page,
		Limit: q.pagination.Limit,
	}

	if !claims.IsManager() {
		q.filter.AssignedTo = &claims.UserID
	} else if ref := q.filter.AssignedTo; ref != nil && strings.Contains(*ref, "@") {
		assignee, err := s.userRepo.FindInTenant(ctx, claims.TenantID, *ref)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return page, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve assignee: %w", err)
		}
		q.filter.AssignedTo = &assignee.ID
	}

	total, err := s.taskRepo.Count(ctx, q.filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	if total == 0 {
		return page, nil
	}

	page.Total = total
	page.TotalPages = utils.TotalPages(total, q.pagination.Limit)
	if q.pagination.Page > page.TotalPages {
		return nil, &PageOutOfRangeError{Page: q.pagination.Page, TotalPages: page.TotalPages}
	}

	tasks, err := s.taskRepo.Find(ctx, q.filter, q.sort, q.pagination)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	page.Tasks = tasks
	return page, nil
}

// Get returns a task the caller is allowed to see
func (s *TaskService) Get(ctx context.Context, id string, claims auth.Claims) (*models.Task, error) {
	task, err := s.find(ctx, id, "Assignee")
	if err != nil {
		return nil, err
	}
	if err := policy.CanViewTask(claims, *task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete soft deletes a task of the caller's tenant
func (s *TaskService) Delete(ctx context.Context, id string, claims auth.Claims) error {
	if err := policy.RequireRole(claims, models.RoleManager); err != nil {
		return err
	}

	task, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := policy.CanManageTask(claims, *task); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(ctx, task.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// UpdateStatus moves a task along its workflow
func (s *TaskService) UpdateStatus(ctx context.Context, id, status string, claims auth.Claims) (*models.Task, error) {
	if err := policy.RequireRole(claims, models.RoleManager); err != nil {
		return nil, err
	}

	next := models.TaskStatus(strings.TrimSpace(status))
	if !next.Valid() {
		return nil, fieldError("status", "must be one of pending, in-progress, completed, cancelled")
	}

	task, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanManageTask(claims, *task); err != nil {
		return nil, err
	}

	if task.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: task is already %s", ErrInvalidStatusTransition, task.Status)
	}
	if !task.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, task.Status, next)
	}

	if err := s.taskRepo.UpdateStatus(ctx, task.ID, task.Status, next); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, fmt.Errorf("%w: task was modified concurrently", ErrInvalidStatusTransition)
		}
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	return s.find(ctx, task.ID, "Assignee")
}

func (s *TaskService) find(ctx context.Context, id string, preload ...string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, id, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}
