package dto

import (
	"time"

	"github.com/yukikurage/tenant-task-api/internal/models"
	"github.com/yukikurage/tenant-task-api/internal/services"
)

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          string              `json:"id"`
	TenantID    string              `json:"tenantId"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	AssignedTo  string              `json:"assignedTo"`
	AssignedBy  string              `json:"assignedBy"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"dueDate"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
	Assignee    *UserSummaryDTO     `json:"assignee,omitempty"`
}

// PageMetaDTO describes where a page sits in a listing
type PageMetaDTO struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalTasks  int64 `json:"totalTasks"`
	Limit       int   `json:"limit"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
	NoResults   bool  `json:"noResults"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO   `json:"tasks"`
	Pagination PageMetaDTO `json:"pagination"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		TenantID:    task.TenantID,
		Title:       task.Title,
		Description: task.Description,
		AssignedTo:  task.AssignedTo,
		AssignedBy:  task.AssignedBy,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Include assignee if preloaded
	if task.Assignee.ID != "" {
		assignee := ToUserSummaryDTO(task.Assignee)
		dto.Assignee = &assignee
	}

	return dto
}

// ToTaskListResponse converts a page of tasks to TaskListResponse
func ToTaskListResponse(page *services.TaskPage) TaskListResponse {
	items := make([]TaskDTO, len(page.Tasks))
	for i, task := range page.Tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks: items,
		Pagination: PageMetaDTO{
			CurrentPage: page.Page,
			TotalPages:  page.TotalPages,
			TotalTasks:  page.Total,
			Limit:       page.Limit,
			HasNextPage: page.Page < page.TotalPages,
			HasPrevPage: page.Page > 1 && page.TotalPages > 0,
			NoResults:   page.Empty(),
		},
	}
}
