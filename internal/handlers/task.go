package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tenant-task-api/internal/dto"
	apierrors "github.com/yukikurage/tenant-task-api/internal/errors"
	"github.com/yukikurage/tenant-task-api/internal/logger"
	"github.com/yukikurage/tenant-task-api/internal/middleware"
	"github.com/yukikurage/tenant-task-api/internal/services"
	"github.com/yukikurage/tenant-task-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns one page of the caller's tenant tasks.
// Employees only see the tasks assigned to them.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	params, problems := utils.GetPaginationParams(c)
	if len(problems) > 0 {
		apierrors.BadRequestWithDetails(c, "Validation failed", fieldProblems(problems))
		return
	}

	page, err := h.taskService.List(c.Request.Context(), services.ListTasksInput{
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		AssignedTo: c.Query("assignedTo"),
		SortBy:     c.Query("sortBy"),
		SortOrder:  c.Query("sortOrder"),
		Pagination: params,
	}, claims)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(page))
}

// GetTask returns a specific task by ID
func (h *TaskHandler) GetTask(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// CreateTask creates a new task in the caller's tenant
func (h *TaskHandler) CreateTask(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateTaskRequest struct {
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description" binding:"required"`
		AssignedTo  string `json:"assignedTo" binding:"required"`
		Status      string `json:"status"`
		Priority    string `json:"priority"`
		DueDate     string `json:"dueDate"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.Create(c.Request.Context(), services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
	}, claims)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTaskStatus moves a task to a new status
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type UpdateStatusRequest struct {
		Status string `json:"status" binding:"required"`
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	task, err := h.taskService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, claims)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id := c.Param("id")
	if err := h.taskService.Delete(c.Request.Context(), id, claims); err != nil {
		respondError(c, err)
		return
	}

	logger.InfoContext(c.Request.Context(), "Task deleted", "task_id", id, "by", claims.UserID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}
