package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/yukikurage/tenant-task-api/internal/constants"
	"github.com/yukikurage/tenant-task-api/internal/models"
	"github.com/yukikurage/tenant-task-api/internal/repository"
	"github.com/yukikurage/tenant-task-api/internal/utils"
)

var validate = validator.New()

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every problem found in one input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a problem with field.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Err returns nil when nothing was recorded.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func fieldError(field, message string) error {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

func requireText(v *ValidationError, field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		v.Add(field, "is required")
	}
	return value
}

func checkEmail(v *ValidationError, raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		v.Add("email", "is required")
	} else if err := validate.Var(email, "email"); err != nil {
		v.Add("email", "must be a valid email address")
	}
	return email
}

func checkPassword(v *ValidationError, password string) {
	switch {
	case len(password) < constants.MinPasswordLength:
		v.Add("password", fmt.Sprintf("must be at least %d characters", constants.MinPasswordLength))
	case len(password) > constants.MaxPasswordLength:
		v.Add("password", fmt.Sprintf("must be at most %d bytes", constants.MaxPasswordLength))
	}
}

func checkRole(v *ValidationError, raw string, fallback models.Role) models.Role {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	role, ok := models.ParseRole(raw)
	if !ok {
		v.Add("role", "must be one of manager, employee")
	}
	return role
}

// userDraft is a validated, normalised user ready to persist.
type userDraft struct {
	name     string
	email    string
	password string
	role     models.Role
}

func validateUser(name, email, password, role string, defaultRole models.Role) (userDraft, *ValidationError) {
	v := &ValidationError{}
	draft := userDraft{
		name:     strings.TrimSpace(name),
		email:    checkEmail(v, email),
		password: password,
		role:     checkRole(v, role, defaultRole),
	}
	checkPassword(v, password)
	return draft, v
}

func validateSignup(input SignupInput) (userDraft, string, error) {
	draft, v := validateUser(input.Name, input.Email, input.Password, input.Role, models.RoleManager)
	if draft.role != "" && draft.role != models.RoleManager {
		v.Add("role", "public signup creates managers only")
	}

	tenantID := strings.TrimSpace(input.TenantID)
	if tenantID != "" {
		if err := validate.Var(tenantID, "max=64,printascii"); err != nil || strings.ContainsAny(tenantID, " \t") {
			v.Add("tenantId", "must be at most 64 printable characters without spaces")
		}
	}
	return draft, tenantID, v.Err()
}

// ParseDueDate accepts an RFC 3339 timestamp or a calendar date.
func ParseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q", raw)
	}
	return &t, nil
}

// taskDraft is a validated, normalised task ready to persist.
type taskDraft struct {
	title       string
	description string
	assignedTo  string
	status      models.TaskStatus
	priority    models.TaskPriority
	dueDate     *time.Time
}

func validateTask(input CreateTaskInput) (taskDraft, error) {
	v := &ValidationError{}
	draft := taskDraft{
		title:       requireText(v, "title", input.Title),
		description: requireText(v, "description", input.Description),
		assignedTo:  requireText(v, "assignedTo", input.AssignedTo),
		status:      models.TaskStatusPending,
		priority:    models.TaskPriorityMedium,
	}
	if len(draft.title) > 255 {
		v.Add("title", "must be at most 255 characters")
	}

	if s := strings.TrimSpace(input.Status); s != "" {
		draft.status = models.TaskStatus(s)
		if !draft.status.Valid() {
			v.Add("status", "must be one of pending, in-progress, completed, cancelled")
		}
	}
	if p := strings.TrimSpace(input.Priority); p != "" {
		draft.priority = models.TaskPriority(p)
		if !draft.priority.Valid() {
			v.Add("priority", "must be one of low, medium, high, urgent")
		}
	}

	due, err := ParseDueDate(input.DueDate)
	if err != nil {
		v.Add("dueDate", "must be an RFC 3339 timestamp or YYYY-MM-DD")
	}
	draft.dueDate = due

	return draft, v.Err()
}

// listQuery is a validated listing request before tenant and role scoping.
type listQuery struct {
	filter     repository.TaskFilter
	sort       repository.TaskSort
	pagination utils.PaginationParams
}

func validateListTasks(input ListTasksInput) (listQuery, error) {
	v := &ValidationError{}
	q := listQuery{
		sort:       repository.DefaultTaskSort(),
		pagination: input.Pagination,
	}

	if s := strings.TrimSpace(input.Status); s != "" {
		status := models.TaskStatus(s)
		if status.Valid() {
			q.filter.Status = &status
		} else {
			v.Add("status", "must be one of pending, in-progress, completed, cancelled")
		}
	}
	if p := strings.TrimSpace(input.Priority); p != "" {
		priority := models.TaskPriority(p)
		if priority.Valid() {
			q.filter.Priority = &priority
		} else {
			v.Add("priority", "must be one of low, medium, high, urgent")
		}
	}
	if a := strings.TrimSpace(input.AssignedTo); a != "" {
		q.filter.AssignedTo = &a
	}

	if f := strings.TrimSpace(input.SortBy); f != "" {
		q.sort.Field = repository.TaskSortField(f)
		if !q.sort.Field.Valid() {
			v.Add("sortBy", "must be one of title, status, priority, dueDate, createdAt, updatedAt")
		}
	}
	if o := strings.ToLower(strings.TrimSpace(input.SortOrder)); o != "" {
		q.sort.Order = repository.SortOrder(o)
		if !q.sort.Order.Valid() {
			v.Add("sortOrder", "must be asc or desc")
		}
	}

	if q.pagination == (utils.PaginationParams{}) {
		q.pagination = utils.DefaultPagination()
	}
	for _, field := range []string{"page", "limit"} {
		if msg, bad := q.pagination.Validate()[field]; bad {
			v.Add(field, msg)
		}
	}

	return q, v.Err()
}
