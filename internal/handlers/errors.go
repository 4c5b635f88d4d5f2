package handlers

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/yukikurage/tenant-task-api/internal/errors"
	"github.com/yukikurage/tenant-task-api/internal/logger"
	"github.com/yukikurage/tenant-task-api/internal/policy"
	"github.com/yukikurage/tenant-task-api/internal/services"
)

func init() {
	// report binding failures under the JSON names clients sent
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// respondError maps service failures onto API errors.
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var rangeErr *services.PageOutOfRangeError

	switch {
	case errors.As(err, &validationErr):
		apierrors.BadRequestWithDetails(c, "Validation failed", validationErr.Fields)
	case errors.As(err, &rangeErr):
		apierrors.PageOutOfRange(c, gin.H{"page": rangeErr.Page, "totalPages": rangeErr.TotalPages})
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.AlreadyExists(c, "Email is already registered")
	case errors.Is(err, services.ErrTenantExists):
		apierrors.Conflict(c, "Tenant already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	case errors.Is(err, policy.ErrInvalidOperation):
		apierrors.InvalidOperation(c, "You cannot delete your own account")
	case errors.Is(err, policy.ErrForbidden):
		apierrors.Forbidden(c, "")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found")
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrInvalidStatusTransition):
		apierrors.InvalidTransition(c, err.Error())
	default:
		_ = c.Error(err)
		logger.ErrorContext(c.Request.Context(), "Request failed", "error", err, "path", c.FullPath())
		apierrors.InternalError(c, "")
	}
}

// respondBindError turns a malformed body into a 400 with per-field details
// when the validator produced them.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	details := make([]services.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, services.FieldError{Field: fe.Field(), Message: bindingMessage(fe)})
	}
	apierrors.BadRequestWithDetails(c, "Validation failed", details)
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}

// fieldProblems converts query parameter problems into sorted details.
func fieldProblems(problems map[string]string) []services.FieldError {
	details := make([]services.FieldError, 0, len(problems))
	for field, msg := range problems {
		details = append(details, services.FieldError{Field: field, Message: msg})
	}
	sort.Slice(details, func(i, j int) bool { return details[i].Field < details[j].Field })
	return details
}
