// Package policy holds the access-control decisions for users and tasks.
// Every function is pure: it reads the verified claims plus the target's
// tenant or owner and returns nil (allow) or a denial.
package policy

import (
	"errors"

	"github.com/yukikurage/tenant-task-api/internal/auth"
	"github.com/yukikurage/tenant-task-api/internal/models"
)

var (
	// ErrForbidden denies a valid identity on role or tenant grounds.
	ErrForbidden = errors.New("access denied")
	// ErrInvalidOperation denies an action the caller may never take on
	// itself, such as deleting its own account.
	ErrInvalidOperation = errors.New("operation not allowed on own account")
)

// RequireRole allows only callers holding role.
func RequireRole(claims auth.Claims, role models.Role) error {
	if claims.Role != role {
		return ErrForbidden
	}
	return nil
}

// RequireSameTenant allows only callers from the resource's tenant.
func RequireSameTenant(claims auth.Claims, resourceTenantID string) error {
	if claims.TenantID == "" || claims.TenantID != resourceTenantID {
		return ErrForbidden
	}
	return nil
}

// RequireNotSelf rejects actions targeting the caller's own account.
func RequireNotSelf(claims auth.Claims, targetUserID string) error {
	if claims.UserID == targetUserID {
		return ErrInvalidOperation
	}
	return nil
}

// CanManageUser combines the checks for deleting a user account.
func CanManageUser(claims auth.Claims, target models.User) error {
	if err := RequireRole(claims, models.RoleManager); err != nil {
		return err
	}
	if err := RequireSameTenant(claims, target.TenantID); err != nil {
		return err
	}
	return RequireNotSelf(claims, target.ID)
}

// CanManageTask covers delete and status updates.
func CanManageTask(claims auth.Claims, task models.Task) error {
	if err := RequireRole(claims, models.RoleManager); err != nil {
		return err
	}
	return RequireSameTenant(claims, task.TenantID)
}

// CanViewTask lets managers read any task of their tenant and employees only
// the tasks assigned to them.
func CanViewTask(claims auth.Claims, task models.Task) error {
	if err := RequireSameTenant(claims, task.TenantID); err != nil {
		return err
	}
	if claims.IsManager() || task.AssignedTo == claims.UserID {
		return nil
	}
	return ErrForbidden
}
