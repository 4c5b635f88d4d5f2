package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/yukikurage/tenant-task-api/internal/auth"
	"github.com/yukikurage/tenant-task-api/internal/models"
	"github.com/yukikurage/tenant-task-api/internal/policy"
	"github.com/yukikurage/tenant-task-api/internal/repository"
	"gorm.io/gorm"
)

// UserService manages the accounts of a tenant on behalf of its managers.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// CreateUserInput represents a manager adding someone to their tenant
type CreateUserInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Create adds a user to the caller's tenant. Role defaults to employee.
func (s *UserService) Create(ctx context.Context, input CreateUserInput, claims auth.Claims) (*models.User, error) {
	if err := policy.RequireRole(claims, models.RoleManager); err != nil {
		return nil, err
	}

	draft, v := validateUser(input.Name, input.Email, input.Password, input.Role, models.RoleEmployee)
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := newUser(ctx, s.userRepo, draft)
	if err != nil {
		return nil, err
	}
	user.TenantID = claims.TenantID

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, translateCreateUserError(err)
	}
	return user, nil
}

// List returns every user of the caller's tenant
func (s *UserService) List(ctx context.Context, claims auth.Claims) ([]models.User, error) {
	if err := policy.RequireRole(claims, models.RoleManager); err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListByTenant(ctx, claims.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Delete removes a user of the caller's tenant. Managers cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, id string, claims auth.Claims) error {
	if err := policy.RequireRole(claims, models.RoleManager); err != nil {
		return err
	}

	target, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := policy.CanManageUser(claims, *target); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, target.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
