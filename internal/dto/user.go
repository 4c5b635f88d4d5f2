package dto

import (
	"time"

	"github.com/yukikurage/tenant-task-api/internal/models"
)

// UserDTO represents a user in API responses. Credentials never leave the server.
type UserDTO struct {
	ID        string      `json:"id"`
	TenantID  string      `json:"tenantId"`
	Name      string      `json:"name,omitempty"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

// UserSummaryDTO is the minimal identity returned on login
type UserSummaryDTO struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	Role     models.Role `json:"role"`
	TenantID string      `json:"tenantId"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		TenantID:  user.TenantID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// ToUserSummaryDTO converts a User model to UserSummaryDTO
func ToUserSummaryDTO(user models.User) UserSummaryDTO {
	return UserSummaryDTO{
		ID:       user.ID,
		Email:    user.Email,
		Role:     user.Role,
		TenantID: user.TenantID,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	out := make([]UserDTO, len(users))
	for i, u := range users {
		out[i] = ToUserDTO(u)
	}
	return out
}
