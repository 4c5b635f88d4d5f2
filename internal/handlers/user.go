package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tenant-task-api/internal/dto"
	apierrors "github.com/yukikurage/tenant-task-api/internal/errors"
	"github.com/yukikurage/tenant-task-api/internal/logger"
	"github.com/yukikurage/tenant-task-api/internal/middleware"
	"github.com/yukikurage/tenant-task-api/internal/services"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ListUsers returns the users of the caller's tenant
func (h *UserHandler) ListUsers(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	users, err := h.userService.List(c.Request.Context(), claims)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": dto.ToUserDTOs(users),
	})
}

// CreateUser adds an employee (or another manager) to the caller's tenant
func (h *UserHandler) CreateUser(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	type CreateUserRequest struct {
		Name     string `json:"name" binding:"omitempty,max=255"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.Create(c.Request.Context(), services.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}, claims)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// DeleteUser removes a user and retires the tasks assigned to them
func (h *UserHandler) DeleteUser(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	id := c.Param("id")
	if err := h.userService.Delete(c.Request.Context(), id, claims); err != nil {
		respondError(c, err)
		return
	}

	logger.InfoContext(c.Request.Context(), "User deleted", "user_id", id, "by", claims.UserID)
	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
	})
}
