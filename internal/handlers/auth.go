package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tenant-task-api/internal/constants"
	"github.com/yukikurage/tenant-task-api/internal/dto"
	apierrors "github.com/yukikurage/tenant-task-api/internal/errors"
	"github.com/yukikurage/tenant-task-api/internal/logger"
	"github.com/yukikurage/tenant-task-api/internal/middleware"
	"github.com/yukikurage/tenant-task-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService   *services.AuthService
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler. secureCookies marks the token
// cookie Secure, which browsers only send over HTTPS.
func NewAuthHandler(authService *services.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		secureCookies: secureCookies,
	}
}

// Signup registers a manager together with a new tenant.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		TenantID   string `json:"tenantId" binding:"omitempty,max=64"`
		TenantName string `json:"tenantName" binding:"omitempty,max=255"`
		Name       string `json:"name" binding:"omitempty,max=255"`
		Email      string `json:"email" binding:"required,email"`
		Password   string `json:"password" binding:"required"`
		Role       string `json:"role"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), services.SignupInput{
		TenantID:   req.TenantID,
		TenantName: req.TenantName,
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	logger.InfoContext(c.Request.Context(), "Tenant registered", "tenant_id", user.TenantID, "user_id", user.ID)
	c.JSON(http.StatusCreated, dto.ToUserDTO(*user))
}

// Login authenticates a user and sets the token cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	session, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.setTokenCookie(c, session.Token, int(time.Until(session.ExpiresAt).Seconds()))

	c.JSON(http.StatusOK, gin.H{
		"user":      dto.ToUserSummaryDTO(*session.User),
		"expiresAt": session.ExpiresAt,
	})
}

// Logout revokes the current token, if any, and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	if claims, ok := middleware.GetClaims(c); ok {
		if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
			respondError(c, err)
			return
		}
	}

	h.setTokenCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := h.authService.CurrentUser(c.Request.Context(), claims)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(constants.TokenCookieName, value, maxAge, "/", "", h.secureCookies, true)
}
