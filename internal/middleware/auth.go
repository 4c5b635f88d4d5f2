package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tenant-task-api/internal/auth"
	"github.com/yukikurage/tenant-task-api/internal/constants"
	apierrors "github.com/yukikurage/tenant-task-api/internal/errors"
	"github.com/yukikurage/tenant-task-api/internal/logger"
	"github.com/yukikurage/tenant-task-api/internal/models"
	"github.com/yukikurage/tenant-task-api/internal/policy"
	"github.com/yukikurage/tenant-task-api/internal/services"
)

// Authenticator turns a raw token into verified claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Claims, error)
}

// RequireAuth checks the token from the cookie, or from a Bearer header for
// non-browser clients, and stores the claims in the context.
func RequireAuth(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			apierrors.Unauthorized(c, "")
			return
		}

		claims, err := authenticator.Authenticate(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrCredentialExpired):
				apierrors.TokenExpired(c)
			case errors.Is(err, auth.ErrInvalidCredential), errors.Is(err, services.ErrTokenRevoked):
				apierrors.Unauthorized(c, "Invalid or revoked token")
			case errors.Is(err, services.ErrAccountRemoved):
				logger.WarnContext(c.Request.Context(), "Token used after account change", "error", err)
				apierrors.Unauthorized(c, "Invalid or revoked token")
			default:
				logger.ErrorContext(c.Request.Context(), "Token check failed", "error", err)
				apierrors.ServiceUnavailable(c, "")
			}
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth stores the claims when a valid token is present and never rejects.
func OptionalAuth(authenticator Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := tokenFromRequest(c); token != "" {
			if claims, err := authenticator.Authenticate(c.Request.Context(), token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRole rejects authenticated callers without role. Must run after RequireAuth.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}
		if err := policy.RequireRole(claims, role); err != nil {
			apierrors.Forbidden(c, "This action requires the "+string(role)+" role")
			return
		}
		c.Next()
	}
}

// GetClaims retrieves the verified claims from context
func GetClaims(c *gin.Context) (auth.Claims, bool) {
	value, exists := c.Get(constants.ContextKeyClaims)
	if !exists {
		return auth.Claims{}, false
	}
	claims, ok := value.(auth.Claims)
	return claims, ok
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(constants.ContextKeyUserID)
	return userID, userID != ""
}

func setClaims(c *gin.Context, claims auth.Claims) {
	c.Set(constants.ContextKeyClaims, claims)
	c.Set(constants.ContextKeyUserID, claims.UserID)
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(constants.TokenCookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if scheme, token, found := strings.Cut(header, " "); found && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return ""
}
