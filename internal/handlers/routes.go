package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/tenant-task-api/internal/middleware"
	"github.com/yukikurage/tenant-task-api/internal/models"
)

// Routes bundles the handlers served by the API.
type Routes struct {
	Health        *HealthHandler
	Auth          *AuthHandler
	Users         *UserHandler
	Tasks         *TaskHandler
	Authenticator middleware.Authenticator
}

// Register mounts every endpoint on r.
func (rt Routes) Register(r *gin.Engine) {
	requireAuth := middleware.RequireAuth(rt.Authenticator)
	requireManager := middleware.RequireRole(models.RoleManager)

	// Health check endpoint
	r.GET("/health", rt.Health.Health)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", rt.Auth.Signup)
			auth.POST("/login", rt.Auth.Login)
			auth.POST("/logout", middleware.OptionalAuth(rt.Authenticator), rt.Auth.Logout)
			auth.GET("/me", requireAuth, rt.Auth.GetCurrentUser)
		}

		// User routes (managers only)
		users := api.Group("/users")
		users.Use(requireAuth, requireManager)
		{
			users.GET("", rt.Users.ListUsers)
			users.POST("", rt.Users.CreateUser)
			users.DELETE("/:id", rt.Users.DeleteUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", rt.Tasks.ListTasks)
			tasks.GET("/:id", rt.Tasks.GetTask)
			tasks.POST("", requireManager, rt.Tasks.CreateTask)
			tasks.PATCH("/:id/status", requireManager, rt.Tasks.UpdateTaskStatus)
			tasks.DELETE("/:id", requireManager, rt.Tasks.DeleteTask)
		}
	}
}
