package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/auth"
	"github.com/yukikurage/taskboard-api/internal/middleware"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Health reports liveness along with the state of each named dependency.
func Health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				deps[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		message := "ok"
		if status != http.StatusOK {
			message = "degraded"
		}
		c.JSON(status, gin.H{
			"status":       message,
			"dependencies": deps,
		})
	}
}

// RegisterRoutes mounts the API on r. Session middleware must already be installed.
func RegisterRoutes(r *gin.Engine, tokens *auth.TokenManager, authHandler *AuthHandler, taskHandler *TaskHandler, userHandler *UserHandler) {
	requireAuth := middleware.RequireAuth(tokens)

	api := r.Group("/api")
	{
		// Auth routes (public)
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/signup", authHandler.Signup)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.GET("/me", requireAuth, authHandler.GetCurrentUser)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			taskAccess := middleware.RequireTaskAccess(taskHandler.taskService)
			activeUser := middleware.RequireActiveUser(authHandler.authService)

			tasks.GET("", taskHandler.ListTasks)
			tasks.GET("/stats", taskHandler.GetStats)
			tasks.POST("", activeUser, taskHandler.CreateTask)
			tasks.GET("/:id", taskAccess, taskHandler.GetTask)
			tasks.PUT("/:id", activeUser, taskAccess, taskHandler.ReplaceTask)
			tasks.PATCH("/:id", activeUser, taskAccess, taskHandler.UpdateTask)
			tasks.DELETE("/:id", activeUser, taskAccess, taskHandler.DeleteTask)
		}

		// User routes (protected)
		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.GET("/assignable", userHandler.ListAssignable)
			users.GET("", middleware.RequireAdmin(), userHandler.ListUsers)
			users.DELETE("/:id", middleware.RequireAdmin(), userHandler.DeleteUser)
		}
	}
}
