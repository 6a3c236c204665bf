package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/constants"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/models"
)

// TaskFinder loads a task on behalf of an actor, enforcing view access.
type TaskFinder interface {
	GetTask(ctx context.Context, actor models.Actor, taskID string) (*models.Task, error)
}

// RequireTaskAccess loads the task named by the :id parameter.
// Missing tasks yield 404 and tasks the actor cannot view yield 403.
func RequireTaskAccess(finder TaskFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		task, err := finder.GetTask(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			apierrors.RespondWithDomainError(c, err)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask returns the task loaded by RequireTaskAccess.
func GetTask(c *gin.Context) (*models.Task, bool) {
	value, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	task, ok := value.(*models.Task)
	return task, ok
}
