package repository

import (
	"context"

	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/utils"
)

// TaskRepository defines the interface for task data access.
// Every list call is capped at the repository's result limit.
type TaskRepository interface {
	// Create stores a new task; the store assigns ID and timestamps
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID
	FindByID(ctx context.Context, id string) (*models.Task, error)

	// ListByOwner lists tasks created by ownerID
	ListByOwner(ctx context.Context, ownerID string) ([]models.Task, error)

	// ListByAssignee lists tasks assigned to assigneeID
	ListByAssignee(ctx context.Context, assigneeID string) ([]models.Task, error)

	// ListAll lists every task
	ListAll(ctx context.Context) ([]models.Task, error)

	// Update writes all mutable fields of a task
	Update(ctx context.Context, task *models.Task) error

	// Delete removes a task permanently
	Delete(ctx context.Context, id string) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// List returns one page of users ordered by email, and the total count
	List(ctx context.Context, params utils.PaginationParams) ([]models.User, int64, error)

	// ListByRole returns users with the given role, capped at the result limit
	ListByRole(ctx context.Context, role models.Role) ([]models.User, error)

	// Delete removes a user
	Delete(ctx context.Context, id string) error
}
