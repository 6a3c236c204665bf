package services

import (
	"context"
	"errors"

	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/utils"
	"gorm.io/gorm"
)

// UserService handles user administration.
type UserService struct {
	userRepo repository.UserRepository
	retry    RetryPolicy
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository, retry RetryPolicy) *UserService {
	return &UserService{userRepo: userRepo, retry: retry}
}

// ListUsers returns one page of all users. Admin only.
func (s *UserService) ListUsers(ctx context.Context, actor models.Actor, params utils.PaginationParams) ([]models.User, int64, error) {
	if !actor.IsAdmin() {
		return nil, 0, apierrors.NewAuthorizationError("list users")
	}

	var (
		users []models.User
		total int64
	)
	err := s.retry.do(ctx, "list users", func(ctx context.Context) error {
		var err error
		users, total, err = s.userRepo.List(ctx, params)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ListAssignable returns the users actor may assign a task to: every
// non-admin account except actor itself.
func (s *UserService) ListAssignable(ctx context.Context, actor models.Actor) ([]models.User, error) {
	var users []models.User
	err := s.retry.do(ctx, "list assignable users", func(ctx context.Context) error {
		var err error
		users, err = s.userRepo.ListByRole(ctx, models.RoleUser)
		return err
	})
	if err != nil {
		return nil, err
	}

	assignable := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.ID != actor.UID {
			assignable = append(assignable, u)
		}
	}
	return assignable, nil
}

// DeleteUser removes a user account. Admin only; an admin cannot remove themselves.
// Tasks referencing the user are left in place.
func (s *UserService) DeleteUser(ctx context.Context, actor models.Actor, id string) error {
	if !actor.IsAdmin() {
		return apierrors.NewAuthorizationError("delete users")
	}
	if id == actor.UID {
		return apierrors.NewValidationError("id", "cannot delete your own account")
	}

	err := s.retry.do(ctx, "delete user", func(ctx context.Context) error {
		return s.userRepo.Delete(ctx, id)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierrors.NewNotFoundError("user", id)
	}
	return err
}
