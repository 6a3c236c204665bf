package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/yukikurage/taskboard-api/internal/cache"
	"github.com/yukikurage/taskboard-api/internal/constants"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/pipeline"
	"github.com/yukikurage/taskboard-api/internal/policy"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// QueryCache stores list results between task writes.
type QueryCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	DeletePattern(ctx context.Context, pattern string) error
}

// TaskService handles task business logic
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	cache    QueryCache
	retry    RetryPolicy
	sfGroup  singleflight.Group
	now      func() time.Time

	// gen counts invalidations. It is part of every list key so a fetch
	// that started before a write can never refill the cache.
	gen          atomic.Uint64
	fetchTimeout time.Duration
}

// defaultFetchTimeout bounds a shared list fetch once it is detached from
// the request that started it.
const defaultFetchTimeout = 30 * time.Second

// NewTaskService creates a new TaskService. queryCache may be nil.
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository, queryCache QueryCache, retry RetryPolicy) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		cache:    queryCache,
		retry:    retry,
		now:      time.Now,

		fetchTimeout: defaultFetchTimeout,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	DueDate     *time.Time
	AssignedTo  *string
}

// ReplaceTaskInput replaces every mutable field. A nil AssignedTo unassigns.
type ReplaceTaskInput = CreateTaskInput

// PatchTaskInput represents a partial update. Nil fields are left unchanged.
type PatchTaskInput struct {
	Title         *string
	Description   *string
	Status        *models.TaskStatus
	DueDate       *time.Time
	AssignedTo    *string
	ClearAssignee bool
}

// ListTasks runs the list pipeline for actor. When subjectID names another
// user, an admin sees exactly what that user would see.
func (s *TaskService) ListTasks(ctx context.Context, actor models.Actor, subjectID string, q pipeline.Query) (pipeline.Result, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return pipeline.Result{}, err
	}

	subject, err := s.resolveSubject(ctx, actor, subjectID)
	if err != nil {
		return pipeline.Result{}, err
	}
	if err := q.Authorize(subject); err != nil {
		return pipeline.Result{}, err
	}

	now := s.now()
	gen := s.gen.Load()
	key := cache.ListKey(actor.UID, string(actor.Role),
		strconv.FormatUint(gen, 10),
		subject.UID, string(subject.Role),
		pipeline.StartOfDay(now).Format(time.RFC3339),
		string(q.Scope), q.SearchTerm, q.StatusFilter, string(q.DateFilter),
		strconv.Itoa(q.Page), strconv.Itoa(q.PageSize),
	)

	if s.cache != nil {
		var cached pipeline.Result
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			slog.Warn("query cache read failed", "key", key, "error", err)
		}
		if found {
			if cached.Items == nil {
				cached.Items = []models.Task{}
			}
			return cached, nil
		}
	}

	// The shared fetch outlives any single caller. Each caller still stops
	// waiting when its own context ends.
	ch := s.sfGroup.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.fetchTimeout)
		defer cancel()

		tasks, err := s.fetchCandidates(fetchCtx, subject)
		if err != nil {
			return nil, err
		}
		result, err := pipeline.Run(tasks, subject, q, now)
		if err != nil {
			return nil, err
		}
		if s.cache != nil && s.gen.Load() == gen {
			if err := s.cache.Set(fetchCtx, key, result); err != nil {
				slog.Warn("query cache write failed", "key", key, "error", err)
			}
		}
		return result, nil
	})

	select {
	case <-ctx.Done():
		return pipeline.Result{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return pipeline.Result{}, res.Err
		}
		return res.Val.(pipeline.Result), nil
	}
}

// GetStats summarizes the tasks visible to actor.
func (s *TaskService) GetStats(ctx context.Context, actor models.Actor) (pipeline.Summary, error) {
	tasks, err := s.fetchCandidates(ctx, actor)
	if err != nil {
		return pipeline.Summary{}, err
	}
	return pipeline.Summarize(tasks, actor, s.now()), nil
}

// GetTask returns a task the actor may view.
func (s *TaskService) GetTask(ctx context.Context, actor models.Actor, taskID string) (*models.Task, error) {
	var task *models.Task
	err := s.retry.do(ctx, "find task", func(ctx context.Context) error {
		var err error
		task, err = s.taskRepo.FindByID(ctx, taskID)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NewNotFoundError("task", taskID)
		}
		return nil, err
	}

	if !policy.CanView(actor, task) {
		return nil, apierrors.NewAuthorizationError("view this task")
	}

	return task, nil
}

// CreateTask validates input and stores a task owned by actor.
func (s *TaskService) CreateTask(ctx context.Context, actor models.Actor, input CreateTaskInput) (*models.Task, error) {
	task := &models.Task{OwnerID: actor.UID}
	if err := s.applyReplace(ctx, task, input); err != nil {
		return nil, err
	}

	err := s.retry.do(ctx, "create task", func(ctx context.Context) error {
		return s.taskRepo.Create(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return task, nil
}

// ReplaceTask overwrites every mutable field of task.
func (s *TaskService) ReplaceTask(ctx context.Context, actor models.Actor, task *models.Task, input ReplaceTaskInput) (*models.Task, error) {
	if !policy.CanEdit(actor, task) {
		return nil, apierrors.NewAuthorizationError("edit this task")
	}

	updated := *task
	if err := s.applyReplace(ctx, &updated, input); err != nil {
		return nil, err
	}

	return s.save(ctx, &updated)
}

// PatchTask updates only the fields present in input.
func (s *TaskService) PatchTask(ctx context.Context, actor models.Actor, task *models.Task, input PatchTaskInput) (*models.Task, error) {
	if !policy.CanEdit(actor, task) {
		return nil, apierrors.NewAuthorizationError("edit this task")
	}

	updated := *task
	if input.Title != nil {
		title, err := validateTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		updated.Title = title
	}
	if input.Description != nil {
		description, err := validateDescription(*input.Description)
		if err != nil {
			return nil, err
		}
		updated.Description = description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, apierrors.NewValidationError("status", fmt.Sprintf("unknown status %q", *input.Status))
		}
		updated.Status = *input.Status
	}
	if input.DueDate != nil {
		if err := s.validateDueDate(*input.DueDate); err != nil {
			return nil, err
		}
		updated.DueDate = *input.DueDate
	}
	switch {
	case input.ClearAssignee:
		updated.AssignedTo = nil
	case input.AssignedTo != nil:
		assignee, err := s.validateAssignee(ctx, *input.AssignedTo)
		if err != nil {
			return nil, err
		}
		updated.AssignedTo = assignee
	}

	return s.save(ctx, &updated)
}

// DeleteTask removes task permanently.
func (s *TaskService) DeleteTask(ctx context.Context, actor models.Actor, task *models.Task) error {
	if !policy.CanDelete(actor, task) {
		return apierrors.NewAuthorizationError("delete this task")
	}

	err := s.retry.do(ctx, "delete task", func(ctx context.Context) error {
		return s.taskRepo.Delete(ctx, task.ID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierrors.NewNotFoundError("task", task.ID)
		}
		return err
	}

	s.invalidate(ctx)
	return nil
}

func (s *TaskService) save(ctx context.Context, task *models.Task) (*models.Task, error) {
	err := s.retry.do(ctx, "update task", func(ctx context.Context) error {
		return s.taskRepo.Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return task, nil
}

// applyReplace validates input and writes it into task.
func (s *TaskService) applyReplace(ctx context.Context, task *models.Task, input CreateTaskInput) error {
	title, err := validateTitle(input.Title)
	if err != nil {
		return err
	}
	description, err := validateDescription(input.Description)
	if err != nil {
		return err
	}

	status := input.Status
	if status == "" {
		status = models.TaskStatusTodo
	}
	if !status.Valid() {
		return apierrors.NewValidationError("status", fmt.Sprintf("unknown status %q", status))
	}

	if input.DueDate == nil {
		return apierrors.NewValidationError("due_date", "is required")
	}
	if err := s.validateDueDate(*input.DueDate); err != nil {
		return err
	}

	var assignee *string
	if input.AssignedTo != nil && *input.AssignedTo != "" {
		assignee, err = s.validateAssignee(ctx, *input.AssignedTo)
		if err != nil {
			return err
		}
	}

	task.Title = title
	task.Description = description
	task.Status = status
	task.DueDate = *input.DueDate
	task.AssignedTo = assignee
	return nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if len([]rune(title)) < constants.MinTitleLength {
		return "", apierrors.NewValidationError("title", fmt.Sprintf("must be at least %d characters", constants.MinTitleLength))
	}
	return title, nil
}

func validateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", apierrors.NewValidationError("description", "is required")
	}
	return description, nil
}

func (s *TaskService) validateDueDate(due time.Time) error {
	if due.Before(pipeline.StartOfDay(s.now())) {
		return apierrors.NewValidationError("due_date", "must not be in the past")
	}
	return nil
}

// validateAssignee checks that userID names an existing non-admin user.
func (s *TaskService) validateAssignee(ctx context.Context, userID string) (*string, error) {
	var user *models.User
	err := s.retry.do(ctx, "find assignee", func(ctx context.Context) error {
		var err error
		user, err = s.userRepo.FindByID(ctx, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierrors.NewValidationError("assigned_to", "unknown user")
		}
		return nil, err
	}
	if user.Role == models.RoleAdmin {
		return nil, apierrors.NewValidationError("assigned_to", "tasks cannot be assigned to administrators")
	}

	id := user.ID
	return &id, nil
}

// resolveSubject returns the identity whose view is being listed.
func (s *TaskService) resolveSubject(ctx context.Context, actor models.Actor, subjectID string) (models.Actor, error) {
	if subjectID == "" || subjectID == actor.UID {
		return actor, nil
	}
	if !actor.IsAdmin() {
		return models.Actor{}, apierrors.NewAuthorizationError("view another user's tasks")
	}

	var user *models.User
	err := s.retry.do(ctx, "find user", func(ctx context.Context) error {
		var err error
		user, err = s.userRepo.FindByID(ctx, subjectID)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Actor{}, apierrors.NewNotFoundError("user", subjectID)
		}
		return models.Actor{}, err
	}

	return user.Actor(), nil
}

// fetchCandidates loads the tasks the pipeline may select from. Admins read
// the whole store; everyone else reads their owned and assigned tasks in
// parallel, merged owner-first without duplicates.
func (s *TaskService) fetchCandidates(ctx context.Context, actor models.Actor) ([]models.Task, error) {
	if actor.IsAdmin() {
		var tasks []models.Task
		err := s.retry.do(ctx, "list all tasks", func(ctx context.Context) error {
			var err error
			tasks, err = s.taskRepo.ListAll(ctx)
			return err
		})
		return tasks, err
	}

	var owned, assigned []models.Task
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.retry.do(gctx, "list owned tasks", func(ctx context.Context) error {
			var err error
			owned, err = s.taskRepo.ListByOwner(ctx, actor.UID)
			return err
		})
	})
	g.Go(func() error {
		return s.retry.do(gctx, "list assigned tasks", func(ctx context.Context) error {
			var err error
			assigned, err = s.taskRepo.ListByAssignee(ctx, actor.UID)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(owned))
	merged := make([]models.Task, 0, len(owned)+len(assigned))
	for _, list := range [][]models.Task{owned, assigned} {
		for _, task := range list {
			if _, dup := seen[task.ID]; dup {
				continue
			}
			seen[task.ID] = struct{}{}
			merged = append(merged, task)
		}
	}
	return merged, nil
}

// invalidate moves list keys to a new generation and drops the cached ones.
// Entries from older generations are unreachable even if the delete fails.
func (s *TaskService) invalidate(ctx context.Context) {
	s.gen.Add(1)
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, cache.ListPattern); err != nil {
		slog.Warn("query cache invalidation failed", "error", err)
	}
}
