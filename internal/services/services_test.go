package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/testutil"
)

var fixedNow = time.Date(2026, 5, 14, 15, 30, 0, 0, time.UTC)

var noRetry = RetryPolicy{Attempts: 1}

// memoryCache is a QueryCache that round-trips values through JSON like Redis does.
type memoryCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	invalidated int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = data
	return nil
}

func (m *memoryCache) DeletePattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	m.invalidated++
	return nil
}

func (m *memoryCache) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type fixture struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	cache    *memoryCache
	tasks    *TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &fixture{
		taskRepo: repository.NewTaskRepository(db, 1000),
		userRepo: repository.NewUserRepository(db, 1000),
		cache:    newMemoryCache(),
	}
	f.tasks = NewTaskService(f.taskRepo, f.userRepo, f.cache, noRetry)
	f.tasks.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) user(t *testing.T, email string, role models.Role) models.Actor {
	t.Helper()
	u := &models.User{Email: email, PasswordHash: "hash", Role: role}
	require.NoError(t, f.userRepo.Create(context.Background(), u))
	return u.Actor()
}

func (f *fixture) task(t *testing.T, actor models.Actor, title string, assignee *models.Actor) *models.Task {
	t.Helper()
	due := fixedNow.AddDate(0, 0, 2)
	input := CreateTaskInput{Title: title, Description: title + " details", DueDate: &due}
	if assignee != nil {
		input.AssignedTo = &assignee.UID
	}
	task, err := f.tasks.CreateTask(context.Background(), actor, input)
	require.NoError(t, err)
	return task
}

func ptr[T any](v T) *T {
	return &v
}

// gatedTaskRepo holds ListAll after the store read until release is closed
// or the call's context ends.
type gatedTaskRepo struct {
	repository.TaskRepository
	entered chan struct{}
	release chan struct{}
}

func newGatedTaskRepo(inner repository.TaskRepository) *gatedTaskRepo {
	return &gatedTaskRepo{
		TaskRepository: inner,
		entered:        make(chan struct{}, 1),
		release:        make(chan struct{}),
	}
}

func (g *gatedTaskRepo) ListAll(ctx context.Context) ([]models.Task, error) {
	tasks, err := g.TaskRepository.ListAll(ctx)
	select {
	case g.entered <- struct{}{}:
	default:
	}
	select {
	case <-g.release:
		return tasks, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
