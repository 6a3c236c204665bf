package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/testutil"
	"github.com/yukikurage/taskboard-api/internal/utils"
	"gorm.io/gorm"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(testutil.NewTestDB(t), 0)
	ctx := context.Background()

	user := &models.User{Email: "alice@example.com", PasswordHash: "hash", Role: models.RoleUser}
	require.NoError(t, repo.Create(ctx, user))
	assert.Len(t, user.ID, 36)

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	_, err = repo.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(testutil.NewTestDB(t), 0)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Email: "a@example.com", PasswordHash: "h", Role: models.RoleUser}))
	assert.Error(t, repo.Create(ctx, &models.User{Email: "a@example.com", PasswordHash: "h", Role: models.RoleUser}))
}

func TestUserRepository_ListPaged(t *testing.T) {
	repo := NewUserRepository(testutil.NewTestDB(t), 0)
	ctx := context.Background()

	for _, email := range []string{"c@example.com", "a@example.com", "b@example.com"} {
		require.NoError(t, repo.Create(ctx, &models.User{Email: email, PasswordHash: "h", Role: models.RoleUser}))
	}

	users, total, err := repo.List(ctx, utils.PaginationParams{Page: 2, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, users, 1)
	assert.Equal(t, "c@example.com", users[0].Email)
}

func TestUserRepository_ListByRole(t *testing.T) {
	repo := NewUserRepository(testutil.NewTestDB(t), 0)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Email: "admin@example.com", PasswordHash: "h", Role: models.RoleAdmin}))
	require.NoError(t, repo.Create(ctx, &models.User{Email: "user@example.com", PasswordHash: "h", Role: models.RoleUser}))

	users, err := repo.ListByRole(ctx, models.RoleUser)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "user@example.com", users[0].Email)
}

func TestUserRepository_Delete(t *testing.T) {
	repo := NewUserRepository(testutil.NewTestDB(t), 0)
	ctx := context.Background()

	user := &models.User{Email: "gone@example.com", PasswordHash: "h", Role: models.RoleUser}
	require.NoError(t, repo.Create(ctx, user))

	require.NoError(t, repo.Delete(ctx, user.ID))
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), gorm.ErrRecordNotFound)
}
