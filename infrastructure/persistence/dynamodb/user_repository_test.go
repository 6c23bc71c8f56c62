package dynamodb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina-backend/domain/entities"
	apperrors "lumina-backend/pkg/errors"
)

func testUser(id, email, username string) *entities.User {
	return &entities.User{
		UserID:    id,
		Email:     email,
		Username:  username,
		Role:      entities.RoleUser,
		IsActive:  true,
		CreatedAt: "2026-01-01T00:00:00Z",
		UpdatedAt: "2026-01-01T00:00:00Z",
	}
}

func TestUserCreateAndGet(t *testing.T) {
	store, _ := newTestStore()
	repo := NewUserRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("u1", "ada@example.com", "ada")))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.Equal(t, entities.RoleUser, got.Role)
	assert.True(t, got.IsActive)
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	store, _ := newTestStore()
	repo := NewUserRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("u1", "ada@example.com", "ada")))

	// Same email, different case; the guard key is case-insensitive.
	err := repo.Create(ctx, testUser("u2", "Ada@Example.com", "ada2"))
	require.Error(t, err)
	assert.True(t, apperrors.IsAlreadyExists(err))

	// The failed transaction must not leave a stray username guard behind.
	require.NoError(t, repo.Create(ctx, testUser("u3", "other@example.com", "ada2")))
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	store, _ := newTestStore()
	repo := NewUserRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("u1", "ada@example.com", "ada")))

	err := repo.Create(ctx, testUser("u2", "other@example.com", "Ada"))
	require.Error(t, err)
	assert.True(t, apperrors.IsAlreadyExists(err))
}

func TestUserFindByEmail(t *testing.T) {
	store, _ := newTestStore()
	repo := NewUserRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("u1", "ada@example.com", "ada")))

	got, err := repo.FindByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUserFindByUsername(t *testing.T) {
	store, _ := newTestStore()
	repo := NewUserRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("u1", "ada@example.com", "ada")))

	got, err := repo.FindByUsername(ctx, "Ada")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
}

func TestUserUpdatePatch(t *testing.T) {
	store, _ := newTestStore()
	repo := NewUserRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("u1", "ada@example.com", "ada")))

	role := entities.RoleAdmin
	verified := true
	updated, err := repo.Update(ctx, "u1", entities.UserPatch{Role: &role, IsEmailVerified: &verified})
	require.NoError(t, err)
	assert.Equal(t, entities.RoleAdmin, updated.Role)
	assert.True(t, updated.IsEmailVerified)
	assert.Equal(t, "ada@example.com", updated.Email, "untouched fields survive")
}

func TestUserTouchLastActive(t *testing.T) {
	store, _ := newTestStore()
	repo := NewUserRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("u1", "ada@example.com", "ada")))
	require.NoError(t, repo.TouchLastActive(ctx, "u1"))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.NotEmpty(t, got.LastActive)

	err = repo.TouchLastActive(ctx, "ghost")
	assert.True(t, apperrors.IsNotFound(err))
}

// Soft delete anonymizes the row and releases both guard rows; the id
// stays resolvable but the email and username become reusable.
func TestUserSoftDelete(t *testing.T) {
	store, _ := newTestStore()
	repo := NewUserRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testUser("u1", "ada@example.com", "ada")))
	require.NoError(t, repo.SoftDelete(ctx, "u1"))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err, "the account row survives")
	assert.False(t, got.IsActive)
	assert.Equal(t, "deleted+u1@invalid", got.Email)
	assert.Equal(t, "deleted-u1", got.Username)

	_, err = repo.FindByEmail(ctx, "ada@example.com")
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, repo.Create(ctx, testUser("u2", "ada@example.com", "ada")), "identifiers are reusable after soft delete")
}

func TestUserSoftDeleteMissing(t *testing.T) {
	store, _ := newTestStore()
	repo := NewUserRepository(store)

	err := repo.SoftDelete(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
