package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina-backend/domain/entities"
	"lumina-backend/pkg/common"
	apperrors "lumina-backend/pkg/errors"
)

func newUserService(t *testing.T) (*UserService, *fakeUsers, *entities.User) {
	t.Helper()
	users := newFakeUsers()
	svc := NewUserService(users, testLogger())

	registered, err := svc.Register(context.Background(), RegisterInput{
		Email:    "ada@example.com",
		Username: "ada",
		Password: "correct horse",
	})
	require.NoError(t, err)
	return svc, users, registered
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newUserService(t)

	cases := []RegisterInput{
		{Email: "not-an-email", Username: "bob", Password: "long enough"},
		{Email: "bob@example.com", Username: "ab", Password: "long enough"},
		{Email: "bob@example.com", Username: "bob", Password: "short"},
	}
	for _, input := range cases {
		_, err := svc.Register(context.Background(), input)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "ADA@example.com",
		Username: "ada2",
		Password: "long enough",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsAlreadyExists(err))
}

func TestAuthenticateHashNeverLeaks(t *testing.T) {
	svc, _, registered := newUserService(t)

	user, err := svc.Authenticate(context.Background(), "ada@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, user.UserID)

	_, err = svc.Authenticate(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestUserUpdateRoleIsAdminOnly(t *testing.T) {
	svc, _, registered := newUserService(t)
	ctx := context.Background()

	self := identityFor(registered)
	admin := adminIdentity()
	role := entities.RoleAdmin

	_, err := svc.Update(ctx, self, registered.UserID, entities.UserPatch{Role: &role})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	updated, err := svc.Update(ctx, admin, registered.UserID, entities.UserPatch{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, entities.RoleAdmin, updated.Role)
}

func TestUserUpdateForeignProfile(t *testing.T) {
	svc, _, registered := newUserService(t)

	active := false
	_, err := svc.Update(context.Background(), strangerIdentity(), registered.UserID, entities.UserPatch{IsActive: &active})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestChangePassword(t *testing.T) {
	svc, _, registered := newUserService(t)
	ctx := context.Background()
	self := identityFor(registered)

	err := svc.ChangePassword(ctx, self, "wrong", "a new password")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))

	require.NoError(t, svc.ChangePassword(ctx, self, "correct horse", "a new password"))

	_, err = svc.Authenticate(ctx, "ada@example.com", "correct horse")
	require.Error(t, err)
	_, err = svc.Authenticate(ctx, "ada@example.com", "a new password")
	assert.NoError(t, err)
}

func TestUserDeleteAnonymizes(t *testing.T) {
	svc, _, registered := newUserService(t)
	ctx := context.Background()

	err := svc.Delete(ctx, strangerIdentity(), registered.UserID)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	require.NoError(t, svc.Delete(ctx, identityFor(registered), registered.UserID))

	// The row survives for creator references, stripped of identity.
	ghost, err := svc.Get(ctx, registered.UserID)
	require.NoError(t, err)
	assert.False(t, ghost.IsActive)
	assert.NotEqual(t, "ada@example.com", ghost.Email)
	assert.Empty(t, ghost.PasswordHash)

	_, err = svc.Authenticate(ctx, "ada@example.com", "correct horse")
	require.Error(t, err)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func identityFor(user *entities.User) common.Identity {
	return common.Identity{UserID: user.UserID, Email: user.Email, Role: user.Role}
}
