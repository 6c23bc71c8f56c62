package dynamodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina-backend/domain/entities"
	apperrors "lumina-backend/pkg/errors"
)

func testSession(id string, expiresIn time.Duration) *entities.Session {
	now := time.Now().UTC()
	return &entities.Session{
		SessionID: id,
		UserID:    "u1",
		Email:     "ada@example.com",
		CreatedAt: now.Format(time.RFC3339),
		ExpiresAt: now.Add(expiresIn).Format(time.RFC3339),
	}
}

func TestSessionCreateAndGet(t *testing.T) {
	store, _ := newTestStore()
	repo := NewSessionRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testSession("s1", time.Hour)))

	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "ada@example.com", got.Email)
}

func TestSessionGetExpired(t *testing.T) {
	store, _ := newTestStore()
	repo := NewSessionRepository(store)
	ctx := context.Background()

	// The row is still in the table; expiry is enforced on read because
	// TTL reaping lags.
	require.NoError(t, repo.Create(ctx, testSession("s1", -time.Minute)))

	_, err := repo.Get(ctx, "s1")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSessionCreateRejectsBadExpiry(t *testing.T) {
	store, _ := newTestStore()
	repo := NewSessionRepository(store)

	session := testSession("s1", time.Hour)
	session.ExpiresAt = "next tuesday"
	err := repo.Create(context.Background(), session)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSessionDeleteIdempotent(t *testing.T) {
	store, _ := newTestStore()
	repo := NewSessionRepository(store)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testSession("s1", time.Hour)))
	require.NoError(t, repo.Delete(ctx, "s1"))

	_, err := repo.Get(ctx, "s1")
	assert.True(t, apperrors.IsNotFound(err))

	require.NoError(t, repo.Delete(ctx, "s1"), "logout of an absent session is a no-op")
}
