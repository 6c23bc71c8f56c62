package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina-backend/domain/entities"
	apperrors "lumina-backend/pkg/errors"
)

type commentFixture struct {
	svc          *CommentService
	comments     *fakeComments
	interactions *fakeInteractions
	albums       *fakeAlbums
}

func newCommentFixture(t *testing.T) *commentFixture {
	t.Helper()
	f := &commentFixture{
		comments:     newFakeComments(),
		interactions: newFakeInteractions(),
		albums:       newFakeAlbums(),
	}
	f.svc = NewCommentService(f.comments, f.interactions, f.albums, newFakeMedia(), testLogger())

	require.NoError(t, f.albums.Create(context.Background(), &entities.Album{
		ID: "a1", Title: "Trip", IsPublic: true, CreatedBy: "u1",
	}))
	return f
}

func TestCommentCreateOnMissingTarget(t *testing.T) {
	f := newCommentFixture(t)

	_, err := f.svc.Create(context.Background(), strangerIdentity(), CreateCommentInput{
		TargetType: entities.TargetTypeAlbum,
		TargetID:   "ghost",
		Content:    "nice",
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCommentUpdateAuthorOnly(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	comment, err := f.svc.Create(ctx, strangerIdentity(), CreateCommentInput{
		TargetType: entities.TargetTypeAlbum,
		TargetID:   "a1",
		Content:    "nice",
	})
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, ownerIdentity(), comment.ID, "edited")
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	// Admins moderate by deleting, never by rewriting.
	_, err = f.svc.Update(ctx, adminIdentity(), comment.ID, "edited")
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	updated, err := f.svc.Update(ctx, strangerIdentity(), comment.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)
	assert.True(t, updated.IsEdited)
}

func TestCommentDeleteByAuthorOrAdmin(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	comment, err := f.svc.Create(ctx, strangerIdentity(), CreateCommentInput{
		TargetType: entities.TargetTypeAlbum,
		TargetID:   "a1",
		Content:    "nice",
	})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, ownerIdentity(), comment.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	require.NoError(t, f.svc.Delete(ctx, adminIdentity(), comment.ID))
	_, err = f.svc.Get(ctx, comment.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCommentDeleteSweepsInteractions(t *testing.T) {
	f := newCommentFixture(t)
	ctx := context.Background()

	comment, err := f.svc.Create(ctx, ownerIdentity(), CreateCommentInput{
		TargetType: entities.TargetTypeAlbum,
		TargetID:   "a1",
		Content:    "nice",
	})
	require.NoError(t, err)

	for _, user := range []string{"u2", "u3"} {
		require.NoError(t, f.interactions.Add(ctx, &entities.Interaction{
			UserID:     user,
			Type:       entities.InteractionLike,
			TargetType: entities.TargetTypeComment,
			TargetID:   comment.ID,
		}))
	}

	require.NoError(t, f.svc.Delete(ctx, ownerIdentity(), comment.ID))

	remaining, err := f.interactions.CountByTarget(ctx, entities.TargetTypeComment, comment.ID, entities.InteractionLike)
	require.NoError(t, err)
	assert.Zero(t, remaining, "likes must not outlive the comment they point at")
}
