package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina-backend/domain/entities"
	"lumina-backend/domain/events"
	"lumina-backend/pkg/common"
	apperrors "lumina-backend/pkg/errors"
)

func newAlbumService() (*AlbumService, *fakeAlbums, *fakeMedia, *fakeCounters, *fakePublisher) {
	albums := newFakeAlbums()
	media := newFakeMedia()
	counters := &fakeCounters{}
	publisher := &fakePublisher{}
	svc := NewAlbumService(albums, media, counters, publisher, testLogger())
	return svc, albums, media, counters, publisher
}

func ownerIdentity() common.Identity {
	return common.Identity{UserID: "u1", Email: "owner@example.com", Role: entities.RoleUser}
}

func adminIdentity() common.Identity {
	return common.Identity{UserID: "admin", Email: "admin@example.com", Role: entities.RoleAdmin}
}

func strangerIdentity() common.Identity {
	return common.Identity{UserID: "u2", Email: "other@example.com", Role: entities.RoleUser}
}

func TestAlbumCreateRejectsEmptyTitle(t *testing.T) {
	svc, _, _, _, _ := newAlbumService()

	_, err := svc.Create(context.Background(), ownerIdentity(), CreateAlbumInput{Title: ""})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestAlbumCreatePublishesEvent(t *testing.T) {
	svc, _, _, _, publisher := newAlbumService()

	album, err := svc.Create(context.Background(), ownerIdentity(), CreateAlbumInput{
		Title:    "Summer",
		IsPublic: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "u1", album.CreatedBy)

	published := publisher.published()
	require.Len(t, published, 1)
	assert.Equal(t, entities.EntityTypeAlbum, published[0].EntityType)
	assert.Equal(t, album.ID, published[0].EntityID)
	assert.Equal(t, events.ActionCreated, published[0].Action)
}

func TestAlbumGetPrivateVisibility(t *testing.T) {
	svc, albums, _, _, _ := newAlbumService()
	ctx := context.Background()

	require.NoError(t, albums.Create(ctx, &entities.Album{
		ID:        "a1",
		Title:     "Drafts",
		IsPublic:  false,
		CreatedBy: "u1",
	}))

	_, err := svc.Get(ctx, ownerIdentity(), "a1")
	assert.NoError(t, err)

	_, err = svc.Get(ctx, adminIdentity(), "a1")
	assert.NoError(t, err)

	_, err = svc.Get(ctx, strangerIdentity(), "a1")
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestAlbumUpdateRequiresOwner(t *testing.T) {
	svc, albums, _, _, _ := newAlbumService()
	ctx := context.Background()

	require.NoError(t, albums.Create(ctx, &entities.Album{
		ID: "a1", Title: "Trip", IsPublic: true, CreatedBy: "u1",
	}))

	title := "Renamed"
	_, err := svc.Update(ctx, strangerIdentity(), "a1", entities.AlbumPatch{Title: &title})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	updated, err := svc.Update(ctx, ownerIdentity(), "a1", entities.AlbumPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestAlbumDeleteDetachesMedia(t *testing.T) {
	svc, albums, media, _, publisher := newAlbumService()
	ctx := context.Background()

	require.NoError(t, albums.Create(ctx, &entities.Album{
		ID: "a1", Title: "Trip", IsPublic: true, CreatedBy: "u1",
	}))
	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, media.Create(ctx, &entities.Media{
			ID: id, AlbumID: "a1", Filename: id + ".jpg", CreatedBy: "u1",
		}))
	}

	require.NoError(t, svc.Delete(ctx, ownerIdentity(), "a1"))

	_, err := albums.Get(ctx, "a1")
	assert.True(t, apperrors.IsNotFound(err))

	unsorted, _, _, err := media.ListByAlbum(ctx, entities.AlbumUnsorted, "", 100, false)
	require.NoError(t, err)
	assert.Len(t, unsorted, 3, "deleting an album keeps its media, filed as unsorted")

	published := publisher.published()
	require.NotEmpty(t, published)
	last := published[len(published)-1]
	assert.Equal(t, events.ActionDeleted, last.Action)
}

func TestAlbumDeleteForbiddenForStranger(t *testing.T) {
	svc, albums, _, _, _ := newAlbumService()
	ctx := context.Background()

	require.NoError(t, albums.Create(ctx, &entities.Album{
		ID: "a1", Title: "Trip", IsPublic: true, CreatedBy: "u1",
	}))

	err := svc.Delete(ctx, strangerIdentity(), "a1")
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	_, err = albums.Get(ctx, "a1")
	assert.NoError(t, err)
}

func TestAlbumListFiltersPrivateAlbums(t *testing.T) {
	svc, albums, _, _, _ := newAlbumService()
	ctx := context.Background()

	require.NoError(t, albums.Create(ctx, &entities.Album{
		ID: "a1", Title: "Public", IsPublic: true, CreatedBy: "u1", CreatedAt: "2025-01-01T00:00:00Z",
	}))
	require.NoError(t, albums.Create(ctx, &entities.Album{
		ID: "a2", Title: "Private", IsPublic: false, CreatedBy: "u1", CreatedAt: "2025-01-02T00:00:00Z",
	}))

	page := common.PageParams{Limit: 10}

	visible, _, _, err := svc.List(ctx, strangerIdentity(), page)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "a1", visible[0].ID)

	mine, _, _, err := svc.List(ctx, ownerIdentity(), page)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}
