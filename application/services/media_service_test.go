package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina-backend/domain/entities"
	"lumina-backend/infrastructure/persistence/dynamodb"
	apperrors "lumina-backend/pkg/errors"
)

func newMediaService(t *testing.T) (*MediaService, *fakeAlbums, *fakeMedia, *fakeCounters) {
	t.Helper()
	albums := newFakeAlbums()
	media := newFakeMedia()
	counters := &fakeCounters{}
	svc := NewMediaService(media, albums, counters, &fakePublisher{}, testLogger())

	require.NoError(t, albums.Create(context.Background(), &entities.Album{
		ID: "a1", Title: "Trip", IsPublic: false, CreatedBy: "u1",
	}))
	return svc, albums, media, counters
}

func validMediaInput(albumID string) CreateMediaInput {
	return CreateMediaInput{
		AlbumID:  albumID,
		Filename: "sunset.jpg",
		MimeType: "image/jpeg",
		Size:     2048,
		URL:      "https://cdn.example.com/sunset.jpg",
	}
}

func TestMediaCreateAdjustsAlbumCount(t *testing.T) {
	svc, _, _, counters := newMediaService(t)

	media, err := svc.Create(context.Background(), ownerIdentity(), validMediaInput("a1"))
	require.NoError(t, err)
	assert.Equal(t, entities.MediaStatusPending, media.Status)
	assert.Equal(t, "a1", media.AlbumID)

	wantKey, err := dynamodb.AlbumKey("a1")
	require.NoError(t, err)
	ops := counters.recorded()
	require.Len(t, ops, 1)
	assert.Equal(t, wantKey, ops[0].Key)
	assert.Equal(t, dynamodb.CounterMediaCount, ops[0].Counter)
	assert.Equal(t, 1, ops[0].Delta)
}

func TestMediaCreateUnsortedSkipsAlbumCount(t *testing.T) {
	svc, _, _, counters := newMediaService(t)

	media, err := svc.Create(context.Background(), ownerIdentity(), validMediaInput(""))
	require.NoError(t, err)
	assert.Equal(t, entities.AlbumUnsorted, media.AlbumID)
	assert.Empty(t, counters.recorded(), "the unsorted sentinel has no row to count on")
}

func TestMediaCreateIntoForeignAlbum(t *testing.T) {
	svc, _, _, _ := newMediaService(t)

	_, err := svc.Create(context.Background(), strangerIdentity(), validMediaInput("a1"))
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestMediaDeleteSettlesAlbumCount(t *testing.T) {
	svc, _, _, counters := newMediaService(t)
	ctx := context.Background()

	media, err := svc.Create(ctx, ownerIdentity(), validMediaInput("a1"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, ownerIdentity(), media.ID))

	ops := counters.recorded()
	require.Len(t, ops, 2)
	assert.Equal(t, -1, ops[1].Delta)
	assert.Equal(t, dynamodb.CounterMediaCount, ops[1].Counter)
}

func TestMediaCounterFailureDoesNotFailTheWrite(t *testing.T) {
	svc, _, media, counters := newMediaService(t)
	counters.fail = true

	created, err := svc.Create(context.Background(), ownerIdentity(), validMediaInput("a1"))
	require.NoError(t, err, "count drift is recoverable, a lost upload is not")

	_, err = media.GetByID(context.Background(), created.ID)
	assert.NoError(t, err)
}

func TestMediaListPrivateAlbum(t *testing.T) {
	svc, _, _, _ := newMediaService(t)
	ctx := context.Background()

	_, _, _, err := svc.ListByAlbum(ctx, strangerIdentity(), "a1", pageOf(10))
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	_, _, _, err = svc.ListByAlbum(ctx, ownerIdentity(), "a1", pageOf(10))
	assert.NoError(t, err)
}
