package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lumina-backend/application/ports"
	"lumina-backend/domain/entities"
	"lumina-backend/domain/events"
	"lumina-backend/infrastructure/persistence/dynamodb"
	"lumina-backend/pkg/common"
	apperrors "lumina-backend/pkg/errors"
	"lumina-backend/pkg/utils"
)

// MediaService orchestrates media operations. It owns the album
// MediaCount upkeep: the count moves when media enters or leaves an
// album, never anywhere else.
type MediaService struct {
	media     ports.MediaRepository
	albums    ports.AlbumRepository
	counters  ports.CounterStore
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewMediaService creates a new media service
func NewMediaService(
	media ports.MediaRepository,
	albums ports.AlbumRepository,
	counters ports.CounterStore,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *MediaService {
	return &MediaService{
		media:     media,
		albums:    albums,
		counters:  counters,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateMediaInput carries the fields of a media upload registration.
type CreateMediaInput struct {
	AlbumID          string `json:"albumId"`
	Filename         string `json:"filename" validate:"required,min=1,max=255"`
	OriginalFilename string `json:"originalFilename" validate:"max=255"`
	MimeType         string `json:"mimeType" validate:"required"`
	Size             int64  `json:"size" validate:"required,min=1"`
	URL              string `json:"url" validate:"required,url"`
}

// Create registers a new media item in pending state. The caller must
// own the destination album; an empty album id files it as unsorted.
func (s *MediaService) Create(ctx context.Context, identity common.Identity, input CreateMediaInput) (*entities.Media, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	albumID := input.AlbumID
	if albumID == "" {
		albumID = entities.AlbumUnsorted
	}
	if albumID != entities.AlbumUnsorted {
		album, err := s.albums.Get(ctx, albumID)
		if err != nil {
			return nil, err
		}
		if !identity.IsAdmin() && identity.UserID != album.CreatedBy {
			return nil, apperrors.NewForbiddenError("only the album creator may add media")
		}
	}

	now := utils.NowRFC3339()
	media := &entities.Media{
		ID:               uuid.New().String(),
		AlbumID:          albumID,
		Filename:         input.Filename,
		OriginalFilename: input.OriginalFilename,
		MimeType:         input.MimeType,
		Size:             input.Size,
		URL:              input.URL,
		Status:           entities.MediaStatusPending,
		CreatedBy:        identity.UserID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.media.Create(ctx, media); err != nil {
		return nil, err
	}

	s.adjustAlbumCount(ctx, albumID, 1)
	s.notify(ctx, entities.EntityTypeMedia, media.ID, events.ActionCreated)
	return media, nil
}

// Get fetches a media item by id.
func (s *MediaService) Get(ctx context.Context, mediaID string) (*entities.Media, error) {
	return s.media.GetByID(ctx, mediaID)
}

// Update applies a partial update. Only the creator or an admin may edit.
func (s *MediaService) Update(ctx context.Context, identity common.Identity, mediaID string, patch entities.MediaPatch) (*entities.Media, error) {
	media, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	if !identity.IsAdmin() && identity.UserID != media.CreatedBy {
		return nil, apperrors.NewForbiddenError("only the creator may modify this media")
	}

	updated, err := s.media.Update(ctx, mediaID, patch)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, entities.EntityTypeMedia, mediaID, events.ActionUpdated)
	return updated, nil
}

// Delete removes a media item and settles the album count it leaves.
func (s *MediaService) Delete(ctx context.Context, identity common.Identity, mediaID string) error {
	media, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		return err
	}
	if !identity.IsAdmin() && identity.UserID != media.CreatedBy {
		return apperrors.NewForbiddenError("only the creator may delete this media")
	}

	if err := s.media.Delete(ctx, mediaID); err != nil {
		return err
	}

	s.adjustAlbumCount(ctx, media.AlbumID, -1)
	s.notify(ctx, entities.EntityTypeMedia, mediaID, events.ActionDeleted)
	return nil
}

// ListByAlbum pages through the media of an album.
func (s *MediaService) ListByAlbum(ctx context.Context, identity common.Identity, albumID string, page common.PageParams) ([]*entities.Media, string, bool, error) {
	if albumID != entities.AlbumUnsorted {
		album, err := s.albums.Get(ctx, albumID)
		if err != nil {
			return nil, "", false, err
		}
		if !album.IsPublic && !identity.IsAdmin() && identity.UserID != album.CreatedBy {
			return nil, "", false, apperrors.NewForbiddenError("album is private")
		}
	}
	return s.media.ListByAlbum(ctx, albumID, page.Cursor, page.Limit, page.Descending)
}

// ListByCreator pages through one creator's media.
func (s *MediaService) ListByCreator(ctx context.Context, createdBy string, page common.PageParams) ([]*entities.Media, string, bool, error) {
	return s.media.ListByCreator(ctx, createdBy, page.Cursor, page.Limit, page.Descending)
}

// RecordView bumps the media view counter, best effort.
func (s *MediaService) RecordView(ctx context.Context, mediaID string) {
	media, err := s.media.GetByID(ctx, mediaID)
	if err != nil {
		return
	}
	key, err := dynamodb.MediaKey(media.AlbumID, media.ID)
	if err != nil {
		return
	}
	if err := s.counters.Adjust(ctx, key, dynamodb.CounterViewCount, 1); err != nil {
		s.logger.Warn("Failed to record media view",
			zap.String("mediaID", mediaID),
			zap.Error(err),
		)
	}
}

// adjustAlbumCount settles an album's MediaCount after media moves in or
// out. Counter drift is logged and recoverable, never fatal to the write
// that caused it.
func (s *MediaService) adjustAlbumCount(ctx context.Context, albumID string, delta int) {
	if albumID == entities.AlbumUnsorted {
		return
	}
	key, err := dynamodb.AlbumKey(albumID)
	if err != nil {
		return
	}
	if err := s.counters.Adjust(ctx, key, dynamodb.CounterMediaCount, delta); err != nil {
		s.logger.Warn("Failed to adjust album media count",
			zap.String("albumID", albumID),
			zap.Int("delta", delta),
			zap.Error(err),
		)
	}
}

func (s *MediaService) notify(ctx context.Context, entityType entities.EntityType, entityID string, action events.ChangeAction) {
	if s.publisher == nil {
		return
	}
	event := events.NewEntityChanged(entityType, entityID, action)
	if err := s.publisher.PublishEntityChanged(ctx, event); err != nil {
		s.logger.Warn("Failed to publish entity change",
			zap.String("entityType", string(entityType)),
			zap.String("entityID", entityID),
			zap.Error(err),
		)
	}
}
