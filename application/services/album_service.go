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

// AlbumService orchestrates album operations: ownership checks, counter
// upkeep, the media detach cascade on delete, and change notifications.
type AlbumService struct {
	albums    ports.AlbumRepository
	media     ports.MediaRepository
	counters  ports.CounterStore
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewAlbumService creates a new album service
func NewAlbumService(
	albums ports.AlbumRepository,
	media ports.MediaRepository,
	counters ports.CounterStore,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *AlbumService {
	return &AlbumService{
		albums:    albums,
		media:     media,
		counters:  counters,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateAlbumInput carries the fields of an album creation request.
type CreateAlbumInput struct {
	Title         string            `json:"title" validate:"required,min=1,max=200"`
	Description   string            `json:"description" validate:"max=2000"`
	Tags          []string          `json:"tags" validate:"max=20,dive,min=1,max=50"`
	IsPublic      bool              `json:"isPublic"`
	CoverImageURL string            `json:"coverImageUrl" validate:"omitempty,url"`
	ThumbnailURLs map[string]string `json:"thumbnailUrls"`
}

// Create makes a new album owned by the caller.
func (s *AlbumService) Create(ctx context.Context, identity common.Identity, input CreateAlbumInput) (*entities.Album, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	now := utils.NowRFC3339()
	album := &entities.Album{
		ID:            uuid.New().String(),
		Title:         input.Title,
		Description:   input.Description,
		Tags:          input.Tags,
		IsPublic:      input.IsPublic,
		CoverImageURL: input.CoverImageURL,
		ThumbnailURLs: input.ThumbnailURLs,
		CreatedBy:     identity.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.albums.Create(ctx, album); err != nil {
		return nil, err
	}

	s.notify(ctx, entities.EntityTypeAlbum, album.ID, events.ActionCreated)
	return album, nil
}

// Get fetches an album, enforcing visibility: private albums are only
// readable by their creator or an admin.
func (s *AlbumService) Get(ctx context.Context, identity common.Identity, albumID string) (*entities.Album, error) {
	album, err := s.albums.Get(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if !s.canView(identity, album) {
		return nil, apperrors.NewForbiddenError("album is private")
	}
	return album, nil
}

// Update applies a partial update. Only the creator or an admin may edit.
func (s *AlbumService) Update(ctx context.Context, identity common.Identity, albumID string, patch entities.AlbumPatch) (*entities.Album, error) {
	album, err := s.albums.Get(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if err := s.requireOwner(identity, album.CreatedBy); err != nil {
		return nil, err
	}

	updated, err := s.albums.Update(ctx, albumID, patch)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, entities.EntityTypeAlbum, albumID, events.ActionUpdated)
	return updated, nil
}

// Delete removes an album. Its media is not destroyed: every item is
// detached under the unsorted sentinel first, then the album row goes.
func (s *AlbumService) Delete(ctx context.Context, identity common.Identity, albumID string) error {
	album, err := s.albums.Get(ctx, albumID)
	if err != nil {
		return err
	}
	if err := s.requireOwner(identity, album.CreatedBy); err != nil {
		return err
	}

	// Detaching empties the album partition, so each pass restarts from
	// the front instead of chasing a cursor into moved rows.
	detached := 0
	for {
		media, _, _, err := s.media.ListByAlbum(ctx, albumID, "", common.MaxPageLimit, false)
		if err != nil {
			return err
		}
		if len(media) == 0 {
			break
		}
		for _, m := range media {
			if err := s.media.Detach(ctx, m); err != nil {
				return err
			}
			detached++
		}
	}

	if err := s.albums.Delete(ctx, albumID); err != nil {
		return err
	}

	s.logger.Info("Album deleted",
		zap.String("albumID", albumID),
		zap.Int("mediaDetached", detached),
	)
	s.notify(ctx, entities.EntityTypeAlbum, albumID, events.ActionDeleted)
	return nil
}

// List pages through albums chronologically. Private albums of other
// users are filtered from the page.
func (s *AlbumService) List(ctx context.Context, identity common.Identity, page common.PageParams) ([]*entities.Album, string, bool, error) {
	albums, cursor, hasNext, err := s.albums.List(ctx, page.Cursor, page.Limit, page.Descending)
	if err != nil {
		return nil, "", false, err
	}
	return s.filterVisible(identity, albums), cursor, hasNext, nil
}

// ListByCreator pages through one creator's albums.
func (s *AlbumService) ListByCreator(ctx context.Context, identity common.Identity, createdBy string, page common.PageParams) ([]*entities.Album, string, bool, error) {
	albums, cursor, hasNext, err := s.albums.ListByCreator(ctx, createdBy, page.Cursor, page.Limit, page.Descending)
	if err != nil {
		return nil, "", false, err
	}
	return s.filterVisible(identity, albums), cursor, hasNext, nil
}

// RecordView bumps the album's view counter. View counting is best
// effort: a failed bump is logged, never surfaced to the reader.
func (s *AlbumService) RecordView(ctx context.Context, albumID string) {
	key, err := dynamodb.AlbumKey(albumID)
	if err != nil {
		return
	}
	if err := s.counters.Adjust(ctx, key, dynamodb.CounterViewCount, 1); err != nil {
		s.logger.Warn("Failed to record album view",
			zap.String("albumID", albumID),
			zap.Error(err),
		)
	}
}

func (s *AlbumService) canView(identity common.Identity, album *entities.Album) bool {
	return album.IsPublic || identity.IsAdmin() || identity.UserID == album.CreatedBy
}

func (s *AlbumService) requireOwner(identity common.Identity, createdBy string) error {
	if identity.IsAdmin() || identity.UserID == createdBy {
		return nil
	}
	return apperrors.NewForbiddenError("only the creator may modify this album")
}

func (s *AlbumService) filterVisible(identity common.Identity, albums []*entities.Album) []*entities.Album {
	visible := make([]*entities.Album, 0, len(albums))
	for _, album := range albums {
		if s.canView(identity, album) {
			visible = append(visible, album)
		}
	}
	return visible
}

func (s *AlbumService) notify(ctx context.Context, entityType entities.EntityType, entityID string, action events.ChangeAction) {
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
