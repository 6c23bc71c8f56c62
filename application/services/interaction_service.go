package services

import (
	"context"

	"go.uber.org/zap"

	"lumina-backend/application/ports"
	"lumina-backend/domain/entities"
	"lumina-backend/infrastructure/persistence/dynamodb"
	"lumina-backend/pkg/common"
	apperrors "lumina-backend/pkg/errors"
	"lumina-backend/pkg/utils"
)

// InteractionService implements the like/bookmark toggle. The interaction
// row is the source of truth and always moves first; the denormalized
// counter follows, and a failed counter write is drift, not a lost like.
type InteractionService struct {
	interactions ports.InteractionRepository
	albums       ports.AlbumRepository
	media        ports.MediaRepository
	comments     ports.CommentRepository
	counters     ports.CounterStore
	logger       *zap.Logger
}

// NewInteractionService creates a new interaction service
func NewInteractionService(
	interactions ports.InteractionRepository,
	albums ports.AlbumRepository,
	media ports.MediaRepository,
	comments ports.CommentRepository,
	counters ports.CounterStore,
	logger *zap.Logger,
) *InteractionService {
	return &InteractionService{
		interactions: interactions,
		albums:       albums,
		media:        media,
		comments:     comments,
		counters:     counters,
		logger:       logger,
	}
}

// Add records a like or bookmark. Adding one the caller already holds is
// a conflict so clients can distinguish "done" from "was already done".
func (s *InteractionService) Add(ctx context.Context, identity common.Identity, interactionType entities.InteractionType, targetType entities.TargetType, targetID string) error {
	targetKey, err := s.resolveTargetKey(ctx, targetType, targetID)
	if err != nil {
		return err
	}

	interaction := &entities.Interaction{
		UserID:     identity.UserID,
		Type:       interactionType,
		TargetType: targetType,
		TargetID:   targetID,
		CreatedAt:  utils.NowRFC3339(),
	}
	if err := s.interactions.Add(ctx, interaction); err != nil {
		return err
	}

	s.adjustCounter(ctx, targetKey, interactionType, targetID, 1)
	return nil
}

// Remove withdraws a like or bookmark. Removing one the caller does not
// hold is a no-op; the counter only moves when a row actually left.
func (s *InteractionService) Remove(ctx context.Context, identity common.Identity, interactionType entities.InteractionType, targetType entities.TargetType, targetID string) error {
	targetKey, err := s.resolveTargetKey(ctx, targetType, targetID)
	if err != nil {
		return err
	}

	existed, err := s.interactions.Remove(ctx, identity.UserID, interactionType, targetType, targetID)
	if err != nil {
		return err
	}
	if existed {
		s.adjustCounter(ctx, targetKey, interactionType, targetID, -1)
	}
	return nil
}

// Has reports whether the caller holds the interaction on the target.
func (s *InteractionService) Has(ctx context.Context, identity common.Identity, interactionType entities.InteractionType, targetType entities.TargetType, targetID string) (bool, error) {
	return s.interactions.Exists(ctx, identity.UserID, interactionType, targetType, targetID)
}

// ListMine pages through the caller's interactions of one type.
func (s *InteractionService) ListMine(ctx context.Context, identity common.Identity, interactionType entities.InteractionType, page common.PageParams) ([]*entities.Interaction, string, bool, error) {
	return s.interactions.ListByUser(ctx, identity.UserID, interactionType, page.Cursor, page.Limit, page.Descending)
}

// ListByTarget pages through who liked or bookmarked a target.
func (s *InteractionService) ListByTarget(ctx context.Context, targetType entities.TargetType, targetID string, interactionType entities.InteractionType, page common.PageParams) ([]*entities.Interaction, string, bool, error) {
	return s.interactions.ListByTarget(ctx, targetType, targetID, interactionType, page.Cursor, page.Limit, page.Descending)
}

// RebuildCounter re-derives a target's counter from its interaction rows
// and overwrites the stored value. Admin-only repair path for drift left
// by failed counter adjustments.
func (s *InteractionService) RebuildCounter(ctx context.Context, identity common.Identity, interactionType entities.InteractionType, targetType entities.TargetType, targetID string) (int, error) {
	if !identity.IsAdmin() {
		return 0, apperrors.NewForbiddenError("counter rebuild is admin-only")
	}

	targetKey, err := s.resolveTargetKey(ctx, targetType, targetID)
	if err != nil {
		return 0, err
	}
	count, err := s.interactions.CountByTarget(ctx, targetType, targetID, interactionType)
	if err != nil {
		return 0, err
	}
	if err := s.counters.Set(ctx, targetKey, interactionType.CounterName(), count); err != nil {
		return 0, err
	}

	s.logger.Info("Counter rebuilt from interaction rows",
		zap.String("targetType", string(targetType)),
		zap.String("targetID", targetID),
		zap.String("type", string(interactionType)),
		zap.Int("count", count),
	)
	return count, nil
}

// resolveTargetKey verifies the target exists and returns its primary
// key, where the denormalized counter lives. Media needs the extra hop
// because its partition embeds the album id.
func (s *InteractionService) resolveTargetKey(ctx context.Context, targetType entities.TargetType, targetID string) (dynamodb.Key, error) {
	switch targetType {
	case entities.TargetTypeAlbum:
		if _, err := s.albums.Get(ctx, targetID); err != nil {
			return dynamodb.Key{}, err
		}
		return dynamodb.AlbumKey(targetID)
	case entities.TargetTypeMedia:
		media, err := s.media.GetByID(ctx, targetID)
		if err != nil {
			return dynamodb.Key{}, err
		}
		return dynamodb.MediaKey(media.AlbumID, media.ID)
	case entities.TargetTypeComment:
		if _, err := s.comments.Get(ctx, targetID); err != nil {
			return dynamodb.Key{}, err
		}
		return dynamodb.CommentKey(targetID)
	}
	return dynamodb.Key{}, apperrors.NewValidationError("unknown target type: " + string(targetType))
}

func (s *InteractionService) adjustCounter(ctx context.Context, targetKey dynamodb.Key, interactionType entities.InteractionType, targetID string, delta int) {
	if err := s.counters.Adjust(ctx, targetKey, interactionType.CounterName(), delta); err != nil {
		s.logger.Warn("Counter adjustment failed, count has drifted",
			zap.String("targetID", targetID),
			zap.String("counter", interactionType.CounterName()),
			zap.Int("delta", delta),
			zap.Error(err),
		)
	}
}
