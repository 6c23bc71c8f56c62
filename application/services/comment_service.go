package services

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lumina-backend/application/ports"
	"lumina-backend/domain/entities"
	"lumina-backend/pkg/common"
	apperrors "lumina-backend/pkg/errors"
	"lumina-backend/pkg/utils"
)

// CommentService orchestrates comments, including the interaction
// cleanup cascade when a comment is deleted.
type CommentService struct {
	comments     ports.CommentRepository
	interactions ports.InteractionRepository
	albums       ports.AlbumRepository
	media        ports.MediaRepository
	logger       *zap.Logger
}

// NewCommentService creates a new comment service
func NewCommentService(
	comments ports.CommentRepository,
	interactions ports.InteractionRepository,
	albums ports.AlbumRepository,
	media ports.MediaRepository,
	logger *zap.Logger,
) *CommentService {
	return &CommentService{
		comments:     comments,
		interactions: interactions,
		albums:       albums,
		media:        media,
		logger:       logger,
	}
}

// CreateCommentInput carries the fields of a comment creation request.
type CreateCommentInput struct {
	TargetType entities.TargetType `json:"targetType" validate:"required"`
	TargetID   string              `json:"targetId" validate:"required"`
	Content    string              `json:"content" validate:"required,min=1,max=5000"`
}

// Create posts a comment on an existing album, media item or comment.
func (s *CommentService) Create(ctx context.Context, identity common.Identity, input CreateCommentInput) (*entities.Comment, error) {
	if err := utils.ValidateStruct(input); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := s.verifyTarget(ctx, input.TargetType, input.TargetID); err != nil {
		return nil, err
	}

	now := utils.NowRFC3339()
	comment := &entities.Comment{
		ID:         uuid.New().String(),
		TargetType: input.TargetType,
		TargetID:   input.TargetID,
		UserID:     identity.UserID,
		Content:    input.Content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Get fetches a comment by id.
func (s *CommentService) Get(ctx context.Context, commentID string) (*entities.Comment, error) {
	return s.comments.Get(ctx, commentID)
}

// Update edits a comment's body. Only the author may edit; admins
// moderate by deleting, not by rewriting other people's words.
func (s *CommentService) Update(ctx context.Context, identity common.Identity, commentID, content string) (*entities.Comment, error) {
	comment, err := s.comments.Get(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if identity.UserID != comment.UserID {
		return nil, apperrors.NewForbiddenError("only the author may edit a comment")
	}
	return s.comments.UpdateContent(ctx, commentID, content)
}

// Delete removes a comment and the likes held against it. The author or
// an admin may delete.
func (s *CommentService) Delete(ctx context.Context, identity common.Identity, commentID string) error {
	comment, err := s.comments.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if !identity.IsAdmin() && identity.UserID != comment.UserID {
		return apperrors.NewForbiddenError("only the author may delete a comment")
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}
	s.removeCommentInteractions(ctx, commentID)
	return nil
}

// ListByTarget pages through the comments on a target.
func (s *CommentService) ListByTarget(ctx context.Context, targetType entities.TargetType, targetID string, page common.PageParams) ([]*entities.Comment, string, bool, error) {
	return s.comments.ListByTarget(ctx, targetType, targetID, page.Cursor, page.Limit, page.Descending)
}

// verifyTarget confirms the commented-on entity exists.
func (s *CommentService) verifyTarget(ctx context.Context, targetType entities.TargetType, targetID string) error {
	switch targetType {
	case entities.TargetTypeAlbum:
		_, err := s.albums.Get(ctx, targetID)
		return err
	case entities.TargetTypeMedia:
		_, err := s.media.GetByID(ctx, targetID)
		return err
	case entities.TargetTypeComment:
		_, err := s.comments.Get(ctx, targetID)
		return err
	}
	return apperrors.NewValidationError("unknown target type: " + string(targetType))
}

// removeCommentInteractions clears the like rows pointing at a deleted
// comment. Best effort: orphaned rows are invisible once the comment is
// gone and are swept opportunistically here.
func (s *CommentService) removeCommentInteractions(ctx context.Context, commentID string) {
	for _, kind := range []entities.InteractionType{entities.InteractionLike, entities.InteractionBookmark} {
		for {
			likes, _, _, err := s.interactions.ListByTarget(ctx, entities.TargetTypeComment, commentID, kind, "", common.MaxPageLimit, false)
			if err != nil {
				s.logger.Warn("Failed to sweep interactions of deleted comment",
					zap.String("commentID", commentID),
					zap.Error(err),
				)
				return
			}
			if len(likes) == 0 {
				break
			}
			for _, like := range likes {
				if _, err := s.interactions.Remove(ctx, like.UserID, kind, entities.TargetTypeComment, commentID); err != nil {
					s.logger.Warn("Failed to remove interaction of deleted comment",
						zap.String("commentID", commentID),
						zap.String("userID", like.UserID),
						zap.Error(err),
					)
					return
				}
			}
		}
	}
}
