package ports

import (
	"context"

	"lumina-backend/domain/entities"
	"lumina-backend/domain/events"
	"lumina-backend/infrastructure/persistence/dynamodb"
)

// AlbumRepository defines the interface for album persistence
type AlbumRepository interface {
	// Create persists a new album; the id must be free
	Create(ctx context.Context, album *entities.Album) error

	// Get retrieves an album by its id
	Get(ctx context.Context, albumID string) (*entities.Album, error)

	// Update applies a partial update and returns the merged album
	Update(ctx context.Context, albumID string, patch entities.AlbumPatch) (*entities.Album, error)

	// Delete removes the album row; cascades are the service's job
	Delete(ctx context.Context, albumID string) error

	// List pages through all albums in creation order
	List(ctx context.Context, cursor string, limit int, descending bool) ([]*entities.Album, string, bool, error)

	// ListByCreator pages through one creator's albums
	ListByCreator(ctx context.Context, createdBy, cursor string, limit int, descending bool) ([]*entities.Album, string, bool, error)
}

// MediaRepository defines the interface for media persistence
type MediaRepository interface {
	// Create persists a new media item; the id must be free
	Create(ctx context.Context, media *entities.Media) error

	// GetByID retrieves a media item by id alone
	GetByID(ctx context.Context, mediaID string) (*entities.Media, error)

	// ListByAlbum pages through the media of an album
	ListByAlbum(ctx context.Context, albumID, cursor string, limit int, descending bool) ([]*entities.Media, string, bool, error)

	// ListByCreator pages through one creator's media
	ListByCreator(ctx context.Context, createdBy, cursor string, limit int, descending bool) ([]*entities.Media, string, bool, error)

	// Update applies a partial update and returns the merged media item
	Update(ctx context.Context, mediaID string, patch entities.MediaPatch) (*entities.Media, error)

	// Delete removes the media row
	Delete(ctx context.Context, mediaID string) error

	// Detach moves the media out of its album under the unsorted sentinel
	Detach(ctx context.Context, media *entities.Media) error
}

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Create persists a new user along with its uniqueness guards
	Create(ctx context.Context, user *entities.User) error

	// Get retrieves a user by id
	Get(ctx context.Context, userID string) (*entities.User, error)

	// FindByEmail resolves a user through the email uniqueness guard
	FindByEmail(ctx context.Context, email string) (*entities.User, error)

	// FindByUsername resolves a user through the username uniqueness guard
	FindByUsername(ctx context.Context, username string) (*entities.User, error)

	// Update applies a partial update and returns the merged user
	Update(ctx context.Context, userID string, patch entities.UserPatch) (*entities.User, error)

	// TouchLastActive stamps the user's last-activity timestamp
	TouchLastActive(ctx context.Context, userID string) error

	// SoftDelete anonymizes the user and releases its uniqueness guards
	SoftDelete(ctx context.Context, userID string) error
}

// CommentRepository defines the interface for comment persistence
type CommentRepository interface {
	// Create persists a new comment; the id must be free
	Create(ctx context.Context, comment *entities.Comment) error

	// Get retrieves a comment by id
	Get(ctx context.Context, commentID string) (*entities.Comment, error)

	// UpdateContent replaces the comment body and marks it edited
	UpdateContent(ctx context.Context, commentID, content string) (*entities.Comment, error)

	// Delete removes the comment row
	Delete(ctx context.Context, commentID string) error

	// ListByTarget pages through the comments on a target
	ListByTarget(ctx context.Context, targetType entities.TargetType, targetID, cursor string, limit int, descending bool) ([]*entities.Comment, string, bool, error)
}

// InteractionRepository defines the interface for like/bookmark persistence
type InteractionRepository interface {
	// Add persists the interaction; a duplicate is a conflict
	Add(ctx context.Context, interaction *entities.Interaction) error

	// Remove deletes the interaction and reports whether it existed
	Remove(ctx context.Context, userID string, interactionType entities.InteractionType, targetType entities.TargetType, targetID string) (bool, error)

	// Exists reports whether the user holds this interaction
	Exists(ctx context.Context, userID string, interactionType entities.InteractionType, targetType entities.TargetType, targetID string) (bool, error)

	// ListByUser pages through a user's interactions of one type
	ListByUser(ctx context.Context, userID string, interactionType entities.InteractionType, cursor string, limit int, descending bool) ([]*entities.Interaction, string, bool, error)

	// ListByTarget pages through the interactions held against a target
	ListByTarget(ctx context.Context, targetType entities.TargetType, targetID string, interactionType entities.InteractionType, cursor string, limit int, descending bool) ([]*entities.Interaction, string, bool, error)

	// CountByTarget derives the true count from the interaction rows
	CountByTarget(ctx context.Context, targetType entities.TargetType, targetID string, interactionType entities.InteractionType) (int, error)
}

// SessionRepository defines the interface for session persistence
type SessionRepository interface {
	// Create persists a new login session
	Create(ctx context.Context, session *entities.Session) error

	// Get retrieves a live session; expired sessions read as missing
	Get(ctx context.Context, sessionID string) (*entities.Session, error)

	// Delete removes a session; deleting an absent session is a no-op
	Delete(ctx context.Context, sessionID string) error
}

// CounterStore defines the interface for denormalized counter maintenance
type CounterStore interface {
	// Adjust atomically adds delta to a counter on an existing row
	Adjust(ctx context.Context, key dynamodb.Key, counterName string, delta int) error

	// Set overwrites a counter with an absolute value
	Set(ctx context.Context, key dynamodb.Key, counterName string, value int) error
}

// EventPublisher defines the interface for emitting entity change events
type EventPublisher interface {
	// PublishEntityChanged emits one entity change notification
	PublishEntityChanged(ctx context.Context, event events.EntityChanged) error
}
