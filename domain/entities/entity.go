// Package entities defines the typed records stored in the platform's
// single DynamoDB table. Raw rows are decoded into exactly one of these
// types at the repository boundary; untyped rows never cross it.
package entities

// EntityType discriminates row kinds within the single table. Every row
// carries one.
type EntityType string

const (
	EntityTypeAlbum       EntityType = "ALBUM"
	EntityTypeMedia       EntityType = "MEDIA"
	EntityTypeUser        EntityType = "USER"
	EntityTypeComment     EntityType = "COMMENT"
	EntityTypeInteraction EntityType = "INTERACTION"
	EntityTypeSession     EntityType = "SESSION"
	EntityTypeUniqueGuard EntityType = "UNIQUE_GUARD"
)

// TargetType identifies what a comment or interaction points at.
type TargetType string

const (
	TargetTypeAlbum   TargetType = "album"
	TargetTypeMedia   TargetType = "media"
	TargetTypeComment TargetType = "comment"
)

// Valid reports whether the target type is one of the known kinds.
func (t TargetType) Valid() bool {
	switch t {
	case TargetTypeAlbum, TargetTypeMedia, TargetTypeComment:
		return true
	}
	return false
}

// Role is the resolved authorization role of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AlbumUnsorted is the sentinel album id for media that belongs to no album,
// either never assigned or detached when its album was deleted.
const AlbumUnsorted = "UNSORTED"
