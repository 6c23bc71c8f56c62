package dynamodb

import (
	"fmt"
	"strings"

	"lumina-backend/domain/entities"
	apperrors "lumina-backend/pkg/errors"
)

// Key attribute names of the table and its secondary indexes.
const (
	AttrPK     = "PK"
	AttrSK     = "SK"
	AttrGSI1PK = "GSI1PK"
	AttrGSI1SK = "GSI1SK"
	AttrGSI2PK = "GSI2PK"
	AttrGSI2SK = "GSI2SK"
	AttrGSI3PK = "GSI3PK"
	AttrGSI3SK = "GSI3SK"
	AttrGSI4PK = "GSI4PK"
	AttrGSI4SK = "GSI4SK"

	AttrEntityType = "EntityType"
	AttrTTL        = "TTL"
)

// Symbolic index names. Route handlers and services reference these, never
// raw index numbers; Indexes maps them to the physical GSI names.
const (
	IndexChronological = "chronological"
	IndexByCreator     = "by-creator"
	IndexByGlobalID    = "by-global-id"
	IndexByTarget      = "by-target"
)

// Key prefixes and sentinels.
const (
	prefixAlbum       = "ALBUM#"
	prefixMedia       = "MEDIA#"
	prefixUser        = "USER#"
	prefixComment     = "COMMENT#"
	prefixSession     = "SESSION#"
	prefixInteraction = "INTERACTION#"
	prefixUserEmail   = "USER_EMAIL#"
	prefixUsername    = "USER_USERNAME#"

	skMetadata = "METADATA"
	skUnique   = "UNIQUE"

	albumListPartition     = "ALBUM"
	albumCreatorPartition  = "ALBUM_BY_CREATOR"
	mediaCreatorPartition  = "MEDIA_BY_CREATOR"
)

// Indexes maps the symbolic index names to the physical GSI names the
// table was provisioned with.
type Indexes struct {
	Chronological string
	ByCreator     string
	ByGlobalID    string
	ByTarget      string
}

// Physical resolves a symbolic index name.
func (ix Indexes) Physical(symbolic string) (string, error) {
	switch symbolic {
	case IndexChronological:
		return ix.Chronological, nil
	case IndexByCreator:
		return ix.ByCreator, nil
	case IndexByGlobalID:
		return ix.ByGlobalID, nil
	case IndexByTarget:
		return ix.ByTarget, nil
	}
	return "", apperrors.NewPreconditionFailedError(fmt.Sprintf("unknown index %q", symbolic))
}

// keyAttrs returns the attribute names that make up a position on the
// given symbolic index ("" means the table itself). DynamoDB exclusive
// start keys on a GSI carry the index key and the primary key.
func keyAttrs(symbolic string) []string {
	switch symbolic {
	case IndexChronological:
		return []string{AttrPK, AttrSK, AttrGSI1PK, AttrGSI1SK}
	case IndexByCreator:
		return []string{AttrPK, AttrSK, AttrGSI2PK, AttrGSI2SK}
	case IndexByGlobalID:
		return []string{AttrPK, AttrSK, AttrGSI3PK, AttrGSI3SK}
	case IndexByTarget:
		return []string{AttrPK, AttrSK, AttrGSI4PK, AttrGSI4SK}
	}
	return []string{AttrPK, AttrSK}
}

// Key is a derived PK/SK pair.
type Key struct {
	PK string
	SK string
}

// Key derivation is pure and collision-free by construction: every PK is
// prefixed with a type tag and sort keys that support range queries embed
// an RFC3339 UTC timestamp, tie-broken by the entity id appended last.

// AlbumKey returns the primary key of an album row.
func AlbumKey(albumID string) (Key, error) {
	if albumID == "" {
		return Key{}, apperrors.NewPreconditionFailedError("album id is required for key derivation")
	}
	return Key{PK: prefixAlbum + albumID, SK: skMetadata}, nil
}

// AlbumChronologicalKey returns the chronological listing index key.
func AlbumChronologicalKey(albumID, createdAt string) (Key, error) {
	if albumID == "" || createdAt == "" {
		return Key{}, apperrors.NewPreconditionFailedError("album id and createdAt are required for the chronological index key")
	}
	return Key{PK: albumListPartition, SK: createdAt + "#" + albumID}, nil
}

// AlbumByCreatorKey returns the by-creator index key of an album row.
func AlbumByCreatorKey(albumID, createdBy, createdAt string) (Key, error) {
	if albumID == "" || createdBy == "" || createdAt == "" {
		return Key{}, apperrors.NewPreconditionFailedError("album id, createdBy and createdAt are required for the by-creator index key")
	}
	return Key{PK: albumCreatorPartition, SK: createdBy + "#" + createdAt + "#" + albumID}, nil
}

// MediaKey returns the primary key of a media row. Media always lives
// under an album partition; detached media uses the UNSORTED sentinel.
func MediaKey(albumID, mediaID string) (Key, error) {
	if albumID == "" {
		return Key{}, apperrors.NewPreconditionFailedError("album id is required for media key derivation")
	}
	if mediaID == "" {
		return Key{}, apperrors.NewPreconditionFailedError("media id is required for key derivation")
	}
	return Key{PK: prefixAlbum + albumID, SK: prefixMedia + mediaID}, nil
}

// MediaGlobalKey returns the global-lookup index key, allowing direct
// fetch of a media row without knowing its album.
func MediaGlobalKey(mediaID string) (Key, error) {
	if mediaID == "" {
		return Key{}, apperrors.NewPreconditionFailedError("media id is required for the global-id index key")
	}
	return Key{PK: prefixMedia + mediaID, SK: skMetadata}, nil
}

// MediaByCreatorKey returns the by-creator index key of a media row.
func MediaByCreatorKey(mediaID, createdBy, createdAt string) (Key, error) {
	if mediaID == "" || createdBy == "" || createdAt == "" {
		return Key{}, apperrors.NewPreconditionFailedError("media id, createdBy and createdAt are required for the by-creator index key")
	}
	return Key{PK: mediaCreatorPartition, SK: createdBy + "#" + createdAt + "#" + mediaID}, nil
}

// UserKey returns the primary key of a user row.
func UserKey(userID string) (Key, error) {
	if userID == "" {
		return Key{}, apperrors.NewPreconditionFailedError("user id is required for key derivation")
	}
	return Key{PK: prefixUser + userID, SK: skMetadata}, nil
}

// UserEmailGuardKey returns the uniqueness guard row key for an email.
// Guard rows exist solely as conditional-write existence checks.
func UserEmailGuardKey(email string) (Key, error) {
	if email == "" {
		return Key{}, apperrors.NewPreconditionFailedError("email is required for the uniqueness guard key")
	}
	return Key{PK: prefixUserEmail + strings.ToLower(email), SK: skUnique}, nil
}

// UsernameGuardKey returns the uniqueness guard row key for a username.
func UsernameGuardKey(username string) (Key, error) {
	if username == "" {
		return Key{}, apperrors.NewPreconditionFailedError("username is required for the uniqueness guard key")
	}
	return Key{PK: prefixUsername + strings.ToLower(username), SK: skUnique}, nil
}

// CommentKey returns the primary key of a comment row.
func CommentKey(commentID string) (Key, error) {
	if commentID == "" {
		return Key{}, apperrors.NewPreconditionFailedError("comment id is required for key derivation")
	}
	return Key{PK: prefixComment + commentID, SK: skMetadata}, nil
}

// CommentByTargetKey returns the by-target index key of a comment row.
func CommentByTargetKey(targetType entities.TargetType, targetID, createdAt, commentID string) (Key, error) {
	if !targetType.Valid() || targetID == "" || createdAt == "" || commentID == "" {
		return Key{}, apperrors.NewPreconditionFailedError("target, createdAt and comment id are required for the by-target index key")
	}
	return Key{
		PK: targetPartition(targetType, targetID) + "#COMMENT",
		SK: createdAt + "#" + commentID,
	}, nil
}

// InteractionKey returns the primary key of an interaction row. One row
// per (user, type, target) guarantees idempotence by construction.
func InteractionKey(userID string, interactionType entities.InteractionType, targetType entities.TargetType, targetID string) (Key, error) {
	if userID == "" || targetID == "" {
		return Key{}, apperrors.NewPreconditionFailedError("user id and target id are required for interaction key derivation")
	}
	if !interactionType.Valid() {
		return Key{}, apperrors.NewPreconditionFailedError(fmt.Sprintf("unknown interaction type %q", interactionType))
	}
	if !targetType.Valid() {
		return Key{}, apperrors.NewPreconditionFailedError(fmt.Sprintf("unknown target type %q", targetType))
	}
	return Key{
		PK: prefixUser + userID,
		SK: prefixInteraction + string(interactionType) + "#" + string(targetType) + "#" + targetID,
	}, nil
}

// InteractionByTargetKey returns the by-target index key of an interaction
// row, used for counting and "did this user like X" aggregate queries.
func InteractionByTargetKey(userID string, interactionType entities.InteractionType, targetType entities.TargetType, targetID, createdAt string) (Key, error) {
	if _, err := InteractionKey(userID, interactionType, targetType, targetID); err != nil {
		return Key{}, err
	}
	if createdAt == "" {
		return Key{}, apperrors.NewPreconditionFailedError("createdAt is required for the by-target index key")
	}
	return Key{
		PK: targetPartition(targetType, targetID) + "#" + prefixInteraction + string(interactionType),
		SK: createdAt + "#" + userID,
	}, nil
}

// InteractionSKPrefix returns the sort key prefix for listing a user's
// interactions of one type ("my likes").
func InteractionSKPrefix(interactionType entities.InteractionType) string {
	return prefixInteraction + string(interactionType) + "#"
}

// SessionKey returns the primary key of a session row.
func SessionKey(sessionID string) (Key, error) {
	if sessionID == "" {
		return Key{}, apperrors.NewPreconditionFailedError("session id is required for key derivation")
	}
	return Key{PK: prefixSession + sessionID, SK: skMetadata}, nil
}

// targetPartition builds the shared partition prefix of by-target index
// keys for a (targetType, targetID) pair.
func targetPartition(targetType entities.TargetType, targetID string) string {
	return strings.ToUpper(string(targetType)) + "#" + targetID
}

// TargetInteractionPartition returns the by-target partition value listing
// all interactions of one type against a target.
func TargetInteractionPartition(targetType entities.TargetType, targetID string, interactionType entities.InteractionType) (string, error) {
	if !targetType.Valid() || targetID == "" || !interactionType.Valid() {
		return "", apperrors.NewPreconditionFailedError("target and interaction type are required")
	}
	return targetPartition(targetType, targetID) + "#" + prefixInteraction + string(interactionType), nil
}

// TargetCommentPartition returns the by-target partition value listing
// comments on a target.
func TargetCommentPartition(targetType entities.TargetType, targetID string) (string, error) {
	if !targetType.Valid() || targetID == "" {
		return "", apperrors.NewPreconditionFailedError("target is required")
	}
	return targetPartition(targetType, targetID) + "#COMMENT", nil
}
