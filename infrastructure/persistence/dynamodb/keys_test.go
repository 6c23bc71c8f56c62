package dynamodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lumina-backend/domain/entities"
	apperrors "lumina-backend/pkg/errors"
)

func TestKeyDerivation(t *testing.T) {
	tests := []struct {
		name   string
		derive func() (Key, error)
		want   Key
	}{
		{
			name:   "album",
			derive: func() (Key, error) { return AlbumKey("a1") },
			want:   Key{PK: "ALBUM#a1", SK: "METADATA"},
		},
		{
			name:   "album chronological",
			derive: func() (Key, error) { return AlbumChronologicalKey("a1", "2026-01-02T03:04:05Z") },
			want:   Key{PK: "ALBUM", SK: "2026-01-02T03:04:05Z#a1"},
		},
		{
			name:   "album by creator",
			derive: func() (Key, error) { return AlbumByCreatorKey("a1", "u1", "2026-01-02T03:04:05Z") },
			want:   Key{PK: "ALBUM_BY_CREATOR", SK: "u1#2026-01-02T03:04:05Z#a1"},
		},
		{
			name:   "media",
			derive: func() (Key, error) { return MediaKey("a1", "m1") },
			want:   Key{PK: "ALBUM#a1", SK: "MEDIA#m1"},
		},
		{
			name:   "media global",
			derive: func() (Key, error) { return MediaGlobalKey("m1") },
			want:   Key{PK: "MEDIA#m1", SK: "METADATA"},
		},
		{
			name:   "user",
			derive: func() (Key, error) { return UserKey("u1") },
			want:   Key{PK: "USER#u1", SK: "METADATA"},
		},
		{
			name:   "email guard lowercases",
			derive: func() (Key, error) { return UserEmailGuardKey("Ada@Example.COM") },
			want:   Key{PK: "USER_EMAIL#ada@example.com", SK: "UNIQUE"},
		},
		{
			name:   "username guard lowercases",
			derive: func() (Key, error) { return UsernameGuardKey("Ada") },
			want:   Key{PK: "USER_USERNAME#ada", SK: "UNIQUE"},
		},
		{
			name:   "comment",
			derive: func() (Key, error) { return CommentKey("c1") },
			want:   Key{PK: "COMMENT#c1", SK: "METADATA"},
		},
		{
			name: "comment by target",
			derive: func() (Key, error) {
				return CommentByTargetKey(entities.TargetTypeMedia, "m1", "2026-01-02T03:04:05Z", "c1")
			},
			want: Key{PK: "MEDIA#m1#COMMENT", SK: "2026-01-02T03:04:05Z#c1"},
		},
		{
			name: "interaction",
			derive: func() (Key, error) {
				return InteractionKey("u1", entities.InteractionLike, entities.TargetTypeAlbum, "a1")
			},
			want: Key{PK: "USER#u1", SK: "INTERACTION#like#album#a1"},
		},
		{
			name: "interaction by target",
			derive: func() (Key, error) {
				return InteractionByTargetKey("u1", entities.InteractionBookmark, entities.TargetTypeMedia, "m1", "2026-01-02T03:04:05Z")
			},
			want: Key{PK: "MEDIA#m1#INTERACTION#bookmark", SK: "2026-01-02T03:04:05Z#u1"},
		},
		{
			name:   "session",
			derive: func() (Key, error) { return SessionKey("s1") },
			want:   Key{PK: "SESSION#s1", SK: "METADATA"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.derive()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestKeyDerivationRejectsMissingInputs(t *testing.T) {
	tests := []struct {
		name   string
		derive func() (Key, error)
	}{
		{"album without id", func() (Key, error) { return AlbumKey("") }},
		{"chronological without createdAt", func() (Key, error) { return AlbumChronologicalKey("a1", "") }},
		{"media without album", func() (Key, error) { return MediaKey("", "m1") }},
		{"media without id", func() (Key, error) { return MediaKey("a1", "") }},
		{"email guard without email", func() (Key, error) { return UserEmailGuardKey("") }},
		{"interaction with bad type", func() (Key, error) {
			return InteractionKey("u1", "wave", entities.TargetTypeAlbum, "a1")
		}},
		{"interaction with bad target", func() (Key, error) {
			return InteractionKey("u1", entities.InteractionLike, "playlist", "a1")
		}},
		{"session without id", func() (Key, error) { return SessionKey("") }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.derive()
			require.Error(t, err)
			assert.True(t, apperrors.IsPreconditionFailed(err))
		})
	}
}

func TestIndexesPhysical(t *testing.T) {
	ix := Indexes{Chronological: "GSI1", ByCreator: "GSI2", ByGlobalID: "GSI3", ByTarget: "GSI4"}

	for symbolic, physical := range map[string]string{
		IndexChronological: "GSI1",
		IndexByCreator:     "GSI2",
		IndexByGlobalID:    "GSI3",
		IndexByTarget:      "GSI4",
	} {
		got, err := ix.Physical(symbolic)
		require.NoError(t, err)
		assert.Equal(t, physical, got)
	}

	_, err := ix.Physical("by-vibes")
	assert.True(t, apperrors.IsPreconditionFailed(err))
}
