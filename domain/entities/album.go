package entities

// Album is a user-curated collection of media.
type Album struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description,omitempty"`
	Tags          []string          `json:"tags,omitempty"`
	IsPublic      bool              `json:"isPublic"`
	MediaCount    int               `json:"mediaCount"`
	ViewCount     int               `json:"viewCount"`
	CoverImageURL string            `json:"coverImageUrl,omitempty"`
	ThumbnailURLs map[string]string `json:"thumbnailUrls,omitempty"`
	CreatedBy     string            `json:"createdBy"`
	CreatedAt     string            `json:"createdAt"`
	UpdatedAt     string            `json:"updatedAt"`
}

// AlbumPatch carries the fields of an album update. Nil fields are left
// untouched; set fields are written. MediaCount and ViewCount are absent
// on purpose: counters move only through the counter maintenance path.
type AlbumPatch struct {
	Title         *string            `json:"title,omitempty"`
	Description   *string            `json:"description,omitempty"`
	Tags          *[]string          `json:"tags,omitempty"`
	IsPublic      *bool              `json:"isPublic,omitempty"`
	CoverImageURL *string            `json:"coverImageUrl,omitempty"`
	ThumbnailURLs *map[string]string `json:"thumbnailUrls,omitempty"`
}

// IsZero reports whether the patch sets nothing.
func (p AlbumPatch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Tags == nil &&
		p.IsPublic == nil && p.CoverImageURL == nil && p.ThumbnailURLs == nil
}
