package entities

// MediaStatus tracks the processing lifecycle of an uploaded media item.
type MediaStatus string

const (
	MediaStatusPending MediaStatus = "pending"
	MediaStatusReady   MediaStatus = "ready"
	MediaStatusFailed  MediaStatus = "failed"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s MediaStatus) Valid() bool {
	switch s {
	case MediaStatusPending, MediaStatusReady, MediaStatusFailed:
		return true
	}
	return false
}

// Dimensions are the pixel dimensions of a processed media item.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Media is a single uploaded item. AlbumID is AlbumUnsorted when the item
// belongs to no album.
type Media struct {
	ID               string            `json:"id"`
	AlbumID          string            `json:"albumId"`
	Filename         string            `json:"filename"`
	OriginalFilename string            `json:"originalFilename,omitempty"`
	MimeType         string            `json:"mimeType"`
	Size             int64             `json:"size"`
	URL              string            `json:"url"`
	Dimensions       *Dimensions       `json:"dimensions,omitempty"`
	ThumbnailURLs    map[string]string `json:"thumbnailUrls,omitempty"`
	Status           MediaStatus       `json:"status"`
	LikeCount        int               `json:"likeCount"`
	BookmarkCount    int               `json:"bookmarkCount"`
	ViewCount        int               `json:"viewCount"`
	CreatedBy        string            `json:"createdBy"`
	CreatedByType    string            `json:"createdByType,omitempty"`
	CreatedAt        string            `json:"createdAt"`
	UpdatedAt        string            `json:"updatedAt"`
}

// MediaPatch carries the fields of a media update. Nil means leave unchanged.
type MediaPatch struct {
	Filename      *string            `json:"filename,omitempty"`
	URL           *string            `json:"url,omitempty"`
	Dimensions    *Dimensions        `json:"dimensions,omitempty"`
	ThumbnailURLs *map[string]string `json:"thumbnailUrls,omitempty"`
	Status        *MediaStatus       `json:"status,omitempty"`
}

// IsZero reports whether the patch sets nothing.
func (p MediaPatch) IsZero() bool {
	return p.Filename == nil && p.URL == nil && p.Dimensions == nil &&
		p.ThumbnailURLs == nil && p.Status == nil
}
