package entities

// Comment is a user comment on an album or media item.
type Comment struct {
	ID         string     `json:"id"`
	TargetType TargetType `json:"targetType"`
	TargetID   string     `json:"targetId"`
	UserID     string     `json:"userId"`
	Content    string     `json:"content"`
	LikeCount  int        `json:"likeCount"`
	IsEdited   bool       `json:"isEdited"`
	CreatedAt  string     `json:"createdAt"`
	UpdatedAt  string     `json:"updatedAt"`
}

// CommentPatch carries the fields of a comment update. Editing content
// flips IsEdited server-side.
type CommentPatch struct {
	Content *string `json:"content,omitempty"`
}

// IsZero reports whether the patch sets nothing.
func (p CommentPatch) IsZero() bool {
	return p.Content == nil
}
