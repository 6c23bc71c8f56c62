package entities

// InteractionType is the kind of social interaction a user can hold
// against a target.
type InteractionType string

const (
	InteractionLike     InteractionType = "like"
	InteractionBookmark InteractionType = "bookmark"
)

// Valid reports whether the interaction type is known.
func (t InteractionType) Valid() bool {
	return t == InteractionLike || t == InteractionBookmark
}

// CounterName returns the denormalized counter this interaction type feeds.
func (t InteractionType) CounterName() string {
	switch t {
	case InteractionLike:
		return "LikeCount"
	case InteractionBookmark:
		return "BookmarkCount"
	}
	return ""
}

// Interaction is one (user, type, target) relationship. Its existence is
// the sole source of truth for "has this user already liked/bookmarked
// this target"; counters are derived from interaction rows.
type Interaction struct {
	UserID     string          `json:"userId"`
	Type       InteractionType `json:"type"`
	TargetType TargetType      `json:"targetType"`
	TargetID   string          `json:"targetId"`
	CreatedAt  string          `json:"createdAt"`
}
