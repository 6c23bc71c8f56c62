package entities

// User is a platform account. PasswordHash is empty for OAuth accounts.
type User struct {
	UserID          string `json:"userId"`
	Email           string `json:"email"`
	Username        string `json:"username"`
	PasswordHash    string `json:"-"`
	Provider        string `json:"provider,omitempty"`
	Role            Role   `json:"role"`
	IsActive        bool   `json:"isActive"`
	IsEmailVerified bool   `json:"isEmailVerified"`
	AvatarURL       string `json:"avatarUrl,omitempty"`
	AvatarThumbURL  string `json:"avatarThumbUrl,omitempty"`
	LastActive      string `json:"lastActive,omitempty"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
}

// UserPatch carries the fields of a user update. Nil means leave unchanged.
// Email and Username changes go through dedicated operations because they
// must move uniqueness guard rows.
type UserPatch struct {
	PasswordHash    *string `json:"-"`
	Role            *Role   `json:"role,omitempty"`
	IsActive        *bool   `json:"isActive,omitempty"`
	IsEmailVerified *bool   `json:"isEmailVerified,omitempty"`
	AvatarURL       *string `json:"avatarUrl,omitempty"`
	AvatarThumbURL  *string `json:"avatarThumbUrl,omitempty"`
	LastActive      *string `json:"lastActive,omitempty"`
}

// IsZero reports whether the patch sets nothing.
func (p UserPatch) IsZero() bool {
	return p.PasswordHash == nil && p.Role == nil && p.IsActive == nil &&
		p.IsEmailVerified == nil && p.AvatarURL == nil &&
		p.AvatarThumbURL == nil && p.LastActive == nil
}

// Anonymized returns the soft-delete form of the user. The row survives so
// content authored by the user keeps a resolvable creator reference.
func (u User) Anonymized() User {
	anon := u
	anon.Email = "deleted+" + u.UserID + "@invalid"
	anon.Username = "deleted-" + u.UserID
	anon.PasswordHash = ""
	anon.Provider = ""
	anon.AvatarURL = ""
	anon.AvatarThumbURL = ""
	anon.IsActive = false
	anon.IsEmailVerified = false
	return anon
}
