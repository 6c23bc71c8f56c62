package entities

// Session is a server-side login session. The cookie token references a
// session by id; the row is the authority on validity and expiry.
type Session struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	ExpiresAt string `json:"expiresAt"`
}
