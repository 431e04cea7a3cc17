package model

// User is the account identity resolved once per session.
// It is immutable for the session's lifetime and owned by the
// authentication collaborator; an empty ID means "no user".
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Present reports whether a user has been resolved.
func (u User) Present() bool {
	return u.ID != ""
}
