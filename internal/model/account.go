package model

// Account is the read-only identity projection fetched once per session.
// Profile editing happens elsewhere; this client never mutates it.
type Account struct {
	// Username is the login name of the account.
	Username string `json:"username"`

	// Email is the contact address on file.
	Email string `json:"email"`

	// IsAdmin distinguishes shelter administrators from standard users
	// and decides whether the admin notification surface mounts.
	IsAdmin bool `json:"is_admin"`
}
