package model

import "time"

// Notification is a single alert delivered by the coordination service.
// The server owns these records; the client only caches them, and the
// only client-side mutation is the unread-to-read transition.
type Notification struct {
	// ID is the server-assigned identifier, unique within one account.
	ID int64 `json:"id"`

	// Content is the human-readable notification text.
	Content string `json:"content"`

	// IsRead indicates whether the user has seen this notification.
	IsRead bool `json:"is_read"`

	// CreatedAt is when the server generated this notification.
	CreatedAt time.Time `json:"created_at"`
}
