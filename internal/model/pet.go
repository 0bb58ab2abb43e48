package model

import "time"

// Pet is a single adoptable or fostered animal listed by the service.
type Pet struct {
	// ID is the server-assigned listing identifier.
	ID int64 `json:"id"`

	// Name is the animal's name.
	Name string `json:"name"`

	// Species is the broad kind of animal (e.g., "dog", "cat").
	Species string `json:"species"`

	// Breed is the specific breed, when known.
	Breed string `json:"breed"`

	// Status is the listing state (e.g., "available", "fostered", "adopted").
	Status string `json:"status"`

	// Description is the free-form listing text.
	Description string `json:"description"`

	// ListedAt is when the listing was published.
	ListedAt time.Time `json:"listed_at"`
}
