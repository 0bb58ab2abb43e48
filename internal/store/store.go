package store

import (
	"context"

	"github.com/pawhaven/rescuedesk/internal/model"
)

// Store is the local snapshot cache backing the UI between fetches.
// The server stays authoritative; snapshots are replaced wholesale
// after each successful fetch and wiped on logout.
type Store interface {
	// === Notification snapshots (one per surface) ===

	SaveNotifications(ctx context.Context, surface string, items []model.Notification) error
	Notifications(ctx context.Context, surface string) ([]model.Notification, error)

	// === Pet listings ===

	SavePets(ctx context.Context, pets []model.Pet) error
	Pets(ctx context.Context) ([]model.Pet, error)
	GetPetByID(ctx context.Context, id int64) (*model.Pet, error)
	SearchPets(ctx context.Context, query string, limit int) ([]model.Pet, error)

	// Clear wipes all cached state. Called on logout.
	Clear(ctx context.Context) error
}
