package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/pawhaven/rescuedesk/internal/model"
	"github.com/pawhaven/rescuedesk/tests/testutil"
)

func TestSaveNotificationsRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	items := []model.Notification{
		{ID: 3, Content: "newest", CreatedAt: now},
		{ID: 1, Content: "older", IsRead: true, CreatedAt: now.Add(-time.Hour)},
	}

	if err := s.SaveNotifications(ctx, "user", items); err != nil {
		t.Fatalf("SaveNotifications: %v", err)
	}

	got, err := s.Notifications(ctx, "user")
	if err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Server order is preserved, not re-sorted locally.
	if got[0].ID != 3 || got[1].ID != 1 {
		t.Errorf("order = [%d %d], want [3 1]", got[0].ID, got[1].ID)
	}
	if got[0].IsRead || !got[1].IsRead {
		t.Errorf("read flags lost: %+v", got)
	}
	if !got[0].CreatedAt.Equal(now) {
		t.Errorf("created_at = %v, want %v", got[0].CreatedAt, now)
	}
}

func TestSaveNotificationsReplacesWholesale(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SaveNotifications(ctx, "user", []model.Notification{
		{ID: 1, Content: "a"},
		{ID: 2, Content: "b"},
	}); err != nil {
		t.Fatalf("SaveNotifications: %v", err)
	}

	if err := s.SaveNotifications(ctx, "user", []model.Notification{
		{ID: 9, Content: "only"},
	}); err != nil {
		t.Fatalf("second SaveNotifications: %v", err)
	}

	got, err := s.Notifications(ctx, "user")
	if err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if len(got) != 1 || got[0].ID != 9 {
		t.Errorf("snapshot not replaced wholesale: %+v", got)
	}
}

func TestNotificationsSurfacesAreIsolated(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SaveNotifications(ctx, "user", []model.Notification{
		{ID: 1, Content: "user item"},
	}); err != nil {
		t.Fatalf("SaveNotifications user: %v", err)
	}
	if err := s.SaveNotifications(ctx, "admin", []model.Notification{
		{ID: 1, Content: "admin item"},
		{ID: 2, Content: "admin item 2"},
	}); err != nil {
		t.Fatalf("SaveNotifications admin: %v", err)
	}

	userItems, err := s.Notifications(ctx, "user")
	if err != nil {
		t.Fatalf("Notifications user: %v", err)
	}
	adminItems, err := s.Notifications(ctx, "admin")
	if err != nil {
		t.Fatalf("Notifications admin: %v", err)
	}

	if len(userItems) != 1 || len(adminItems) != 2 {
		t.Errorf("surfaces leaked: user=%d admin=%d", len(userItems), len(adminItems))
	}
}

func TestClearWipesEverything(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.SaveNotifications(ctx, "user", []model.Notification{{ID: 1}}); err != nil {
		t.Fatalf("SaveNotifications: %v", err)
	}
	if err := s.SavePets(ctx, []model.Pet{{ID: 1, Name: "Rex"}}); err != nil {
		t.Fatalf("SavePets: %v", err)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	items, err := s.Notifications(ctx, "user")
	if err != nil {
		t.Fatalf("Notifications: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("notifications survive clear: %+v", items)
	}

	pets, err := s.Pets(ctx)
	if err != nil {
		t.Fatalf("Pets: %v", err)
	}
	if len(pets) != 0 {
		t.Errorf("pets survive clear: %+v", pets)
	}
}
