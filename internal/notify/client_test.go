package notify

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/pawhaven/rescuedesk/internal/api"
	"github.com/pawhaven/rescuedesk/internal/model"
)

// stubFetcher is an in-memory Fetcher with controllable responses.
type stubFetcher struct {
	mu           sync.Mutex
	count        int
	countErr     error
	items        []model.Notification
	listErr      error
	markErr      error
	markedIDs    []int64
	countFetches int
}

func (f *stubFetcher) UnreadCount(_ context.Context, _ api.EndpointSet) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countFetches++
	return f.count, f.countErr
}

func (f *stubFetcher) Notifications(_ context.Context, _ api.EndpointSet) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	items := make([]model.Notification, len(f.items))
	copy(items, f.items)
	return items, nil
}

func (f *stubFetcher) MarkNotificationRead(_ context.Context, _ api.EndpointSet, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedIDs = append(f.markedIDs, id)
	return f.markErr
}

func (f *stubFetcher) marked() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]int64, len(f.markedIDs))
	copy(ids, f.markedIDs)
	return ids
}

func (f *stubFetcher) setItems(items []model.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
}

func newTestClient(f *stubFetcher) *Client {
	return NewClient(f, api.UserEndpoints(), nil, log.New(io.Discard, "", 0))
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestFetchUnreadCountAdoptsServerValue(t *testing.T) {
	f := &stubFetcher{count: 7}
	c := newTestClient(f)

	n, err := c.FetchUnreadCount(context.Background())
	if err != nil {
		t.Fatalf("FetchUnreadCount: %v", err)
	}
	if n != 7 {
		t.Errorf("count = %d, want 7", n)
	}
	if got := c.Snapshot().UnreadCount; got != 7 {
		t.Errorf("cached count = %d, want 7", got)
	}
}

func TestFetchUnreadCountRetainsOnFailure(t *testing.T) {
	f := &stubFetcher{count: 3}
	c := newTestClient(f)

	if _, err := c.FetchUnreadCount(context.Background()); err != nil {
		t.Fatalf("FetchUnreadCount: %v", err)
	}

	f.mu.Lock()
	f.countErr = errors.New("boom")
	f.mu.Unlock()

	if _, err := c.FetchUnreadCount(context.Background()); err == nil {
		t.Fatal("expected fetch error")
	}
	// The last-known count stays; the next tick retries on its own.
	if got := c.Snapshot().UnreadCount; got != 3 {
		t.Errorf("count after failed fetch = %d, want 3", got)
	}
}

func TestFetchListReplacesWholesale(t *testing.T) {
	f := &stubFetcher{items: []model.Notification{
		{ID: 1, Content: "old", IsRead: true},
	}}
	c := newTestClient(f)

	if _, err := c.FetchList(context.Background()); err != nil {
		t.Fatalf("FetchList: %v", err)
	}

	f.setItems([]model.Notification{
		{ID: 2, Content: "new a"},
		{ID: 3, Content: "new b"},
	})

	items, err := c.FetchList(context.Background())
	if err != nil {
		t.Fatalf("FetchList: %v", err)
	}
	if len(items) != 2 || items[0].ID != 2 || items[1].ID != 3 {
		t.Errorf("list not replaced wholesale: %+v", items)
	}
	if got := c.Snapshot().UnreadCount; got != 2 {
		t.Errorf("unread count = %d, want 2", got)
	}
}

func TestMarkReadOptimistic(t *testing.T) {
	f := &stubFetcher{items: []model.Notification{
		{ID: 1, Content: "hello"},
	}}
	c := newTestClient(f)

	if _, err := c.FetchList(context.Background()); err != nil {
		t.Fatalf("FetchList: %v", err)
	}

	c.MarkRead(context.Background(), 1)

	// The local flip happens before any server confirmation.
	snap := c.Snapshot()
	if !snap.Items[0].IsRead {
		t.Error("item not flipped to read immediately")
	}
	if snap.UnreadCount != 0 {
		t.Errorf("unread count = %d, want 0", snap.UnreadCount)
	}

	waitFor(t, func() bool { return len(f.marked()) == 1 })
	if ids := f.marked(); ids[0] != 1 {
		t.Errorf("server mark id = %d, want 1", ids[0])
	}
}

func TestMarkReadFailureKeepsOptimisticState(t *testing.T) {
	f := &stubFetcher{
		items:   []model.Notification{{ID: 5, Content: "x"}},
		markErr: errors.New("server down"),
	}
	c := newTestClient(f)

	if _, err := c.FetchList(context.Background()); err != nil {
		t.Fatalf("FetchList: %v", err)
	}
	c.MarkRead(context.Background(), 5)

	waitFor(t, func() bool { return len(f.marked()) == 1 })

	// No rollback: the cache keeps the read state and converges via
	// the next successful fetch instead.
	snap := c.Snapshot()
	if !snap.Items[0].IsRead {
		t.Error("failed server mark rolled back the local read state")
	}
	if snap.UnreadCount != 0 {
		t.Errorf("unread count = %d, want 0", snap.UnreadCount)
	}
}

func TestMonotonicReadStateAgainstRacingFetch(t *testing.T) {
	f := &stubFetcher{items: []model.Notification{
		{ID: 1, Content: "a"},
		{ID: 2, Content: "b"},
	}}
	c := newTestClient(f)

	if _, err := c.FetchList(context.Background()); err != nil {
		t.Fatalf("FetchList: %v", err)
	}
	c.MarkRead(context.Background(), 1)

	// A fetch whose response was produced before the server processed
	// the mark still reports the item unread. The pending local mark
	// must win.
	items, err := c.FetchList(context.Background())
	if err != nil {
		t.Fatalf("FetchList: %v", err)
	}
	for _, n := range items {
		if n.ID == 1 && !n.IsRead {
			t.Error("stale fetch resurrected a locally read item")
		}
	}
	if got := c.Snapshot().UnreadCount; got != 1 {
		t.Errorf("unread count = %d, want 1", got)
	}

	// Once the server confirms the read, the pending mark retires and
	// later fetches adopt server state directly.
	f.setItems([]model.Notification{
		{ID: 1, Content: "a", IsRead: true},
		{ID: 2, Content: "b"},
	})
	if _, err := c.FetchList(context.Background()); err != nil {
		t.Fatalf("FetchList: %v", err)
	}
	if got := c.Snapshot().UnreadCount; got != 1 {
		t.Errorf("unread count after confirmation = %d, want 1", got)
	}
}

func TestMarkAllRead(t *testing.T) {
	f := &stubFetcher{items: []model.Notification{
		{ID: 1, Content: "a"},
		{ID: 2, Content: "b", IsRead: true},
		{ID: 3, Content: "c"},
	}}
	c := newTestClient(f)

	if _, err := c.FetchList(context.Background()); err != nil {
		t.Fatalf("FetchList: %v", err)
	}

	c.MarkAllRead(context.Background())

	snap := c.Snapshot()
	if snap.UnreadCount != 0 {
		t.Errorf("unread count = %d, want 0", snap.UnreadCount)
	}
	for _, n := range snap.Items {
		if !n.IsRead {
			t.Errorf("item %d still unread after MarkAllRead", n.ID)
		}
	}

	// Only the two unread items produce server calls.
	waitFor(t, func() bool { return len(f.marked()) == 2 })
}

func TestClientsAreIndependent(t *testing.T) {
	userFetcher := &stubFetcher{items: []model.Notification{{ID: 1}}}
	adminFetcher := &stubFetcher{items: []model.Notification{{ID: 1}, {ID: 2}}}

	logger := log.New(io.Discard, "", 0)
	user := NewClient(userFetcher, api.UserEndpoints(), nil, logger)
	admin := NewClient(adminFetcher, api.AdminEndpoints(), nil, logger)

	if _, err := user.FetchList(context.Background()); err != nil {
		t.Fatalf("user FetchList: %v", err)
	}
	if _, err := admin.FetchList(context.Background()); err != nil {
		t.Fatalf("admin FetchList: %v", err)
	}

	user.MarkRead(context.Background(), 1)

	if got := user.Snapshot().UnreadCount; got != 0 {
		t.Errorf("user unread = %d, want 0", got)
	}
	// The admin surface shares no cache state with the user surface.
	if got := admin.Snapshot().UnreadCount; got != 2 {
		t.Errorf("admin unread = %d, want 2", got)
	}
}

func TestResetDropsAllState(t *testing.T) {
	f := &stubFetcher{items: []model.Notification{{ID: 1}}}
	c := newTestClient(f)

	if _, err := c.FetchList(context.Background()); err != nil {
		t.Fatalf("FetchList: %v", err)
	}
	c.MarkRead(context.Background(), 1)

	c.Reset()

	snap := c.Snapshot()
	if len(snap.Items) != 0 || snap.UnreadCount != 0 {
		t.Errorf("state survives reset: %+v", snap)
	}
}
