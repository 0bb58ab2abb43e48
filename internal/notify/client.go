package notify

import (
	"context"
	"log"
	"sync"

	"github.com/pawhaven/rescuedesk/internal/api"
	"github.com/pawhaven/rescuedesk/internal/model"
	"github.com/pawhaven/rescuedesk/internal/store"
)

// Fetcher abstracts the server operations a notification client needs.
// *api.Client satisfies it.
type Fetcher interface {
	UnreadCount(ctx context.Context, ep api.EndpointSet) (int, error)
	Notifications(ctx context.Context, ep api.EndpointSet) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, ep api.EndpointSet, id int64) error
}

// Snapshot is a point-in-time copy of the cache for rendering.
type Snapshot struct {
	Items       []model.Notification
	UnreadCount int
}

// Client maintains an eventually consistent local cache of one
// notification endpoint set. The server remains the source of truth;
// the cache may be transiently stale between a local optimistic
// mutation and server confirmation, and converges on the next
// successful fetch. The standard-user and admin surfaces each own an
// independent Client and never share cache state.
type Client struct {
	fetcher   Fetcher
	endpoints api.EndpointSet
	snapshots store.Store // optional offline snapshot cache
	logger    *log.Logger

	mu          sync.Mutex
	items       []model.Notification
	unreadCount int

	// pendingRead holds ids flipped locally whose server confirmation
	// has not been observed yet. Replayed on top of every fresh fetch
	// so a racing list response never resurrects a read item.
	pendingRead map[int64]bool
}

// NewClient creates a notification client for one endpoint set. The
// snapshot store may be nil when offline caching is not wanted.
func NewClient(
	f Fetcher,
	ep api.EndpointSet,
	snapshots store.Store,
	logger *log.Logger,
) *Client {
	return &Client{
		fetcher:     f,
		endpoints:   ep,
		snapshots:   snapshots,
		logger:      logger,
		pendingRead: make(map[int64]bool),
	}
}

// Surface returns the endpoint set label ("user", "admin").
func (c *Client) Surface() string {
	return c.endpoints.Name
}

// LoadSnapshot seeds the cache from the offline store so the UI has
// something to render before the first fetch completes.
func (c *Client) LoadSnapshot(ctx context.Context) {
	if c.snapshots == nil {
		return
	}

	items, err := c.snapshots.Notifications(ctx, c.endpoints.Name)
	if err != nil {
		c.logger.Printf("notify[%s]: loading snapshot failed: %v", c.endpoints.Name, err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = items
	c.unreadCount = countUnread(items)
}

// FetchUnreadCount polls the server for the unread total and adopts it.
// On failure the last-known count is retained; the next scheduled tick
// simply tries again.
func (c *Client) FetchUnreadCount(ctx context.Context) (int, error) {
	n, err := c.fetcher.UnreadCount(ctx, c.endpoints)
	if err != nil {
		if !api.IsAuthError(err) {
			c.logger.Printf("notify[%s]: count fetch failed: %v", c.endpoints.Name, err)
		}
		return 0, err
	}

	c.mu.Lock()
	c.unreadCount = n
	c.mu.Unlock()
	return n, nil
}

// FetchList replaces the cached items wholesale with the server's list
// (last fetch wins), re-applies any pending local read marks on top,
// and recomputes the unread count from the reconciled set.
func (c *Client) FetchList(ctx context.Context) ([]model.Notification, error) {
	items, err := c.fetcher.Notifications(ctx, c.endpoints)
	if err != nil {
		if !api.IsAuthError(err) {
			c.logger.Printf("notify[%s]: list fetch failed: %v", c.endpoints.Name, err)
		}
		return nil, err
	}

	c.mu.Lock()
	for i := range items {
		if items[i].IsRead {
			// Server confirmed the read; the pending mark is done.
			delete(c.pendingRead, items[i].ID)
			continue
		}
		if c.pendingRead[items[i].ID] {
			// A locally read item must never come back unread.
			items[i].IsRead = true
		}
	}
	c.items = items
	c.unreadCount = countUnread(items)
	snapshot := c.copyItemsLocked()
	c.mu.Unlock()

	c.persistSnapshot(ctx, snapshot)
	return snapshot, nil
}

// MarkRead optimistically flips the cached item and decrements the
// unread count, then issues the server call without waiting for it.
// A failed server call is logged but never rolled back; the cache
// converges on the next successful fetch.
func (c *Client) MarkRead(ctx context.Context, id int64) {
	c.mu.Lock()
	for i := range c.items {
		if c.items[i].ID != id {
			continue
		}
		if !c.items[i].IsRead {
			c.items[i].IsRead = true
			if c.unreadCount > 0 {
				c.unreadCount--
			}
		}
		break
	}
	c.pendingRead[id] = true
	c.mu.Unlock()

	go func() {
		if err := c.fetcher.MarkNotificationRead(ctx, c.endpoints, id); err != nil {
			c.logger.Printf("notify[%s]: mark read %d failed: %v", c.endpoints.Name, id, err)
		}
	}()
}

// MarkAllRead flips every currently-unread cached item. Opening the
// panel counts as reading, so the badge zeroes immediately regardless
// of server confirmation timing.
func (c *Client) MarkAllRead(ctx context.Context) {
	c.mu.Lock()
	var unread []int64
	for _, n := range c.items {
		if !n.IsRead {
			unread = append(unread, n.ID)
		}
	}
	c.mu.Unlock()

	for _, id := range unread {
		c.MarkRead(ctx, id)
	}
}

// Snapshot returns a copy of the current cache state.
func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Items:       c.copyItemsLocked(),
		UnreadCount: c.unreadCount,
	}
}

// Reset drops all cached state. Called on logout.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.unreadCount = 0
	c.pendingRead = make(map[int64]bool)
}

// persistSnapshot writes the reconciled list to the offline store,
// best effort.
func (c *Client) persistSnapshot(ctx context.Context, items []model.Notification) {
	if c.snapshots == nil {
		return
	}
	if err := c.snapshots.SaveNotifications(ctx, c.endpoints.Name, items); err != nil {
		c.logger.Printf("notify[%s]: persisting snapshot failed: %v", c.endpoints.Name, err)
	}
}

// copyItemsLocked copies the item slice; callers must hold c.mu.
func (c *Client) copyItemsLocked() []model.Notification {
	items := make([]model.Notification, len(c.items))
	copy(items, c.items)
	return items
}

// countUnread counts items with IsRead == false.
func countUnread(items []model.Notification) int {
	n := 0
	for _, item := range items {
		if !item.IsRead {
			n++
		}
	}
	return n
}
