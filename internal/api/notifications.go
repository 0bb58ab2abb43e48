package api

import (
	"context"
	"fmt"

	"github.com/pawhaven/rescuedesk/internal/model"
)

// EndpointSet names the notification endpoints one surface talks to.
// The standard-user and admin surfaces are structurally identical and
// differ only in which set they are given.
type EndpointSet struct {
	// Name labels the surface in logs ("user", "admin").
	Name string

	// CountPath returns the unread total.
	CountPath string

	// ListPath returns the full notification list, newest first.
	ListPath string

	// MarkReadPathFmt is a printf-style path taking the notification id.
	MarkReadPathFmt string
}

// UserEndpoints returns the endpoint set for the standard-user surface.
func UserEndpoints() EndpointSet {
	return EndpointSet{
		Name:            "user",
		CountPath:       "/api/notifications/unread-count/",
		ListPath:        "/api/notifications/",
		MarkReadPathFmt: "/api/notifications/%d/read/",
	}
}

// AdminEndpoints returns the endpoint set for the admin surface.
func AdminEndpoints() EndpointSet {
	return EndpointSet{
		Name:            "admin",
		CountPath:       "/api/admin/notifications/unread-count/",
		ListPath:        "/api/admin/notifications/",
		MarkReadPathFmt: "/api/admin/notifications/%d/read/",
	}
}

// unreadCountResponse is the payload of the count endpoint.
type unreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// UnreadCount fetches the unread notification total for one endpoint set.
func (c *Client) UnreadCount(ctx context.Context, ep EndpointSet) (int, error) {
	var resp unreadCountResponse
	if err := c.get(ctx, ep.CountPath, &resp); err != nil {
		return 0, err
	}
	return resp.UnreadCount, nil
}

// Notifications fetches the full notification list, in server order
// (newest first).
func (c *Client) Notifications(ctx context.Context, ep EndpointSet) ([]model.Notification, error) {
	var items []model.Notification
	if err := c.get(ctx, ep.ListPath, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkNotificationRead asks the server to mark a single notification as
// read. Callers apply the change locally first; this call only confirms it.
func (c *Client) MarkNotificationRead(ctx context.Context, ep EndpointSet, id int64) error {
	path := fmt.Sprintf(ep.MarkReadPathFmt, id)
	return c.post(ctx, path, nil, nil)
}
