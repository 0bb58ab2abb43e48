package store

import (
	"context"
	"fmt"
	"time"

	"github.com/pawhaven/rescuedesk/internal/model"
)

// SaveNotifications replaces the cached snapshot for one surface
// wholesale, preserving server order.
func (s *SQLiteStore) SaveNotifications(
	ctx context.Context,
	surface string,
	items []model.Notification,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(
		ctx, "DELETE FROM notifications WHERE surface = ?", surface,
	); err != nil {
		return fmt.Errorf("clearing notification snapshot: %w", err)
	}

	const query = `
		INSERT INTO notifications (surface, id, content, is_read, created_at, position)
		VALUES (?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing notification insert: %w", err)
	}
	defer stmt.Close()

	for i, n := range items {
		if _, err := stmt.ExecContext(
			ctx, surface, n.ID, n.Content, boolToInt(n.IsRead),
			n.CreatedAt.UTC().Format(time.RFC3339Nano), i,
		); err != nil {
			return fmt.Errorf("inserting notification %d: %w", n.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing notification snapshot: %w", err)
	}
	return nil
}

// Notifications returns the cached snapshot for one surface in the
// order the server delivered it.
func (s *SQLiteStore) Notifications(
	ctx context.Context,
	surface string,
) ([]model.Notification, error) {
	const query = `
		SELECT id, content, is_read, created_at
		FROM notifications
		WHERE surface = ?
		ORDER BY position`

	rows, err := s.db.QueryxContext(ctx, query, surface)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var items []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// scanNotification converts one row into a model.Notification.
func scanNotification(row interface {
	Scan(dest ...interface{}) error
}) (model.Notification, error) {
	var (
		n         model.Notification
		isRead    int
		createdAt string
	)
	if err := row.Scan(&n.ID, &n.Content, &isRead, &createdAt); err != nil {
		return model.Notification{}, fmt.Errorf("scanning notification: %w", err)
	}
	n.IsRead = isRead != 0
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		n.CreatedAt = t
	}
	return n, nil
}

// Clear wipes all cached state for every surface.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM notifications"); err != nil {
		return fmt.Errorf("clearing notifications: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pets"); err != nil {
		return fmt.Errorf("clearing pets: %w", err)
	}
	return nil
}

// boolToInt converts a bool to its SQLite integer form.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
