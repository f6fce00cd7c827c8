package store

import (
	"context"
)

// Notification is the object representing an in-app notification.
type Notification struct {
	ID        int32
	UserID    int32
	CreatedTs int64

	Kind    string
	Message string
	// ReadTs is nil while the notification is unread.
	ReadTs *int64
}

// FindNotification is the find condition for notification.
type FindNotification struct {
	ID     *int32
	UserID *int32
	// Unread filters to unread (true) or read (false) notifications.
	Unread *bool

	Limit  *int
	Offset *int
}

// UpdateNotification is the update request for notification.
type UpdateNotification struct {
	ID     int32
	ReadTs *int64
}

// DeleteNotification is the delete request for notification.
type DeleteNotification struct {
	ID int32
}

// CreateNotification creates a new notification.
func (s *Store) CreateNotification(ctx context.Context, create *Notification) (*Notification, error) {
	return s.driver.CreateNotification(ctx, create)
}

// ListNotifications lists notifications with filter, newest first.
func (s *Store) ListNotifications(ctx context.Context, find *FindNotification) ([]*Notification, error) {
	return s.driver.ListNotifications(ctx, find)
}

// UpdateNotification updates a notification (marking it read).
func (s *Store) UpdateNotification(ctx context.Context, update *UpdateNotification) error {
	return s.driver.UpdateNotification(ctx, update)
}

// DeleteNotification deletes a notification.
func (s *Store) DeleteNotification(ctx context.Context, delete *DeleteNotification) error {
	return s.driver.DeleteNotification(ctx, delete)
}

// CountNotifications counts notifications matching the filter.
func (s *Store) CountNotifications(ctx context.Context, find *FindNotification) (int, error) {
	return s.driver.CountNotifications(ctx, find)
}
