package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Story model related methods.
	CreateStory(ctx context.Context, create *Story) (*Story, error)
	ListStories(ctx context.Context, find *FindStory) ([]*Story, error)
	UpdateStory(ctx context.Context, update *UpdateStory) error
	DeleteStory(ctx context.Context, delete *DeleteStory) error
	CountStories(ctx context.Context, find *FindStory) (int, error)

	// Chapter model related methods.
	CreateChapter(ctx context.Context, create *Chapter) (*Chapter, error)
	ListChapters(ctx context.Context, find *FindChapter) ([]*Chapter, error)
	UpdateChapter(ctx context.Context, update *UpdateChapter) error
	DeleteChapter(ctx context.Context, delete *DeleteChapter) error
	CountChapters(ctx context.Context, find *FindChapter) (int, error)

	// User model related methods.
	CreateUser(ctx context.Context, create *User) (*User, error)
	ListUsers(ctx context.Context, find *FindUser) ([]*User, error)
	UpdateUser(ctx context.Context, update *UpdateUser) error
	DeleteUser(ctx context.Context, delete *DeleteUser) error

	// Follow model related methods.
	UpsertFollow(ctx context.Context, upsert *Follow) (*Follow, error)
	ListFollows(ctx context.Context, find *FindFollow) ([]*Follow, error)
	DeleteFollow(ctx context.Context, delete *DeleteFollow) error
	CountFollows(ctx context.Context, find *FindFollow) (int, error)
	TopAuthors(ctx context.Context, limit int) ([]*RankedUser, error)

	// Bookmark model related methods.
	UpsertBookmark(ctx context.Context, upsert *Bookmark) (*Bookmark, error)
	ListBookmarks(ctx context.Context, find *FindBookmark) ([]*Bookmark, error)
	DeleteBookmark(ctx context.Context, delete *DeleteBookmark) error
	CountBookmarks(ctx context.Context, find *FindBookmark) (int, error)
	MostBookmarkedStories(ctx context.Context, limit int) ([]*RankedStory, error)

	// Notification model related methods.
	CreateNotification(ctx context.Context, create *Notification) (*Notification, error)
	ListNotifications(ctx context.Context, find *FindNotification) ([]*Notification, error)
	UpdateNotification(ctx context.Context, update *UpdateNotification) error
	DeleteNotification(ctx context.Context, delete *DeleteNotification) error
	CountNotifications(ctx context.Context, find *FindNotification) (int, error)
}
