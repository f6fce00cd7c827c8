package store

import (
	"context"
)

// Story is the object representing a serialized work.
type Story struct {
	ID          int32
	UID         string
	CreatorID   int32
	CoAuthorIDs []int32
	CreatedTs   int64
	UpdatedTs   int64

	Title        string
	Introduction string
	Status       Status
	GenreIDs     []int32
	StatusTagID  *int32

	// DisplayDate is the author-facing publication date, a local calendar
	// date in YYYY-MM-DD form. Authors may backdate it freely.
	DisplayDate string
	// PublishedTs is the UTC instant of the latest publish transition.
	PublishedTs int64
	// ContentUpdatedTs marks the last qualifying content change in any of the
	// story's chapters. Date-only edits never advance it.
	ContentUpdatedTs int64
}

// FindStory is the find condition for story.
type FindStory struct {
	ID          *int32
	UID         *string
	CreatorID   *int32
	Status      *Status
	GenreID     *int32
	StatusTagID *int32

	// OrderByContentUpdated orders results by content_updated_ts descending
	// (the "recently updated" listing order). Default order is created_ts descending.
	OrderByContentUpdated bool

	// Pagination
	Limit  *int
	Offset *int
}

// UpdateStory is the update request for story.
type UpdateStory struct {
	ID           int32
	UpdatedTs    *int64
	Title        *string
	Introduction *string
	Status       *Status
	GenreIDs     *[]int32
	// StatusTagID is applied only when SetStatusTag is true. A nil value
	// then clears the column, which a bare pointer cannot express.
	StatusTagID      *int32
	SetStatusTag     bool
	CoAuthorIDs      *[]int32
	DisplayDate      *string
	PublishedTs      *int64
	ContentUpdatedTs *int64
}

// DeleteStory is the delete request for story.
type DeleteStory struct {
	ID int32
}

// CreateStory creates a new story.
func (s *Store) CreateStory(ctx context.Context, create *Story) (*Story, error) {
	return s.driver.CreateStory(ctx, create)
}

// ListStories lists stories with filter.
func (s *Store) ListStories(ctx context.Context, find *FindStory) ([]*Story, error) {
	return s.driver.ListStories(ctx, find)
}

// GetStory gets a single story matching the filter, or nil when absent.
func (s *Store) GetStory(ctx context.Context, find *FindStory) (*Story, error) {
	limit := 1
	find.Limit = &limit
	list, err := s.driver.ListStories(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateStory updates a story.
func (s *Store) UpdateStory(ctx context.Context, update *UpdateStory) error {
	return s.driver.UpdateStory(ctx, update)
}

// DeleteStory deletes a story and its chapters.
func (s *Store) DeleteStory(ctx context.Context, delete *DeleteStory) error {
	return s.driver.DeleteStory(ctx, delete)
}

// CountStories counts stories matching the filter.
func (s *Store) CountStories(ctx context.Context, find *FindStory) (int, error) {
	return s.driver.CountStories(ctx, find)
}
