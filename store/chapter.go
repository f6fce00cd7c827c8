package store

import (
	"context"
)

const (
	// PrologueNumber is the single number slot for a prologue.
	PrologueNumber int32 = 0
	// UnnumberedChapter marks a regular chapter saved as draft before the
	// author assigned a number. It never passes the publish flip.
	UnnumberedChapter int32 = 0
	// MinRegularNumber and MaxRegularNumber bound author-assigned chapter numbers.
	MinRegularNumber int32 = 1
	MaxRegularNumber int32 = 100
	// EpilogueBaseNumber is the first candidate number for an epilogue.
	// Assignment scans upward past collisions from here.
	EpilogueBaseNumber int32 = 1000
)

// Chapter is the object representing a content unit of a story.
type Chapter struct {
	ID        int32
	UID       string
	StoryID   int32
	CreatedTs int64
	UpdatedTs int64

	Type    ChapterType
	Number  int32
	Title   string
	Content string
	Status  Status

	// DisplayDate is the author-facing publication date (YYYY-MM-DD).
	DisplayDate string
	// PublishedTs is the UTC instant of the latest publish transition.
	PublishedTs int64
}

// FindChapter is the find condition for chapter.
type FindChapter struct {
	ID      *int32
	UID     *string
	StoryID *int32
	Status  *Status
	Types   []ChapterType
	Number  *int32

	// ExcludeContent omits the content body from results. Chapter listings
	// and numbering checks do not need the full text.
	ExcludeContent bool

	// Pagination
	Limit  *int
	Offset *int
}

// UpdateChapter is the update request for chapter.
type UpdateChapter struct {
	ID          int32
	UpdatedTs   *int64
	Type        *ChapterType
	Number      *int32
	Title       *string
	Content     *string
	Status      *Status
	DisplayDate *string
	PublishedTs *int64
}

// DeleteChapter is the delete request for chapter.
type DeleteChapter struct {
	ID int32
}

// CreateChapter creates a new chapter.
func (s *Store) CreateChapter(ctx context.Context, create *Chapter) (*Chapter, error) {
	return s.driver.CreateChapter(ctx, create)
}

// ListChapters lists chapters with filter, ordered by chapter number ascending.
func (s *Store) ListChapters(ctx context.Context, find *FindChapter) ([]*Chapter, error) {
	return s.driver.ListChapters(ctx, find)
}

// GetChapter gets a single chapter matching the filter, or nil when absent.
func (s *Store) GetChapter(ctx context.Context, find *FindChapter) (*Chapter, error) {
	limit := 1
	find.Limit = &limit
	list, err := s.driver.ListChapters(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateChapter updates a chapter.
func (s *Store) UpdateChapter(ctx context.Context, update *UpdateChapter) error {
	return s.driver.UpdateChapter(ctx, update)
}

// DeleteChapter deletes a chapter.
func (s *Store) DeleteChapter(ctx context.Context, delete *DeleteChapter) error {
	return s.driver.DeleteChapter(ctx, delete)
}

// CountChapters counts chapters matching the filter.
func (s *Store) CountChapters(ctx context.Context, find *FindChapter) (int, error) {
	return s.driver.CountChapters(ctx, find)
}
