package store

import (
	"context"
)

// Follow is the object representing a follower edge between two users.
type Follow struct {
	FollowerID int32
	FolloweeID int32
	CreatedTs  int64
}

// FindFollow is the find condition for follow.
type FindFollow struct {
	FollowerID *int32
	FolloweeID *int32

	Limit  *int
	Offset *int
}

// DeleteFollow is the delete request for follow.
type DeleteFollow struct {
	FollowerID int32
	FolloweeID int32
}

// RankedUser is a leaderboard row: a user and its ranking count.
type RankedUser struct {
	UserID int32
	Count  int
}

// UpsertFollow creates the follow edge if it does not exist.
func (s *Store) UpsertFollow(ctx context.Context, upsert *Follow) (*Follow, error) {
	return s.driver.UpsertFollow(ctx, upsert)
}

// ListFollows lists follow edges with filter, newest first.
func (s *Store) ListFollows(ctx context.Context, find *FindFollow) ([]*Follow, error) {
	return s.driver.ListFollows(ctx, find)
}

// DeleteFollow removes the follow edge. Removing an absent edge is a no-op.
func (s *Store) DeleteFollow(ctx context.Context, delete *DeleteFollow) error {
	return s.driver.DeleteFollow(ctx, delete)
}

// CountFollows counts follow edges matching the filter.
func (s *Store) CountFollows(ctx context.Context, find *FindFollow) (int, error) {
	return s.driver.CountFollows(ctx, find)
}

// TopAuthors returns users ranked by follower count descending.
func (s *Store) TopAuthors(ctx context.Context, limit int) ([]*RankedUser, error) {
	return s.driver.TopAuthors(ctx, limit)
}
