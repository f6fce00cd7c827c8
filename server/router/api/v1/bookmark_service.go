package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fablehall/fablehall/server/service/derived"
	"github.com/fablehall/fablehall/store"
)

// AddBookmark handles POST /api/v1/stories/:id/bookmark.
func (s *APIV1Service) AddBookmark(c echo.Context) error {
	storyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := s.Store.UpsertBookmark(ctx, &store.Bookmark{UserID: userID, StoryID: storyID}); err != nil {
		return writeError(c, err)
	}
	s.Invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityBookmark, ID: userID, Mutation: derived.MutationCreate, RelatedID: storyID})
	return c.NoContent(http.StatusNoContent)
}

// RemoveBookmark handles DELETE /api/v1/stories/:id/bookmark.
func (s *APIV1Service) RemoveBookmark(c echo.Context) error {
	storyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := s.Store.DeleteBookmark(ctx, &store.DeleteBookmark{UserID: userID, StoryID: storyID}); err != nil {
		return writeError(c, err)
	}
	s.Invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityBookmark, ID: userID, Mutation: derived.MutationDelete, RelatedID: storyID})
	return c.NoContent(http.StatusNoContent)
}

// GetBookmarkStatus handles GET /api/v1/stories/:id/bookmark-status.
func (s *APIV1Service) GetBookmarkStatus(c echo.Context) error {
	storyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	userID, err := actorID(c)
	if err != nil {
		return err
	}
	bookmarked, err := s.Reader.GetBookmarkStatus(c.Request().Context(), userID, storyID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"bookmarked": bookmarked})
}

// ListBookmarks handles GET /api/v1/users/:id/bookmarks.
func (s *APIV1Service) ListBookmarks(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	page, pageSize := pageParams(c)
	ids, err := s.Reader.GetBookmarkPage(c.Request().Context(), userID, page, pageSize)
	if err != nil {
		return writeError(c, err)
	}
	count, err := s.Reader.GetBookmarkCount(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"storyIds": ids, "total": count, "page": page, "pageSize": pageSize})
}
