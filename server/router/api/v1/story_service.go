package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fablehall/fablehall/server/service/publication"
	"github.com/fablehall/fablehall/store"
)

// UpsertStoryRequest is the JSON body for story create and edit.
type UpsertStoryRequest struct {
	CreatorID    int32   `json:"creatorId"`
	Title        string  `json:"title"`
	Introduction string  `json:"introduction"`
	GenreIDs     []int32 `json:"genreIds"`
	StatusTagID  *int32  `json:"statusTagId"`
	CoAuthorIDs  []int32 `json:"coAuthorIds"`
	DisplayDate  string  `json:"displayDate"`
	// Action is "draft" or "publish".
	Action string `json:"action"`
}

// StoryResponse is the JSON shape of a story plus state-machine outcome.
type StoryResponse struct {
	Story     *store.Story `json:"story"`
	Published bool         `json:"published"`
}

// CreateStory handles POST /api/v1/stories.
func (s *APIV1Service) CreateStory(c echo.Context) error {
	request := &UpsertStoryRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	result, err := s.Publication.UpsertStory(c.Request().Context(), &publication.UpsertStoryRequest{
		CreatorID:    request.CreatorID,
		Title:        request.Title,
		Introduction: request.Introduction,
		GenreIDs:     request.GenreIDs,
		StatusTagID:  request.StatusTagID,
		CoAuthorIDs:  request.CoAuthorIDs,
		DisplayDate:  request.DisplayDate,
		Publish:      request.Action == "publish",
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, &StoryResponse{Story: result.Story, Published: result.Published})
}

// UpdateStory handles PATCH /api/v1/stories/:id.
func (s *APIV1Service) UpdateStory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	request := &UpsertStoryRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	result, err := s.Publication.UpsertStory(c.Request().Context(), &publication.UpsertStoryRequest{
		ID:           id,
		Title:        request.Title,
		Introduction: request.Introduction,
		GenreIDs:     request.GenreIDs,
		StatusTagID:  request.StatusTagID,
		CoAuthorIDs:  request.CoAuthorIDs,
		DisplayDate:  request.DisplayDate,
		Publish:      request.Action == "publish",
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, &StoryResponse{Story: result.Story, Published: result.Published})
}

// DeleteStory handles DELETE /api/v1/stories/:id.
func (s *APIV1Service) DeleteStory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.Publication.DeleteStory(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetStory handles GET /api/v1/stories/:id.
func (s *APIV1Service) GetStory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	story, err := s.Store.GetStory(c.Request().Context(), &store.FindStory{ID: &id})
	if err != nil {
		return writeError(c, err)
	}
	if story == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
	return c.JSON(http.StatusOK, story)
}

// GetStoryAggregate handles GET /api/v1/stories/:id/aggregate.
func (s *APIV1Service) GetStoryAggregate(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	aggregate, err := s.Reader.GetStoryAggregate(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, aggregate)
}

// CanPublishStory handles GET /api/v1/stories/:id/can-publish.
func (s *APIV1Service) CanPublishStory(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	check, err := s.Publication.CanPublishStory(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, check)
}

// ListRecentStories handles GET /api/v1/stories/recent.
func (s *APIV1Service) ListRecentStories(c echo.Context) error {
	page, pageSize := pageParams(c)
	ids, err := s.Reader.GetRecentStories(c.Request().Context(), page, pageSize)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"storyIds": ids, "page": page, "pageSize": pageSize})
}

// ListStoriesByGenre handles GET /api/v1/stories/by-genre/:genreID.
func (s *APIV1Service) ListStoriesByGenre(c echo.Context) error {
	genreID, err := pathID(c, "genreID")
	if err != nil {
		return err
	}
	page, pageSize := pageParams(c)
	ids, err := s.Reader.GetGenreListing(c.Request().Context(), genreID, page, pageSize)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"storyIds": ids, "page": page, "pageSize": pageSize})
}

// ListStoriesByStatusTag handles GET /api/v1/stories/by-status/:statusTagID.
func (s *APIV1Service) ListStoriesByStatusTag(c echo.Context) error {
	statusTagID, err := pathID(c, "statusTagID")
	if err != nil {
		return err
	}
	page, pageSize := pageParams(c)
	ids, err := s.Reader.GetStatusListing(c.Request().Context(), statusTagID, page, pageSize)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"storyIds": ids, "page": page, "pageSize": pageSize})
}

// ListMostBookmarked handles GET /api/v1/stories/most-bookmarked.
func (s *APIV1Service) ListMostBookmarked(c echo.Context) error {
	ranked, err := s.Reader.GetMostBookmarked(c.Request().Context(), 10)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ranked)
}
