package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/fablehall/fablehall/server/service/publication"
	"github.com/fablehall/fablehall/store"
)

// UpsertChapterRequest is the JSON body for chapter create and edit.
type UpsertChapterRequest struct {
	Type        string `json:"type"`
	Number      *int32 `json:"number"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	DisplayDate string `json:"displayDate"`
	// Action is "draft" or "publish".
	Action string `json:"action"`
}

// ChapterResponse is the JSON shape of a chapter plus state-machine outcome.
type ChapterResponse struct {
	Chapter          *store.Chapter `json:"chapter"`
	Published        bool           `json:"published"`
	FirstPublished   bool           `json:"firstPublished"`
	StoryAutoDrafted bool           `json:"storyAutoDrafted"`
}

func chapterType(raw string) (store.ChapterType, bool) {
	switch raw {
	case "prologue":
		return store.ChapterTypePrologue, true
	case "chapter":
		return store.ChapterTypeRegular, true
	case "epilogue":
		return store.ChapterTypeEpilogue, true
	}
	return "", false
}

// CreateChapter handles POST /api/v1/stories/:id/chapters.
func (s *APIV1Service) CreateChapter(c echo.Context) error {
	storyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	request := &UpsertChapterRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	kind, ok := chapterType(request.Type)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "type must be prologue, chapter, or epilogue")
	}
	result, err := s.Publication.UpsertChapter(c.Request().Context(), &publication.UpsertChapterRequest{
		StoryID:     storyID,
		Type:        kind,
		Number:      request.Number,
		Title:       request.Title,
		Content:     request.Content,
		DisplayDate: request.DisplayDate,
		Publish:     request.Action == "publish",
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, &ChapterResponse{
		Chapter:          result.Chapter,
		Published:        result.Published,
		FirstPublished:   result.FirstPublished,
		StoryAutoDrafted: result.StoryAutoDrafted,
	})
}

// UpdateChapter handles PATCH /api/v1/chapters/:id.
func (s *APIV1Service) UpdateChapter(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	existing, err := s.Store.GetChapter(c.Request().Context(), &store.FindChapter{ID: &id})
	if err != nil {
		return writeError(c, err)
	}
	if existing == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
	request := &UpsertChapterRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	kind, ok := chapterType(request.Type)
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "type must be prologue, chapter, or epilogue")
	}
	result, err := s.Publication.UpsertChapter(c.Request().Context(), &publication.UpsertChapterRequest{
		ID:          id,
		StoryID:     existing.StoryID,
		Type:        kind,
		Number:      request.Number,
		Title:       request.Title,
		Content:     request.Content,
		DisplayDate: request.DisplayDate,
		Publish:     request.Action == "publish",
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, &ChapterResponse{
		Chapter:          result.Chapter,
		Published:        result.Published,
		FirstPublished:   result.FirstPublished,
		StoryAutoDrafted: result.StoryAutoDrafted,
	})
}

// DeleteChapter handles DELETE /api/v1/chapters/:id.
func (s *APIV1Service) DeleteChapter(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	result, err := s.Publication.DeleteChapter(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"storyAutoDrafted": result.StoryAutoDrafted})
}

// GetChapter handles GET /api/v1/chapters/:id, returning the chapter with
// its content rendered to HTML.
func (s *APIV1Service) GetChapter(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	chapter, err := s.Store.GetChapter(c.Request().Context(), &store.FindChapter{ID: &id})
	if err != nil {
		return writeError(c, err)
	}
	if chapter == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}
	html, err := s.MarkdownService.RenderHTML(chapter.Content)
	if err != nil {
		return writeError(c, err)
	}
	views, err := s.Reader.GetChapterViews(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	rating, err := s.Reader.GetChapterRating(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"chapter":   chapter,
		"html":      html,
		"viewCount": views,
		"rating":    rating,
	})
}

// ListChapters handles GET /api/v1/stories/:id/chapters. The published
// filter defaults to true; drafts=true returns the author view.
func (s *APIV1Service) ListChapters(c echo.Context) error {
	storyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	publishedOnly := c.QueryParam("drafts") != "true"
	chapters, err := s.Reader.GetChapterList(c.Request().Context(), storyID, publishedOnly)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, chapters)
}

// CanPublishChapter handles GET /api/v1/chapters/:id/can-publish.
func (s *APIV1Service) CanPublishChapter(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	check, err := s.Publication.CanPublishChapter(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, check)
}

// WillAutoDraft handles GET /api/v1/chapters/:id/will-auto-draft.
func (s *APIV1Service) WillAutoDraft(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	would, err := s.Publication.WillAutoDraftIfRemoved(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"willAutoDraft": would})
}
