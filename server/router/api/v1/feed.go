package v1

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	"github.com/fablehall/fablehall/store"
)

const feedPageSize = 20

// StoriesFeed handles GET /feed/stories.rss: the most recently
// content-updated published stories. The story ids come through the same
// cached listing the HTML front page uses.
func (s *APIV1Service) StoriesFeed(c echo.Context) error {
	ctx := c.Request().Context()

	ids, err := s.Reader.GetRecentStories(ctx, 1, feedPageSize)
	if err != nil {
		return writeError(c, err)
	}

	stories := make([]*store.Story, 0, len(ids))
	for _, id := range ids {
		story, err := s.Store.GetStory(ctx, &store.FindStory{ID: &id})
		if err != nil {
			return writeError(c, err)
		}
		if story == nil {
			continue
		}
		stories = append(stories, story)
	}

	rss, err := buildStoryFeed(s.Profile.InstanceURL, stories).ToRss()
	if err != nil {
		return writeError(c, err)
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func buildStoryFeed(instanceURL string, stories []*store.Story) *feeds.Feed {
	feed := &feeds.Feed{
		Title:       "Fablehall: recently updated stories",
		Link:        &feeds.Link{Href: instanceURL},
		Description: "Serialized fiction with fresh chapters",
		Created:     time.Now(),
	}
	for _, story := range stories {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          story.UID,
			Title:       story.Title,
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/stories/%d", instanceURL, story.ID)},
			Description: story.Introduction,
			Created:     time.Unix(story.CreatedTs, 0),
			Updated:     time.Unix(story.ContentUpdatedTs, 0),
		})
	}
	return feed
}
