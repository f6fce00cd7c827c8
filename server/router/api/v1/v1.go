package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/fablehall/fablehall/internal/profile"
	"github.com/fablehall/fablehall/plugin/markdown"
	"github.com/fablehall/fablehall/server/service/derived"
	"github.com/fablehall/fablehall/server/service/publication"
	"github.com/fablehall/fablehall/store"
)

// APIV1Service carries the handler dependencies for the /api/v1 surface.
type APIV1Service struct {
	Profile         *profile.Profile
	Store           *store.Store
	MarkdownService markdown.Service
	Reader          *derived.Reader
	Publication     *publication.Service
	Invalidator     *derived.Invalidator
}

// NewAPIV1Service creates the v1 API service.
func NewAPIV1Service(profile *profile.Profile, st *store.Store, md markdown.Service, reader *derived.Reader, pub *publication.Service, inv *derived.Invalidator) *APIV1Service {
	return &APIV1Service{
		Profile:         profile,
		Store:           st,
		MarkdownService: md,
		Reader:          reader,
		Publication:     pub,
		Invalidator:     inv,
	}
}

// Register attaches all v1 routes to the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	g := e.Group("/api/v1")

	// Stories.
	g.POST("/stories", s.CreateStory)
	g.PATCH("/stories/:id", s.UpdateStory)
	g.DELETE("/stories/:id", s.DeleteStory)
	g.GET("/stories/:id", s.GetStory)
	g.GET("/stories/:id/aggregate", s.GetStoryAggregate)
	g.GET("/stories/:id/can-publish", s.CanPublishStory)
	g.GET("/stories/:id/chapters", s.ListChapters)
	g.GET("/stories/recent", s.ListRecentStories)
	g.GET("/stories/by-genre/:genreID", s.ListStoriesByGenre)
	g.GET("/stories/by-status/:statusTagID", s.ListStoriesByStatusTag)
	g.GET("/stories/most-bookmarked", s.ListMostBookmarked)

	// Chapters.
	g.POST("/stories/:id/chapters", s.CreateChapter)
	g.PATCH("/chapters/:id", s.UpdateChapter)
	g.DELETE("/chapters/:id", s.DeleteChapter)
	g.GET("/chapters/:id", s.GetChapter)
	g.GET("/chapters/:id/can-publish", s.CanPublishChapter)
	g.GET("/chapters/:id/will-auto-draft", s.WillAutoDraft)

	// Users and follows.
	g.POST("/users", s.CreateUser)
	g.GET("/users/:username/profile", s.GetProfile)
	g.GET("/users/top-authors", s.ListTopAuthors)
	g.POST("/users/:id/follow", s.Follow)
	g.DELETE("/users/:id/follow", s.Unfollow)
	g.GET("/users/:id/follow-status", s.GetFollowStatus)
	g.GET("/users/:id/followers", s.ListFollowers)
	g.GET("/users/:id/following", s.ListFollowing)

	// Bookmarks.
	g.POST("/stories/:id/bookmark", s.AddBookmark)
	g.DELETE("/stories/:id/bookmark", s.RemoveBookmark)
	g.GET("/stories/:id/bookmark-status", s.GetBookmarkStatus)
	g.GET("/users/:id/bookmarks", s.ListBookmarks)

	// Notifications.
	g.GET("/users/:id/notifications", s.ListNotifications)
	g.POST("/users/:id/notifications", s.CreateNotification)
	g.GET("/users/:id/notifications/unread-count", s.GetUnreadCount)
	g.POST("/notifications/:id/read", s.MarkNotificationRead)

	// Feeds.
	e.GET("/feed/stories.rss", s.StoriesFeed)
}
