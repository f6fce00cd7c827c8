package derived

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fablehall/fablehall/plugin/markdown"
	"github.com/fablehall/fablehall/store"
	"github.com/fablehall/fablehall/store/cache"
)

// fakeStore is an in-memory Store with per-method call counters so tests
// can observe whether a read was served from cache or recomputed.
type fakeStore struct {
	stories       []*store.Story
	chapters      []*store.Chapter
	users         []*store.User
	follows       []*store.Follow
	bookmarks     []*store.Bookmark
	notifications []*store.Notification

	calls map[string]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{calls: map[string]int{}}
}

func (f *fakeStore) count(method string) {
	f.calls[method]++
}

func (f *fakeStore) GetStory(_ context.Context, find *store.FindStory) (*store.Story, error) {
	f.count("GetStory")
	for _, story := range f.stories {
		if find.ID != nil && story.ID != *find.ID {
			continue
		}
		return story, nil
	}
	return nil, nil
}

func (f *fakeStore) ListStories(_ context.Context, find *store.FindStory) ([]*store.Story, error) {
	f.count("ListStories")
	list := []*store.Story{}
	for _, story := range f.stories {
		if find.Status != nil && story.Status != *find.Status {
			continue
		}
		if find.CreatorID != nil && story.CreatorID != *find.CreatorID {
			continue
		}
		list = append(list, story)
	}
	return list, nil
}

func (f *fakeStore) CountStories(ctx context.Context, find *store.FindStory) (int, error) {
	list, err := f.ListStories(ctx, find)
	return len(list), err
}

func (f *fakeStore) ListChapters(_ context.Context, find *store.FindChapter) ([]*store.Chapter, error) {
	f.count("ListChapters")
	list := []*store.Chapter{}
	for _, chapter := range f.chapters {
		if find.StoryID != nil && chapter.StoryID != *find.StoryID {
			continue
		}
		if find.Status != nil && chapter.Status != *find.Status {
			continue
		}
		list = append(list, chapter)
	}
	return list, nil
}

func (f *fakeStore) CountChapters(ctx context.Context, find *store.FindChapter) (int, error) {
	list, err := f.ListChapters(ctx, find)
	return len(list), err
}

func (f *fakeStore) GetUser(_ context.Context, find *store.FindUser) (*store.User, error) {
	f.count("GetUser")
	for _, user := range f.users {
		if find.Username != nil && user.Username != *find.Username {
			continue
		}
		if find.ID != nil && user.ID != *find.ID {
			continue
		}
		return user, nil
	}
	return nil, nil
}

func (f *fakeStore) ListFollows(_ context.Context, find *store.FindFollow) ([]*store.Follow, error) {
	f.count("ListFollows")
	list := []*store.Follow{}
	for _, follow := range f.follows {
		if find.FollowerID != nil && follow.FollowerID != *find.FollowerID {
			continue
		}
		if find.FolloweeID != nil && follow.FolloweeID != *find.FolloweeID {
			continue
		}
		list = append(list, follow)
	}
	return list, nil
}

func (f *fakeStore) CountFollows(ctx context.Context, find *store.FindFollow) (int, error) {
	list, err := f.ListFollows(ctx, find)
	return len(list), err
}

func (f *fakeStore) TopAuthors(_ context.Context, limit int) ([]*store.RankedUser, error) {
	f.count("TopAuthors")
	return nil, nil
}

func (f *fakeStore) ListBookmarks(_ context.Context, find *store.FindBookmark) ([]*store.Bookmark, error) {
	f.count("ListBookmarks")
	list := []*store.Bookmark{}
	for _, bookmark := range f.bookmarks {
		if find.UserID != nil && bookmark.UserID != *find.UserID {
			continue
		}
		if find.StoryID != nil && bookmark.StoryID != *find.StoryID {
			continue
		}
		list = append(list, bookmark)
	}
	return list, nil
}

func (f *fakeStore) CountBookmarks(ctx context.Context, find *store.FindBookmark) (int, error) {
	list, err := f.ListBookmarks(ctx, find)
	return len(list), err
}

func (f *fakeStore) MostBookmarkedStories(_ context.Context, limit int) ([]*store.RankedStory, error) {
	f.count("MostBookmarkedStories")
	return nil, nil
}

func (f *fakeStore) ListNotifications(_ context.Context, find *store.FindNotification) ([]*store.Notification, error) {
	f.count("ListNotifications")
	list := []*store.Notification{}
	for _, notification := range f.notifications {
		if find.UserID != nil && notification.UserID != *find.UserID {
			continue
		}
		if find.Unread != nil && *find.Unread != (notification.ReadTs == nil) {
			continue
		}
		list = append(list, notification)
	}
	return list, nil
}

func (f *fakeStore) CountNotifications(ctx context.Context, find *store.FindNotification) (int, error) {
	list, err := f.ListNotifications(ctx, find)
	return len(list), err
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c := cache.New(cache.Config{
		DefaultTTL:      time.Minute,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(func() { c.Close() })
	return c
}

func publishedStory(id, creatorID int32) *store.Story {
	statusTag := int32(1)
	return &store.Story{
		ID:           id,
		CreatorID:    creatorID,
		Title:        "The Hollow Crown",
		Introduction: "A kingdom unravels.",
		Status:       store.Published,
		GenreIDs:     []int32{3},
		StatusTagID:  &statusTag,
	}
}

func TestReaderCachesChapterCount(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.chapters = []*store.Chapter{
		{ID: 1, StoryID: 7, Status: store.Published, Content: "one two three"},
		{ID: 2, StoryID: 7, Status: store.Published, Content: "four five"},
		{ID: 3, StoryID: 7, Status: store.Draft, Content: "draft words"},
	}
	reader := NewReader(st, newTestCache(t), markdown.NewService(), nil)

	count, err := reader.GetChapterCount(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Equal(t, 1, st.calls["ListChapters"])

	// Second read is served from cache.
	count, err = reader.GetChapterCount(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.Equal(t, 1, st.calls["ListChapters"])
}

func TestReaderFallThroughWithoutCache(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.chapters = []*store.Chapter{
		{ID: 1, StoryID: 7, Status: store.Published},
	}
	reader := NewReader(st, nil, markdown.NewService(), nil)

	for i := 0; i < 3; i++ {
		count, err := reader.GetChapterCount(ctx, 7)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	}
	require.Equal(t, 3, st.calls["ListChapters"])
}

func TestReaderWordCountPublishedOnly(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.chapters = []*store.Chapter{
		{ID: 1, StoryID: 7, Status: store.Published, Content: "one two three"},
		{ID: 2, StoryID: 7, Status: store.Draft, Content: "these words never count"},
	}
	reader := NewReader(st, newTestCache(t), markdown.NewService(), nil)

	total, err := reader.GetWordCount(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 3, total)
}

func TestReaderStoryValid(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.stories = []*store.Story{publishedStory(7, 1)}
	st.chapters = []*store.Chapter{
		{ID: 1, StoryID: 7, Status: store.Published},
	}
	reader := NewReader(st, nil, markdown.NewService(), nil)

	valid, err := reader.GetStoryValid(ctx, 7)
	require.NoError(t, err)
	require.True(t, valid)

	// Remove the only published chapter; validity flips.
	st.chapters[0].Status = store.Draft
	valid, err = reader.GetStoryValid(ctx, 7)
	require.NoError(t, err)
	require.False(t, valid)

	// A story with no status tag is never valid.
	st.chapters[0].Status = store.Published
	st.stories[0].StatusTagID = nil
	valid, err = reader.GetStoryValid(ctx, 7)
	require.NoError(t, err)
	require.False(t, valid)
}

func TestReaderCoherenceAfterInvalidation(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.chapters = []*store.Chapter{
		{ID: 1, StoryID: 7, Status: store.Published},
	}
	c := newTestCache(t)
	reader := NewReader(st, c, markdown.NewService(), nil)
	inv := NewInvalidator(c)

	count, err := reader.GetChapterCount(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	// A new chapter commits, then its event fires. The next read must see
	// the new value, not the cached one.
	st.chapters = append(st.chapters, &store.Chapter{ID: 2, StoryID: 7, Status: store.Published})
	inv.Invalidate(ctx, Event{Entity: EntityChapter, ID: 2, Mutation: MutationCreate, RelatedID: 7})

	count, err = reader.GetChapterCount(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestReaderNegativeProfileLookup(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	reader := NewReader(st, newTestCache(t), markdown.NewService(), nil)

	profile, err := reader.GetProfile(ctx, "ghost")
	require.NoError(t, err)
	require.Nil(t, profile)
	require.Equal(t, 1, st.calls["GetUser"])

	// The miss is cached; a repeat lookup never reaches the store.
	profile, err = reader.GetProfile(ctx, "ghost")
	require.NoError(t, err)
	require.Nil(t, profile)
	require.Equal(t, 1, st.calls["GetUser"])
}

func TestReaderProfileAggregate(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.users = []*store.User{{ID: 1, Username: "aria"}}
	st.stories = []*store.Story{publishedStory(7, 1)}
	st.follows = []*store.Follow{
		{FollowerID: 2, FolloweeID: 1},
		{FollowerID: 3, FolloweeID: 1},
		{FollowerID: 1, FolloweeID: 2},
	}
	reader := NewReader(st, newTestCache(t), markdown.NewService(), nil)

	profile, err := reader.GetProfile(ctx, "aria")
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, 1, profile.StoryCount)
	require.Equal(t, 2, profile.FollowerCount)
	require.Equal(t, 1, profile.FollowingCount)
}

func TestReaderFollowStatus(t *testing.T) {
	ctx := context.Background()
	st := newFakeStore()
	st.follows = []*store.Follow{{FollowerID: 1, FolloweeID: 2}}
	c := newTestCache(t)
	reader := NewReader(st, c, markdown.NewService(), nil)
	inv := NewInvalidator(c)

	following, err := reader.GetFollowStatus(ctx, 1, 2)
	require.NoError(t, err)
	require.True(t, following)

	st.follows = nil
	inv.Invalidate(ctx, Event{Entity: EntityFollow, ID: 1, Mutation: MutationDelete, RelatedID: 2})

	following, err = reader.GetFollowStatus(ctx, 1, 2)
	require.NoError(t, err)
	require.False(t, following)
}

func TestReaderUnreadCount(t *testing.T) {
	ctx := context.Background()
	readTs := int64(100)
	st := newFakeStore()
	st.notifications = []*store.Notification{
		{ID: 1, UserID: 4},
		{ID: 2, UserID: 4, ReadTs: &readTs},
		{ID: 3, UserID: 4},
	}
	reader := NewReader(st, newTestCache(t), markdown.NewService(), nil)

	unread, err := reader.GetUnreadNotificationCount(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, 2, unread)
}

func TestClampPageSize(t *testing.T) {
	require.Equal(t, 10, ClampPageSize(0))
	require.Equal(t, 10, ClampPageSize(10))
	require.Equal(t, 15, ClampPageSize(14))
	require.Equal(t, 20, ClampPageSize(99))
}
