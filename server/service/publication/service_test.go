package publication

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fablehall/fablehall/server/service/derived"
	"github.com/fablehall/fablehall/store"
)

// fakeStore is an in-memory Store so state-machine transitions can be
// asserted against durable state without a database.
type fakeStore struct {
	stories  map[int32]*store.Story
	chapters map[int32]*store.Chapter
	nextID   int32
}

func newPublicationFakeStore() *fakeStore {
	return &fakeStore{
		stories:  map[int32]*store.Story{},
		chapters: map[int32]*store.Chapter{},
	}
}

func (f *fakeStore) CreateStory(_ context.Context, create *store.Story) (*store.Story, error) {
	f.nextID++
	create.ID = f.nextID
	f.stories[create.ID] = create
	return create, nil
}

func (f *fakeStore) GetStory(_ context.Context, find *store.FindStory) (*store.Story, error) {
	if find.ID != nil {
		if story, ok := f.stories[*find.ID]; ok {
			copied := *story
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdateStory(_ context.Context, update *store.UpdateStory) error {
	story := f.stories[update.ID]
	if update.Title != nil {
		story.Title = *update.Title
	}
	if update.Introduction != nil {
		story.Introduction = *update.Introduction
	}
	if update.Status != nil {
		story.Status = *update.Status
	}
	if update.GenreIDs != nil {
		story.GenreIDs = *update.GenreIDs
	}
	if update.SetStatusTag {
		story.StatusTagID = update.StatusTagID
	}
	if update.CoAuthorIDs != nil {
		story.CoAuthorIDs = *update.CoAuthorIDs
	}
	if update.DisplayDate != nil {
		story.DisplayDate = *update.DisplayDate
	}
	if update.PublishedTs != nil {
		story.PublishedTs = *update.PublishedTs
	}
	if update.ContentUpdatedTs != nil {
		story.ContentUpdatedTs = *update.ContentUpdatedTs
	}
	return nil
}

func (f *fakeStore) DeleteStory(_ context.Context, request *store.DeleteStory) error {
	for id, chapter := range f.chapters {
		if chapter.StoryID == request.ID {
			delete(f.chapters, id)
		}
	}
	delete(f.stories, request.ID)
	return nil
}

func (f *fakeStore) CreateChapter(_ context.Context, create *store.Chapter) (*store.Chapter, error) {
	f.nextID++
	create.ID = f.nextID
	f.chapters[create.ID] = create
	return create, nil
}

func (f *fakeStore) matchChapter(chapter *store.Chapter, find *store.FindChapter) bool {
	if find.ID != nil && chapter.ID != *find.ID {
		return false
	}
	if find.StoryID != nil && chapter.StoryID != *find.StoryID {
		return false
	}
	if find.Status != nil && chapter.Status != *find.Status {
		return false
	}
	if find.Number != nil && chapter.Number != *find.Number {
		return false
	}
	if len(find.Types) > 0 {
		matched := false
		for _, t := range find.Types {
			if chapter.Type == t {
				matched = true
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (f *fakeStore) GetChapter(_ context.Context, find *store.FindChapter) (*store.Chapter, error) {
	for _, chapter := range f.chapters {
		if f.matchChapter(chapter, find) {
			copied := *chapter
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListChapters(_ context.Context, find *store.FindChapter) ([]*store.Chapter, error) {
	list := []*store.Chapter{}
	for _, chapter := range f.chapters {
		if f.matchChapter(chapter, find) {
			copied := *chapter
			list = append(list, &copied)
		}
	}
	return list, nil
}

func (f *fakeStore) UpdateChapter(_ context.Context, update *store.UpdateChapter) error {
	chapter := f.chapters[update.ID]
	if update.Type != nil {
		chapter.Type = *update.Type
	}
	if update.Number != nil {
		chapter.Number = *update.Number
	}
	if update.Title != nil {
		chapter.Title = *update.Title
	}
	if update.Content != nil {
		chapter.Content = *update.Content
	}
	if update.Status != nil {
		chapter.Status = *update.Status
	}
	if update.DisplayDate != nil {
		chapter.DisplayDate = *update.DisplayDate
	}
	if update.PublishedTs != nil {
		chapter.PublishedTs = *update.PublishedTs
	}
	return nil
}

func (f *fakeStore) DeleteChapter(_ context.Context, request *store.DeleteChapter) error {
	delete(f.chapters, request.ID)
	return nil
}

func (f *fakeStore) CountChapters(ctx context.Context, find *store.FindChapter) (int, error) {
	list, err := f.ListChapters(ctx, find)
	return len(list), err
}

// recordingInvalidator captures the event stream.
type recordingInvalidator struct {
	events []derived.Event
}

func (r *recordingInvalidator) Invalidate(_ context.Context, event derived.Event) {
	r.events = append(r.events, event)
}

var serviceNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *fakeStore, *recordingInvalidator) {
	t.Helper()
	st := newPublicationFakeStore()
	inv := &recordingInvalidator{}
	svc := NewService(st, inv)
	svc.now = func() time.Time { return serviceNow }
	return svc, st, inv
}

func statusTag(id int32) *int32 {
	return &id
}

// seedStory creates a story and one published regular chapter, then
// publishes the story.
func seedPublishedStory(t *testing.T, svc *Service) *store.Story {
	t.Helper()
	ctx := context.Background()
	created, err := svc.UpsertStory(ctx, &UpsertStoryRequest{
		CreatorID:    1,
		Title:        "Ashes of the North",
		Introduction: "A war ends; a colder one begins.",
		GenreIDs:     []int32{2},
		StatusTagID:  statusTag(1),
	})
	require.NoError(t, err)

	number := int32(1)
	_, err = svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: created.Story.ID,
		Type:    store.ChapterTypeRegular,
		Number:  &number,
		Title:   "Chapter One",
		Content: "The snow had not stopped for nine days.",
		Publish: true,
	})
	require.NoError(t, err)

	result, err := svc.UpsertStory(ctx, &UpsertStoryRequest{
		ID:           created.Story.ID,
		Title:        created.Story.Title,
		Introduction: created.Story.Introduction,
		GenreIDs:     created.Story.GenreIDs,
		StatusTagID:  created.Story.StatusTagID,
		Publish:      true,
	})
	require.NoError(t, err)
	require.True(t, result.Published)
	return result.Story
}

func TestStoryAlwaysCreatedAsDraft(t *testing.T) {
	svc, st, _ := newTestService(t)

	// Publish intent on create still lands as draft because the gate
	// cannot pass without a published chapter.
	result, err := svc.UpsertStory(context.Background(), &UpsertStoryRequest{
		CreatorID:    1,
		Title:        "Untitled",
		Introduction: "An intro.",
		GenreIDs:     []int32{1},
		StatusTagID:  statusTag(1),
		Publish:      true,
	})
	require.Nil(t, result)

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Contains(t, validation.Missing, "chapters")

	require.Len(t, st.stories, 1)
	for _, story := range st.stories {
		require.Equal(t, store.Draft, story.Status)
	}
}

func TestStoryPublishGateMissingFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.UpsertStory(ctx, &UpsertStoryRequest{CreatorID: 1, Title: "Bare"})
	require.NoError(t, err)

	check, err := svc.CanPublishStory(ctx, created.Story.ID)
	require.NoError(t, err)
	require.False(t, check.Allowed)
	require.Contains(t, check.Missing, "introduction")
	require.Contains(t, check.Missing, "genres")
	require.Contains(t, check.Missing, "statusTag")
	require.Contains(t, check.Missing, "chapters")
	require.Equal(t, "Story status is required", check.Missing["statusTag"])
}

func TestPrologueNumbering(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.UpsertStory(ctx, &UpsertStoryRequest{CreatorID: 1, Title: "S"})
	require.NoError(t, err)
	storyID := created.Story.ID

	result, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: storyID,
		Type:    store.ChapterTypePrologue,
		Content: "Before the beginning.",
	})
	require.NoError(t, err)
	require.Equal(t, int32(0), result.Chapter.Number)

	// Second prologue is rejected and nothing is written.
	_, err = svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: storyID,
		Type:    store.ChapterTypePrologue,
		Content: "Another beginning.",
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, st.chapters, 1)

	// Editing the existing prologue is not a collision with itself.
	_, err = svc.UpsertChapter(ctx, &UpsertChapterRequest{
		ID:      result.Chapter.ID,
		StoryID: storyID,
		Type:    store.ChapterTypePrologue,
		Content: "Before the beginning, revised.",
	})
	require.NoError(t, err)
}

func TestRegularChapterNumbering(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.UpsertStory(ctx, &UpsertStoryRequest{CreatorID: 1, Title: "S"})
	require.NoError(t, err)
	storyID := created.Story.ID

	// Out of range.
	var validation *ValidationError
	bad := int32(101)
	_, err = svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: storyID,
		Type:    store.ChapterTypeRegular,
		Number:  &bad,
		Content: "text",
	})
	require.ErrorAs(t, err, &validation)

	one := int32(1)
	_, err = svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: storyID,
		Type:    store.ChapterTypeRegular,
		Number:  &one,
		Content: "text",
	})
	require.NoError(t, err)

	// Duplicate number collides.
	_, err = svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: storyID,
		Type:    store.ChapterTypeRegular,
		Number:  &one,
		Content: "other text",
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestEpilogueNumbering(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.UpsertStory(ctx, &UpsertStoryRequest{CreatorID: 1, Title: "S"})
	require.NoError(t, err)
	storyID := created.Story.ID

	one := int32(1)
	_, err = svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: storyID, Type: store.ChapterTypeRegular, Number: &one, Content: "text",
	})
	require.NoError(t, err)

	first, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: storyID, Type: store.ChapterTypeEpilogue, Content: "afterword",
	})
	require.NoError(t, err)
	require.Equal(t, int32(1000), first.Chapter.Number)

	// A story holds a single epilogue.
	_, err = svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: storyID, Type: store.ChapterTypeEpilogue, Content: "second afterword",
	})
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Len(t, st.chapters, 2)

	// Editing the existing epilogue is not a collision with itself.
	edited, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		ID: first.Chapter.ID, StoryID: storyID, Type: store.ChapterTypeEpilogue, Content: "afterword, revised",
	})
	require.NoError(t, err)
	require.Equal(t, int32(1000), edited.Chapter.Number)
}

func TestEpilogueNumberScansPastCollision(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.UpsertStory(ctx, &UpsertStoryRequest{CreatorID: 1, Title: "S"})
	require.NoError(t, err)
	storyID := created.Story.ID

	// Imported legacy data can carry chapter numbers at or above 1000.
	st.nextID++
	st.chapters[st.nextID] = &store.Chapter{
		ID:      st.nextID,
		StoryID: storyID,
		Type:    store.ChapterTypeRegular,
		Number:  1000,
		Status:  store.Draft,
		Content: "legacy chapter",
	}

	result, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: storyID, Type: store.ChapterTypeEpilogue, Content: "afterword",
	})
	require.NoError(t, err)
	require.Equal(t, int32(1001), result.Chapter.Number)
}

func TestChapterPublishGate(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.UpsertStory(ctx, &UpsertStoryRequest{CreatorID: 1, Title: "S"})
	require.NoError(t, err)

	one := int32(1)
	_, err = svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: created.Story.ID,
		Type:    store.ChapterTypeRegular,
		Number:  &one,
		Publish: true,
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Contains(t, validation.Missing, "content")

	// The empty chapter was still committed, as a draft.
	require.Len(t, st.chapters, 1)
	for _, chapter := range st.chapters {
		require.Equal(t, store.Draft, chapter.Status)
	}
}

func TestFirstPublishedChapterAdvisory(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.UpsertStory(ctx, &UpsertStoryRequest{CreatorID: 1, Title: "S"})
	require.NoError(t, err)

	one := int32(1)
	first, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: created.Story.ID,
		Type:    store.ChapterTypeRegular,
		Number:  &one,
		Content: "text",
		Publish: true,
	})
	require.NoError(t, err)
	require.True(t, first.Published)
	require.True(t, first.FirstPublished)

	two := int32(2)
	second, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: created.Story.ID,
		Type:    store.ChapterTypeRegular,
		Number:  &two,
		Content: "more text",
		Publish: true,
	})
	require.NoError(t, err)
	require.False(t, second.FirstPublished)
}

func TestAutoDraftCascadeOnEdit(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	story := seedPublishedStory(t, svc)
	require.Equal(t, store.Published, st.stories[story.ID].Status)

	var chapterID int32
	for id := range st.chapters {
		chapterID = id
	}

	// Drafting the only published chapter force-drafts the story.
	result, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		ID:      chapterID,
		StoryID: story.ID,
		Type:    store.ChapterTypeRegular,
		Number:  &st.chapters[chapterID].Number,
		Content: st.chapters[chapterID].Content,
		Publish: false,
	})
	require.NoError(t, err)
	require.True(t, result.StoryAutoDrafted)
	require.Equal(t, store.Draft, st.stories[story.ID].Status)
}

func TestAutoDraftCascadeSparedBySibling(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	story := seedPublishedStory(t, svc)
	two := int32(2)
	second, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: story.ID,
		Type:    store.ChapterTypeRegular,
		Number:  &two,
		Content: "a second published chapter",
		Publish: true,
	})
	require.NoError(t, err)

	result, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		ID:      second.Chapter.ID,
		StoryID: story.ID,
		Type:    store.ChapterTypeRegular,
		Number:  &two,
		Content: second.Chapter.Content,
		Publish: false,
	})
	require.NoError(t, err)
	require.False(t, result.StoryAutoDrafted)
	require.Equal(t, store.Published, st.stories[story.ID].Status)
}

func TestEpiloguesDoNotCountForCascade(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	story := seedPublishedStory(t, svc)
	_, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: story.ID,
		Type:    store.ChapterTypeEpilogue,
		Content: "the end, published",
		Publish: true,
	})
	require.NoError(t, err)

	var regularID int32
	for id, chapter := range st.chapters {
		if chapter.Type == store.ChapterTypeRegular {
			regularID = id
		}
	}

	// A published epilogue does not keep the story published.
	result, err := svc.DeleteChapter(ctx, regularID)
	require.NoError(t, err)
	require.True(t, result.StoryAutoDrafted)
	require.Equal(t, store.Draft, st.stories[story.ID].Status)
}

func TestWillAutoDraftIfRemoved(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	story := seedPublishedStory(t, svc)
	var chapterID int32
	for id := range st.chapters {
		chapterID = id
	}

	would, err := svc.WillAutoDraftIfRemoved(ctx, chapterID)
	require.NoError(t, err)
	require.True(t, would)

	two := int32(2)
	_, err = svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: story.ID,
		Type:    store.ChapterTypeRegular,
		Number:  &two,
		Content: "a sibling",
		Publish: true,
	})
	require.NoError(t, err)

	would, err = svc.WillAutoDraftIfRemoved(ctx, chapterID)
	require.NoError(t, err)
	require.False(t, would)
}

func TestContentMarkerPreservedOnDateOnlyEdit(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	story := seedPublishedStory(t, svc)
	markerBefore := st.stories[story.ID].ContentUpdatedTs
	require.NotZero(t, markerBefore)

	var chapterID int32
	for id := range st.chapters {
		chapterID = id
	}
	chapter := st.chapters[chapterID]

	// Backdating with unchanged content must not advance the marker.
	_, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		ID:          chapterID,
		StoryID:     story.ID,
		Type:        chapter.Type,
		Number:      &chapter.Number,
		Content:     chapter.Content,
		DisplayDate: "2024-01-01",
		Publish:     true,
	})
	require.NoError(t, err)
	require.Equal(t, markerBefore, st.stories[story.ID].ContentUpdatedTs)
}

func TestChapterForwardDateRejectedWithoutEdit(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	story := seedPublishedStory(t, svc)
	var chapterID int32
	for id := range st.chapters {
		chapterID = id
	}
	chapter := st.chapters[chapterID]

	// Pin the display date in the past first.
	_, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		ID: chapterID, StoryID: story.ID, Type: chapter.Type, Number: &chapter.Number,
		Content: chapter.Content, DisplayDate: "2024-01-01", Publish: true,
	})
	require.NoError(t, err)

	_, err = svc.UpsertChapter(ctx, &UpsertChapterRequest{
		ID: chapterID, StoryID: story.ID, Type: chapter.Type, Number: &chapter.Number,
		Content: chapter.Content, DisplayDate: "2024-06-01", Publish: true,
	})
	var guard *DateGuardError
	require.ErrorAs(t, err, &guard)
	require.Equal(t, "2024-01-01", st.chapters[chapterID].DisplayDate)
}

func TestStoryForwardDateRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	story := seedPublishedStory(t, svc)
	_, err := svc.UpsertStory(ctx, &UpsertStoryRequest{
		ID:           story.ID,
		Title:        story.Title,
		Introduction: story.Introduction,
		GenreIDs:     story.GenreIDs,
		StatusTagID:  story.StatusTagID,
		DisplayDate:  "2024-01-01",
		Publish:      true,
	})
	require.NoError(t, err)

	_, err = svc.UpsertStory(ctx, &UpsertStoryRequest{
		ID:           story.ID,
		Title:        story.Title,
		Introduction: story.Introduction,
		GenreIDs:     story.GenreIDs,
		StatusTagID:  story.StatusTagID,
		DisplayDate:  "2024-06-01",
		Publish:      true,
	})
	var guard *DateGuardError
	require.ErrorAs(t, err, &guard)
}

func TestClearedStatusTagPersistsAndGateAgrees(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	story := seedPublishedStory(t, svc)
	require.NotNil(t, st.stories[story.ID].StatusTagID)

	// An edit that omits the status tag clears it durably.
	_, err := svc.UpsertStory(ctx, &UpsertStoryRequest{
		ID:           story.ID,
		Title:        story.Title,
		Introduction: story.Introduction,
		GenreIDs:     story.GenreIDs,
		StatusTagID:  nil,
		Publish:      true,
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Contains(t, validation.Missing, "statusTag")
	require.Nil(t, st.stories[story.ID].StatusTagID)
	require.Equal(t, store.Draft, st.stories[story.ID].Status)

	// The dry-run check reads the same durable state and must agree.
	check, err := svc.CanPublishStory(ctx, story.ID)
	require.NoError(t, err)
	require.False(t, check.Allowed)
	require.Contains(t, check.Missing, "statusTag")
}

func TestOngoingStatusRequiresRecentContentUpdate(t *testing.T) {
	svc, st, _ := newTestService(t)
	svc.SetOngoingStatusTag(5)
	ctx := context.Background()

	story := seedPublishedStory(t, svc)

	// The marker was advanced by the chapter publish, so the ongoing tag
	// passes the gate.
	result, err := svc.UpsertStory(ctx, &UpsertStoryRequest{
		ID:           story.ID,
		Title:        story.Title,
		Introduction: story.Introduction,
		GenreIDs:     story.GenreIDs,
		StatusTagID:  statusTag(5),
		Publish:      true,
	})
	require.NoError(t, err)
	require.True(t, result.Published)

	// A stale marker makes the ongoing tag ineligible.
	st.stories[story.ID].ContentUpdatedTs = serviceNow.Add(-91 * 24 * time.Hour).Unix()
	_, err = svc.UpsertStory(ctx, &UpsertStoryRequest{
		ID:           story.ID,
		Title:        story.Title,
		Introduction: story.Introduction,
		GenreIDs:     story.GenreIDs,
		StatusTagID:  statusTag(5),
		Publish:      true,
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Contains(t, validation.Missing, "statusTag")

	check, err := svc.CanPublishStory(ctx, story.ID)
	require.NoError(t, err)
	require.False(t, check.Allowed)
	require.Contains(t, check.Missing, "statusTag")

	// Any other status tag stays unaffected by the marker.
	_, err = svc.UpsertStory(ctx, &UpsertStoryRequest{
		ID:           story.ID,
		Title:        story.Title,
		Introduction: story.Introduction,
		GenreIDs:     story.GenreIDs,
		StatusTagID:  statusTag(1),
		Publish:      true,
	})
	require.NoError(t, err)
}

func TestNumberlessRegularDraftCommits(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.UpsertStory(ctx, &UpsertStoryRequest{CreatorID: 1, Title: "S"})
	require.NoError(t, err)
	storyID := created.Story.ID

	// A draft save needs no number yet.
	draft, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: storyID,
		Type:    store.ChapterTypeRegular,
		Content: "an early sketch",
	})
	require.NoError(t, err)
	require.Equal(t, store.Draft, draft.Chapter.Status)
	require.Equal(t, store.UnnumberedChapter, draft.Chapter.Number)

	// The unnumbered draft does not occupy the prologue slot.
	_, err = svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: storyID,
		Type:    store.ChapterTypePrologue,
		Content: "before the beginning",
	})
	require.NoError(t, err)

	// The publish flip refuses an unnumbered chapter; the draft stands.
	_, err = svc.UpsertChapter(ctx, &UpsertChapterRequest{
		ID:      draft.Chapter.ID,
		StoryID: storyID,
		Type:    store.ChapterTypeRegular,
		Content: "an early sketch",
		Publish: true,
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "Chapter number is required", validation.Missing["number"])
	require.Equal(t, store.Draft, st.chapters[draft.Chapter.ID].Status)

	// Supplying the number lets the same chapter publish.
	one := int32(1)
	published, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		ID:      draft.Chapter.ID,
		StoryID: storyID,
		Type:    store.ChapterTypeRegular,
		Number:  &one,
		Content: "an early sketch, finished",
		Publish: true,
	})
	require.NoError(t, err)
	require.True(t, published.Published)
}

func TestEditKeepsAssignedNumberWhenOmitted(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.UpsertStory(ctx, &UpsertStoryRequest{CreatorID: 1, Title: "S"})
	require.NoError(t, err)

	three := int32(3)
	chapter, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: created.Story.ID,
		Type:    store.ChapterTypeRegular,
		Number:  &three,
		Content: "text",
	})
	require.NoError(t, err)

	edited, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		ID:      chapter.Chapter.ID,
		StoryID: created.Story.ID,
		Type:    store.ChapterTypeRegular,
		Content: "text, revised",
	})
	require.NoError(t, err)
	require.Equal(t, three, edited.Chapter.Number)
	require.Equal(t, three, st.chapters[chapter.Chapter.ID].Number)
}

func TestWriteFailureProducesNoEvent(t *testing.T) {
	svc, _, inv := newTestService(t)
	ctx := context.Background()

	// A rejected date guard aborts before any write or event.
	_, err := svc.UpsertStory(ctx, &UpsertStoryRequest{
		CreatorID:   1,
		Title:       "S",
		DisplayDate: "not-a-date",
	})
	require.Error(t, err)
	require.Empty(t, inv.events)
}

func TestEndToEndPublishFlow(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	// Create story as draft with no genre or status tag.
	created, err := svc.UpsertStory(ctx, &UpsertStoryRequest{
		CreatorID:    1,
		Title:        "The Ninth Gate",
		Introduction: "Seven keys, eight locks.",
	})
	require.NoError(t, err)
	require.Equal(t, store.Draft, created.Story.Status)

	// Chapter publishes on its own gate (content plus number only).
	one := int32(1)
	chapterResult, err := svc.UpsertChapter(ctx, &UpsertChapterRequest{
		StoryID: created.Story.ID,
		Type:    store.ChapterTypeRegular,
		Number:  &one,
		Content: "The gate was already open.",
		Publish: true,
	})
	require.NoError(t, err)
	require.True(t, chapterResult.Published)
	require.True(t, chapterResult.FirstPublished)

	// Story-level gate still fails on genre and status tag; story stays draft.
	_, err = svc.UpsertStory(ctx, &UpsertStoryRequest{
		ID:           created.Story.ID,
		Title:        created.Story.Title,
		Introduction: created.Story.Introduction,
		Publish:      true,
	})
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	require.Contains(t, validation.Missing, "genres")
	require.Contains(t, validation.Missing, "statusTag")
	require.NotContains(t, validation.Missing, "chapters")
	require.Equal(t, store.Draft, st.stories[created.Story.ID].Status)

	// Supplying the missing taxonomy lets the publish gate pass.
	result, err := svc.UpsertStory(ctx, &UpsertStoryRequest{
		ID:           created.Story.ID,
		Title:        created.Story.Title,
		Introduction: created.Story.Introduction,
		GenreIDs:     []int32{4},
		StatusTagID:  statusTag(2),
		Publish:      true,
	})
	require.NoError(t, err)
	require.True(t, result.Published)
	require.Equal(t, store.Published, st.stories[created.Story.ID].Status)
}
