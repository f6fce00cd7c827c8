package publication

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/fablehall/fablehall/internal/util"
	"github.com/fablehall/fablehall/server/internal/metrics"
	"github.com/fablehall/fablehall/server/service/derived"
	"github.com/fablehall/fablehall/store"
)

// ErrNotFound is returned when the subject of an operation does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the interface for store operations needed by the state machine.
type Store interface {
	CreateStory(ctx context.Context, create *store.Story) (*store.Story, error)
	GetStory(ctx context.Context, find *store.FindStory) (*store.Story, error)
	UpdateStory(ctx context.Context, update *store.UpdateStory) error
	DeleteStory(ctx context.Context, delete *store.DeleteStory) error
	CreateChapter(ctx context.Context, create *store.Chapter) (*store.Chapter, error)
	GetChapter(ctx context.Context, find *store.FindChapter) (*store.Chapter, error)
	ListChapters(ctx context.Context, find *store.FindChapter) ([]*store.Chapter, error)
	UpdateChapter(ctx context.Context, update *store.UpdateChapter) error
	DeleteChapter(ctx context.Context, delete *store.DeleteChapter) error
	CountChapters(ctx context.Context, find *store.FindChapter) (int, error)
}

// Invalidator consumes mutation events after their durable write commits.
type Invalidator interface {
	Invalidate(ctx context.Context, event derived.Event)
}

// Service is the publication state machine. Every durable write flows
// through it; on commit it synchronously hands the mutation event to the
// invalidator. A write that fails produces no event.
type Service struct {
	store       Store
	invalidator Invalidator
	freshness   Freshness

	// ongoingTagID is the status tag gated by content freshness. Nil
	// disables the eligibility check.
	ongoingTagID *int32

	// now is swapped in tests.
	now func() time.Time
}

// NewService creates the publication state machine.
func NewService(st Store, inv Invalidator) *Service {
	return &Service{
		store:       st,
		invalidator: inv,
		now:         time.Now,
	}
}

// SetOngoingStatusTag marks id as the "ongoing" status tag. A story carrying
// it passes the publish gate only while its content-updated marker is within
// OngoingCutoff.
func (s *Service) SetOngoingStatusTag(id int32) {
	s.ongoingTagID = &id
}

// PublishCheck is the advisory result of a can-publish dry run.
type PublishCheck struct {
	Allowed bool              `json:"allowed"`
	Missing map[string]string `json:"missing,omitempty"`
}

// UpsertStoryRequest carries an author's story create or edit.
type UpsertStoryRequest struct {
	// ID zero means create.
	ID           int32
	CreatorID    int32
	Title        string
	Introduction string
	GenreIDs     []int32
	StatusTagID  *int32
	CoAuthorIDs  []int32
	// DisplayDate is the author-facing date (YYYY-MM-DD). Empty keeps the
	// current date on edit, or defaults to today on create.
	DisplayDate string
	// Publish requests the published status. The write still commits as
	// draft first; the flip happens only after validation passes.
	Publish bool
}

// StoryResult reports the outcome of a story upsert.
type StoryResult struct {
	Story     *store.Story
	Published bool
}

// UpsertStory commits a story create or edit. The record always lands as
// draft; when Publish is requested, the publish gate runs against the saved
// data and flips the status in a second write. A failed gate leaves the
// draft in place and returns the missing-field map as a ValidationError.
func (s *Service) UpsertStory(ctx context.Context, req *UpsertStoryRequest) (*StoryResult, error) {
	now := s.now()
	today := now.Format(displayDateLayout)

	var story *store.Story
	if req.ID == 0 {
		displayDate := req.DisplayDate
		if displayDate == "" {
			displayDate = today
		}
		if err := ValidateDisplayDate(displayDate, now); err != nil {
			return nil, err
		}
		created, err := s.store.CreateStory(ctx, &store.Story{
			UID:          util.GenUID(),
			CreatorID:    req.CreatorID,
			CreatedTs:    now.Unix(),
			UpdatedTs:    now.Unix(),
			Title:        req.Title,
			Introduction: req.Introduction,
			Status:       store.Draft,
			GenreIDs:     req.GenreIDs,
			StatusTagID:  req.StatusTagID,
			CoAuthorIDs:  req.CoAuthorIDs,
			DisplayDate:  displayDate,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create story")
		}
		story = created
		s.invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityStory, ID: story.ID, Mutation: derived.MutationCreate})
	} else {
		existing, err := s.store.GetStory(ctx, &store.FindStory{ID: &req.ID})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get story")
		}
		if existing == nil {
			return nil, ErrNotFound
		}

		displayDate := req.DisplayDate
		if displayDate == "" {
			displayDate = existing.DisplayDate
		}
		if err := EvaluateStoryDate(existing.DisplayDate, displayDate, now); err != nil {
			return nil, err
		}

		// The edit commits as draft; the publish gate below re-promotes it.
		updatedTs := now.Unix()
		draft := store.Draft
		update := &store.UpdateStory{
			ID:           existing.ID,
			UpdatedTs:    &updatedTs,
			Title:        &req.Title,
			Introduction: &req.Introduction,
			Status:       &draft,
			GenreIDs:     &req.GenreIDs,
			StatusTagID:  req.StatusTagID,
			SetStatusTag: true,
			CoAuthorIDs:  &req.CoAuthorIDs,
			DisplayDate:  &displayDate,
		}
		if err := s.store.UpdateStory(ctx, update); err != nil {
			return nil, errors.Wrap(err, "failed to update story")
		}
		existing.Title = req.Title
		existing.Introduction = req.Introduction
		existing.Status = store.Draft
		existing.GenreIDs = req.GenreIDs
		existing.StatusTagID = req.StatusTagID
		existing.CoAuthorIDs = req.CoAuthorIDs
		existing.DisplayDate = displayDate
		story = existing
		s.invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityStory, ID: story.ID, Mutation: derived.MutationUpdate})
	}

	result := &StoryResult{Story: story}
	if !req.Publish {
		return result, nil
	}

	if err := s.publishStory(ctx, story, now); err != nil {
		return nil, err
	}
	result.Published = true
	return result, nil
}

// publishStory runs the story publish gate against durably-saved data and
// flips the status on success.
func (s *Service) publishStory(ctx context.Context, story *store.Story, now time.Time) error {
	missing, err := s.storyMissing(ctx, story)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		metrics.PublishAttemptsTotal.WithLabelValues("story", "rejected").Inc()
		return &ValidationError{Missing: missing}
	}

	published := store.Published
	publishedTs := now.Unix()
	if err := s.store.UpdateStory(ctx, &store.UpdateStory{
		ID:          story.ID,
		Status:      &published,
		PublishedTs: &publishedTs,
	}); err != nil {
		return errors.Wrap(err, "failed to publish story")
	}
	story.Status = store.Published
	story.PublishedTs = publishedTs
	metrics.PublishAttemptsTotal.WithLabelValues("story", "ok").Inc()
	s.invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityStory, ID: story.ID, Mutation: derived.MutationStatusChange})
	return nil
}

func (s *Service) storyMissing(ctx context.Context, story *store.Story) (map[string]string, error) {
	missing := map[string]string{}
	if story.Introduction == "" {
		missing["introduction"] = "Story introduction is required"
	}
	if len(story.GenreIDs) == 0 {
		missing["genres"] = "Story genre is required"
	}
	if story.StatusTagID == nil {
		missing["statusTag"] = "Story status is required"
	} else if s.ongoingTagID != nil && *story.StatusTagID == *s.ongoingTagID &&
		!s.freshness.OngoingEligible(story.ContentUpdatedTs, s.now()) {
		missing["statusTag"] = "Ongoing status requires a chapter update within the last 90 days"
	}
	published := store.Published
	count, err := s.store.CountChapters(ctx, &store.FindChapter{StoryID: &story.ID, Status: &published})
	if err != nil {
		return nil, errors.Wrap(err, "failed to count published chapters")
	}
	if count == 0 {
		missing["chapters"] = "Story needs at least one published chapter"
	}
	return missing, nil
}

// CanPublishStory runs the story publish gate without writing anything.
func (s *Service) CanPublishStory(ctx context.Context, storyID int32) (*PublishCheck, error) {
	story, err := s.store.GetStory(ctx, &store.FindStory{ID: &storyID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get story")
	}
	if story == nil {
		return nil, ErrNotFound
	}
	missing, err := s.storyMissing(ctx, story)
	if err != nil {
		return nil, err
	}
	return &PublishCheck{Allowed: len(missing) == 0, Missing: missing}, nil
}

// DraftStory demotes a published story back to draft.
func (s *Service) DraftStory(ctx context.Context, storyID int32) error {
	story, err := s.store.GetStory(ctx, &store.FindStory{ID: &storyID})
	if err != nil {
		return errors.Wrap(err, "failed to get story")
	}
	if story == nil {
		return ErrNotFound
	}
	draft := store.Draft
	if err := s.store.UpdateStory(ctx, &store.UpdateStory{ID: storyID, Status: &draft}); err != nil {
		return errors.Wrap(err, "failed to draft story")
	}
	s.invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityStory, ID: storyID, Mutation: derived.MutationStatusChange})
	return nil
}

// DeleteStory removes a story and its chapters.
func (s *Service) DeleteStory(ctx context.Context, storyID int32) error {
	story, err := s.store.GetStory(ctx, &store.FindStory{ID: &storyID})
	if err != nil {
		return errors.Wrap(err, "failed to get story")
	}
	if story == nil {
		return ErrNotFound
	}
	if err := s.store.DeleteStory(ctx, &store.DeleteStory{ID: storyID}); err != nil {
		return errors.Wrap(err, "failed to delete story")
	}
	s.invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityStory, ID: storyID, Mutation: derived.MutationDelete})
	return nil
}

// UpsertChapterRequest carries an author's chapter create or edit.
type UpsertChapterRequest struct {
	// ID zero means create.
	ID      int32
	StoryID int32
	Type    store.ChapterType
	// Number is the author-supplied chapter number, required for regular
	// chapters. Prologue and epilogue numbers are assigned.
	Number      *int32
	Title       string
	Content     string
	DisplayDate string
	Publish     bool
}

// ChapterResult reports the outcome of a chapter upsert, including the
// state-machine side effects the UI needs to warn about.
type ChapterResult struct {
	Chapter   *store.Chapter
	Published bool
	// FirstPublished signals the story's first published substantive
	// chapter, an advisory for prompting the author to publish the story.
	FirstPublished bool
	// StoryAutoDrafted signals the parent story was force-drafted because
	// this edit removed its last published substantive chapter.
	StoryAutoDrafted bool
}

// UpsertChapter commits a chapter create or edit through the publish gate:
// the candidate lands as draft, and only a validated record is flipped to
// published in a second write. A crash between the two writes leaves the
// chapter as draft, never as an unvalidated publish.
func (s *Service) UpsertChapter(ctx context.Context, req *UpsertChapterRequest) (*ChapterResult, error) {
	now := s.now()
	today := now.Format(displayDateLayout)

	story, err := s.store.GetStory(ctx, &store.FindStory{ID: &req.StoryID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get story")
	}
	if story == nil {
		return nil, ErrNotFound
	}

	var existing *store.Chapter
	if req.ID != 0 {
		existing, err = s.store.GetChapter(ctx, &store.FindChapter{ID: &req.ID})
		if err != nil {
			return nil, errors.Wrap(err, "failed to get chapter")
		}
		if existing == nil || existing.StoryID != req.StoryID {
			return nil, ErrNotFound
		}
	}

	displayDate := req.DisplayDate
	if displayDate == "" {
		if existing != nil {
			displayDate = existing.DisplayDate
		} else {
			displayDate = today
		}
	}
	if existing == nil {
		if err := ValidateDisplayDate(displayDate, now); err != nil {
			return nil, err
		}
	} else {
		if err := EvaluateChapterDate(existing.Content, req.Content, existing.DisplayDate, displayDate, now); err != nil {
			return nil, err
		}
	}

	requestedNumber := req.Number
	if requestedNumber == nil && existing != nil &&
		req.Type == store.ChapterTypeRegular && existing.Type == store.ChapterTypeRegular &&
		existing.Number != store.UnnumberedChapter {
		// An edit that omits the number keeps the one already assigned.
		requestedNumber = &existing.Number
	}
	number, err := s.assignChapterNumber(ctx, req.StoryID, req.Type, requestedNumber, req.ID)
	if err != nil {
		return nil, err
	}

	// Draft commit.
	wasPublished := existing != nil && existing.Status == store.Published
	contentQualifies := false
	var chapter *store.Chapter
	if existing == nil {
		created, err := s.store.CreateChapter(ctx, &store.Chapter{
			UID:         util.GenUID(),
			StoryID:     req.StoryID,
			CreatedTs:   now.Unix(),
			UpdatedTs:   now.Unix(),
			Type:        req.Type,
			Number:      number,
			Title:       req.Title,
			Content:     req.Content,
			Status:      store.Draft,
			DisplayDate: displayDate,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create chapter")
		}
		chapter = created
		contentQualifies = req.Content != ""
	} else {
		updatedTs := now.Unix()
		draft := store.Draft
		if err := s.store.UpdateChapter(ctx, &store.UpdateChapter{
			ID:          existing.ID,
			UpdatedTs:   &updatedTs,
			Type:        &req.Type,
			Number:      &number,
			Title:       &req.Title,
			Content:     &req.Content,
			Status:      &draft,
			DisplayDate: &displayDate,
		}); err != nil {
			return nil, errors.Wrap(err, "failed to update chapter")
		}
		contentQualifies = s.freshness.QualifiesAsUpdate(existing.Content, req.Content)
		existing.Type = req.Type
		existing.Number = number
		existing.Title = req.Title
		existing.Content = req.Content
		existing.Status = store.Draft
		existing.DisplayDate = displayDate
		chapter = existing
	}

	result := &ChapterResult{Chapter: chapter}
	mutation := derived.MutationUpdate
	if req.ID == 0 {
		mutation = derived.MutationCreate
	}

	if !req.Publish {
		if wasPublished {
			autoDrafted, err := s.autoDraftIfOrphaned(ctx, story, chapter)
			if err != nil {
				return nil, err
			}
			result.StoryAutoDrafted = autoDrafted
			mutation = derived.MutationStatusChange
		}
		s.invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityChapter, ID: chapter.ID, Mutation: mutation, RelatedID: req.StoryID})
		return result, nil
	}

	if missing := chapterMissing(chapter); len(missing) > 0 {
		// The draft commit stands; only the flip is refused. A previously
		// published chapter that just lost its content may orphan the story.
		if wasPublished {
			if _, err := s.autoDraftIfOrphaned(ctx, story, chapter); err != nil {
				return nil, err
			}
		}
		s.invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityChapter, ID: chapter.ID, Mutation: derived.MutationStatusChange, RelatedID: req.StoryID})
		metrics.PublishAttemptsTotal.WithLabelValues("chapter", "rejected").Inc()
		return nil, &ValidationError{Missing: missing}
	}

	firstPublished := false
	if !wasPublished && isSubstantive(chapter.Type) && story.Status == store.Draft {
		others, err := s.publishedSubstantiveCount(ctx, req.StoryID, chapter.ID)
		if err != nil {
			return nil, err
		}
		firstPublished = others == 0
	}

	published := store.Published
	publishedTs := now.Unix()
	if err := s.store.UpdateChapter(ctx, &store.UpdateChapter{
		ID:          chapter.ID,
		Status:      &published,
		PublishedTs: &publishedTs,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to publish chapter")
	}
	chapter.Status = store.Published
	chapter.PublishedTs = publishedTs
	metrics.PublishAttemptsTotal.WithLabelValues("chapter", "ok").Inc()

	if contentQualifies {
		contentUpdatedTs := now.Unix()
		if err := s.store.UpdateStory(ctx, &store.UpdateStory{ID: req.StoryID, ContentUpdatedTs: &contentUpdatedTs}); err != nil {
			return nil, errors.Wrap(err, "failed to advance content-updated marker")
		}
	}

	result.Published = true
	result.FirstPublished = firstPublished
	s.invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityChapter, ID: chapter.ID, Mutation: derived.MutationStatusChange, RelatedID: req.StoryID})
	return result, nil
}

// CanPublishChapter runs the chapter publish gate without writing anything.
func (s *Service) CanPublishChapter(ctx context.Context, chapterID int32) (*PublishCheck, error) {
	chapter, err := s.store.GetChapter(ctx, &store.FindChapter{ID: &chapterID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chapter")
	}
	if chapter == nil {
		return nil, ErrNotFound
	}
	missing := chapterMissing(chapter)
	return &PublishCheck{Allowed: len(missing) == 0, Missing: missing}, nil
}

// chapterMissing lists what blocks a chapter's publish flip.
func chapterMissing(chapter *store.Chapter) map[string]string {
	missing := map[string]string{}
	if chapter.Content == "" {
		missing["content"] = "Chapter content is required"
	}
	if chapter.Type == store.ChapterTypeRegular {
		if chapter.Number == store.UnnumberedChapter {
			missing["number"] = "Chapter number is required"
		} else if chapter.Number < store.MinRegularNumber || chapter.Number > store.MaxRegularNumber {
			missing["number"] = "Chapter number must be between 1 and 100"
		}
	}
	return missing
}

// DeleteChapterResult reports the cascade side effect of a chapter delete.
type DeleteChapterResult struct {
	StoryAutoDrafted bool
}

// DeleteChapter removes a chapter. Deleting the story's last published
// substantive chapter force-drafts the story.
func (s *Service) DeleteChapter(ctx context.Context, chapterID int32) (*DeleteChapterResult, error) {
	chapter, err := s.store.GetChapter(ctx, &store.FindChapter{ID: &chapterID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chapter")
	}
	if chapter == nil {
		return nil, ErrNotFound
	}
	story, err := s.store.GetStory(ctx, &store.FindStory{ID: &chapter.StoryID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get story")
	}
	if story == nil {
		return nil, ErrNotFound
	}

	if err := s.store.DeleteChapter(ctx, &store.DeleteChapter{ID: chapterID}); err != nil {
		return nil, errors.Wrap(err, "failed to delete chapter")
	}

	result := &DeleteChapterResult{}
	if chapter.Status == store.Published && isSubstantive(chapter.Type) {
		autoDrafted, err := s.autoDraftIfOrphaned(ctx, story, chapter)
		if err != nil {
			return nil, err
		}
		result.StoryAutoDrafted = autoDrafted
	}
	s.invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityChapter, ID: chapterID, Mutation: derived.MutationDelete, RelatedID: chapter.StoryID})
	return result, nil
}

// WillAutoDraftIfRemoved reports whether drafting or deleting the chapter
// would force-draft its story, so the UI can warn before the author commits.
func (s *Service) WillAutoDraftIfRemoved(ctx context.Context, chapterID int32) (bool, error) {
	chapter, err := s.store.GetChapter(ctx, &store.FindChapter{ID: &chapterID})
	if err != nil {
		return false, errors.Wrap(err, "failed to get chapter")
	}
	if chapter == nil {
		return false, ErrNotFound
	}
	if chapter.Status != store.Published || !isSubstantive(chapter.Type) {
		return false, nil
	}
	story, err := s.store.GetStory(ctx, &store.FindStory{ID: &chapter.StoryID})
	if err != nil {
		return false, errors.Wrap(err, "failed to get story")
	}
	if story == nil || story.Status != store.Published {
		return false, nil
	}
	others, err := s.publishedSubstantiveCount(ctx, chapter.StoryID, chapter.ID)
	if err != nil {
		return false, err
	}
	return others == 0, nil
}

// autoDraftIfOrphaned force-drafts the story when no published substantive
// chapter remains besides the one just drafted or deleted.
func (s *Service) autoDraftIfOrphaned(ctx context.Context, story *store.Story, chapter *store.Chapter) (bool, error) {
	if !isSubstantive(chapter.Type) || story.Status != store.Published {
		return false, nil
	}
	remaining, err := s.publishedSubstantiveCount(ctx, story.ID, chapter.ID)
	if err != nil {
		return false, err
	}
	if remaining > 0 {
		return false, nil
	}

	draft := store.Draft
	if err := s.store.UpdateStory(ctx, &store.UpdateStory{ID: story.ID, Status: &draft}); err != nil {
		return false, errors.Wrap(err, "failed to auto-draft story")
	}
	story.Status = store.Draft
	metrics.AutoDraftsTotal.Inc()
	slog.Info("story auto-drafted after losing its last published chapter",
		slog.Int("storyID", int(story.ID)),
		slog.Int("chapterID", int(chapter.ID)))
	s.invalidator.Invalidate(ctx, derived.Event{Entity: derived.EntityStory, ID: story.ID, Mutation: derived.MutationStatusChange})
	return true, nil
}

// publishedSubstantiveCount counts published prologue/regular chapters of a
// story, excluding excludeID. Epilogues never count: a story whose only
// published chapter is an epilogue has lost its substantive content.
func (s *Service) publishedSubstantiveCount(ctx context.Context, storyID, excludeID int32) (int, error) {
	published := store.Published
	chapters, err := s.store.ListChapters(ctx, &store.FindChapter{
		StoryID:        &storyID,
		Status:         &published,
		Types:          []store.ChapterType{store.ChapterTypePrologue, store.ChapterTypeRegular},
		ExcludeContent: true,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to list published chapters")
	}
	count := 0
	for _, chapter := range chapters {
		if chapter.ID != excludeID {
			count++
		}
	}
	return count, nil
}

func isSubstantive(t store.ChapterType) bool {
	return t == store.ChapterTypePrologue || t == store.ChapterTypeRegular
}

// assignChapterNumber resolves the chapter number for the requested type.
// Prologues own the single number-0 slot and epilogues a single slot per
// story. Regular numbers are author-chosen within [1, 100], unique among
// prologue/regular siblings; a draft may omit one. The epilogue number scans
// upward from 1000 past collisions with other chapter numbers.
func (s *Service) assignChapterNumber(ctx context.Context, storyID int32, chapterType store.ChapterType, requested *int32, excludeID int32) (int32, error) {
	switch chapterType {
	case store.ChapterTypePrologue:
		occupant, err := s.store.GetChapter(ctx, &store.FindChapter{
			StoryID:        &storyID,
			Types:          []store.ChapterType{store.ChapterTypePrologue},
			ExcludeContent: true,
		})
		if err != nil {
			return 0, errors.Wrap(err, "failed to check prologue slot")
		}
		if occupant != nil && occupant.ID != excludeID {
			return 0, &ConflictError{Message: "This story already has a prologue"}
		}
		return store.PrologueNumber, nil

	case store.ChapterTypeRegular:
		if requested == nil {
			// A draft may be saved without a number; the publish flip
			// refuses an unnumbered chapter.
			return store.UnnumberedChapter, nil
		}
		number := *requested
		if number < store.MinRegularNumber || number > store.MaxRegularNumber {
			return 0, &ValidationError{Missing: map[string]string{"number": "Chapter number must be between 1 and 100"}}
		}
		// Uniqueness is checked against prologue/regular siblings only;
		// epilogue numbers live in a disjoint range.
		occupant, err := s.store.GetChapter(ctx, &store.FindChapter{
			StoryID:        &storyID,
			Number:         &number,
			Types:          []store.ChapterType{store.ChapterTypePrologue, store.ChapterTypeRegular},
			ExcludeContent: true,
		})
		if err != nil {
			return 0, errors.Wrap(err, "failed to check chapter number")
		}
		if occupant != nil && occupant.ID != excludeID {
			return 0, &ConflictError{Message: "Another chapter already uses this number"}
		}
		return number, nil

	case store.ChapterTypeEpilogue:
		chapters, err := s.store.ListChapters(ctx, &store.FindChapter{StoryID: &storyID, ExcludeContent: true})
		if err != nil {
			return 0, errors.Wrap(err, "failed to list chapters")
		}
		// A story holds a single epilogue; the upward scan only steps past
		// number collisions with chapters of other types.
		taken := map[int32]bool{}
		for _, chapter := range chapters {
			if chapter.ID == excludeID {
				continue
			}
			if chapter.Type == store.ChapterTypeEpilogue {
				return 0, &ConflictError{Message: "This story already has an epilogue"}
			}
			taken[chapter.Number] = true
		}
		number := store.EpilogueBaseNumber
		for taken[number] {
			number++
		}
		return number, nil

	default:
		return 0, &ValidationError{Missing: map[string]string{"type": "Chapter type is required"}}
	}
}
