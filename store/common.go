package store

import (
	"strconv"
	"strings"
)

// Status is the publication status of a story or chapter.
type Status string

const (
	// Draft is the working status; draft content is visible only to its author.
	Draft Status = "DRAFT"
	// Published is the public status. Re-transition back to Draft is always
	// permitted; there is no terminal state.
	Published Status = "PUBLISHED"
)

func (s Status) String() string {
	return string(s)
}

// ChapterType is the structural type of a chapter within a story.
type ChapterType string

const (
	// ChapterTypePrologue is the single chapter slot numbered 0.
	ChapterTypePrologue ChapterType = "PROLOGUE"
	// ChapterTypeRegular is an author-numbered chapter in [1, 100].
	ChapterTypeRegular ChapterType = "CHAPTER"
	// ChapterTypeEpilogue is numbered from 1000 upward.
	ChapterTypeEpilogue ChapterType = "EPILOGUE"
)

func (t ChapterType) String() string {
	return string(t)
}

// JoinIDList serializes an id set into the delimited text form stored in a
// single column, e.g. ",3,7,". The leading and trailing delimiters let a
// single LIKE pattern match membership.
func JoinIDList(ids []int32) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(int64(id), 10))
	}
	return "," + strings.Join(parts, ",") + ","
}

// SplitIDList parses the delimited text form produced by JoinIDList.
func SplitIDList(raw string) []int32 {
	raw = strings.Trim(raw, ",")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int32, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseInt(part, 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, int32(v))
	}
	return ids
}
