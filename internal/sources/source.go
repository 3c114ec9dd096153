package sources

import (
	"context"
	"strings"

	"github.com/learnloop/learnloop-backend/internal/domain"
)

// Source is a content provider that can be queried by keyword. Implementations
// must tolerate partial failures: FetchFullText never returns an error, it
// returns "" when the full text cannot be retrieved.
type Source interface {
	Name() string
	Platform() string
	FetchContent(ctx context.Context, keywords []string, maxResults int) ([]*domain.ContentItem, error)
	FetchFullText(ctx context.Context, url string) string
}

// difficultyFromText guesses a difficulty level from title and description
// keywords. Returns "" when nothing matches.
func difficultyFromText(title, description string) string {
	text := strings.ToLower(title + " " + description)
	switch {
	case containsAny(text, "beginner", "introduction", "intro ", "basics", "для начинающих", "основы"):
		return domain.DifficultyBeginner
	case containsAny(text, "advanced", "expert", "deep dive", "internals", "продвинутый"):
		return domain.DifficultyAdvanced
	case containsAny(text, "intermediate", "practical", "hands-on"):
		return domain.DifficultyIntermediate
	}
	return ""
}

func containsAny(text string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}

// matchKeywords returns the subset of keywords that occur in the given text,
// case-insensitively. Used to tag fetched items with the interests that
// surfaced them.
func matchKeywords(keywords []string, text string) []string {
	lower := strings.ToLower(text)
	var matched []string
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched
}
