package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/learnloop/learnloop-backend/internal/data/repos/testutil"
	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
)

func contentRepoForTest(t *testing.T) (ContentItemRepo, TagRepo, dbctx.Context) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	return NewContentItemRepo(tx, log), NewTagRepo(tx, log), dbctx.WithTx(context.Background(), tx)
}

func seedItem(t *testing.T, repo ContentItemRepo, tags TagRepo, dbc dbctx.Context, sourceID string, ageDays int, tagNames ...string) *domain.ContentItem {
	t.Helper()
	item := domain.NewContentItem(sourceID, "youtube", "Item "+sourceID, "https://example.com/"+sourceID)
	item.PublishedAt = time.Now().UTC().AddDate(0, 0, -ageDays)
	for _, name := range tagNames {
		tag, err := tags.GetOrCreate(dbc, name)
		if err != nil {
			t.Fatalf("tag %q: %v", name, err)
		}
		item.Tags = append(item.Tags, tag)
	}
	if _, err := repo.Create(dbc, []*domain.ContentItem{item}); err != nil {
		t.Fatalf("create %q: %v", sourceID, err)
	}
	return item
}

func TestGetBySourceAndPlatform(t *testing.T) {
	repo, tags, dbc := contentRepoForTest(t)
	seeded := seedItem(t, repo, tags, dbc, "vid-1", 0, "go")

	got, err := repo.GetBySourceAndPlatform(dbc, "vid-1", "youtube")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ID != seeded.ID {
		t.Fatalf("expected seeded item, got %+v", got)
	}

	miss, err := repo.GetBySourceAndPlatform(dbc, "vid-1", "habr")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if miss != nil {
		t.Fatalf("expected nil for other platform, got %+v", miss)
	}
}

func TestListByTagSubstringsIsCaseInsensitive(t *testing.T) {
	repo, tags, dbc := contentRepoForTest(t)
	match := seedItem(t, repo, tags, dbc, "vid-1", 1, "programming-languages")
	seedItem(t, repo, tags, dbc, "vid-2", 0, "cooking")

	got, err := repo.ListByTagSubstrings(dbc, []string{"Programming"}, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != match.ID {
		t.Fatalf("expected only the programming item, got %d items", len(got))
	}
}

func TestListByTagSubstringsNoDuplicatesAcrossKeywords(t *testing.T) {
	repo, tags, dbc := contentRepoForTest(t)
	seedItem(t, repo, tags, dbc, "vid-1", 0, "go", "golang")

	got, err := repo.ListByTagSubstrings(dbc, []string{"go", "golang"}, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one distinct item, got %d", len(got))
	}
}

func TestListByTagNamesExclusions(t *testing.T) {
	repo, tags, dbc := contentRepoForTest(t)
	beginner := seedItem(t, repo, tags, dbc, "vid-1", 0, "go")
	beginner.Difficulty = domain.DifficultyBeginner
	if err := dbc.Tx.Save(beginner).Error; err != nil {
		t.Fatalf("save: %v", err)
	}
	advanced := seedItem(t, repo, tags, dbc, "vid-2", 0, "go")
	excluded := seedItem(t, repo, tags, dbc, "vid-3", 0, "go")

	got, err := repo.ListByTagNames(dbc, TaggedQuery{
		TagNames:          []string{"go"},
		ExcludeDifficulty: domain.DifficultyBeginner,
		ExcludeIDs:        []uuid.UUID{excluded.ID},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != advanced.ID {
		t.Fatalf("expected only the advanced item, got %d items", len(got))
	}
}

func TestSearchMatchesTitleDescriptionAndTags(t *testing.T) {
	repo, tags, dbc := contentRepoForTest(t)
	byTitle := seedItem(t, repo, tags, dbc, "vid-1", 2)
	byTitle.Title = "Concurrency in Go"
	if err := dbc.Tx.Save(byTitle).Error; err != nil {
		t.Fatalf("save: %v", err)
	}
	byTag := seedItem(t, repo, tags, dbc, "vid-2", 1, "concurrency")
	seedItem(t, repo, tags, dbc, "vid-3", 0, "baking")

	got, err := repo.Search(dbc, []string{"concurrency"}, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	// Newest first.
	if got[0].ID != byTag.ID || got[1].ID != byTitle.ID {
		t.Fatalf("unexpected order: %q then %q", got[0].SourceID, got[1].SourceID)
	}
}

func TestListNewestOrdersByPublishedAt(t *testing.T) {
	repo, tags, dbc := contentRepoForTest(t)
	old := seedItem(t, repo, tags, dbc, "vid-1", 5)
	fresh := seedItem(t, repo, tags, dbc, "vid-2", 1)

	got, err := repo.ListNewest(dbc, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != fresh.ID || got[1].ID != old.ID {
		t.Fatalf("expected fresh then old, got %d items", len(got))
	}
}
