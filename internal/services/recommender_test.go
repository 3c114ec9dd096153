package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/data/repos"
	"github.com/learnloop/learnloop-backend/internal/data/repos/testutil"
	"github.com/learnloop/learnloop-backend/internal/domain"
)

func newRecommenderService(t *testing.T, tx *gorm.DB) RecommenderService {
	t.Helper()
	log := testutil.Logger(t)
	return NewRecommenderService(tx, log,
		repos.NewContentItemRepo(tx, log),
		repos.NewUserProgressRepo(tx, log),
		repos.NewFavoriteContentRepo(tx, log),
		repos.NewUserInterestRepo(tx, log))
}

func TestPreferenceWeightsDefaults(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "defaults@example.com")
	svc := newRecommenderService(t, tx)

	w, err := svc.PreferenceWeights(ctx, user.ID)
	if err != nil {
		t.Fatalf("PreferenceWeights: %v", err)
	}
	want := Weights{Interests: 1.5, Favorites: 2.0, Completed: 1.2, Similar: 1.0}
	if w != want {
		t.Errorf("weights = %+v, want %+v", w, want)
	}
}

func TestPreferenceWeightsAdaptToEngagement(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "engaged@example.com")
	svc := newRecommenderService(t, tx)

	// Six old favorites push the favorites weight to 2.5.
	old := time.Now().UTC().AddDate(0, 0, -30)
	for i := 0; i < 6; i++ {
		item := testutil.SeedContent(t, ctx, tx, fmt.Sprintf("fav-%d", i), domain.PlatformHabr, 30, "go")
		testutil.SeedFavorite(t, ctx, tx, user.ID, item.ID, old)
	}
	w, err := svc.PreferenceWeights(ctx, user.ID)
	if err != nil {
		t.Fatalf("PreferenceWeights: %v", err)
	}
	if w.Favorites != 2.5 {
		t.Errorf("Favorites = %v, want 2.5 with >5 favorites", w.Favorites)
	}

	// Three favorites inside the last week push it to 3.0.
	recent := time.Now().UTC().AddDate(0, 0, -1)
	for i := 0; i < 3; i++ {
		item := testutil.SeedContent(t, ctx, tx, fmt.Sprintf("recent-%d", i), domain.PlatformHabr, 1, "go")
		testutil.SeedFavorite(t, ctx, tx, user.ID, item.ID, recent)
	}
	w, err = svc.PreferenceWeights(ctx, user.ID)
	if err != nil {
		t.Fatalf("PreferenceWeights: %v", err)
	}
	if w.Favorites != 3.0 {
		t.Errorf("Favorites = %v, want 3.0 with >2 recent favorites", w.Favorites)
	}

	// Eleven completions raise the completed weight.
	for i := 0; i < 11; i++ {
		item := testutil.SeedContent(t, ctx, tx, fmt.Sprintf("done-%d", i), domain.PlatformHabr, 10, "go")
		testutil.SeedCompleted(t, ctx, tx, user.ID, item.ID)
	}
	w, err = svc.PreferenceWeights(ctx, user.ID)
	if err != nil {
		t.Fatalf("PreferenceWeights: %v", err)
	}
	if w.Completed != 1.5 {
		t.Errorf("Completed = %v, want 1.5 with >10 completed", w.Completed)
	}
}

func TestRecommendationsCrossStrategyBoost(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "boost@example.com")
	now := time.Now().UTC()

	// Favorited item carries tags "go" and "ml"; declared interest is "go".
	favorited := testutil.SeedContent(t, ctx, tx, "fav", domain.PlatformHabr, 30, "go", "ml")
	testutil.SeedFavorite(t, ctx, tx, user.ID, favorited.ID, now)
	testutil.SeedInterest(t, ctx, tx, user.ID, "go", 5, now)

	// Surfaces through both the interests and favorites strategies.
	both := testutil.SeedContent(t, ctx, tx, "both", domain.PlatformHabr, 0, "go")
	// Surfaces through favorites only.
	testutil.SeedContent(t, ctx, tx, "single", domain.PlatformHabr, 0, "ml")

	svc := newRecommenderService(t, tx)
	recs, err := svc.Recommendations(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("no recommendations")
	}
	if recs[0].ID != both.ID {
		t.Errorf("recs[0] = %q, want the cross-strategy item first", recs[0].SourceID)
	}
	pos := map[string]int{}
	for i, r := range recs {
		pos[r.SourceID] = i
	}
	if pos["both"] > pos["single"] {
		t.Errorf("cross-strategy item ranked below single-strategy item: %v", pos)
	}
}

func TestRecommendationsExcludeCompleted(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "exclude@example.com")
	now := time.Now().UTC()

	done := testutil.SeedContent(t, ctx, tx, "done", domain.PlatformHabr, 1, "go")
	testutil.SeedCompleted(t, ctx, tx, user.ID, done.ID)
	testutil.SeedInterest(t, ctx, tx, user.ID, "go", 5, now)
	testutil.SeedContent(t, ctx, tx, "next", domain.PlatformHabr, 1, "go")

	svc := newRecommenderService(t, tx)
	recs, err := svc.Recommendations(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	for _, r := range recs {
		if r.ID == done.ID {
			t.Fatal("completed item appeared in recommendations")
		}
	}
	if len(recs) == 0 {
		t.Fatal("expected the uncompleted item to be recommended")
	}
}

func TestRecommendationsNextLevelSkipsBeginner(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "nextlevel@example.com")

	done := testutil.SeedContent(t, ctx, tx, "intro", domain.PlatformHabr, 10, "go")
	testutil.SeedCompleted(t, ctx, tx, user.ID, done.ID)

	beginner := testutil.SeedContent(t, ctx, tx, "beginner", domain.PlatformHabr, 1, "go")
	tx.Model(beginner).Update("difficulty", domain.DifficultyBeginner)
	advanced := testutil.SeedContent(t, ctx, tx, "advanced", domain.PlatformHabr, 1, "go")
	tx.Model(advanced).Update("difficulty", domain.DifficultyAdvanced)

	svc := newRecommenderService(t, tx)
	recs, err := svc.Recommendations(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	pos := map[string]int{}
	for i, r := range recs {
		pos[r.SourceID] = i
	}
	advPos, ok := pos["advanced"]
	if !ok {
		t.Fatal("advanced item missing from recommendations")
	}
	// Both share tags with completed material (similar strategy), but only
	// the advanced item also scores through next-level, so it ranks higher.
	if begPos, ok := pos["beginner"]; ok && begPos < advPos {
		t.Errorf("beginner item outranked advanced progression item: %v", pos)
	}
}

func TestRecommendationsUnknownUserEmpty(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	testutil.SeedContent(t, ctx, tx, "x", domain.PlatformHabr, 1, "go")
	svc := newRecommenderService(t, tx)

	recs, err := svc.Recommendations(ctx, uuid.New(), 10)
	if err != nil {
		t.Fatalf("Recommendations: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("recs = %d, want empty for a user with no signals", len(recs))
	}
}

func TestInterestSuggestions(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "suggest@example.com")
	now := time.Now().UTC()

	// "databases" appears twice across engagement, "wasm" once, and
	// "go" is already a declared interest.
	fav := testutil.SeedContent(t, ctx, tx, "s1", domain.PlatformHabr, 1, "go", "databases")
	testutil.SeedFavorite(t, ctx, tx, user.ID, fav.ID, now)
	done := testutil.SeedContent(t, ctx, tx, "s2", domain.PlatformHabr, 2, "databases", "wasm")
	testutil.SeedCompleted(t, ctx, tx, user.ID, done.ID)
	testutil.SeedInterest(t, ctx, tx, user.ID, "go", 5, now)

	svc := newRecommenderService(t, tx)
	suggestions, err := svc.InterestSuggestions(ctx, user.ID, 5)
	if err != nil {
		t.Fatalf("InterestSuggestions: %v", err)
	}
	if len(suggestions) != 2 {
		t.Fatalf("suggestions = %v, want 2 undeclared tags", suggestions)
	}
	if suggestions[0] != "databases" {
		t.Errorf("suggestions[0] = %q, want the most frequent tag first", suggestions[0])
	}
	for _, s := range suggestions {
		if s == "go" {
			t.Error("declared interest resurfaced as suggestion")
		}
	}
}
