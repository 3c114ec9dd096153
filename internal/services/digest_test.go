package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/data/repos"
	"github.com/learnloop/learnloop-backend/internal/data/repos/testutil"
	"github.com/learnloop/learnloop-backend/internal/domain"
)

func newDigestService(t *testing.T, tx *gorm.DB) DigestService {
	t.Helper()
	log := testutil.Logger(t)
	return NewDigestService(tx, log,
		repos.NewContentItemRepo(tx, log),
		repos.NewUserProgressRepo(tx, log),
		repos.NewUserSettingsRepo(tx, log),
		newInterestService(t, tx, 95),
		nil, 95)
}

func TestDailyDigestFreshUserGetsFreshestContent(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "fresh-user@example.com")
	testutil.SeedContent(t, ctx, tx, "day3", domain.PlatformHabr, 3, "go")
	testutil.SeedContent(t, ctx, tx, "day1", domain.PlatformHabr, 1, "go")
	testutil.SeedContent(t, ctx, tx, "day2", domain.PlatformHabr, 2, "go")
	svc := newDigestService(t, tx)

	digest, err := svc.DailyDigest(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("DailyDigest: %v", err)
	}
	if len(digest) != 3 {
		t.Fatalf("digest len = %d, want all 3 stored items", len(digest))
	}
	wantOrder := []string{"day1", "day2", "day3"}
	for i, want := range wantOrder {
		if digest[i].SourceID != want {
			t.Errorf("digest[%d] = %q, want %q (freshest first)", i, digest[i].SourceID, want)
		}
	}
}

func TestDailyDigestExcludesCompleted(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "completed@example.com")
	done := testutil.SeedContent(t, ctx, tx, "done", domain.PlatformHabr, 1, "golang")
	testutil.SeedContent(t, ctx, tx, "todo", domain.PlatformHabr, 2, "golang")
	testutil.SeedCompleted(t, ctx, tx, user.ID, done.ID)
	testutil.SeedInterest(t, ctx, tx, user.ID, "golang", 5, time.Now().UTC())
	svc := newDigestService(t, tx)

	digest, err := svc.DailyDigest(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("DailyDigest: %v", err)
	}
	for _, item := range digest {
		if item.ID == done.ID {
			t.Fatal("completed item appeared in digest")
		}
	}
	if len(digest) != 1 || digest[0].SourceID != "todo" {
		t.Fatalf("digest = %v, want only the uncompleted item", digest)
	}
}

func TestDailyDigestSubstringTagMatch(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "substring@example.com")
	testutil.SeedContent(t, ctx, tx, "langs", domain.PlatformHabr, 1, "programming-languages")
	testutil.SeedContent(t, ctx, tx, "cooking", domain.PlatformHabr, 1, "cooking")
	testutil.SeedInterest(t, ctx, tx, user.ID, "programming", 5, time.Now().UTC())
	svc := newDigestService(t, tx)

	digest, err := svc.DailyDigest(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("DailyDigest: %v", err)
	}
	if len(digest) != 1 || digest[0].SourceID != "langs" {
		t.Fatalf("digest = %v, want the substring-matched item only", digest)
	}
}

func TestDailyDigestRanksByMatchingTagCount(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "ranking@example.com")
	testutil.SeedContent(t, ctx, tx, "single", domain.PlatformHabr, 1, "golang")
	testutil.SeedContent(t, ctx, tx, "double", domain.PlatformHabr, 5, "golang", "databases")
	now := time.Now().UTC()
	testutil.SeedInterest(t, ctx, tx, user.ID, "golang", 5, now)
	testutil.SeedInterest(t, ctx, tx, user.ID, "databases", 5, now)
	svc := newDigestService(t, tx)

	digest, err := svc.DailyDigest(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("DailyDigest: %v", err)
	}
	if len(digest) != 2 {
		t.Fatalf("digest len = %d, want 2", len(digest))
	}
	if digest[0].SourceID != "double" {
		t.Errorf("digest[0] = %q, want the two-tag match ranked first despite being older", digest[0].SourceID)
	}
}

func TestDailyDigestFallsBackWhenInterestsMatchNothing(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "nomatch@example.com")
	testutil.SeedContent(t, ctx, tx, "fresh", domain.PlatformHabr, 1, "cooking")
	testutil.SeedInterest(t, ctx, tx, user.ID, "quantum-chemistry", 5, time.Now().UTC())
	svc := newDigestService(t, tx)

	digest, err := svc.DailyDigest(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("DailyDigest: %v", err)
	}
	if len(digest) != 1 || digest[0].SourceID != "fresh" {
		t.Fatalf("digest = %v, want freshest-content fallback", digest)
	}
}

func TestDailyDigestTruncatesToMaxItems(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "truncate@example.com")
	for i := 0; i < 5; i++ {
		testutil.SeedContent(t, ctx, tx, "item-"+string(rune('a'+i)), domain.PlatformHabr, i, "golang")
	}
	testutil.SeedInterest(t, ctx, tx, user.ID, "golang", 5, time.Now().UTC())
	svc := newDigestService(t, tx)

	digest, err := svc.DailyDigest(ctx, user.ID, 2)
	if err != nil {
		t.Fatalf("DailyDigest: %v", err)
	}
	if len(digest) != 2 {
		t.Fatalf("digest len = %d, want maxItems", len(digest))
	}
}

func TestSendEmailDigestWithoutMailer(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "nomailer@example.com")
	testutil.SeedSettings(t, ctx, tx, user.ID)
	item := testutil.SeedContent(t, ctx, tx, "x1", domain.PlatformHabr, 1, "go")
	svc := newDigestService(t, tx)

	if svc.SendEmailDigest(ctx, user.ID, []*domain.ContentItem{item}) {
		t.Fatal("SendEmailDigest reported success with no mailer configured")
	}
}
