package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/data/repos"
	"github.com/learnloop/learnloop-backend/internal/data/repos/testutil"
	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
)

func newInterestService(t *testing.T, tx *gorm.DB, maxKeywords int) InterestService {
	t.Helper()
	log := testutil.Logger(t)
	return NewInterestService(tx, log,
		repos.NewUserInterestRepo(tx, log),
		repos.NewSearchQueryRepo(tx, log),
		maxKeywords)
}

func TestRecordCreatesThenReinforces(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "record@example.com")
	svc := newInterestService(t, tx, 95)
	interestRepo := repos.NewUserInterestRepo(tx, testutil.Logger(t))

	if err := svc.Record(ctx, user.ID, "  GoLang ", 0); err != nil {
		t.Fatalf("Record: %v", err)
	}
	row, err := interestRepo.GetByUserAndTag(dbctx.New(ctx), user.ID, "golang")
	if err != nil {
		t.Fatalf("GetByUserAndTag: %v", err)
	}
	if row == nil {
		t.Fatal("interest not created under normalized name")
	}
	if row.Priority != domain.DefaultInterestPriority {
		t.Errorf("Priority = %d, want %d", row.Priority, domain.DefaultInterestPriority)
	}

	if err := svc.Record(ctx, user.ID, "golang", 0); err != nil {
		t.Fatalf("Record again: %v", err)
	}
	row, err = interestRepo.GetByUserAndTag(dbctx.New(ctx), user.ID, "golang")
	if err != nil {
		t.Fatalf("GetByUserAndTag: %v", err)
	}
	if row.Priority != domain.DefaultInterestPriority+1 {
		t.Errorf("Priority after reinforce = %d, want %d", row.Priority, domain.DefaultInterestPriority+1)
	}

	count, err := interestRepo.CountByUser(dbctx.New(ctx), user.ID)
	if err != nil {
		t.Fatalf("CountByUser: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1 row per (user, tag)", count)
	}
}

func TestRecordRejectsEmptyTag(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "empty@example.com")
	svc := newInterestService(t, tx, 95)

	if err := svc.Record(ctx, user.ID, "   ", 5); err == nil {
		t.Fatal("Record accepted a whitespace-only tag")
	}
}

func TestTopInterestsDecayOrdering(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "decay@example.com")
	svc := newInterestService(t, tx, 95)

	now := time.Now().UTC()
	testutil.SeedInterest(t, ctx, tx, user.ID, "stale", 5, now.AddDate(0, 0, -60))
	testutil.SeedInterest(t, ctx, tx, user.ID, "fresh", 5, now)

	top, err := svc.TopInterests(ctx, user.ID, 10)
	if err != nil {
		t.Fatalf("TopInterests: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("TopInterests len = %d, want 2", len(top))
	}
	if top[0] != "fresh" || top[1] != "stale" {
		t.Errorf("order = %v, want fresh before stale at equal priority", top)
	}
}

func TestTopInterestsRespectsLimit(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "limit@example.com")
	svc := newInterestService(t, tx, 95)

	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		testutil.SeedInterest(t, ctx, tx, user.ID, fmt.Sprintf("tag-%d", i), 5, now.AddDate(0, 0, -i))
	}

	top, err := svc.TopInterests(ctx, user.ID, 3)
	if err != nil {
		t.Fatalf("TopInterests: %v", err)
	}
	if len(top) != 3 {
		t.Fatalf("TopInterests len = %d, want 3", len(top))
	}
	if top[0] != "tag-0" {
		t.Errorf("top[0] = %q, want freshest first", top[0])
	}
}

func TestTrimEvictsExactlyLowestScoring(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "trim@example.com")
	svc := newInterestService(t, tx, 95)
	interestRepo := repos.NewUserInterestRepo(tx, testutil.Logger(t))

	// 96 interests with strictly decreasing decayed score.
	now := time.Now().UTC()
	for i := 0; i < 96; i++ {
		testutil.SeedInterest(t, ctx, tx, user.ID, fmt.Sprintf("tag-%03d", i), 5, now.AddDate(0, 0, -i))
	}

	if err := svc.TrimToLimit(ctx, user.ID, 95); err != nil {
		t.Fatalf("TrimToLimit: %v", err)
	}

	count, err := interestRepo.CountByUser(dbctx.New(ctx), user.ID)
	if err != nil {
		t.Fatalf("CountByUser: %v", err)
	}
	if count != 95 {
		t.Fatalf("count after trim = %d, want 95", count)
	}
	evicted, err := interestRepo.GetByUserAndTag(dbctx.New(ctx), user.ID, "tag-095")
	if err != nil {
		t.Fatalf("GetByUserAndTag: %v", err)
	}
	if evicted != nil {
		t.Error("stalest interest survived the trim")
	}
	survivor, err := interestRepo.GetByUserAndTag(dbctx.New(ctx), user.ID, "tag-094")
	if err != nil {
		t.Fatalf("GetByUserAndTag: %v", err)
	}
	if survivor == nil {
		t.Error("second-stalest interest was evicted")
	}
}

func TestInterestStoreStaysBounded(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "bounded@example.com")
	svc := newInterestService(t, tx, 5)
	interestRepo := repos.NewUserInterestRepo(tx, testutil.Logger(t))

	for i := 0; i < 8; i++ {
		if err := svc.Record(ctx, user.ID, fmt.Sprintf("topic-%d", i), 0); err != nil {
			t.Fatalf("Record #%d: %v", i, err)
		}
	}

	count, err := interestRepo.CountByUser(dbctx.New(ctx), user.ID)
	if err != nil {
		t.Fatalf("CountByUser: %v", err)
	}
	if count > 5 {
		t.Errorf("count = %d, want <= 5 after every mutation", count)
	}
}

func TestTrackSearchQuery(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	user := testutil.SeedUser(t, ctx, tx, "search@example.com")
	svc := newInterestService(t, tx, 95)
	interestRepo := repos.NewUserInterestRepo(tx, testutil.Logger(t))
	searchRepo := repos.NewSearchQueryRepo(tx, testutil.Logger(t))

	if ok := svc.TrackSearchQuery(ctx, user.ID, "Go in 5 minutes"); !ok {
		t.Fatal("TrackSearchQuery returned false")
	}

	queries, err := searchRepo.ListByUser(dbctx.New(ctx), user.ID, 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(queries) != 1 || queries[0].Query != "go in 5 minutes" {
		t.Fatalf("queries = %+v, want one lowercased record", queries)
	}

	// Words shorter than 3 characters carry no signal.
	for _, short := range []string{"go", "in"} {
		row, err := interestRepo.GetByUserAndTag(dbctx.New(ctx), user.ID, short)
		if err != nil {
			t.Fatalf("GetByUserAndTag: %v", err)
		}
		if row != nil {
			t.Errorf("short word %q became an interest", short)
		}
	}
	row, err := interestRepo.GetByUserAndTag(dbctx.New(ctx), user.ID, "minutes")
	if err != nil {
		t.Fatalf("GetByUserAndTag: %v", err)
	}
	if row == nil {
		t.Fatal("searched word did not become an interest")
	}
	if row.Priority != domain.DefaultInterestPriority+1 {
		t.Errorf("search interest priority = %d, want %d", row.Priority, domain.DefaultInterestPriority+1)
	}
}
