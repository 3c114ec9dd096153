package testutil

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

var (
	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a process-wide in-memory sqlite database with the full schema
// migrated. Tests isolate themselves with Tx.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		db, dbErr = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
			Logger: gormLogger.Default.LogMode(gormLogger.Silent),
		})
		if dbErr != nil {
			return
		}
		dbErr = db.AutoMigrate(
			&domain.User{},
			&domain.UserSettings{},
			&domain.Tag{},
			&domain.ContentItem{},
			&domain.UserInterest{},
			&domain.UserProgress{},
			&domain.FavoriteContent{},
			&domain.SearchQuery{},
		)
	})
	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return db
}

// Tx begins a transaction rolled back when the test finishes.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *domain.User {
	tb.Helper()
	u := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedSettings(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *domain.UserSettings {
	tb.Helper()
	s := domain.NewUserSettings(userID, "user@example.com")
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed settings: %v", err)
	}
	return s
}

// SeedContent creates a content item with the given tags, published the
// given number of days ago.
func SeedContent(tb testing.TB, ctx context.Context, tx *gorm.DB, sourceID, platform string, daysOld int, tagNames ...string) *domain.ContentItem {
	tb.Helper()
	item := domain.NewContentItem(sourceID, platform, "title "+sourceID, "https://example.com/"+sourceID)
	item.Description = "description " + sourceID
	item.PublishedAt = time.Now().UTC().AddDate(0, 0, -daysOld)
	for _, name := range tagNames {
		item.Tags = append(item.Tags, SeedTag(tb, ctx, tx, name))
	}
	if err := tx.WithContext(ctx).Create(item).Error; err != nil {
		tb.Fatalf("seed content: %v", err)
	}
	return item
}

// SeedTag reuses an existing tag row so name uniqueness holds across seeds
// inside one transaction.
func SeedTag(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *domain.Tag {
	tb.Helper()
	var existing domain.Tag
	err := tx.WithContext(ctx).Where("name = ?", name).First(&existing).Error
	if err == nil {
		return &existing
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		tb.Fatalf("lookup tag: %v", err)
	}
	t := &domain.Tag{ID: uuid.New(), Name: name}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed tag: %v", err)
	}
	return t
}

func SeedInterest(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, tagName string, priority int, lastUsed time.Time) *domain.UserInterest {
	tb.Helper()
	i := domain.NewUserInterest(userID, tagName, priority)
	i.LastUsed = lastUsed
	if err := tx.WithContext(ctx).Create(i).Error; err != nil {
		tb.Fatalf("seed interest: %v", err)
	}
	return i
}

func SeedCompleted(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, contentID uuid.UUID) *domain.UserProgress {
	tb.Helper()
	p := domain.NewUserProgress(userID, contentID)
	p.MarkCompleted(0, "")
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}

func SeedFavorite(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, contentID uuid.UUID, addedAt time.Time) *domain.FavoriteContent {
	tb.Helper()
	f := domain.NewFavoriteContent(userID, contentID, "")
	f.AddedAt = addedAt
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed favorite: %v", err)
	}
	return f
}

func PtrTime(v time.Time) *time.Time { return &v }
