package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/data/repos"
	"github.com/learnloop/learnloop-backend/internal/data/repos/testutil"
	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
)

// aggregatorStub lets scheduler tests fail specific users.
type aggregatorStub struct {
	failFor map[uuid.UUID]bool
	updated []uuid.UUID
}

func (a *aggregatorStub) AggregateByKeywords(ctx context.Context, keywords []string, maxPerSource int) []*domain.ContentItem {
	return []*domain.ContentItem{}
}

func (a *aggregatorStub) SaveContentItems(ctx context.Context, items []*domain.ContentItem) (int, error) {
	return 0, nil
}

func (a *aggregatorStub) UpdateContentForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	if a.failFor[userID] {
		return 0, errors.New("source exploded")
	}
	a.updated = append(a.updated, userID)
	return 1, nil
}

func (a *aggregatorStub) SearchContent(ctx context.Context, keywords []string, limit int) ([]*domain.ContentItem, error) {
	return nil, nil
}

func (a *aggregatorStub) SearchLive(ctx context.Context, keywords []string, platform string, maxResults int) ([]*domain.ContentItem, error) {
	return nil, nil
}

func (a *aggregatorStub) SaveSelectedItems(ctx context.Context, items []*domain.ContentItem, userID uuid.UUID) (int, error) {
	return 0, nil
}

func newSchedulerService(t *testing.T, tx *gorm.DB, aggregator AggregatorService) SchedulerService {
	t.Helper()
	log := testutil.Logger(t)
	return NewSchedulerService(tx, log,
		repos.NewUserSettingsRepo(tx, log),
		aggregator,
		newDigestService(t, tx),
		24, 15)
}

func settingsFor(hour int, last *time.Time) *domain.UserSettings {
	return &domain.UserSettings{
		ID:                uuid.New(),
		UserID:            uuid.New(),
		DigestHour:        hour,
		DigestEnabled:     true,
		AutoUpdateContent: true,
		LastContentUpdate: last,
	}
}

func TestShouldUpdateContent(t *testing.T) {
	tx := testutil.Tx(t, testutil.DB(t))
	svc := newSchedulerService(t, tx, &aggregatorStub{})
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		settings *domain.UserSettings
		want     bool
	}{
		{"nil settings", nil, false},
		{
			"auto update disabled",
			func() *domain.UserSettings {
				s := settingsFor(9, nil)
				s.AutoUpdateContent = false
				return s
			}(),
			false,
		},
		{
			"digest disabled",
			func() *domain.UserSettings {
				s := settingsFor(9, nil)
				s.DigestEnabled = false
				return s
			}(),
			false,
		},
		{"never updated", settingsFor(9, nil), true},
		{
			// Last ran at 08:00, slot is 09:00, now is 12:00.
			"slot passed since last run",
			settingsFor(9, testutil.PtrTime(time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC))),
			true,
		},
		{
			// Already ran at 10:00 today; next slot is tomorrow 09:00.
			"already ran after slot today",
			settingsFor(9, testutil.PtrTime(time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC))),
			false,
		},
		{
			// Ran yesterday 10:00; hour rule defers to tomorrow but the
			// 24h interval fallback catches the missed schedule.
			"interval fallback",
			settingsFor(9, testutil.PtrTime(time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC))),
			true,
		},
		{
			// Slot is later today and the last run is recent.
			"not yet due",
			settingsFor(18, testutil.PtrTime(time.Date(2026, 8, 31, 11, 0, 0, 0, time.UTC))),
			false,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := svc.ShouldUpdateContent(c.settings, 24, now); got != c.want {
				t.Errorf("ShouldUpdateContent = %v, want %v", got, c.want)
			}
		})
	}
}

func TestCheckAndUpdateAllUsersPerUserIsolation(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	settingsRepo := repos.NewUserSettingsRepo(tx, testutil.Logger(t))

	failing := testutil.SeedUser(t, ctx, tx, "failing@example.com")
	healthy := testutil.SeedUser(t, ctx, tx, "healthy@example.com")
	testutil.SeedSettings(t, ctx, tx, failing.ID)
	testutil.SeedSettings(t, ctx, tx, healthy.ID)

	stub := &aggregatorStub{failFor: map[uuid.UUID]bool{failing.ID: true}}
	svc := newSchedulerService(t, tx, stub)

	updated, err := svc.CheckAndUpdateAllUsers(ctx)
	if err != nil {
		t.Fatalf("CheckAndUpdateAllUsers: %v", err)
	}
	if updated != 1 {
		t.Fatalf("updated = %d, want the healthy user only", updated)
	}

	healthySettings, err := settingsRepo.GetByUserID(dbctx.New(ctx), healthy.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if healthySettings.LastContentUpdate == nil {
		t.Error("healthy user's update time not committed")
	}
	failingSettings, err := settingsRepo.GetByUserID(dbctx.New(ctx), failing.ID)
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if failingSettings.LastContentUpdate != nil {
		t.Error("failing user's update time was committed despite the failure")
	}
}

func TestDigestMissed(t *testing.T) {
	now := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

	s := settingsFor(9, nil)
	if !digestMissed(s, now) {
		t.Error("no send recorded after slot should count as missed")
	}

	s.LastDigestSent = testutil.PtrTime(time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC))
	if digestMissed(s, now) {
		t.Error("digest sent after today's slot is not missed")
	}

	s.LastDigestSent = testutil.PtrTime(time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC))
	if !digestMissed(s, now) {
		t.Error("yesterday's send does not cover today's slot")
	}

	early := settingsFor(18, nil)
	if digestMissed(early, now) {
		t.Error("slot still ahead today cannot be missed yet")
	}
}
