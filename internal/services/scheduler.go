package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/data/repos"
	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

// SchedulerService decides when each user's content is stale enough to
// refresh and runs the refresh sweep. The due-check is a pure predicate so
// it stays idempotent and resumable across process restarts.
type SchedulerService interface {
	ShouldUpdateContent(settings *domain.UserSettings, intervalHours int, now time.Time) bool
	CheckAndUpdateAllUsers(ctx context.Context) (int, error)
	CheckMissedDigests(ctx context.Context) (int, error)
}

type schedulerService struct {
	db           *gorm.DB
	log          *logger.Logger
	settingsRepo repos.UserSettingsRepo
	aggregator   AggregatorService
	digestSvc    DigestService

	intervalHours  int
	digestMaxItems int
}

func NewSchedulerService(
	db *gorm.DB,
	log *logger.Logger,
	settingsRepo repos.UserSettingsRepo,
	aggregator AggregatorService,
	digestSvc DigestService,
	intervalHours int,
	digestMaxItems int,
) SchedulerService {
	if intervalHours <= 0 {
		intervalHours = 24
	}
	if digestMaxItems <= 0 {
		digestMaxItems = 15
	}
	return &schedulerService{
		db:             db,
		log:            log.With("service", "SchedulerService"),
		settingsRepo:   settingsRepo,
		aggregator:     aggregator,
		digestSvc:      digestSvc,
		intervalHours:  intervalHours,
		digestMaxItems: digestMaxItems,
	}
}

// ShouldUpdateContent reports whether a refresh is due. Never-updated users
// are always due. Otherwise a refresh is due once now passes the next
// digest-hour slot, or once the minimum interval has elapsed regardless of
// slot; the interval catches schedules missed entirely while the process
// was down.
func (s *schedulerService) ShouldUpdateContent(settings *domain.UserSettings, intervalHours int, now time.Time) bool {
	if settings == nil || !settings.AutoUpdateContent || !settings.DigestEnabled {
		return false
	}
	if settings.LastContentUpdate == nil {
		return true
	}
	last := *settings.LastContentUpdate

	scheduled := time.Date(now.Year(), now.Month(), now.Day(), settings.DigestHour, 0, 0, 0, now.Location())
	if last.Hour() >= settings.DigestHour {
		// Already ran at or past today's slot hour; next slot is tomorrow.
		scheduled = scheduled.AddDate(0, 0, 1)
	}
	if !now.Before(scheduled) {
		return true
	}

	if intervalHours <= 0 {
		intervalHours = s.intervalHours
	}
	return now.Sub(last) >= time.Duration(intervalHours)*time.Hour
}

// CheckAndUpdateAllUsers sweeps every auto-update user, refreshing the due
// ones. Each user's LastContentUpdate commits immediately after their
// refresh; one user's failure never blocks or rolls back earlier users.
func (s *schedulerService) CheckAndUpdateAllUsers(ctx context.Context) (int, error) {
	dbc := dbctx.New(ctx)
	candidates, err := s.settingsRepo.ListAutoUpdateEnabled(dbc)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	updated := 0
	for _, settings := range candidates {
		if !s.ShouldUpdateContent(settings, s.intervalHours, now) {
			continue
		}
		added, err := s.aggregator.UpdateContentForUser(ctx, settings.UserID)
		if err != nil {
			s.log.Error("Content update failed for user", "user_id", settings.UserID, "error", err)
			continue
		}
		if err := s.settingsRepo.SetLastContentUpdate(dbc, settings.UserID, now); err != nil {
			s.log.Error("Could not record content update time", "user_id", settings.UserID, "error", err)
			continue
		}
		updated++
		s.log.Info("Refreshed content for user", "user_id", settings.UserID, "added", added)
	}
	s.log.Info("Update sweep finished", "candidates", len(candidates), "updated", updated)
	return updated, nil
}

// CheckMissedDigests emails a digest to every opted-in user whose digest
// hour passed today without a send. Runs after downtime so users still get
// the day's digest, late.
func (s *schedulerService) CheckMissedDigests(ctx context.Context) (int, error) {
	dbc := dbctx.New(ctx)
	candidates, err := s.settingsRepo.ListMissedDigestCandidates(dbc)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	sent := 0
	for _, settings := range candidates {
		if !digestMissed(settings, now) {
			continue
		}
		items, err := s.digestSvc.DailyDigest(ctx, settings.UserID, s.digestMaxItems)
		if err != nil {
			s.log.Error("Digest build failed for user", "user_id", settings.UserID, "error", err)
			continue
		}
		if s.digestSvc.SendEmailDigest(ctx, settings.UserID, items) {
			sent++
		}
	}
	if sent > 0 {
		s.log.Info("Sent missed digests", "count", sent)
	}
	return sent, nil
}

// digestMissed reports whether today's digest slot has passed with no send
// recorded at or after it.
func digestMissed(settings *domain.UserSettings, now time.Time) bool {
	if settings == nil {
		return false
	}
	slot := time.Date(now.Year(), now.Month(), now.Day(), settings.DigestHour, 0, 0, 0, now.Location())
	if now.Before(slot) {
		return false
	}
	return settings.LastDigestSent == nil || settings.LastDigestSent.Before(slot)
}
