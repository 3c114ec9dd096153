package services

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/data/repos"
	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
	"github.com/learnloop/learnloop-backend/internal/platform/sendgrid"
)

// DigestService selects a bounded, ranked slice of un-completed content
// matching a user's current interests, falling back to the freshest stored
// content when nothing matches.
type DigestService interface {
	DailyDigest(ctx context.Context, userID uuid.UUID, maxItems int) ([]*domain.ContentItem, error)
	FallbackContent(ctx context.Context, maxItems int) ([]*domain.ContentItem, error)
	SendEmailDigest(ctx context.Context, userID uuid.UUID, items []*domain.ContentItem) bool
}

type digestService struct {
	db           *gorm.DB
	log          *logger.Logger
	contentRepo  repos.ContentItemRepo
	progressRepo repos.UserProgressRepo
	settingsRepo repos.UserSettingsRepo
	interestSvc  InterestService
	mailer       sendgrid.Client
	maxKeywords  int
}

func NewDigestService(
	db *gorm.DB,
	log *logger.Logger,
	contentRepo repos.ContentItemRepo,
	progressRepo repos.UserProgressRepo,
	settingsRepo repos.UserSettingsRepo,
	interestSvc InterestService,
	mailer sendgrid.Client,
	maxKeywords int,
) DigestService {
	if maxKeywords <= 0 {
		maxKeywords = 95
	}
	return &digestService{
		db:           db,
		log:          log.With("service", "DigestService"),
		contentRepo:  contentRepo,
		progressRepo: progressRepo,
		settingsRepo: settingsRepo,
		interestSvc:  interestSvc,
		mailer:       mailer,
		maxKeywords:  maxKeywords,
	}
}

// DailyDigest builds the user's digest:
//  1. no interests -> freshest stored content
//  2. match stored content whose tags contain any interest keyword
//  3. drop items the user already completed
//  4. nothing left -> freshest stored content again
//  5. rank by matching-tag count, truncate
//
// Completed items are excluded from every branch.
func (s *digestService) DailyDigest(ctx context.Context, userID uuid.UUID, maxItems int) ([]*domain.ContentItem, error) {
	if maxItems <= 0 {
		return []*domain.ContentItem{}, nil
	}
	dbc := dbctx.New(ctx)

	completedIDs, err := s.progressRepo.CompletedContentIDs(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("completed ids: %w", err)
	}
	completed := make(map[uuid.UUID]bool, len(completedIDs))
	for _, id := range completedIDs {
		completed[id] = true
	}

	interests, err := s.interestSvc.TopInterests(ctx, userID, s.maxKeywords)
	if err != nil {
		return nil, fmt.Errorf("top interests: %w", err)
	}
	if len(interests) == 0 {
		return s.fallbackExcluding(dbc, maxItems, completed)
	}

	matched, err := s.contentRepo.ListByTagSubstrings(dbc, interests, 0)
	if err != nil {
		return nil, fmt.Errorf("match content: %w", err)
	}

	remaining := matched[:0:0]
	for _, item := range matched {
		if !completed[item.ID] {
			remaining = append(remaining, item)
		}
	}
	if len(remaining) == 0 {
		return s.fallbackExcluding(dbc, maxItems, completed)
	}

	sort.SliceStable(remaining, func(a, b int) bool {
		return matchingTagCount(remaining[a], interests) > matchingTagCount(remaining[b], interests)
	})
	if len(remaining) > maxItems {
		remaining = remaining[:maxItems]
	}
	return remaining, nil
}

// FallbackContent returns the freshest stored items by publication date.
func (s *digestService) FallbackContent(ctx context.Context, maxItems int) ([]*domain.ContentItem, error) {
	return s.contentRepo.ListNewest(dbctx.New(ctx), maxItems)
}

// fallbackExcluding over-fetches so completed items can be dropped without
// shrinking the digest below maxItems when alternatives exist.
func (s *digestService) fallbackExcluding(dbc dbctx.Context, maxItems int, completed map[uuid.UUID]bool) ([]*domain.ContentItem, error) {
	fresh, err := s.contentRepo.ListNewest(dbc, maxItems+len(completed))
	if err != nil {
		return nil, err
	}
	out := []*domain.ContentItem{}
	for _, item := range fresh {
		if completed[item.ID] {
			continue
		}
		out = append(out, item)
		if len(out) == maxItems {
			break
		}
	}
	return out, nil
}

// matchingTagCount counts the item's tags containing any of the interest
// keywords as a case-insensitive substring.
func matchingTagCount(item *domain.ContentItem, interests []string) int {
	count := 0
	for _, tag := range item.Tags {
		name := strings.ToLower(tag.Name)
		for _, interest := range interests {
			if strings.Contains(name, strings.ToLower(interest)) {
				count++
				break
			}
		}
	}
	return count
}

// SendEmailDigest renders and mails the digest. Returns false without an
// error when the user has no digest address or no mailer is configured;
// digest delivery is best-effort.
func (s *digestService) SendEmailDigest(ctx context.Context, userID uuid.UUID, items []*domain.ContentItem) bool {
	if s.mailer == nil {
		s.log.Debug("No mailer configured, skipping digest email", "user_id", userID)
		return false
	}
	if len(items) == 0 {
		return false
	}

	dbc := dbctx.New(ctx)
	settings, err := s.settingsRepo.GetByUserID(dbc, userID)
	if err != nil {
		s.log.Warn("Could not load settings for digest email", "user_id", userID, "error", err)
		return false
	}
	if settings == nil || strings.TrimSpace(settings.EmailDigest) == "" {
		return false
	}

	subject := fmt.Sprintf("Your learning digest for %s", time.Now().Format("January 2"))
	_, err = s.mailer.Send(ctx, sendgrid.SendEmailRequest{
		To:      []sendgrid.EmailAddress{{Email: settings.EmailDigest}},
		Subject: subject,
		Text:    renderDigestText(items),
		HTML:    renderDigestHTML(items),
	})
	if err != nil {
		s.log.Error("Digest email send failed", "user_id", userID, "error", err)
		return false
	}

	if err := s.settingsRepo.SetLastDigestSent(dbc, userID, time.Now().UTC()); err != nil {
		s.log.Warn("Could not record digest send time", "user_id", userID, "error", err)
	}
	s.log.Info("Digest email sent", "user_id", userID, "items", len(items))
	return true
}

func renderDigestText(items []*domain.ContentItem) string {
	var b strings.Builder
	b.WriteString("Today's picks:\n\n")
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s (%s, ~%d min)\n   %s\n", i+1, item.Title, item.Platform, item.EstimatedCompletionMinutes(), item.URL)
	}
	return b.String()
}

func renderDigestHTML(items []*domain.ContentItem) string {
	var b strings.Builder
	b.WriteString("<h2>Today's picks</h2><ol>")
	for _, item := range items {
		fmt.Fprintf(&b, `<li><a href="%s">%s</a> <small>%s, ~%d min</small></li>`,
			item.URL, html.EscapeString(item.Title), item.Platform, item.EstimatedCompletionMinutes())
	}
	b.WriteString("</ol>")
	return b.String()
}
