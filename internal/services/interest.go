package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/data/repos"
	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/normalization"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

// InterestService is the interest store: a bounded, decaying set of topic
// keywords per user. TopInterests is the only producer of outbound keyword
// lists, which keeps external search queries inside source API limits.
type InterestService interface {
	Record(ctx context.Context, userID uuid.UUID, tagName string, priority int) error
	Remove(ctx context.Context, userID uuid.UUID, tagName string) error
	List(ctx context.Context, userID uuid.UUID) ([]*domain.UserInterest, error)
	TopInterests(ctx context.Context, userID uuid.UUID, limit int) ([]string, error)
	TrimToLimit(ctx context.Context, userID uuid.UUID, limit int) error
	AddFromContent(ctx context.Context, userID uuid.UUID, items []*domain.ContentItem) error
	TrackSearchQuery(ctx context.Context, userID uuid.UUID, query string) bool
}

type interestService struct {
	db           *gorm.DB
	log          *logger.Logger
	interestRepo repos.UserInterestRepo
	searchRepo   repos.SearchQueryRepo
	maxKeywords  int
}

func NewInterestService(db *gorm.DB, log *logger.Logger, interestRepo repos.UserInterestRepo, searchRepo repos.SearchQueryRepo, maxKeywords int) InterestService {
	if maxKeywords <= 0 {
		maxKeywords = 95
	}
	return &interestService{
		db:           db,
		log:          log.With("service", "InterestService"),
		interestRepo: interestRepo,
		searchRepo:   searchRepo,
		maxKeywords:  maxKeywords,
	}
}

// Record registers or reinforces one interest. An existing row gets its
// usage refreshed and priority bumped; a new row starts at the given
// priority (default 5 when non-positive). The store is trimmed afterwards
// so it never grows past the keyword bound.
func (s *interestService) Record(ctx context.Context, userID uuid.UUID, tagName string, priority int) error {
	name, err := normalization.Tag(tagName)
	if err != nil {
		return err
	}
	if priority <= 0 {
		priority = domain.DefaultInterestPriority
	}
	if priority > domain.MaxInterestPriority {
		priority = domain.MaxInterestPriority
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		existing, err := s.interestRepo.GetByUserAndTag(dbc, userID, name)
		if err != nil {
			return fmt.Errorf("lookup interest: %w", err)
		}
		if existing != nil {
			existing.MarkUsed(1)
			return s.interestRepo.Save(dbc, existing)
		}
		return s.interestRepo.Create(dbc, domain.NewUserInterest(userID, name, priority))
	})
	if err != nil {
		return err
	}
	return s.TrimToLimit(ctx, userID, s.maxKeywords)
}

func (s *interestService) Remove(ctx context.Context, userID uuid.UUID, tagName string) error {
	name, err := normalization.Tag(tagName)
	if err != nil {
		return err
	}
	return s.interestRepo.DeleteByUserAndTag(dbctx.New(ctx), userID, name)
}

func (s *interestService) List(ctx context.Context, userID uuid.UUID) ([]*domain.UserInterest, error) {
	return s.interestRepo.ListByUser(dbctx.New(ctx), userID)
}

// TopInterests ranks interests by decayed score and returns the top limit
// tag names. Stale high-priority interests lose to recently-used ones; ties
// keep insertion order.
func (s *interestService) TopInterests(ctx context.Context, userID uuid.UUID, limit int) ([]string, error) {
	interests, err := s.interestRepo.ListByUser(dbctx.New(ctx), userID)
	if err != nil {
		return nil, err
	}
	ranked := rankByAdjustedScore(interests, time.Now().UTC())
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	names := make([]string, 0, len(ranked))
	for _, i := range ranked {
		names = append(names, i.TagName)
	}
	return names, nil
}

// TrimToLimit deletes every interest outside the top limit by adjusted
// score. Called after any count-increasing mutation so the store is
// self-bounding without a maintenance job.
func (s *interestService) TrimToLimit(ctx context.Context, userID uuid.UUID, limit int) error {
	if limit <= 0 {
		limit = s.maxKeywords
	}
	dbc := dbctx.New(ctx)
	count, err := s.interestRepo.CountByUser(dbc, userID)
	if err != nil {
		return err
	}
	if count <= int64(limit) {
		return nil
	}

	interests, err := s.interestRepo.ListByUser(dbc, userID)
	if err != nil {
		return err
	}
	ranked := rankByAdjustedScore(interests, time.Now().UTC())

	evict := make([]uuid.UUID, 0, len(ranked)-limit)
	for _, i := range ranked[limit:] {
		evict = append(evict, i.ID)
	}
	s.log.Info("Trimming interests", "user_id", userID, "count", count, "evicted", len(evict))
	return s.interestRepo.DeleteByIDs(dbc, evict)
}

// AddFromContent reinforces interests from the tags of items the user chose
// to save. Existing interests get a usage bump, unseen tags become new
// default-priority interests.
func (s *interestService) AddFromContent(ctx context.Context, userID uuid.UUID, items []*domain.ContentItem) error {
	if userID == uuid.Nil || len(items) == 0 {
		return nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		seen := map[string]bool{}
		for _, item := range items {
			for _, tag := range item.Tags {
				name, err := normalization.Tag(tag.Name)
				if err != nil || seen[name] {
					continue
				}
				seen[name] = true

				existing, err := s.interestRepo.GetByUserAndTag(dbc, userID, name)
				if err != nil {
					return fmt.Errorf("lookup interest %q: %w", name, err)
				}
				if existing != nil {
					existing.MarkUsed(1)
					if err := s.interestRepo.Save(dbc, existing); err != nil {
						return err
					}
					continue
				}
				if err := s.interestRepo.Create(dbc, domain.NewUserInterest(userID, name, domain.DefaultInterestPriority)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.TrimToLimit(ctx, userID, s.maxKeywords)
}

// TrackSearchQuery records a search and reinforces interests from its
// words. Search is a stronger signal than saving, so reinforcement uses a
// higher increment and starting priority. Failures are logged, not
// surfaced; tracking must never break the search itself.
func (s *interestService) TrackSearchQuery(ctx context.Context, userID uuid.UUID, query string) bool {
	query = normalization.ParseInputString(query)
	if userID == uuid.Nil || query == "" {
		return false
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		if err := s.searchRepo.Create(dbc, domain.NewSearchQuery(userID, query)); err != nil {
			return err
		}
		for _, word := range strings.Fields(query) {
			if len(word) < 3 {
				continue
			}
			name, err := normalization.Tag(word)
			if err != nil {
				continue
			}
			existing, err := s.interestRepo.GetByUserAndTag(dbc, userID, name)
			if err != nil {
				return err
			}
			if existing != nil {
				existing.MarkUsed(2)
				if err := s.interestRepo.Save(dbc, existing); err != nil {
					return err
				}
				continue
			}
			if err := s.interestRepo.Create(dbc, domain.NewUserInterest(userID, name, domain.DefaultInterestPriority+1)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn("Could not track search query", "user_id", userID, "error", err)
		return false
	}
	if err := s.TrimToLimit(ctx, userID, s.maxKeywords); err != nil {
		s.log.Warn("Could not trim interests after search", "user_id", userID, "error", err)
	}
	return true
}

// rankByAdjustedScore sorts descending by decayed score. The sort is stable
// and the input is ordered by insertion, so ties keep original order.
func rankByAdjustedScore(interests []*domain.UserInterest, now time.Time) []*domain.UserInterest {
	ranked := make([]*domain.UserInterest, len(interests))
	copy(ranked, interests)
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].AdjustedScore(now) > ranked[b].AdjustedScore(now)
	})
	return ranked
}
