package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/data/repos"
	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/normalization"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
	"github.com/learnloop/learnloop-backend/internal/sources"
)

// fullTextFallbackLimit caps the description prefix substituted when a
// source could not provide full text.
const fullTextFallbackLimit = 5000

// AggregatorService merges content from every enabled source into one
// deduplicated, persisted collection. A failing source contributes zero
// items; it never aborts the whole aggregation.
type AggregatorService interface {
	AggregateByKeywords(ctx context.Context, keywords []string, maxPerSource int) []*domain.ContentItem
	SaveContentItems(ctx context.Context, items []*domain.ContentItem) (int, error)
	UpdateContentForUser(ctx context.Context, userID uuid.UUID) (int, error)
	SearchContent(ctx context.Context, keywords []string, limit int) ([]*domain.ContentItem, error)
	SearchLive(ctx context.Context, keywords []string, platform string, maxResults int) ([]*domain.ContentItem, error)
	SaveSelectedItems(ctx context.Context, items []*domain.ContentItem, userID uuid.UUID) (int, error)
}

type aggregatorService struct {
	db          *gorm.DB
	log         *logger.Logger
	contentRepo repos.ContentItemRepo
	tagRepo     repos.TagRepo
	interestSvc InterestService

	// sources are queried in slice order; that order is the dedup
	// tie-break when two platforms return the same item.
	sources      []sources.Source
	maxKeywords  int
	maxPerSource int
}

func NewAggregatorService(
	db *gorm.DB,
	log *logger.Logger,
	contentRepo repos.ContentItemRepo,
	tagRepo repos.TagRepo,
	interestSvc InterestService,
	srcs []sources.Source,
	maxKeywords int,
	maxPerSource int,
) AggregatorService {
	if maxKeywords <= 0 {
		maxKeywords = 95
	}
	if maxPerSource <= 0 {
		maxPerSource = 50
	}
	return &aggregatorService{
		db:           db,
		log:          log.With("service", "AggregatorService"),
		contentRepo:  contentRepo,
		tagRepo:      tagRepo,
		interestSvc:  interestSvc,
		sources:      srcs,
		maxKeywords:  maxKeywords,
		maxPerSource: maxPerSource,
	}
}

// AggregateByKeywords queries every source with the same keyword list and
// returns the concatenated results deduplicated by (sourceID, platform),
// first seen wins.
func (s *aggregatorService) AggregateByKeywords(ctx context.Context, keywords []string, maxPerSource int) []*domain.ContentItem {
	keywords = s.normalizeKeywords(keywords)
	if len(keywords) == 0 || maxPerSource <= 0 {
		return []*domain.ContentItem{}
	}

	seen := make(map[string]bool)
	var merged []*domain.ContentItem
	for _, src := range s.sources {
		items, err := src.FetchContent(ctx, keywords, maxPerSource)
		if err != nil {
			s.log.Warn("Source fetch failed", "source", src.Name(), "error", err)
			continue
		}
		for _, item := range items {
			key := dedupKey(item.SourceID, item.Platform)
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, item)
		}
		s.log.Debug("Source contributed items", "source", src.Name(), "count", len(items))
	}
	if merged == nil {
		merged = []*domain.ContentItem{}
	}
	return merged
}

// SaveContentItems persists new items in input order. A persisted duplicate
// only gets its updated_at bumped. Tags resolve through a per-batch cache,
// at most one storage round trip per distinct name. A mid-batch failure
// rolls the transaction back and the count staged before the failure is
// returned with a nil error; callers must treat the result as best-effort,
// not atomic.
func (s *aggregatorService) SaveContentItems(ctx context.Context, items []*domain.ContentItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	staged := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		tagCache := make(map[string]*domain.Tag)

		for _, item := range items {
			existing, err := s.contentRepo.GetBySourceAndPlatform(dbc, item.SourceID, item.Platform)
			if err != nil {
				return fmt.Errorf("duplicate check %s/%s: %w", item.Platform, item.SourceID, err)
			}
			if existing != nil {
				if err := s.contentRepo.TouchUpdatedAt(dbc, existing.ID); err != nil {
					return err
				}
				continue
			}

			if item.FullText == "" {
				item.FullText = fullTextFallback(ctx, s.sourceFor(item.Platform), item.URL, item.Description)
			}

			resolved, err := s.resolveTags(dbc, item.Tags, tagCache)
			if err != nil {
				return err
			}
			item.Tags = resolved

			if _, err := s.contentRepo.Create(dbc, []*domain.ContentItem{item}); err != nil {
				return fmt.Errorf("create %s/%s: %w", item.Platform, item.SourceID, err)
			}
			staged++
		}
		return nil
	})
	if err != nil {
		s.log.Error("Batch save failed, rolled back", "staged_before_failure", staged, "error", err)
		return staged, nil
	}
	return staged, nil
}

// UpdateContentForUser refreshes stored content from the user's current top
// interests. A user with no interests gets nothing fetched.
func (s *aggregatorService) UpdateContentForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	keywords, err := s.interestSvc.TopInterests(ctx, userID, s.maxKeywords)
	if err != nil {
		return 0, fmt.Errorf("top interests: %w", err)
	}
	if len(keywords) == 0 {
		s.log.Debug("No interests, skipping content update", "user_id", userID)
		return 0, nil
	}

	items := s.AggregateByKeywords(ctx, keywords, s.maxPerSource)
	added, err := s.SaveContentItems(ctx, items)
	if err != nil {
		return added, err
	}
	s.log.Info("Updated content", "user_id", userID, "fetched", len(items), "added", added)
	return added, nil
}

// SearchContent searches already persisted items by title, description and
// tag name.
func (s *aggregatorService) SearchContent(ctx context.Context, keywords []string, limit int) ([]*domain.ContentItem, error) {
	keywords = s.normalizeKeywords(keywords)
	return s.contentRepo.Search(dbctx.New(ctx), keywords, limit)
}

// SearchLive fetches directly from one source, skipping already persisted
// items so the caller only sees genuinely new content.
func (s *aggregatorService) SearchLive(ctx context.Context, keywords []string, platform string, maxResults int) ([]*domain.ContentItem, error) {
	src := s.sourceFor(platform)
	if src == nil {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}
	keywords = s.normalizeKeywords(keywords)
	if len(keywords) == 0 {
		return []*domain.ContentItem{}, nil
	}

	fetched, err := src.FetchContent(ctx, keywords, maxResults)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.Name(), err)
	}

	dbc := dbctx.New(ctx)
	fresh := []*domain.ContentItem{}
	for _, item := range fetched {
		existing, err := s.contentRepo.GetBySourceAndPlatform(dbc, item.SourceID, item.Platform)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			fresh = append(fresh, item)
		}
	}
	return fresh, nil
}

// SaveSelectedItems persists items a user picked from live search results
// and reinforces the user's interests from their tags.
func (s *aggregatorService) SaveSelectedItems(ctx context.Context, items []*domain.ContentItem, userID uuid.UUID) (int, error) {
	added, err := s.SaveContentItems(ctx, items)
	if err != nil {
		return added, err
	}
	if userID != uuid.Nil {
		if err := s.interestSvc.AddFromContent(ctx, userID, items); err != nil {
			s.log.Warn("Could not reinforce interests from saved items", "user_id", userID, "error", err)
		}
	}
	return added, nil
}

func (s *aggregatorService) sourceFor(platform string) sources.Source {
	for _, src := range s.sources {
		if src.Platform() == platform {
			return src
		}
	}
	return nil
}

// normalizeKeywords trims and canonicalizes, drops empties, and caps the
// list at the outbound keyword bound.
func (s *aggregatorService) normalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		name, err := normalization.Tag(kw)
		if err != nil {
			continue
		}
		out = append(out, name)
		if len(out) == s.maxKeywords {
			break
		}
	}
	return out
}

// resolveTags maps raw tag references to canonical Tag rows via the batch
// cache, creating rows on first sight.
func (s *aggregatorService) resolveTags(dbc dbctx.Context, raw []*domain.Tag, cache map[string]*domain.Tag) ([]*domain.Tag, error) {
	resolved := make([]*domain.Tag, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, t := range raw {
		name, err := normalization.Tag(t.Name)
		if err != nil || seen[name] {
			continue
		}
		seen[name] = true

		if cached, ok := cache[name]; ok {
			resolved = append(resolved, cached)
			continue
		}
		row, err := s.tagRepo.GetOrCreate(dbc, name)
		if err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		cache[name] = row
		resolved = append(resolved, row)
	}
	return resolved, nil
}

func fullTextFallback(ctx context.Context, src sources.Source, url, description string) string {
	if src != nil {
		if text := src.FetchFullText(ctx, url); text != "" {
			return text
		}
	}
	if len(description) > fullTextFallbackLimit {
		return description[:fullTextFallbackLimit]
	}
	return description
}

func dedupKey(sourceID, platform string) string {
	return sourceID + "|" + platform
}
