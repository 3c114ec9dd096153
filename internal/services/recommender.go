package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/data/repos"
	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

// crossStrategyBonus multiplies the score of items surfaced by more than
// one strategy: consensus beats a single strong signal.
const crossStrategyBonus = 1.5

// Weights are the per-strategy multipliers. Values are heuristic, not
// calibrated probabilities; only relative ordering is contractual.
type Weights struct {
	Interests float64
	Favorites float64
	Completed float64
	Similar   float64
}

func defaultWeights() Weights {
	return Weights{Interests: 1.5, Favorites: 2.0, Completed: 1.2, Similar: 1.0}
}

// RecommenderService ranks stored content for a user by merging four
// independent matching strategies into one weighted, recency-decayed score.
// Stateless across calls: a pure function of current storage and interest
// state.
type RecommenderService interface {
	Recommendations(ctx context.Context, userID uuid.UUID, maxRecommendations int) ([]*domain.ContentItem, error)
	PreferenceWeights(ctx context.Context, userID uuid.UUID) (Weights, error)
	InterestSuggestions(ctx context.Context, userID uuid.UUID, maxSuggestions int) ([]string, error)
}

type recommenderService struct {
	db           *gorm.DB
	log          *logger.Logger
	contentRepo  repos.ContentItemRepo
	progressRepo repos.UserProgressRepo
	favoriteRepo repos.FavoriteContentRepo
	interestRepo repos.UserInterestRepo
}

func NewRecommenderService(
	db *gorm.DB,
	log *logger.Logger,
	contentRepo repos.ContentItemRepo,
	progressRepo repos.UserProgressRepo,
	favoriteRepo repos.FavoriteContentRepo,
	interestRepo repos.UserInterestRepo,
) RecommenderService {
	return &recommenderService{
		db:           db,
		log:          log.With("service", "RecommenderService"),
		contentRepo:  contentRepo,
		progressRepo: progressRepo,
		favoriteRepo: favoriteRepo,
		interestRepo: interestRepo,
	}
}

// PreferenceWeights adapts the default strategy weights to demonstrated
// engagement: heavy or recent favoriting raises the favorites weight, a
// deep completion history raises the completed weight.
func (s *recommenderService) PreferenceWeights(ctx context.Context, userID uuid.UUID) (Weights, error) {
	w := defaultWeights()
	dbc := dbctx.New(ctx)

	favCount, err := s.favoriteRepo.CountByUser(dbc, userID)
	if err != nil {
		return w, err
	}
	if favCount > 5 {
		w.Favorites = 2.5
	}
	recentFavs, err := s.favoriteRepo.CountAddedSince(dbc, userID, time.Now().UTC().AddDate(0, 0, -7))
	if err != nil {
		return w, err
	}
	if recentFavs > 2 {
		w.Favorites = 3.0
	}

	completedCount, err := s.progressRepo.CountCompletedByUser(dbc, userID)
	if err != nil {
		return w, err
	}
	if completedCount > 10 {
		w.Completed = 1.5
	}
	return w, nil
}

type scoredItem struct {
	item    *domain.ContentItem
	score   float64
	matches int
	order   int
}

// Recommendations runs the four strategies, accumulates decayed weighted
// scores per item, applies the cross-strategy bonus, and returns the top
// maxRecommendations. Completed items never appear. Scores are discarded,
// not exposed.
func (s *recommenderService) Recommendations(ctx context.Context, userID uuid.UUID, maxRecommendations int) ([]*domain.ContentItem, error) {
	if maxRecommendations <= 0 {
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

	weights, err := s.PreferenceWeights(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("preference weights: %w", err)
	}

	completedTags, err := s.completedItemTags(dbc, userID)
	if err != nil {
		return nil, err
	}
	favoriteTags, err := s.favoriteItemTags(dbc, userID)
	if err != nil {
		return nil, err
	}
	interestTags, err := s.interestTagNames(dbc, userID)
	if err != nil {
		return nil, err
	}

	type strategy struct {
		name   string
		weight float64
		items  []*domain.ContentItem
	}
	var strategies []strategy

	// next-level: progression past completed material, beginner excluded.
	nextLevel, err := s.contentRepo.ListByTagNames(dbc, repos.TaggedQuery{
		TagNames:          completedTags,
		ExcludeDifficulty: domain.DifficultyBeginner,
		ExcludeIDs:        completedIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("next-level strategy: %w", err)
	}
	strategies = append(strategies, strategy{"next-level", weights.Completed, nextLevel})

	// similar: anything sharing tags with completed material.
	similar, err := s.contentRepo.ListByTagNames(dbc, repos.TaggedQuery{
		TagNames:   completedTags,
		ExcludeIDs: completedIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("similar strategy: %w", err)
	}
	strategies = append(strategies, strategy{"similar", weights.Similar, similar})

	// interests: declared interest tags, newest first.
	byInterest, err := s.contentRepo.ListByTagNames(dbc, repos.TaggedQuery{
		TagNames:    interestTags,
		NewestFirst: true,
	})
	if err != nil {
		return nil, fmt.Errorf("interests strategy: %w", err)
	}
	strategies = append(strategies, strategy{"interests", weights.Interests, byInterest})

	// favorites: tags drawn from bookmarked items.
	byFavorites, err := s.contentRepo.ListByTagNames(dbc, repos.TaggedQuery{
		TagNames:   favoriteTags,
		ExcludeIDs: completedIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("favorites strategy: %w", err)
	}
	strategies = append(strategies, strategy{"favorites", weights.Favorites, byFavorites})

	now := time.Now().UTC()
	scored := make(map[uuid.UUID]*scoredItem)
	order := 0
	for _, st := range strategies {
		for _, item := range st.items {
			if completed[item.ID] {
				continue
			}
			entry, ok := scored[item.ID]
			if !ok {
				entry = &scoredItem{item: item, order: order}
				order++
				scored[item.ID] = entry
			}
			entry.score += timeDecay(item.PublishedAt, now) * st.weight
			entry.matches++
		}
	}

	ranked := make([]*scoredItem, 0, len(scored))
	for _, entry := range scored {
		if entry.matches > 1 {
			entry.score *= crossStrategyBonus
		}
		ranked = append(ranked, entry)
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score > ranked[b].score
		}
		return ranked[a].order < ranked[b].order
	})

	if len(ranked) > maxRecommendations {
		ranked = ranked[:maxRecommendations]
	}
	out := make([]*domain.ContentItem, 0, len(ranked))
	for _, entry := range ranked {
		out = append(out, entry.item)
	}
	return out, nil
}

// timeDecay favors fresher content: full weight at zero age, ~0.95x per
// week of age.
func timeDecay(publishedAt, now time.Time) float64 {
	ageDays := now.Sub(publishedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Pow(0.95, ageDays/7)
}

// InterestSuggestions proposes tags the user engages with but has not
// declared: frequency-ranked tags across favorites and completed items,
// minus existing interests.
func (s *recommenderService) InterestSuggestions(ctx context.Context, userID uuid.UUID, maxSuggestions int) ([]string, error) {
	if maxSuggestions <= 0 {
		return []string{}, nil
	}
	dbc := dbctx.New(ctx)

	existing := make(map[string]bool)
	interests, err := s.interestRepo.ListByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	for _, i := range interests {
		existing[i.TagName] = true
	}

	freq := make(map[string]int)
	var firstSeen []string

	bump := func(name string) {
		if existing[name] {
			return
		}
		if _, ok := freq[name]; !ok {
			firstSeen = append(firstSeen, name)
		}
		freq[name]++
	}

	favorites, err := s.favoriteRepo.ListByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	for _, fav := range favorites {
		if fav.Content == nil {
			continue
		}
		for _, tag := range fav.Content.Tags {
			bump(tag.Name)
		}
	}

	completed, err := s.progressRepo.ListCompletedByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	for _, p := range completed {
		if p.Content == nil {
			continue
		}
		for _, tag := range p.Content.Tags {
			bump(tag.Name)
		}
	}

	sort.SliceStable(firstSeen, func(a, b int) bool {
		return freq[firstSeen[a]] > freq[firstSeen[b]]
	})
	if len(firstSeen) > maxSuggestions {
		firstSeen = firstSeen[:maxSuggestions]
	}
	return firstSeen, nil
}

// completedItemTags collects the distinct tag names across everything the
// user finished.
func (s *recommenderService) completedItemTags(dbc dbctx.Context, userID uuid.UUID) ([]string, error) {
	completed, err := s.progressRepo.ListCompletedByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	return distinctTags(func(yield func(string)) {
		for _, p := range completed {
			if p.Content == nil {
				continue
			}
			for _, tag := range p.Content.Tags {
				yield(tag.Name)
			}
		}
	}), nil
}

func (s *recommenderService) favoriteItemTags(dbc dbctx.Context, userID uuid.UUID) ([]string, error) {
	favorites, err := s.favoriteRepo.ListByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	return distinctTags(func(yield func(string)) {
		for _, fav := range favorites {
			if fav.Content == nil {
				continue
			}
			for _, tag := range fav.Content.Tags {
				yield(tag.Name)
			}
		}
	}), nil
}

func (s *recommenderService) interestTagNames(dbc dbctx.Context, userID uuid.UUID) ([]string, error) {
	interests, err := s.interestRepo.ListByUser(dbc, userID)
	if err != nil {
		return nil, err
	}
	return distinctTags(func(yield func(string)) {
		for _, i := range interests {
			yield(i.TagName)
		}
	}), nil
}

func distinctTags(walk func(yield func(string))) []string {
	seen := make(map[string]bool)
	var out []string
	walk(func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	})
	return out
}
