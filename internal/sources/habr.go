package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

const (
	habrSearchFeed  = "https://habr.com/ru/rss/search/?q=%s&target_type=posts&order=relevance"
	habrGeneralFeed = "https://habr.com/ru/rss/all/all/"
)

// HabrSource reads Habr articles over RSS. Search happens in three levels of
// decreasing precision: a combined OR query, then per-keyword queries when the
// first level comes up short, then the general firehose feed filtered locally.
type HabrSource struct {
	parser *gofeed.Parser
	client *http.Client
	log    *logger.Logger
}

func NewHabrSource(baseLog *logger.Logger) *HabrSource {
	return &HabrSource{
		parser: gofeed.NewParser(),
		client: &http.Client{Timeout: 15 * time.Second},
		log:    baseLog.With("source", "habr"),
	}
}

func (s *HabrSource) Name() string     { return "Habr" }
func (s *HabrSource) Platform() string { return domain.PlatformHabr }

func (s *HabrSource) FetchContent(ctx context.Context, keywords []string, maxResults int) ([]*domain.ContentItem, error) {
	if len(keywords) == 0 || maxResults <= 0 {
		return []*domain.ContentItem{}, nil
	}

	seen := make(map[string]bool)
	var items []*domain.ContentItem

	// Level 1: single combined query.
	combined := url.QueryEscape(strings.Join(keywords, " OR "))
	fetched, err := s.fetchFeed(ctx, fmt.Sprintf(habrSearchFeed, combined))
	if err != nil {
		s.log.Warn("combined search feed failed", "err", err)
	}
	items = s.collect(items, fetched, keywords, seen, maxResults)

	// Level 2: one query per keyword when the combined search came up short.
	if len(items) < maxResults/2 {
		for _, kw := range keywords {
			if len(items) >= maxResults {
				break
			}
			fetched, err := s.fetchFeed(ctx, fmt.Sprintf(habrSearchFeed, url.QueryEscape(kw)))
			if err != nil {
				s.log.Debug("keyword search feed failed", "keyword", kw, "err", err)
				continue
			}
			items = s.collect(items, fetched, keywords, seen, maxResults)
		}
	}

	// Level 3: general feed, keeping only entries that mention a keyword.
	if len(items) == 0 {
		fetched, err := s.fetchFeed(ctx, habrGeneralFeed)
		if err != nil {
			return nil, fmt.Errorf("habr general feed: %w", err)
		}
		var filtered []*gofeed.Item
		for _, e := range fetched {
			if len(matchKeywords(keywords, e.Title+" "+e.Description)) > 0 {
				filtered = append(filtered, e)
			}
		}
		items = s.collect(items, filtered, keywords, seen, maxResults)
	}

	s.log.Debug("fetched articles", "keywords", len(keywords), "count", len(items))
	return items, nil
}

func (s *HabrSource) fetchFeed(ctx context.Context, feedURL string) ([]*gofeed.Item, error) {
	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}
	return feed.Items, nil
}

func (s *HabrSource) collect(items []*domain.ContentItem, entries []*gofeed.Item, keywords []string, seen map[string]bool, maxResults int) []*domain.ContentItem {
	for _, e := range entries {
		if len(items) >= maxResults {
			break
		}
		item := s.processEntry(e, keywords)
		if item == nil || seen[item.SourceID] {
			continue
		}
		seen[item.SourceID] = true
		items = append(items, item)
	}
	return items
}

func (s *HabrSource) processEntry(e *gofeed.Item, keywords []string) *domain.ContentItem {
	if e == nil || e.Link == "" {
		return nil
	}
	sourceID := e.GUID
	if sourceID == "" {
		sourceID = e.Link
	}

	desc := stripHTML(e.Description)
	item := domain.NewContentItem(sourceID, domain.PlatformHabr, e.Title, e.Link)
	item.Description = desc
	item.DurationMinutes = 10
	if e.PublishedParsed != nil {
		item.PublishedAt = *e.PublishedParsed
	}
	if d := difficultyFromText(e.Title, desc); d != "" {
		item.Difficulty = d
	}

	// RSS categories are the author's hubs and tags; fall back to the
	// keywords that surfaced the entry when none are present.
	tagNames := e.Categories
	if len(tagNames) == 0 {
		tagNames = matchKeywords(keywords, e.Title+" "+desc)
	}
	for _, n := range tagNames {
		item.Tags = append(item.Tags, &domain.Tag{Name: n})
	}
	return item
}

// FetchFullText downloads the article page and extracts the body text.
// Returns "" on any failure so ingestion can fall back to the description.
func (s *HabrSource) FetchFullText(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Debug("full text fetch failed", "url", rawURL, "err", err)
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}
	body := doc.Find("div.tm-article-body").First()
	if body.Length() == 0 {
		body = doc.Find("article").First()
	}
	return strings.TrimSpace(body.Text())
}

func stripHTML(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}
