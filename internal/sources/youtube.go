package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

// YouTubeSource fetches videos through the YouTube Data API v3. The service
// client is built lazily on first use so a missing key only fails fetches,
// not process startup.
type YouTubeSource struct {
	apiKey string
	log    *logger.Logger

	once    sync.Once
	svc     *youtube.Service
	initErr error
}

func NewYouTubeSource(apiKey string, baseLog *logger.Logger) *YouTubeSource {
	return &YouTubeSource{
		apiKey: apiKey,
		log:    baseLog.With("source", "youtube"),
	}
}

func (s *YouTubeSource) Name() string     { return "YouTube" }
func (s *YouTubeSource) Platform() string { return domain.PlatformYouTube }

func (s *YouTubeSource) service(ctx context.Context) (*youtube.Service, error) {
	s.once.Do(func() {
		if s.apiKey == "" {
			s.initErr = fmt.Errorf("youtube: api key not configured")
			return
		}
		s.svc, s.initErr = youtube.NewService(ctx, option.WithAPIKey(s.apiKey))
	})
	return s.svc, s.initErr
}

// FetchContent searches for videos matching any of the keywords and resolves
// their durations with a follow-up videos.list call.
func (s *YouTubeSource) FetchContent(ctx context.Context, keywords []string, maxResults int) ([]*domain.ContentItem, error) {
	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}
	if len(keywords) == 0 || maxResults <= 0 {
		return []*domain.ContentItem{}, nil
	}

	query := strings.Join(keywords, " OR ")
	searchResp, err := svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		Order("relevance").
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search %q: %w", query, err)
	}

	var ids []string
	for _, r := range searchResp.Items {
		if r.Id != nil && r.Id.VideoId != "" {
			ids = append(ids, r.Id.VideoId)
		}
	}
	if len(ids) == 0 {
		return []*domain.ContentItem{}, nil
	}

	videosResp, err := svc.Videos.List([]string{"snippet", "contentDetails"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube videos.list: %w", err)
	}

	items := make([]*domain.ContentItem, 0, len(videosResp.Items))
	for _, v := range videosResp.Items {
		if v.Snippet == nil {
			continue
		}
		item := domain.NewContentItem(v.Id, domain.PlatformYouTube, v.Snippet.Title,
			"https://www.youtube.com/watch?v="+v.Id)
		item.Description = v.Snippet.Description
		if v.ContentDetails != nil {
			item.DurationMinutes = parseISODuration(v.ContentDetails.Duration)
		}
		if t, perr := time.Parse(time.RFC3339, v.Snippet.PublishedAt); perr == nil {
			item.PublishedAt = t
		}
		if d := difficultyFromText(v.Snippet.Title, v.Snippet.Description); d != "" {
			item.Difficulty = d
		}
		for _, kw := range matchKeywords(keywords, v.Snippet.Title+" "+v.Snippet.Description) {
			item.Tags = append(item.Tags, &domain.Tag{Name: kw})
		}
		items = append(items, item)
	}
	s.log.Debug("fetched videos", "query", query, "count", len(items))
	return items, nil
}

// FetchFullText returns the video's full description. YouTube has no
// transcript endpoint on the data API, so the description is the best
// available text body.
func (s *YouTubeSource) FetchFullText(ctx context.Context, rawURL string) string {
	svc, err := s.service(ctx)
	if err != nil {
		return ""
	}
	id := videoIDFromURL(rawURL)
	if id == "" {
		return ""
	}
	resp, err := svc.Videos.List([]string{"snippet"}).Id(id).Context(ctx).Do()
	if err != nil || len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		s.log.Debug("full text fetch failed", "url", rawURL, "err", err)
		return ""
	}
	return resp.Items[0].Snippet.Description
}

func videoIDFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	if id := u.Query().Get("v"); id != "" {
		return id
	}
	// youtu.be short links carry the id as the path.
	if u.Host == "youtu.be" {
		return strings.TrimPrefix(u.Path, "/")
	}
	return ""
}

var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// parseISODuration converts an ISO-8601 duration like "PT1H23M45S" to whole
// minutes, rounding up when more than half a minute of seconds remains.
func parseISODuration(raw string) int {
	m := isoDurationRe.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	secs, _ := strconv.Atoi(m[3])
	total := hours*60 + mins
	if secs > 30 {
		total++
	}
	return total
}
