package sources

import (
	"context"

	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

// CourseraSource is gated on API credentials. The public catalog API requires
// a partner key, so without one every fetch returns an empty batch instead of
// an error and the aggregation layer simply sees no Coursera results.
type CourseraSource struct {
	apiKey string
	log    *logger.Logger
}

func NewCourseraSource(apiKey string, baseLog *logger.Logger) *CourseraSource {
	return &CourseraSource{
		apiKey: apiKey,
		log:    baseLog.With("source", "coursera"),
	}
}

func (s *CourseraSource) Name() string     { return "Coursera" }
func (s *CourseraSource) Platform() string { return domain.PlatformCoursera }

func (s *CourseraSource) available() bool { return s.apiKey != "" }

func (s *CourseraSource) FetchContent(ctx context.Context, keywords []string, maxResults int) ([]*domain.ContentItem, error) {
	if !s.available() {
		s.log.Debug("skipping fetch, api key not configured")
		return []*domain.ContentItem{}, nil
	}
	// TODO: wire the partner catalog API once credentials are provisioned.
	return []*domain.ContentItem{}, nil
}

func (s *CourseraSource) FetchFullText(ctx context.Context, url string) string {
	return ""
}
