package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Platform identifies the external source a content item came from.
const (
	PlatformYouTube  = "youtube"
	PlatformHabr     = "habr"
	PlatformCoursera = "coursera"
)

// Difficulty levels for content.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
	DifficultyExpert       = "expert"
)

// ContentItem is one piece of educational content from any source. The
// (source_id, platform) pair is the sole dedup key across ingestion runs:
// a previously seen item is never re-inserted, only its updated_at bumped.
type ContentItem struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SourceID string    `gorm:"column:source_id;not null;index:idx_source_platform,unique" json:"source_id"`
	Platform string    `gorm:"column:platform;not null;index:idx_source_platform,unique" json:"platform"`

	Title           string `gorm:"column:title;not null" json:"title"`
	Description     string `gorm:"column:description;type:text" json:"description"`
	FullText        string `gorm:"column:full_text;type:text" json:"full_text,omitempty"`
	URL             string `gorm:"column:url;not null" json:"url"`
	Difficulty      string `gorm:"column:difficulty;default:'intermediate'" json:"difficulty"`
	DurationMinutes int    `gorm:"column:duration_minutes" json:"duration_minutes,omitempty"`

	PublishedAt time.Time      `gorm:"column:published_at;index" json:"published_at"`
	AddedAt     time.Time      `gorm:"column:added_at;not null" json:"added_at"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;not null" json:"updated_at"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	Tags []*Tag `gorm:"many2many:content_tags" json:"tags,omitempty"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ContentItem) TableName() string { return "content_items" }

// EstimatedCompletionMinutes falls back to a per-platform default when the
// source did not report a duration.
func (c *ContentItem) EstimatedCompletionMinutes() int {
	if c.DurationMinutes > 0 {
		return c.DurationMinutes
	}
	switch c.Platform {
	case PlatformYouTube:
		return 15
	case PlatformHabr:
		return 10
	case PlatformCoursera:
		return 120
	}
	return 30
}

// NewContentItem builds an item with generated ID and ingestion timestamps.
func NewContentItem(sourceID, platform, title, url string) *ContentItem {
	now := time.Now().UTC()
	return &ContentItem{
		ID:          uuid.New(),
		SourceID:    sourceID,
		Platform:    platform,
		Title:       title,
		URL:         url,
		Difficulty:  DifficultyIntermediate,
		PublishedAt: now,
		AddedAt:     now,
		UpdatedAt:   now,
	}
}

// Tag is a canonical topic label shared by content items and user
// interests. Name equality, not row identity, is the join key.
type Tag struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description string    `gorm:"column:description" json:"description,omitempty"`

	ContentItems []*ContentItem `gorm:"many2many:content_tags" json:"content_items,omitempty"`
}

func (Tag) TableName() string { return "tags" }
