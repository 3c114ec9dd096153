package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// MaxInterestPriority is the soft cap reinforcement never exceeds.
const MaxInterestPriority = 10

// DefaultInterestPriority is assigned to interests created explicitly or
// implicitly from saved content.
const DefaultInterestPriority = 5

// UserInterest is a user's weighted, decaying affinity for one tag.
// At most one row exists per (user_id, tag_name).
type UserInterest struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_user_tag,unique" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	TagName  string    `gorm:"column:tag_name;not null;index:idx_user_tag,unique" json:"tag_name"`
	Priority int       `gorm:"column:priority;default:5" json:"priority"`
	LastUsed time.Time `gorm:"column:last_used;not null" json:"last_used"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (UserInterest) TableName() string { return "user_interests" }

// NewUserInterest expects tagName to be pre-normalized (normalization.Tag).
func NewUserInterest(userID uuid.UUID, tagName string, priority int) *UserInterest {
	now := time.Now().UTC()
	return &UserInterest{
		ID:        uuid.New(),
		UserID:    userID,
		TagName:   tagName,
		Priority:  priority,
		LastUsed:  now,
		CreatedAt: now,
	}
}

// MarkUsed refreshes the usage timestamp and bumps priority, capped.
func (i *UserInterest) MarkUsed(priorityIncrement int) {
	i.LastUsed = time.Now().UTC()
	i.Priority += priorityIncrement
	if i.Priority > MaxInterestPriority {
		i.Priority = MaxInterestPriority
	}
}

// AdjustedScore applies exponential decay to the priority: full weight when
// the interest was just used, ~0.9x after 30 unused days.
func (i *UserInterest) AdjustedScore(now time.Time) float64 {
	daysUnused := now.Sub(i.LastUsed).Hours() / 24
	if daysUnused < 0 {
		daysUnused = 0
	}
	return float64(i.Priority) * math.Pow(0.9, daysUnused/30)
}

// SearchQuery records a user's search for later interest analysis.
type SearchQuery struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	Query     string    `gorm:"column:query;not null" json:"query"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (SearchQuery) TableName() string { return "search_queries" }

func NewSearchQuery(userID uuid.UUID, query string) *SearchQuery {
	return &SearchQuery{
		ID:        uuid.New(),
		UserID:    userID,
		Query:     query,
		CreatedAt: time.Now().UTC(),
	}
}
