package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserProgress tracks one user's completion state for one content item.
type UserProgress struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;index:idx_user_content,unique" json:"user_id"`
	User      *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ContentID uuid.UUID    `gorm:"type:uuid;not null;index:idx_user_content,unique" json:"content_id"`
	Content   *ContentItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContentID;references:ID" json:"content,omitempty"`

	Completed   bool       `gorm:"column:completed;default:false" json:"completed"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	Rating      int        `gorm:"column:rating" json:"rating,omitempty"`
	Notes       string     `gorm:"column:notes;type:text" json:"notes,omitempty"`
	StartedAt   time.Time  `gorm:"column:started_at;not null" json:"started_at"`
}

func (UserProgress) TableName() string { return "user_progress" }

func NewUserProgress(userID, contentID uuid.UUID) *UserProgress {
	return &UserProgress{
		ID:        uuid.New(),
		UserID:    userID,
		ContentID: contentID,
		StartedAt: time.Now().UTC(),
	}
}

// MarkCompleted sets the completion flag; rating is clamped to 1..5 and
// zero means "not rated".
func (p *UserProgress) MarkCompleted(rating int, notes string) {
	now := time.Now().UTC()
	p.Completed = true
	p.CompletedAt = &now
	if rating != 0 {
		if rating < 1 {
			rating = 1
		}
		if rating > 5 {
			rating = 5
		}
		p.Rating = rating
	}
	if notes != "" {
		p.Notes = notes
	}
}

// FavoriteContent is a user's bookmark of a content item.
type FavoriteContent struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID    `gorm:"type:uuid;not null;index:idx_user_favorite,unique" json:"user_id"`
	User      *User        `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	ContentID uuid.UUID    `gorm:"type:uuid;not null;index:idx_user_favorite,unique" json:"content_id"`
	Content   *ContentItem `gorm:"constraint:OnDelete:CASCADE;foreignKey:ContentID;references:ID" json:"content,omitempty"`

	AddedAt time.Time `gorm:"column:added_at;not null" json:"added_at"`
	Notes   string    `gorm:"column:notes;type:text" json:"notes,omitempty"`
}

func (FavoriteContent) TableName() string { return "favorite_content" }

func NewFavoriteContent(userID, contentID uuid.UUID, notes string) *FavoriteContent {
	return &FavoriteContent{
		ID:        uuid.New(),
		UserID:    userID,
		ContentID: contentID,
		AddedAt:   time.Now().UTC(),
		Notes:     notes,
	}
}
