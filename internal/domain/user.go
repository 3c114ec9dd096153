package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Password  string    `gorm:"column:password;not null" json:"-"`
	FirstName string    `gorm:"column:first_name" json:"first_name"`
	LastName  string    `gorm:"column:last_name" json:"last_name"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "users" }

// UserSettings holds per-user digest and refresh scheduling configuration.
// The scheduler due-check is the only consumer of the update fields.
type UserSettings struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	EmailDigest       string     `gorm:"column:email_digest;not null" json:"email_digest"`
	DigestHour        int        `gorm:"column:digest_hour;default:9" json:"digest_hour"`
	DigestEnabled     bool       `gorm:"column:digest_enabled;default:true" json:"digest_enabled"`
	MissedDigestSend  bool       `gorm:"column:missed_digest_send;default:true" json:"missed_digest_send"`
	AutoUpdateContent bool       `gorm:"column:auto_update_content;default:true" json:"auto_update_content"`
	LastContentUpdate *time.Time `gorm:"column:last_content_update" json:"last_content_update,omitempty"`
	LastDigestSent    *time.Time `gorm:"column:last_digest_sent" json:"last_digest_sent,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserSettings) TableName() string { return "user_settings" }

// NewUserSettings returns the signup defaults: digest at 09:00, digest
// delivery and auto-update enabled.
func NewUserSettings(userID uuid.UUID, emailDigest string) *UserSettings {
	now := time.Now().UTC()
	return &UserSettings{
		ID:                uuid.New(),
		UserID:            userID,
		EmailDigest:       emailDigest,
		DigestHour:        9,
		DigestEnabled:     true,
		MissedDigestSend:  true,
		AutoUpdateContent: true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
