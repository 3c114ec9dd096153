package repos

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

type UserSettingsRepo interface {
	Create(dbc dbctx.Context, row *domain.UserSettings) error
	Save(dbc dbctx.Context, row *domain.UserSettings) error
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*domain.UserSettings, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	SetLastContentUpdate(dbc dbctx.Context, userID uuid.UUID, at time.Time) error
	SetLastDigestSent(dbc dbctx.Context, userID uuid.UUID, at time.Time) error
	ListAutoUpdateEnabled(dbc dbctx.Context) ([]*domain.UserSettings, error)
	ListMissedDigestCandidates(dbc dbctx.Context) ([]*domain.UserSettings, error)
}

type userSettingsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserSettingsRepo(db *gorm.DB, baseLog *logger.Logger) UserSettingsRepo {
	return &userSettingsRepo{db: db, log: baseLog.With("repo", "UserSettingsRepo")}
}

func (r *userSettingsRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *userSettingsRepo) Create(dbc dbctx.Context, row *domain.UserSettings) error {
	if row == nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (r *userSettingsRepo) Save(dbc dbctx.Context, row *domain.UserSettings) error {
	if row == nil || row.ID == uuid.Nil {
		return nil
	}
	row.UpdatedAt = time.Now().UTC()
	return r.dbx(dbc).WithContext(dbc.Ctx).Save(row).Error
}

func (r *userSettingsRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*domain.UserSettings, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var row domain.UserSettings
	err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userSettingsRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now().UTC()
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&domain.UserSettings{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *userSettingsRepo) SetLastContentUpdate(dbc dbctx.Context, userID uuid.UUID, at time.Time) error {
	if userID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&domain.UserSettings{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"last_content_update": at,
			"updated_at":          time.Now().UTC(),
		}).Error
}

func (r *userSettingsRepo) SetLastDigestSent(dbc dbctx.Context, userID uuid.UUID, at time.Time) error {
	if userID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&domain.UserSettings{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"last_digest_sent": at,
			"updated_at":       time.Now().UTC(),
		}).Error
}

func (r *userSettingsRepo) ListAutoUpdateEnabled(dbc dbctx.Context) ([]*domain.UserSettings, error) {
	out := []*domain.UserSettings{}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("auto_update_content = ?", true).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userSettingsRepo) ListMissedDigestCandidates(dbc dbctx.Context) ([]*domain.UserSettings, error) {
	out := []*domain.UserSettings{}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("digest_enabled = ? AND missed_digest_send = ?", true, true).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
