package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

type UserProgressRepo interface {
	Create(dbc dbctx.Context, row *domain.UserProgress) error
	Save(dbc dbctx.Context, row *domain.UserProgress) error
	GetByUserAndContent(dbc dbctx.Context, userID, contentID uuid.UUID) (*domain.UserProgress, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.UserProgress, error)
	ListCompletedByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.UserProgress, error)
	CompletedContentIDs(dbc dbctx.Context, userID uuid.UUID) ([]uuid.UUID, error)
	CountCompletedByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type userProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProgressRepo(db *gorm.DB, baseLog *logger.Logger) UserProgressRepo {
	return &userProgressRepo{db: db, log: baseLog.With("repo", "UserProgressRepo")}
}

func (r *userProgressRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *userProgressRepo) Create(dbc dbctx.Context, row *domain.UserProgress) error {
	if row == nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (r *userProgressRepo) Save(dbc dbctx.Context, row *domain.UserProgress) error {
	if row == nil || row.ID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Save(row).Error
}

func (r *userProgressRepo) GetByUserAndContent(dbc dbctx.Context, userID, contentID uuid.UUID) (*domain.UserProgress, error) {
	if userID == uuid.Nil || contentID == uuid.Nil {
		return nil, nil
	}
	var row domain.UserProgress
	err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userProgressRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.UserProgress, error) {
	out := []*domain.UserProgress{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Preload("Content").
		Preload("Content.Tags").
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userProgressRepo) ListCompletedByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.UserProgress, error) {
	out := []*domain.UserProgress{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Preload("Content").
		Preload("Content.Tags").
		Where("user_id = ? AND completed = ?", userID, true).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userProgressRepo) CompletedContentIDs(dbc dbctx.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&domain.UserProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Pluck("content_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userProgressRepo) CountCompletedByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if userID == uuid.Nil {
		return 0, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&domain.UserProgress{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
