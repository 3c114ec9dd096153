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

type FavoriteContentRepo interface {
	Create(dbc dbctx.Context, row *domain.FavoriteContent) error
	GetByUserAndContent(dbc dbctx.Context, userID, contentID uuid.UUID) (*domain.FavoriteContent, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.FavoriteContent, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	CountAddedSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) (int64, error)
	DeleteByUserAndContent(dbc dbctx.Context, userID, contentID uuid.UUID) error
}

type favoriteContentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFavoriteContentRepo(db *gorm.DB, baseLog *logger.Logger) FavoriteContentRepo {
	return &favoriteContentRepo{db: db, log: baseLog.With("repo", "FavoriteContentRepo")}
}

func (r *favoriteContentRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *favoriteContentRepo) Create(dbc dbctx.Context, row *domain.FavoriteContent) error {
	if row == nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (r *favoriteContentRepo) GetByUserAndContent(dbc dbctx.Context, userID, contentID uuid.UUID) (*domain.FavoriteContent, error) {
	if userID == uuid.Nil || contentID == uuid.Nil {
		return nil, nil
	}
	var row domain.FavoriteContent
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

func (r *favoriteContentRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.FavoriteContent, error) {
	out := []*domain.FavoriteContent{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Preload("Content").
		Preload("Content.Tags").
		Where("user_id = ?", userID).
		Order("added_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *favoriteContentRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if userID == uuid.Nil {
		return 0, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&domain.FavoriteContent{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *favoriteContentRepo) CountAddedSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	if userID == uuid.Nil {
		return 0, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&domain.FavoriteContent{}).
		Where("user_id = ? AND added_at > ?", userID, since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *favoriteContentRepo) DeleteByUserAndContent(dbc dbctx.Context, userID, contentID uuid.UUID) error {
	if userID == uuid.Nil || contentID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND content_id = ?", userID, contentID).
		Delete(&domain.FavoriteContent{}).Error
}
