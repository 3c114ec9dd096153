package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

type UserInterestRepo interface {
	Create(dbc dbctx.Context, row *domain.UserInterest) error
	Save(dbc dbctx.Context, row *domain.UserInterest) error
	GetByUserAndTag(dbc dbctx.Context, userID uuid.UUID, tagName string) (*domain.UserInterest, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.UserInterest, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
	DeleteByUserAndTag(dbc dbctx.Context, userID uuid.UUID, tagName string) error
}

type userInterestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserInterestRepo(db *gorm.DB, baseLog *logger.Logger) UserInterestRepo {
	return &userInterestRepo{db: db, log: baseLog.With("repo", "UserInterestRepo")}
}

func (r *userInterestRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *userInterestRepo) Create(dbc dbctx.Context, row *domain.UserInterest) error {
	if row == nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (r *userInterestRepo) Save(dbc dbctx.Context, row *domain.UserInterest) error {
	if row == nil || row.ID == uuid.Nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Save(row).Error
}

func (r *userInterestRepo) GetByUserAndTag(dbc dbctx.Context, userID uuid.UUID, tagName string) (*domain.UserInterest, error) {
	if userID == uuid.Nil || tagName == "" {
		return nil, nil
	}
	var row domain.UserInterest
	err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND tag_name = ?", userID, tagName).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByUser returns interests in insertion order so that adjusted-score
// ties keep their original relative order after a stable sort.
func (r *userInterestRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*domain.UserInterest, error) {
	out := []*domain.UserInterest{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userInterestRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if userID == uuid.Nil {
		return 0, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&domain.UserInterest{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userInterestRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Delete(&domain.UserInterest{}).Error
}

func (r *userInterestRepo) DeleteByUserAndTag(dbc dbctx.Context, userID uuid.UUID, tagName string) error {
	if userID == uuid.Nil || tagName == "" {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ? AND tag_name = ?", userID, tagName).
		Delete(&domain.UserInterest{}).Error
}
