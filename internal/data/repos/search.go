package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

type SearchQueryRepo interface {
	Create(dbc dbctx.Context, row *domain.SearchQuery) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.SearchQuery, error)
}

type searchQueryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSearchQueryRepo(db *gorm.DB, baseLog *logger.Logger) SearchQueryRepo {
	return &searchQueryRepo{db: db, log: baseLog.With("repo", "SearchQueryRepo")}
}

func (r *searchQueryRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *searchQueryRepo) Create(dbc dbctx.Context, row *domain.SearchQuery) error {
	if row == nil {
		return nil
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error
}

func (r *searchQueryRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*domain.SearchQuery, error) {
	out := []*domain.SearchQuery{}
	if userID == uuid.Nil {
		return out, nil
	}
	q := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
