package repos

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

type TagRepo interface {
	Create(dbc dbctx.Context, rows []*domain.Tag) ([]*domain.Tag, error)
	GetByName(dbc dbctx.Context, name string) (*domain.Tag, error)
	GetByNames(dbc dbctx.Context, names []string) ([]*domain.Tag, error)
	GetOrCreate(dbc dbctx.Context, name string) (*domain.Tag, error)
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return &tagRepo{db: db, log: baseLog.With("repo", "TagRepo")}
}

func (r *tagRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *tagRepo) Create(dbc dbctx.Context, rows []*domain.Tag) ([]*domain.Tag, error) {
	if len(rows) == 0 {
		return []*domain.Tag{}, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *tagRepo) GetByName(dbc dbctx.Context, name string) (*domain.Tag, error) {
	if name == "" {
		return nil, nil
	}
	var row domain.Tag
	err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("name = ?", name).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *tagRepo) GetByNames(dbc dbctx.Context, names []string) ([]*domain.Tag, error) {
	out := []*domain.Tag{}
	if len(names) == 0 {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("name IN ?", names).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrCreate expects name to be pre-normalized.
func (r *tagRepo) GetOrCreate(dbc dbctx.Context, name string) (*domain.Tag, error) {
	existing, err := r.GetByName(dbc, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	row := &domain.Tag{ID: uuid.New(), Name: name}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}
