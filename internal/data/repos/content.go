package repos

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

type ContentItemRepo interface {
	Create(dbc dbctx.Context, rows []*domain.ContentItem) ([]*domain.ContentItem, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ContentItem, error)
	GetBySourceAndPlatform(dbc dbctx.Context, sourceID, platform string) (*domain.ContentItem, error)
	TouchUpdatedAt(dbc dbctx.Context, id uuid.UUID) error

	ListNewest(dbc dbctx.Context, limit int) ([]*domain.ContentItem, error)
	ListByTagSubstrings(dbc dbctx.Context, keywords []string, limit int) ([]*domain.ContentItem, error)
	ListByTagNames(dbc dbctx.Context, q TaggedQuery) ([]*domain.ContentItem, error)
	Search(dbc dbctx.Context, keywords []string, limit int) ([]*domain.ContentItem, error)
	Count(dbc dbctx.Context) (int64, error)
}

// TaggedQuery selects items carrying any of the named tags, with the
// exclusions the recommendation strategies need.
type TaggedQuery struct {
	TagNames          []string
	ExcludeDifficulty string
	ExcludeIDs        []uuid.UUID
	NewestFirst       bool
	Limit             int
}

type contentItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentItemRepo(db *gorm.DB, baseLog *logger.Logger) ContentItemRepo {
	return &contentItemRepo{db: db, log: baseLog.With("repo", "ContentItemRepo")}
}

func (r *contentItemRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *contentItemRepo) Create(dbc dbctx.Context, rows []*domain.ContentItem) ([]*domain.ContentItem, error) {
	if len(rows) == 0 {
		return []*domain.ContentItem{}, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *contentItemRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ContentItem, error) {
	var row domain.ContentItem
	err := r.dbx(dbc).WithContext(dbc.Ctx).
		Preload("Tags").
		Where("id = ?", id).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *contentItemRepo) GetBySourceAndPlatform(dbc dbctx.Context, sourceID, platform string) (*domain.ContentItem, error) {
	if sourceID == "" || platform == "" {
		return nil, nil
	}
	var row domain.ContentItem
	err := r.dbx(dbc).WithContext(dbc.Ctx).
		Where("source_id = ? AND platform = ?", sourceID, platform).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *contentItemRepo) TouchUpdatedAt(dbc dbctx.Context, id uuid.UUID) error {
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&domain.ContentItem{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}

func (r *contentItemRepo) ListNewest(dbc dbctx.Context, limit int) ([]*domain.ContentItem, error) {
	out := []*domain.ContentItem{}
	if limit <= 0 {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Preload("Tags").
		Order("published_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByTagSubstrings matches items whose tag names contain any keyword,
// case-insensitively. An "programming" interest matches the tag
// "programming-languages"; this is the digest's relevance filter.
func (r *contentItemRepo) ListByTagSubstrings(dbc dbctx.Context, keywords []string, limit int) ([]*domain.ContentItem, error) {
	out := []*domain.ContentItem{}
	if len(keywords) == 0 {
		return out, nil
	}

	q := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&domain.ContentItem{}).
		Distinct("content_items.*").
		Joins("JOIN content_tags ON content_tags.content_item_id = content_items.id").
		Joins("JOIN tags ON tags.id = content_tags.tag_id")

	conds := make([]string, 0, len(keywords))
	args := make([]interface{}, 0, len(keywords))
	for _, kw := range keywords {
		conds = append(conds, "LOWER(tags.name) LIKE ?")
		args = append(args, "%"+strings.ToLower(kw)+"%")
	}
	q = q.Where(strings.Join(conds, " OR "), args...)

	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Preload("Tags").
		Order("published_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentItemRepo) ListByTagNames(dbc dbctx.Context, tq TaggedQuery) ([]*domain.ContentItem, error) {
	out := []*domain.ContentItem{}
	if len(tq.TagNames) == 0 {
		return out, nil
	}

	q := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&domain.ContentItem{}).
		Distinct("content_items.*").
		Joins("JOIN content_tags ON content_tags.content_item_id = content_items.id").
		Joins("JOIN tags ON tags.id = content_tags.tag_id").
		Where("tags.name IN ?", tq.TagNames)

	if tq.ExcludeDifficulty != "" {
		q = q.Where("content_items.difficulty <> ?", tq.ExcludeDifficulty)
	}
	if len(tq.ExcludeIDs) > 0 {
		q = q.Where("content_items.id NOT IN ?", tq.ExcludeIDs)
	}
	if tq.NewestFirst {
		q = q.Order("added_at DESC")
	}
	if tq.Limit > 0 {
		q = q.Limit(tq.Limit)
	}

	if err := q.Preload("Tags").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentItemRepo) Search(dbc dbctx.Context, keywords []string, limit int) ([]*domain.ContentItem, error) {
	out := []*domain.ContentItem{}
	if len(keywords) == 0 {
		return out, nil
	}

	q := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&domain.ContentItem{}).
		Distinct("content_items.*").
		Joins("LEFT JOIN content_tags ON content_tags.content_item_id = content_items.id").
		Joins("LEFT JOIN tags ON tags.id = content_tags.tag_id")

	conds := make([]string, 0, len(keywords))
	args := make([]interface{}, 0, 3*len(keywords))
	for _, kw := range keywords {
		pattern := "%" + strings.ToLower(kw) + "%"
		conds = append(conds, "(LOWER(content_items.title) LIKE ? OR LOWER(content_items.description) LIKE ? OR LOWER(tags.name) LIKE ?)")
		args = append(args, pattern, pattern, pattern)
	}
	q = q.Where(strings.Join(conds, " OR "), args...)

	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Preload("Tags").
		Order("published_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentItemRepo) Count(dbc dbctx.Context) (int64, error) {
	var count int64
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&domain.ContentItem{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
