package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/learnloop/learnloop-backend/internal/data/repos"
	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/dbctx"
	apperrors "github.com/learnloop/learnloop-backend/internal/pkg/errors"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
)

// ProgressService tracks completion and bookmarks. Favoriting doubles as an
// implicit interest signal.
type ProgressService interface {
	MarkCompleted(ctx context.Context, userID, contentID uuid.UUID, rating int, notes string) error
	ListProgress(ctx context.Context, userID uuid.UUID) ([]*domain.UserProgress, error)
	AddFavorite(ctx context.Context, userID, contentID uuid.UUID, notes string) error
	RemoveFavorite(ctx context.Context, userID, contentID uuid.UUID) error
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]*domain.FavoriteContent, error)
}

type progressService struct {
	db           *gorm.DB
	log          *logger.Logger
	contentRepo  repos.ContentItemRepo
	progressRepo repos.UserProgressRepo
	favoriteRepo repos.FavoriteContentRepo
	interestSvc  InterestService
}

func NewProgressService(
	db *gorm.DB,
	log *logger.Logger,
	contentRepo repos.ContentItemRepo,
	progressRepo repos.UserProgressRepo,
	favoriteRepo repos.FavoriteContentRepo,
	interestSvc InterestService,
) ProgressService {
	return &progressService{
		db:           db,
		log:          log.With("service", "ProgressService"),
		contentRepo:  contentRepo,
		progressRepo: progressRepo,
		favoriteRepo: favoriteRepo,
		interestSvc:  interestSvc,
	}
}

// MarkCompleted records completion for one item, creating the progress row
// on first touch. Rating is clamped to 1..5; zero means unrated.
func (s *progressService) MarkCompleted(ctx context.Context, userID, contentID uuid.UUID, rating int, notes string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		item, err := s.contentRepo.GetByID(dbc, contentID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("content %s: %w", contentID, apperrors.ErrNotFound)
		}

		progress, err := s.progressRepo.GetByUserAndContent(dbc, userID, contentID)
		if err != nil {
			return err
		}
		if progress == nil {
			progress = domain.NewUserProgress(userID, contentID)
			if err := s.progressRepo.Create(dbc, progress); err != nil {
				return err
			}
		}
		progress.MarkCompleted(rating, notes)
		return s.progressRepo.Save(dbc, progress)
	})
}

func (s *progressService) ListProgress(ctx context.Context, userID uuid.UUID) ([]*domain.UserProgress, error) {
	return s.progressRepo.ListByUser(dbctx.New(ctx), userID)
}

// AddFavorite bookmarks an item. Already-favorited is a no-op. The item's
// tags reinforce the user's interests.
func (s *progressService) AddFavorite(ctx context.Context, userID, contentID uuid.UUID, notes string) error {
	var item *domain.ContentItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)

		var err error
		item, err = s.contentRepo.GetByID(dbc, contentID)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("content %s: %w", contentID, apperrors.ErrNotFound)
		}

		existing, err := s.favoriteRepo.GetByUserAndContent(dbc, userID, contentID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
		return s.favoriteRepo.Create(dbc, domain.NewFavoriteContent(userID, contentID, notes))
	})
	if err != nil {
		return err
	}

	if err := s.interestSvc.AddFromContent(ctx, userID, []*domain.ContentItem{item}); err != nil {
		s.log.Warn("Could not reinforce interests from favorite", "user_id", userID, "error", err)
	}
	return nil
}

func (s *progressService) RemoveFavorite(ctx context.Context, userID, contentID uuid.UUID) error {
	return s.favoriteRepo.DeleteByUserAndContent(dbctx.New(ctx), userID, contentID)
}

func (s *progressService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]*domain.FavoriteContent, error) {
	return s.favoriteRepo.ListByUser(dbctx.New(ctx), userID)
}
