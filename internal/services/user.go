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

// SettingsUpdate carries the mutable digest and refresh preferences; nil
// fields are left untouched.
type SettingsUpdate struct {
	EmailDigest       *string
	DigestHour        *int
	DigestEnabled     *bool
	MissedDigestSend  *bool
	AutoUpdateContent *bool
}

type UserService interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetSettings(ctx context.Context, userID uuid.UUID) (*domain.UserSettings, error)
	EnsureSettings(ctx context.Context, userID uuid.UUID) (*domain.UserSettings, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, update SettingsUpdate) (*domain.UserSettings, error)
}

type userService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     repos.UserRepo
	settingsRepo repos.UserSettingsRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, settingsRepo repos.UserSettingsRepo) UserService {
	return &userService{
		db:           db,
		log:          log.With("service", "UserService"),
		userRepo:     userRepo,
		settingsRepo: settingsRepo,
	}
}

func (s *userService) Get(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(dbctx.New(ctx), userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

func (s *userService) GetSettings(ctx context.Context, userID uuid.UUID) (*domain.UserSettings, error) {
	return s.settingsRepo.GetByUserID(dbctx.New(ctx), userID)
}

// EnsureSettings backfills a default settings row for accounts created
// before settings provisioning existed.
func (s *userService) EnsureSettings(ctx context.Context, userID uuid.UUID) (*domain.UserSettings, error) {
	var settings *domain.UserSettings
	err := s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.WithTx(ctx, tx)
		var err error
		settings, err = s.settingsRepo.GetByUserID(dbc, userID)
		if err != nil {
			return err
		}
		if settings != nil {
			return nil
		}
		user, err := s.userRepo.GetByID(dbc, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %s: %w", userID, apperrors.ErrNotFound)
		}
		settings = domain.NewUserSettings(userID, user.Email)
		return s.settingsRepo.Create(dbc, settings)
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *userService) UpdateSettings(ctx context.Context, userID uuid.UUID, update SettingsUpdate) (*domain.UserSettings, error) {
	if update.DigestHour != nil && (*update.DigestHour < 0 || *update.DigestHour > 23) {
		return nil, fmt.Errorf("digest hour must be 0..23: %w", apperrors.ErrInvalidArgument)
	}

	settings, err := s.EnsureSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.EmailDigest != nil {
		settings.EmailDigest = *update.EmailDigest
	}
	if update.DigestHour != nil {
		settings.DigestHour = *update.DigestHour
	}
	if update.DigestEnabled != nil {
		settings.DigestEnabled = *update.DigestEnabled
	}
	if update.MissedDigestSend != nil {
		settings.MissedDigestSend = *update.MissedDigestSend
	}
	if update.AutoUpdateContent != nil {
		settings.AutoUpdateContent = *update.AutoUpdateContent
	}

	if err := s.settingsRepo.Save(dbctx.New(ctx), settings); err != nil {
		return nil, err
	}
	return settings, nil
}
