package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/learnloop/learnloop-backend/internal/domain"
	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
	"github.com/learnloop/learnloop-backend/internal/platform/envutil"
)

// Service owns the GORM handle. The default store is a local sqlite file;
// DATABASE_DRIVER=postgres switches to a shared server.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(log *logger.Logger) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	driver := envutil.String("DATABASE_DRIVER", "sqlite")
	var (
		handle *gorm.DB
		err    error
	)
	cfg := &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	}

	switch driver {
	case "postgres":
		host := envutil.String("POSTGRES_HOST", "localhost")
		port := envutil.String("POSTGRES_PORT", "5432")
		user := envutil.String("POSTGRES_USER", "postgres")
		password := envutil.String("POSTGRES_PASSWORD", "")
		name := envutil.String("POSTGRES_NAME", "learnloop")
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
		serviceLog.Info("Connecting to Postgres", "host", host, "db", name)
		handle, err = gorm.Open(postgres.Open(dsn), cfg)
	case "sqlite":
		path := envutil.String("SQLITE_PATH", "learnloop.db")
		serviceLog.Info("Opening sqlite database", "path", path)
		handle, err = gorm.Open(sqlite.Open(path), cfg)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", driver)
	}
	if err != nil {
		serviceLog.Error("Failed to open database", "driver", driver, "error", err)
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &Service{db: handle, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

// AutoMigrateAll creates or extends every table the engine reads or writes.
func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables")
	if err := s.db.AutoMigrate(
		&domain.User{},
		&domain.UserSettings{},
		&domain.Tag{},
		&domain.ContentItem{},
		&domain.UserInterest{},
		&domain.UserProgress{},
		&domain.FavoriteContent{},
		&domain.SearchQuery{},
	); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
