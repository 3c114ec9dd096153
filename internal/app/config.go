package app

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/learnloop/learnloop-backend/internal/pkg/logger"
	"github.com/learnloop/learnloop-backend/internal/platform/envutil"
)

// Config is built once at startup and passed into services; nothing reads
// configuration globals after main.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`

	JWTSecretKey   string        `yaml:"jwt_secret_key"`
	AccessTokenTTL time.Duration `yaml:"-"`

	YouTubeAPIKey  string `yaml:"youtube_api_key"`
	CourseraAPIKey string `yaml:"coursera_api_key"`

	YouTubeEnabled  bool `yaml:"youtube_enabled"`
	HabrEnabled     bool `yaml:"habr_enabled"`
	CourseraEnabled bool `yaml:"coursera_enabled"`

	MaxPerSource       int `yaml:"max_per_source"`
	SearchMaxResults   int `yaml:"search_max_results"`
	DigestMaxItems     int `yaml:"digest_max_items"`
	MaxRecommendations int `yaml:"max_recommendations"`

	// MaxInterestKeywords bounds every outbound keyword list; the tightest
	// source API accepts ~100 keywords per query.
	MaxInterestKeywords int `yaml:"max_interest_keywords"`

	ContentUpdateIntervalHours int    `yaml:"content_update_interval_hours"`
	SchedulerSpec              string `yaml:"scheduler_spec"`
}

func defaults() Config {
	return Config{
		HTTPAddr:                   ":8080",
		JWTSecretKey:               "defaultsecret",
		AccessTokenTTL:             time.Hour,
		YouTubeEnabled:             true,
		HabrEnabled:                true,
		CourseraEnabled:            true,
		MaxPerSource:               50,
		SearchMaxResults:           50,
		DigestMaxItems:             15,
		MaxRecommendations:         5,
		MaxInterestKeywords:        95,
		ContentUpdateIntervalHours: 24,
		SchedulerSpec:              "@every 30m",
	}
}

// LoadConfig layers an optional YAML file under environment overrides.
func LoadConfig(log *logger.Logger) Config {
	cfg := defaults()

	path := envutil.String("CONFIG_FILE", "config.yaml")
	if raw, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Warn("Could not parse config file, continuing with defaults", "path", path, "error", err)
			cfg = defaults()
		} else {
			log.Info("Loaded config file", "path", path)
		}
	}

	cfg.HTTPAddr = envutil.String("HTTP_ADDR", cfg.HTTPAddr)
	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.AccessTokenTTL = time.Duration(envutil.Int("ACCESS_TOKEN_TTL", int(cfg.AccessTokenTTL.Seconds()))) * time.Second
	cfg.YouTubeAPIKey = envutil.String("YOUTUBE_API_KEY", cfg.YouTubeAPIKey)
	cfg.CourseraAPIKey = envutil.String("COURSERA_API_KEY", cfg.CourseraAPIKey)
	cfg.YouTubeEnabled = envutil.Bool("YOUTUBE_ENABLED", cfg.YouTubeEnabled)
	cfg.HabrEnabled = envutil.Bool("HABR_ENABLED", cfg.HabrEnabled)
	cfg.CourseraEnabled = envutil.Bool("COURSERA_ENABLED", cfg.CourseraEnabled)
	cfg.MaxPerSource = envutil.Int("MAX_PER_SOURCE", cfg.MaxPerSource)
	cfg.SearchMaxResults = envutil.Int("SEARCH_MAX_RESULTS", cfg.SearchMaxResults)
	cfg.DigestMaxItems = envutil.Int("DIGEST_MAX_ITEMS", cfg.DigestMaxItems)
	cfg.MaxRecommendations = envutil.Int("MAX_RECOMMENDATIONS", cfg.MaxRecommendations)
	cfg.MaxInterestKeywords = envutil.Int("MAX_INTEREST_KEYWORDS", cfg.MaxInterestKeywords)
	cfg.ContentUpdateIntervalHours = envutil.Int("CONTENT_UPDATE_INTERVAL_HOURS", cfg.ContentUpdateIntervalHours)
	cfg.SchedulerSpec = envutil.String("SCHEDULER_SPEC", cfg.SchedulerSpec)

	return cfg
}
