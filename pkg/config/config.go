package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App            AppConfig
	Server         ServerConfig
	Database       DatabaseConfig
	JWT            JWTConfig
	Redis          RedisConfig
	Recommendation RecommendationConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port         string
	AllowOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	Enabled       bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

// RecommendationConfig tunes the recommendation pipeline. Scoring weights are
// constants in business/recommendation and are not read from the environment.
type RecommendationConfig struct {
	ModelVersion    string
	FreshnessWindow time.Duration
	RequestTimeout  time.Duration
	QueryTimeout    time.Duration
	LockTTL         time.Duration
	LockWait        time.Duration
	ScoringWorkers  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	redisEnabled, err := strconv.ParseBool(getEnv("REDIS_ENABLED", "false"))
	if err != nil {
		return nil, errors.New("invalid REDIS_ENABLED value")
	}

	reco, err := loadRecommendation()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Property Hub API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			AllowOrigins: []string{"http://localhost:3000", "http://localhost:8080"},
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "property_hub"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			Enabled:       redisEnabled,
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		Recommendation: reco,
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

func loadRecommendation() (RecommendationConfig, error) {
	reco := RecommendationConfig{
		ModelVersion: getEnv("RECO_MODEL_VERSION", "heuristic-v1"),
	}

	durations := []struct {
		key  string
		def  string
		dest *time.Duration
	}{
		{"RECO_FRESHNESS_WINDOW", "1h", &reco.FreshnessWindow},
		{"RECO_REQUEST_TIMEOUT", "5s", &reco.RequestTimeout},
		{"RECO_QUERY_TIMEOUT", "2s", &reco.QueryTimeout},
		{"RECO_LOCK_TTL", "10s", &reco.LockTTL},
		{"RECO_LOCK_WAIT", "250ms", &reco.LockWait},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return RecommendationConfig{}, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if v <= 0 {
			return RecommendationConfig{}, fmt.Errorf("invalid %s: must be positive", d.key)
		}
		*d.dest = v
	}

	workers, err := strconv.Atoi(getEnv("RECO_SCORING_WORKERS", "4"))
	if err != nil || workers < 1 {
		return RecommendationConfig{}, errors.New("invalid RECO_SCORING_WORKERS")
	}
	reco.ScoringWorkers = workers

	return reco, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}
