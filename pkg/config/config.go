package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Cache      CacheConfig
	Assignment AssignmentConfig
	Settlement SettlementConfig
	Notify     NotifyConfig
	Reports    ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig tunes the Redis read-side cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// AssignmentConfig seeds the engine settings; persisted overrides win.
type AssignmentConfig struct {
	DailyCaseLimit       int
	ScoreTypeReferral    int
	ScoreTypeSupport     int
	ScoreTypeBoth        int
	ScoreNewBonus        int
	ScoreTest            int
	BackupBonusAmount    int
	AbsencePenaltyAmount int
}

// SettlementConfig controls the midnight rollover scheduler.
type SettlementConfig struct {
	AutoEnabled bool
	Timezone    string
}

// NotifyConfig sizes the notification dispatch workers.
type NotifyConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// ReportsConfig controls settlement report exports on disk.
type ReportsConfig struct {
	Enabled      bool
	Dir          string
	RetentionTTL time.Duration
	DownloadTTL  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.Assignment = AssignmentConfig{
		DailyCaseLimit:       v.GetInt("ASSIGNMENT_DAILY_CASE_LIMIT"),
		ScoreTypeReferral:    v.GetInt("ASSIGNMENT_SCORE_TYPE_REFERRAL"),
		ScoreTypeSupport:     v.GetInt("ASSIGNMENT_SCORE_TYPE_SUPPORT"),
		ScoreTypeBoth:        v.GetInt("ASSIGNMENT_SCORE_TYPE_BOTH"),
		ScoreNewBonus:        v.GetInt("ASSIGNMENT_SCORE_NEW_BONUS"),
		ScoreTest:            v.GetInt("ASSIGNMENT_SCORE_TEST"),
		BackupBonusAmount:    v.GetInt("ASSIGNMENT_BACKUP_BONUS_AMOUNT"),
		AbsencePenaltyAmount: v.GetInt("ASSIGNMENT_ABSENCE_PENALTY_AMOUNT"),
	}

	cfg.Settlement = SettlementConfig{
		AutoEnabled: v.GetBool("SETTLEMENT_AUTO_ENABLED"),
		Timezone:    v.GetString("SETTLEMENT_TIMEZONE"),
	}

	cfg.Notify = NotifyConfig{
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		BufferSize: v.GetInt("NOTIFY_BUFFER_SIZE"),
		MaxRetries: v.GetInt("NOTIFY_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), time.Second),
	}

	cfg.Reports = ReportsConfig{
		Enabled:      v.GetBool("ENABLE_REPORTS"),
		Dir:          v.GetString("REPORTS_DIR"),
		RetentionTTL: parseDuration(v.GetString("REPORTS_RETENTION_TTL"), 7*24*time.Hour),
		DownloadTTL:  parseDuration(v.GetString("REPORTS_DOWNLOAD_TTL"), 24*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bk_kasus_sma")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("ASSIGNMENT_DAILY_CASE_LIMIT", 4)
	v.SetDefault("ASSIGNMENT_SCORE_TYPE_REFERRAL", 3)
	v.SetDefault("ASSIGNMENT_SCORE_TYPE_SUPPORT", 2)
	v.SetDefault("ASSIGNMENT_SCORE_TYPE_BOTH", 4)
	v.SetDefault("ASSIGNMENT_SCORE_NEW_BONUS", 1)
	v.SetDefault("ASSIGNMENT_SCORE_TEST", 2)
	v.SetDefault("ASSIGNMENT_BACKUP_BONUS_AMOUNT", 3)
	v.SetDefault("ASSIGNMENT_ABSENCE_PENALTY_AMOUNT", 3)

	v.SetDefault("SETTLEMENT_AUTO_ENABLED", true)
	v.SetDefault("SETTLEMENT_TIMEZONE", "Asia/Jakarta")

	v.SetDefault("NOTIFY_WORKERS", 1)
	v.SetDefault("NOTIFY_BUFFER_SIZE", 16)
	v.SetDefault("NOTIFY_MAX_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "1s")

	v.SetDefault("ENABLE_REPORTS", true)
	v.SetDefault("REPORTS_DIR", "./exports")
	v.SetDefault("REPORTS_RETENTION_TTL", "168h")
	v.SetDefault("REPORTS_DOWNLOAD_TTL", "24h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
