package config

import (
	"errors"
	"io/fs"
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
	CORS       CORSConfig
	Log        LogConfig
	Attendance AttendanceConfig
	Statistics StatisticsConfig
	DeviceAuth DeviceAuthConfig
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
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AttendanceConfig controls how check-ins are stamped and listed.
type AttendanceConfig struct {
	Timezone          string
	RecentVisitsLimit int
}

// StatisticsConfig governs caching and ranking limits for the statistics endpoints.
type StatisticsConfig struct {
	CacheEnabled       bool
	CacheTTL           time.Duration
	TopVisitorsDefault int
	TopVisitorsMax     int
}

// DeviceAuthConfig gates check-in routes behind scanner-device tokens.
type DeviceAuthConfig struct {
	Enabled  bool
	Secret   string
	Issuer   string
	TokenTTL time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
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
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Attendance = AttendanceConfig{
		Timezone:          v.GetString("ATTENDANCE_TIMEZONE"),
		RecentVisitsLimit: v.GetInt("RECENT_VISITS_LIMIT"),
	}

	cfg.Statistics = StatisticsConfig{
		CacheEnabled:       v.GetBool("ENABLE_STATISTICS_CACHE"),
		CacheTTL:           parseDuration(v.GetString("STATISTICS_CACHE_TTL"), 5*time.Minute),
		TopVisitorsDefault: v.GetInt("TOP_VISITORS_DEFAULT_LIMIT"),
		TopVisitorsMax:     v.GetInt("TOP_VISITORS_MAX_LIMIT"),
	}

	cfg.DeviceAuth = DeviceAuthConfig{
		Enabled:  v.GetBool("DEVICE_AUTH_ENABLED"),
		Secret:   v.GetString("DEVICE_JWT_SECRET"),
		Issuer:   v.GetString("DEVICE_JWT_ISSUER"),
		TokenTTL: parseDuration(v.GetString("DEVICE_TOKEN_TTL"), 180*24*time.Hour),
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
	v.SetDefault("DB_NAME", "absensi")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", false)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ATTENDANCE_TIMEZONE", "Asia/Jakarta")
	v.SetDefault("RECENT_VISITS_LIMIT", 10)

	v.SetDefault("ENABLE_STATISTICS_CACHE", false)
	v.SetDefault("STATISTICS_CACHE_TTL", "5m")
	v.SetDefault("TOP_VISITORS_DEFAULT_LIMIT", 5)
	v.SetDefault("TOP_VISITORS_MAX_LIMIT", 50)

	v.SetDefault("DEVICE_AUTH_ENABLED", false)
	v.SetDefault("DEVICE_JWT_SECRET", "dev_device_secret")
	v.SetDefault("DEVICE_JWT_ISSUER", "absensi-api")
	v.SetDefault("DEVICE_TOKEN_TTL", "4320h")
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
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
