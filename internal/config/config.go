package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultAreaOrder is the walking order of the gym floor. Areas not listed
// here are shown after these, alphabetically.
var DefaultAreaOrder = []string{
	"The Dugout",
	"The Cave",
	"The Slab",
	"The Arch",
	"The Bowl",
}

type Config struct {
	DatabaseURL       string
	JWTSecret         string
	Port              string
	AppEnv            string
	CORSOrigins       string
	FCMServiceAccount string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	AreaOrder         []string
	SessionTTL        time.Duration
}

func Load() *Config {
	return &Config{
		DatabaseURL:       getEnv("DATABASE_URL", "routetracker.db"),
		JWTSecret:         getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		Port:              getEnv("PORT", "8080"),
		AppEnv:            getEnv("APP_ENV", "development"),
		CORSOrigins:       getEnv("CORS_ORIGINS", "http://localhost:3000"),
		FCMServiceAccount: getEnv("FCM_SERVICE_ACCOUNT", ""),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		AreaOrder:         getEnvList("AREA_ORDER", DefaultAreaOrder),
		SessionTTL:        time.Duration(getEnvInt("SESSION_TTL_HOURS", 24*7)) * time.Hour,
	}
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
