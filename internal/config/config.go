package config

import (
	"fmt"
	"log"
	"os"
)

// App holds the runtime configuration loaded from environment variables.
// Secrets (folder ids, Kintone tokens, service-account key) are not here;
// they come from Secret Manager at startup, see internal/secrets.
type App struct {
	Env        string
	HTTPPort   string
	GCPProject string
	LogLevel   string

	// Kintone field codes for the photo-submission records.
	UUIDFieldCode        string
	StatusFieldCode      string
	TodayStatusFieldCode string
	NPKTypeFieldCode     string

	RateLimitPerMin int
}

// Load returns application config populated from environment variables with sensible defaults.
// PORT is supplied by the hosting environment (Cloud Run convention).
func Load() App {
	return App{
		Env:                  getEnv("APP_ENV", "dev"),
		HTTPPort:             getEnv("PORT", "8080"),
		GCPProject:           getEnv("GCP_PROJECT", ""),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		UUIDFieldCode:        getEnv("KINTONE_UUID_FIELD_CODE", "uuid"),
		StatusFieldCode:      getEnv("KINTONE_STATUS_FIELD_CODE", "ocr_status"),
		TodayStatusFieldCode: getEnv("KINTONE_TODAY_STATUS_FIELD_CODE", "today_status"),
		NPKTypeFieldCode:     getEnv("KINTONE_NPK_TYPE_FIELD_CODE", "npk_test_type"),
		RateLimitPerMin:      intEnv("RATE_LIMIT_PER_MIN", 120),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}
