// Package config loads application configuration from the environment once at
// startup. Scheduler ticks never re-read the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Module provides the loaded configuration.
var Module = fx.Provide(Load)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	SchedulerEnabled    bool
	TickIntervalMs      int
	WarmupDelayMs       int
	NotifyThrottleHours int
	ReminderLeadHours   int
	PlanBatchSize       int
	ChargeBatchSize     int

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	EmailFrom     string
	EmailFromName string
}

// Load loads configuration from environment variables and an optional .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "van-manager"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),

		SchedulerEnabled:    getenvBool("ENABLE_SCHEDULER", true),
		TickIntervalMs:      getenvInt("OVERDUE_CRON_INTERVAL_MS", 15*60*1000),
		WarmupDelayMs:       getenvInt("SCHEDULER_WARMUP_DELAY_MS", 5000),
		NotifyThrottleHours: getenvInt("NOTIFY_THROTTLE_HOURS", 24),
		ReminderLeadHours:   getenvInt("NOTIFY_REMINDER_LEAD_HOURS", 48),
		PlanBatchSize:       getenvInt("SCHEDULER_PLAN_BATCH_SIZE", 100),
		ChargeBatchSize:     getenvInt("SCHEDULER_CHARGE_BATCH_SIZE", 200),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "vanmanager"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),

		SMTPHost:      getenv("SES_SMTP_HOST", "localhost"),
		SMTPPort:      getenvInt("SES_SMTP_PORT", 587),
		SMTPUsername:  getenv("SES_SMTP_USER", ""),
		SMTPPassword:  getenv("SES_SMTP_PASS", ""),
		EmailFrom:     getenv("EMAIL_FROM", ""),
		EmailFromName: getenv("EMAIL_FROM_NAME", ""),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
