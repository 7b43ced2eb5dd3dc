package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort      string `mapstructure:"APP_PORT"`
	Env          string `mapstructure:"ENV"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Reminder pipeline.
	ReminderTimezone  string        `mapstructure:"REMINDER_TIMEZONE"`
	ReminderScanCron  string        `mapstructure:"REMINDER_SCAN_CRON"`
	ReminderQueue     string        `mapstructure:"REMINDER_QUEUE"`
	ReminderMaxRetry  int           `mapstructure:"REMINDER_MAX_RETRY"`
	WorkerConcurrency int           `mapstructure:"WORKER_CONCURRENCY"`
	SettingsCacheTTL  time.Duration `mapstructure:"SETTINGS_CACHE_TTL"`
	DeliveryTimeout   time.Duration `mapstructure:"DELIVERY_TIMEOUT"`
	SystemBotID       string        `mapstructure:"SYSTEM_BOT_ID"`

	// SMTP.
	SMTPHost        string  `mapstructure:"SMTP_HOST"`
	SMTPPort        string  `mapstructure:"SMTP_PORT"`
	SMTPUsername    string  `mapstructure:"SMTP_USERNAME"`
	SMTPPassword    string  `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom        string  `mapstructure:"SMTP_FROM"`
	EmailRatePerSec float64 `mapstructure:"EMAIL_RATE_PER_SEC"`

	// Firebase service account used for topic push; empty disables push broadcast.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	InternalAPIToken string `mapstructure:"INTERNAL_API_TOKEN"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "reviewdesk")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("REMINDER_TIMEZONE", "UTC")
	v.SetDefault("REMINDER_SCAN_CRON", "*/15 * * * *")
	v.SetDefault("REMINDER_QUEUE", "reminders")
	v.SetDefault("REMINDER_MAX_RETRY", 5)
	v.SetDefault("WORKER_CONCURRENCY", 10)
	v.SetDefault("SETTINGS_CACHE_TTL", time.Minute)
	v.SetDefault("DELIVERY_TIMEOUT", 15*time.Second)
	v.SetDefault("SYSTEM_BOT_ID", "system-bot")
	v.SetDefault("SMTP_PORT", "587")
	v.SetDefault("EMAIL_RATE_PER_SEC", 5.0)
	v.SetDefault("INTERNAL_API_TOKEN", "")
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// ReferenceLocation is the single timezone reminder times are computed in.
func ReferenceLocation() *time.Location {
	loc, err := time.LoadLocation(AppConfig.ReminderTimezone)
	if err != nil {
		log.Printf("Unknown REMINDER_TIMEZONE %q, falling back to UTC", AppConfig.ReminderTimezone)
		return time.UTC
	}
	return loc
}
