package config

import (
	"log"

	"beautybook/models"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	StoreDriver       string `mapstructure:"STORE_DRIVER"`
	Env               string `mapstructure:"ENV"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Firebase service account used for FCM pushes.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`

	// Scheduling.
	BookingMaxAttempts    int    `mapstructure:"BOOKING_MAX_ATTEMPTS"`
	BookingRetryBaseMs    int    `mapstructure:"BOOKING_RETRY_BASE_MS"`
	SnapshotTTLSeconds    int    `mapstructure:"SNAPSHOT_TTL_SECONDS"`
	ReminderLeadMinutes   int    `mapstructure:"REMINDER_LEAD_MINUTES"`
	CompletionSweepSpec   string `mapstructure:"COMPLETION_SWEEP_SPEC"`
	NotificationQueueName string `mapstructure:"NOTIFICATION_QUEUE"`

	// Providers seeds the in-memory profile store when STORE_DRIVER=memory.
	Providers []models.Provider `mapstructure:"PROVIDERS"`
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

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017/?replicaSet=rs0")
	viper.SetDefault("DATABASE_NAME", "beautybook")
	viper.SetDefault("STORE_DRIVER", "mongo")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 3)
	viper.SetDefault("FIREBASE_CREDENTIALS_FILE", "")
	viper.SetDefault("BOOKING_MAX_ATTEMPTS", 3)
	viper.SetDefault("BOOKING_RETRY_BASE_MS", 25)
	viper.SetDefault("SNAPSHOT_TTL_SECONDS", 120)
	viper.SetDefault("REMINDER_LEAD_MINUTES", 120)
	viper.SetDefault("COMPLETION_SWEEP_SPEC", "@every 5m")
	viper.SetDefault("NOTIFICATION_QUEUE", "notifications")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// UsesMemoryStore reports whether the scheduler runs against the in-process store.
func UsesMemoryStore() bool {
	return AppConfig.StoreDriver == "memory"
}
