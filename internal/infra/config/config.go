package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the booking core.
type Config struct {
	RowStore     RowStoreConfig     `mapstructure:"row_store"`
	MediaGateway MediaGatewayConfig `mapstructure:"media_gateway"`
	QueueBackend QueueBackendConfig `mapstructure:"queue_backend"`
	WorkerPool   WorkerPoolConfig   `mapstructure:"worker_pool"`
	Booking      BookingConfig      `mapstructure:"booking"`
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	CORS         CORSConfig         `mapstructure:"cors"`
}

// RowStoreConfig points at the REST-over-HTTP row store gateway (§4.A/§6).
type RowStoreConfig struct {
	BaseURL               string `mapstructure:"base_url"`
	AnonKey               string `mapstructure:"anon_key"`
	JWTSecret             string `mapstructure:"jwt_secret"`
	AvailabilityTableName string `mapstructure:"availability_table_name"`
}

// MediaGatewayConfig points at the WebRTC media plane's control endpoint.
type MediaGatewayConfig struct {
	AppID   string `mapstructure:"app_id"`
	AppToken string `mapstructure:"app_token"`
	BaseURL string `mapstructure:"base_url"`
}

// QueueBackendConfig is optional; unless Enabled is set and URL is
// non-empty, the job queue falls back to an in-process backend and the
// lock manager to the row-store-backed implementation.
type QueueBackendConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

// WorkerPoolConfig tunes the booking worker pool (§4.H).
type WorkerPoolConfig struct {
	MaxConcurrentJobs              int `mapstructure:"max_concurrent_jobs"`
	JobTimeoutSeconds              int `mapstructure:"job_timeout_seconds"`
	RetryDelaySeconds              int `mapstructure:"retry_delay_seconds"`
	HealthCheckIntervalSeconds     int `mapstructure:"health_check_interval_seconds"`
	GracefulShutdownTimeoutSeconds int `mapstructure:"graceful_shutdown_timeout_seconds"`
	MaxRetries                     int `mapstructure:"max_retries"`
	LockTTLSeconds                 int `mapstructure:"lock_ttl_seconds"`
	LockMaxAttempts                int `mapstructure:"lock_max_attempts"`
}

// BookingConfig holds appointment validation parameters (§4.K book_validate).
type BookingConfig struct {
	MinAdvanceBookingHours int `mapstructure:"min_advance_booking_hours"`
	MaxAdvanceBookingDays  int `mapstructure:"max_advance_booking_days"`
	MinDurationMinutes     int `mapstructure:"min_duration_minutes"`
	MaxDurationMinutes     int `mapstructure:"max_duration_minutes"`
	BufferMinutes          int `mapstructure:"buffer_minutes"`
	AllowWeekends          bool `mapstructure:"allow_weekends"`
	AllowedRescheduleHours int `mapstructure:"allowed_reschedule_hours"`
	BusinessHourStart      int `mapstructure:"business_hour_start"`
	BusinessHourEnd        int `mapstructure:"business_hour_end"`
}

// ServerConfig holds the ops surface's listen address.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// CORSConfig holds CORS configuration for the ops surface.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if originsStr := viper.GetString("CORS_ALLOWED_ORIGINS"); originsStr != "" {
		config.CORS.AllowedOrigins = strings.Split(originsStr, ",")
		for i, origin := range config.CORS.AllowedOrigins {
			config.CORS.AllowedOrigins[i] = strings.TrimSpace(origin)
		}
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("row_store.base_url", "http://localhost:8000")
	viper.SetDefault("row_store.availability_table_name", "appointment_availabilities")
	viper.BindEnv("row_store.base_url", "ROW_STORE_BASE_URL")
	viper.BindEnv("row_store.anon_key", "ROW_STORE_ANON_KEY")
	viper.BindEnv("row_store.jwt_secret", "ROW_STORE_JWT_SECRET")
	viper.BindEnv("row_store.availability_table_name", "ROW_STORE_AVAILABILITY_TABLE")

	viper.SetDefault("media_gateway.base_url", "http://localhost:8081")
	viper.BindEnv("media_gateway.app_id", "MEDIA_GATEWAY_APP_ID")
	viper.BindEnv("media_gateway.app_token", "MEDIA_GATEWAY_APP_TOKEN")
	viper.BindEnv("media_gateway.base_url", "MEDIA_GATEWAY_BASE_URL")

	viper.SetDefault("queue_backend.enabled", false)
	viper.BindEnv("queue_backend.url", "QUEUE_BACKEND_URL")
	viper.BindEnv("queue_backend.enabled", "QUEUE_BACKEND_ENABLED")

	viper.SetDefault("worker_pool.max_concurrent_jobs", 5)
	viper.SetDefault("worker_pool.job_timeout_seconds", 30)
	viper.SetDefault("worker_pool.retry_delay_seconds", 5)
	viper.SetDefault("worker_pool.health_check_interval_seconds", 60)
	viper.SetDefault("worker_pool.graceful_shutdown_timeout_seconds", 15)
	viper.SetDefault("worker_pool.max_retries", 3)
	viper.SetDefault("worker_pool.lock_ttl_seconds", 30)
	viper.SetDefault("worker_pool.lock_max_attempts", 3)

	viper.SetDefault("booking.min_advance_booking_hours", 2)
	viper.SetDefault("booking.max_advance_booking_days", 90)
	viper.SetDefault("booking.min_duration_minutes", 15)
	viper.SetDefault("booking.max_duration_minutes", 180)
	viper.SetDefault("booking.buffer_minutes", 10)
	viper.SetDefault("booking.allow_weekends", false)
	viper.SetDefault("booking.allowed_reschedule_hours", 4)
	viper.SetDefault("booking.business_hour_start", 8)
	viper.SetDefault("booking.business_hour_end", 20)

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.BindEnv("server.host", "SERVER_HOST")
	viper.BindEnv("server.port", "SERVER_PORT")

	viper.SetDefault("log.level", "info")
	viper.BindEnv("log.level", "LOG_LEVEL")

	viper.SetDefault("cors.allowed_origins", []string{"http://localhost:3000", "http://localhost:5173"})
}

// GetAddress returns the ops surface's listen address.
func (c *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
