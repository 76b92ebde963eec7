package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/glowclinic/booking-api/internal/email"
	"github.com/glowclinic/booking-api/internal/repository/postgres"
)

type Config struct {
	Server   ServerConfig     `mapstructure:"server"`
	Database postgres.Config  `mapstructure:"database"`
	Redis    RedisConfig      `mapstructure:"redis"`
	SMTP     email.SMTPConfig `mapstructure:"smtp"`
	JWT      JWTConfig        `mapstructure:"jwt"`
	Clinic   ClinicConfig     `mapstructure:"clinic"`
	Worker   WorkerConfig     `mapstructure:"worker"`
}

type ServerConfig struct {
	Port           int     `mapstructure:"port"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	MaxRetries   int    `mapstructure:"max_retries"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

// ClinicConfig carries the clinic-floor settings: the timezone every
// appointment rule is evaluated in and the login code lifetime.
type ClinicConfig struct {
	Timezone      string `mapstructure:"timezone"`
	OTPTTLMinutes int    `mapstructure:"otp_ttl_minutes"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

type WorkerConfig struct {
	SweepIntervalMinutes    int `mapstructure:"sweep_interval_minutes"`
	ReminderIntervalMinutes int `mapstructure:"reminder_interval_minutes"`
	OutboxIntervalSeconds   int `mapstructure:"outbox_interval_seconds"`
	OutboxBatchSize         int `mapstructure:"outbox_batch_size"`
	OutboxRetentionHours    int `mapstructure:"outbox_retention_hours"`
	CleanupIntervalHours    int `mapstructure:"cleanup_interval_hours"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeout_seconds", 30)
	viper.SetDefault("server.rate_limit_rps", 100)
	viper.SetDefault("server.rate_limit_burst", 200)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 2)
	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("clinic.timezone", "Asia/Kolkata")
	viper.SetDefault("clinic.otp_ttl_minutes", 10)
	viper.SetDefault("clinic.migrations_dir", "migrations")
	viper.SetDefault("worker.sweep_interval_minutes", 5)
	viper.SetDefault("worker.reminder_interval_minutes", 10)
	viper.SetDefault("worker.outbox_interval_seconds", 5)
	viper.SetDefault("worker.outbox_batch_size", 50)
	viper.SetDefault("worker.outbox_retention_hours", 168)
	viper.SetDefault("worker.cleanup_interval_hours", 6)
}
