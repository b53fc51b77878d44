package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Server    ServerConfig
	Scheduler SchedulerConfig
	Pipeline  PipelineConfig
	Trends    TrendsConfig
	Stats     StatsConfig
	Logging   LoggingConfig
	Telemetry TelemetryConfig
}

// DatabaseConfig holds database configuration.
// URL is either a local SQLite file path (default) or a postgres:// URL.
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL     string
	Enabled bool
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int
	Host string
}

// SchedulerConfig holds the scheduling loop configuration
type SchedulerConfig struct {
	ActiveHoursStart int
	ActiveHoursEnd   int
	CheckInterval    time.Duration
	TickInterval     time.Duration
	SettingsPath     string
}

// PipelineConfig holds the external video pipeline configuration
type PipelineConfig struct {
	Command string
	Timeout time.Duration
}

// TrendsConfig holds the trend-intelligence service configuration.
// An empty URL disables trend research; the scheduler degrades to
// randomized format scores.
type TrendsConfig struct {
	URL string
}

// StatsConfig holds the periodic platform stats fetch configuration
type StatsConfig struct {
	FetchInterval time.Duration
	MaxAgeDays    int
	YouTubeAPIKey string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// TelemetryConfig holds observability configuration
type TelemetryConfig struct {
	Enabled           bool
	JaegerURL         string
	PrometheusEnabled bool
	PrometheusPort    int
	ServiceName       string
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	// Set defaults
	setDefaults()

	// Load from environment
	viper.SetEnvPrefix("DARKMIND")
	viper.AutomaticEnv()

	// Load from config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.darkmind")
	viper.AddConfigPath("/etc/darkmind")

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found; this is OK if we have env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL: getString("database_url", "darkmind.db"),
		},
		Redis: RedisConfig{
			URL:     getString("redis_url", ""),
			Enabled: getString("redis_url", "") != "",
		},
		Server: ServerConfig{
			Port: getInt("http_server_port", 8080),
			Host: getString("http_server_host", "0.0.0.0"),
		},
		Scheduler: SchedulerConfig{
			ActiveHoursStart: getInt("active_hours_start", 6),
			ActiveHoursEnd:   getInt("active_hours_end", 23),
			CheckInterval:    getDuration("check_interval", 5*time.Minute),
			TickInterval:     getDuration("tick_interval", 30*time.Second),
			SettingsPath:     getString("settings_path", "settings.json"),
		},
		Pipeline: PipelineConfig{
			Command: getString("pipeline_command", ""),
			Timeout: getDuration("pipeline_timeout", 30*time.Minute),
		},
		Trends: TrendsConfig{
			URL: getString("trends_url", ""),
		},
		Stats: StatsConfig{
			FetchInterval: getDuration("stats_fetch_interval", 2*time.Hour),
			MaxAgeDays:    getInt("stats_max_age_days", 30),
			YouTubeAPIKey: getString("youtube_api_key", ""),
		},
		Logging: LoggingConfig{
			Level:  getString("log_level", "INFO"),
			Format: getString("log_format", "json"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           getBool("telemetry_enabled", false),
			JaegerURL:         getString("jaeger_url", ""),
			PrometheusEnabled: getBool("prometheus_enabled", false),
			PrometheusPort:    getInt("prometheus_port", 9090),
			ServiceName:       getString("service_name", "darkmind"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("database_url", "darkmind.db")
	viper.SetDefault("http_server_port", 8080)
	viper.SetDefault("http_server_host", "0.0.0.0")
	viper.SetDefault("log_level", "INFO")
	viper.SetDefault("log_format", "json")
	viper.SetDefault("active_hours_start", 6)
	viper.SetDefault("active_hours_end", 23)
	viper.SetDefault("check_interval", "5m")
	viper.SetDefault("tick_interval", "30s")
	viper.SetDefault("settings_path", "settings.json")
	viper.SetDefault("stats_fetch_interval", "2h")
	viper.SetDefault("stats_max_age_days", 30)
	viper.SetDefault("telemetry_enabled", false)
	viper.SetDefault("prometheus_enabled", false)
	viper.SetDefault("prometheus_port", 9090)
	viper.SetDefault("service_name", "darkmind")
}

func getString(key, defaultValue string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	// Also check environment variable directly
	if val := os.Getenv("DARKMIND_" + toEnvKey(key)); val != "" {
		return val
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	if val := os.Getenv("DARKMIND_" + toEnvKey(key)); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	if val := os.Getenv("DARKMIND_" + toEnvKey(key)); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if viper.IsSet(key) {
		if d := viper.GetDuration(key); d > 0 {
			return d
		}
	}
	if val := os.Getenv("DARKMIND_" + toEnvKey(key)); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultValue
}

func toEnvKey(key string) string {
	// Convert snake_case to UPPER_SNAKE_CASE
	result := ""
	for i, r := range key {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result += "_"
		}
		if r == '-' || r == '_' {
			result += "_"
		} else {
			result += string(r)
		}
	}
	return result
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database_url is required")
	}
	if c.Scheduler.ActiveHoursStart < 0 || c.Scheduler.ActiveHoursStart > 23 {
		return fmt.Errorf("active_hours_start must be between 0 and 23")
	}
	if c.Scheduler.ActiveHoursEnd < 1 || c.Scheduler.ActiveHoursEnd > 24 {
		return fmt.Errorf("active_hours_end must be between 1 and 24")
	}
	if c.Scheduler.ActiveHoursStart >= c.Scheduler.ActiveHoursEnd {
		return fmt.Errorf("active_hours_start must be before active_hours_end")
	}
	if c.Scheduler.CheckInterval < time.Minute || c.Scheduler.CheckInterval > time.Hour {
		return fmt.Errorf("check_interval must be between 1m and 1h")
	}
	if c.Stats.MaxAgeDays <= 0 {
		return fmt.Errorf("stats_max_age_days must be positive")
	}
	return nil
}
