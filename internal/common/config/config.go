// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Backend  BackendConfig  `mapstructure:"backend"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Display  DisplayConfig  `mapstructure:"display"`
	Database DatabaseConfig `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// BackendConfig holds settings for the file-storage backend REST API.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// NotificationsURL returns the base URL of the notifications collaborator.
func (b BackendConfig) NotificationsURL() string {
	return fmt.Sprintf("%s/api/notifications", b.BaseURL)
}

// FileSharesURL returns the base URL of the file-share request collaborator.
func (b BackendConfig) FileSharesURL() string {
	return fmt.Sprintf("%s/api/file-share-requests", b.BaseURL)
}

// RealtimeConfig holds settings for the push ingestion channel.
type RealtimeConfig struct {
	UserID            string `mapstructure:"user_id"`
	ChannelPrefix     string `mapstructure:"channel_prefix"`
	ReconnectDelaysMs []int  `mapstructure:"reconnect_delays_ms"`
}

// ChannelName returns the per-user pub/sub channel the backend publishes to.
func (r RealtimeConfig) ChannelName() string {
	return fmt.Sprintf("%s:%s", r.ChannelPrefix, r.UserID)
}

// DisplayConfig holds the display controller timings.
type DisplayConfig struct {
	DwellMs int `mapstructure:"dwell_ms"` // visible duration
	ExitMs  int `mapstructure:"exit_ms"`  // exit animation duration
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MetricsConfig holds settings for the Prometheus scrape endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
