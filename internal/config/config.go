// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Recovery policies for matches found in the waiting state after a restart.
const (
	// RecoveryResume re-arms the remaining betting window.
	RecoveryResume = "resume"
	// RecoveryClose closes the betting window immediately.
	RecoveryClose = "close"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendFile     = "file"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	Game      GameConfig      `mapstructure:"game"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Backend  string         `mapstructure:"backend"` // "postgres" or "file"
	File     FileConfig     `mapstructure:"file"`
	Database DatabaseConfig `mapstructure:"database"`
}

// FileConfig holds flat-file backend configuration.
type FileConfig struct {
	Path string `mapstructure:"path"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds operator user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// GameConfig holds match lifecycle configuration.
type GameConfig struct {
	BettingWindowSeconds      int    `mapstructure:"betting_window_seconds"`
	RollDelaySeconds          int    `mapstructure:"roll_delay_seconds"`
	IdleMatchLimit            int    `mapstructure:"idle_match_limit"`
	ManualStopCooldownSeconds int    `mapstructure:"manual_stop_cooldown_seconds"`
	RecoveryPolicy            string `mapstructure:"recovery_policy"`
	HistoryLimit              int    `mapstructure:"history_limit"`
	InitialScore              int64  `mapstructure:"initial_score"`
}

// MetricsConfig holds the metrics listener configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

// BettingWindow returns the betting window as a duration.
func (g *GameConfig) BettingWindow() time.Duration {
	return time.Duration(g.BettingWindowSeconds) * time.Second
}

// RollDelay returns the post-close roll delay as a duration.
func (g *GameConfig) RollDelay() time.Duration {
	return time.Duration(g.RollDelaySeconds) * time.Second
}

// ManualStopCooldown returns the manual-stop cooldown as a duration.
func (g *GameConfig) ManualStopCooldown() time.Duration {
	return time.Duration(g.ManualStopCooldownSeconds) * time.Second
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the given directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, STORAGE_BACKEND, GAME_BETTING_WINDOW_SECONDS.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Storage defaults
	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.file.path", "data/gamedata.json")
	v.SetDefault("storage.database.host", "localhost")
	v.SetDefault("storage.database.port", 5432)
	v.SetDefault("storage.database.user", "dicebot")
	v.SetDefault("storage.database.name", "dicebot")
	v.SetDefault("storage.database.pool_size", 20)
	v.SetDefault("storage.database.connect_timeout", "10s")
	v.SetDefault("storage.database.max_conn_lifetime", "1h")
	v.SetDefault("storage.database.max_conn_idle_time", "30m")

	// Match lifecycle defaults
	v.SetDefault("game.betting_window_seconds", 60)
	v.SetDefault("game.roll_delay_seconds", 5)
	v.SetDefault("game.idle_match_limit", 3)
	v.SetDefault("game.manual_stop_cooldown_seconds", 10)
	v.SetDefault("game.recovery_policy", RecoveryResume)
	v.SetDefault("game.history_limit", 20)
	v.SetDefault("game.initial_score", 0)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", "9090")
}

// validate rejects configuration values the scheduler cannot run with.
func (c *Config) validate() error {
	switch c.Storage.Backend {
	case BackendPostgres, BackendFile:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Game.RecoveryPolicy {
	case RecoveryResume, RecoveryClose:
	default:
		return fmt.Errorf("unknown recovery policy %q", c.Game.RecoveryPolicy)
	}

	if c.Game.BettingWindowSeconds <= 0 {
		return fmt.Errorf("betting window must be positive, got %d", c.Game.BettingWindowSeconds)
	}
	if c.Game.RollDelaySeconds < 0 {
		return fmt.Errorf("roll delay must not be negative, got %d", c.Game.RollDelaySeconds)
	}
	if c.Game.IdleMatchLimit <= 0 {
		return fmt.Errorf("idle match limit must be positive, got %d", c.Game.IdleMatchLimit)
	}

	return nil
}

// IsAdmin checks if a user ID is in the operator list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
