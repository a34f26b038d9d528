// Package config provides configuration loading and validation for the
// BotBoard application. Values come from defaults, an optional config.yaml,
// and BOT_* environment variables, in that order.
package config

import (
	"time"
)

// Config defines the application configuration parameters.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Bot      BotConfig      `mapstructure:"bot"`
}

// LogConfig controls log level and output format.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// HTTPConfig holds the listen address for the admin API.
type HTTPConfig struct {
	ListenAddr string `mapstructure:"listen_addr" validate:"required"`
}

// BotConfig holds bot runtime tuning and the built-in fallback texts used
// when no overriding setting is stored.
type BotConfig struct {
	// ScheduleInterval is the period of the due-post processor tick.
	ScheduleInterval time.Duration `mapstructure:"schedule_interval" validate:"min=1s,max=1h"`
	// BroadcastInterval is the minimum gap between two broadcast sends.
	BroadcastInterval time.Duration `mapstructure:"broadcast_interval" validate:"min=0,max=10s"`
	// RecentMessagesLimit caps the message list returned by the API.
	RecentMessagesLimit int `mapstructure:"recent_messages_limit" validate:"min=1,max=500"`

	Messages MessagesConfig `mapstructure:"messages"`
}

// MessagesConfig holds the canned response texts.
type MessagesConfig struct {
	Welcome        string `mapstructure:"welcome"`
	Help           string `mapstructure:"help"`
	SettingsMenu   string `mapstructure:"settings_menu"`
	About          string `mapstructure:"about"`
	UnknownCommand string `mapstructure:"unknown_command"`
	StatsError     string `mapstructure:"stats_error"`
}

// Default values for optional configuration parameters.
const (
	DefaultLogLevel            = "info"
	DefaultDBPath              = "botboard.db"
	DefaultListenAddr          = ":8080"
	DefaultScheduleInterval    = time.Minute
	DefaultBroadcastInterval   = 50 * time.Millisecond
	DefaultRecentMessagesLimit = 50

	DefaultWelcomeMessage = "Welcome to our bot! 🤖\n\nUse /help to see available commands."
	DefaultHelpMessage    = "Available commands:\n\n/start - Get started\n/help - Show this help\n/settings - Your settings\n/stats - Your statistics\n/about - About this bot"
	DefaultSettingsMenu   = "Settings Menu:"
	DefaultAboutMessage   = "🤖 About This Bot\n\nI'm a Telegram bot with a management dashboard.\n\n✨ Features:\n• Real-time message monitoring\n• User analytics\n• Broadcast messaging\n• Auto-replies\n• Scheduled channel posts"
	DefaultUnknownCommand = "Unknown command. Use /help to see available commands."
	DefaultStatsError     = "Sorry, unable to fetch your statistics."
)
