package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load loads and validates configuration from:
// 1. Default values
// 2. config.yaml file (optional)
// 3. BOT_* environment variables
func Load() (*Config, error) {
	setDefaults()

	if err := readConfigFile(); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// readConfigFile initializes viper and reads the optional config file.
func readConfigFile() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("BOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing config file is fine, defaults and env apply.
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("log.level", DefaultLogLevel)
	viper.SetDefault("log.json", false)

	viper.SetDefault("database.path", DefaultDBPath)

	viper.SetDefault("http.listen_addr", DefaultListenAddr)

	viper.SetDefault("bot.schedule_interval", DefaultScheduleInterval)
	viper.SetDefault("bot.broadcast_interval", DefaultBroadcastInterval)
	viper.SetDefault("bot.recent_messages_limit", DefaultRecentMessagesLimit)

	viper.SetDefault("bot.messages.welcome", DefaultWelcomeMessage)
	viper.SetDefault("bot.messages.help", DefaultHelpMessage)
	viper.SetDefault("bot.messages.settings_menu", DefaultSettingsMenu)
	viper.SetDefault("bot.messages.about", DefaultAboutMessage)
	viper.SetDefault("bot.messages.unknown_command", DefaultUnknownCommand)
	viper.SetDefault("bot.messages.stats_error", DefaultStatsError)
}
