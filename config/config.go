package config

import (
	"strings"

	"bulletin-board/models"

	"emperror.dev/errors"
	"github.com/bwmarrin/lit"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadConfig loads the process configuration from several sources:
// 1. the .env file (environment variables)
// 2. config.yaml in the working directory
// Environment variables override the file, with '.' in keys replaced by '_'.
func LoadConfig() (*models.Settings, error) {
	if err := godotenv.Load(); err != nil {
		lit.Info("No .env file found, skipping.")
	}

	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./data")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.WrapIf(err, "failed to parse config.yaml")
		}
		lit.Info("No config.yaml found, using environment variables and defaults.")
	}

	return Settings()
}

// Settings decodes the current viper state.
func Settings() (*models.Settings, error) {
	var settings models.Settings
	if err := viper.Unmarshal(&settings); err != nil {
		return nil, errors.WrapIf(err, "failed to decode settings")
	}

	// BOT_TOKEN is read from the environment as a flat key.
	if settings.BotToken == "" {
		settings.BotToken = viper.GetString("BOT_TOKEN")
	}

	return &settings, nil
}

// setDefaults registers every key of models.Settings. viper.Unmarshal only
// sees environment overrides for keys it already knows.
func setDefaults() {
	viper.SetDefault("bot_token", "")
	viper.SetDefault("bot.adminChannelId", "")
	viper.SetDefault("bot.loglevel", "info")
	viper.SetDefault("bot.developers", []string{})
	viper.SetDefault("storage.path", "data/bulletin.db")
	viper.SetDefault("storage.snapshot_backend", "sqlite")
	viper.SetDefault("storage.snapshot_dir", "tracked_pins")
	viper.SetDefault("pins.capacity", 50)
	viper.SetDefault("pins.diff_policy", "count")
	viper.SetDefault("pins.tempdir", "tempfiles")
	viper.SetDefault("metrics.listen", "")
}

// LogLevel maps a configured level name to lit's levels.
func LogLevel(level string) int {
	switch strings.ToLower(level) {
	case "logerror", "error":
		return lit.LogError
	case "logwarning", "warning", "warn":
		return lit.LogWarning
	case "logdebug", "debug":
		return lit.LogDebug
	default:
		return lit.LogInformational
	}
}
