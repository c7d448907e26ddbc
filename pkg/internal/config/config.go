package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const EnvPrefix = "POLLBOT"

type Settings struct {
	Debug      bool   `mapstructure:"debug"`
	Bind       string `mapstructure:"bind" validate:"required"`
	AdminToken string `mapstructure:"admin_token"`

	Slack struct {
		Endpoint        string        `mapstructure:"endpoint" validate:"required,url"`
		Token           string        `mapstructure:"token"`
		SigningSecret   string        `mapstructure:"signing_secret"`
		FallbackChannel string        `mapstructure:"fallback_channel" validate:"required"`
		DirectoryTTL    time.Duration `mapstructure:"directory_ttl"`
	} `mapstructure:"slack"`

	Polls struct {
		DefaultLimit     int           `mapstructure:"default_limit" validate:"min=-1,max=100,ne=0"`
		DefaultExpiresIn time.Duration `mapstructure:"default_expires_in" validate:"gt=0"`
		CleanupSchedule  string        `mapstructure:"cleanup_schedule" validate:"required"`
	} `mapstructure:"polls"`

	Events struct {
		Kafka struct {
			Brokers []string `mapstructure:"brokers"`
			Topic   string   `mapstructure:"topic" validate:"required"`
		} `mapstructure:"kafka"`
	} `mapstructure:"events"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("bind", "0.0.0.0:8444")
	v.SetDefault("slack.endpoint", "https://slack.com/api")
	v.SetDefault("admin_token", "")
	v.SetDefault("slack.token", "")
	v.SetDefault("slack.signing_secret", "")
	v.SetDefault("slack.fallback_channel", "random")
	v.SetDefault("slack.directory_ttl", 10*time.Minute)
	v.SetDefault("polls.default_limit", 1)
	v.SetDefault("polls.default_expires_in", 30*time.Minute)
	v.SetDefault("polls.cleanup_schedule", "0 * * * *")
	v.SetDefault("events.kafka.brokers", []string{})
	v.SetDefault("events.kafka.topic", "poll-events")
}

// Load reads settings.toml from the working directory or its parent, on top
// of the defaults, then applies POLLBOT_* environment overrides. A .env file
// next to the binary is loaded into the environment first when present.
func Load(paths ...string) (*viper.Viper, Settings, error) {
	var out Settings

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("An error occurred when loading .env file...")
	}

	v := viper.New()
	setDefaults(v)
	if len(paths) == 0 {
		paths = []string{".", ".."}
	}
	for _, path := range paths {
		v.AddConfigPath(path)
	}
	v.SetConfigName("settings")
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return v, out, fmt.Errorf("unable to read settings: %v", err)
		}
		log.Warn().Msg("No settings file found, using defaults and environment.")
	}

	if err := v.Unmarshal(&out); err != nil {
		return v, out, fmt.Errorf("unable to decode settings: %v", err)
	}
	if err := Validate(out); err != nil {
		return v, out, err
	}

	return v, out, nil
}

var validation = validator.New(validator.WithRequiredStructEnabled())

func Validate(settings Settings) error {
	if err := validation.Struct(settings); err != nil {
		return fmt.Errorf("invalid settings: %v", err)
	}
	return nil
}
