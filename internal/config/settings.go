package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Settings holds the user-tunable configuration.
type Settings struct {
	BackendURL     string               `mapstructure:"backend_api_url" validate:"required,url"`
	SourceMode     string               `mapstructure:"source_mode" validate:"oneof=web local"`
	LocalPath      string               `mapstructure:"local_path" validate:"required_if=SourceMode local"`
	Language       string               `mapstructure:"language" validate:"oneof=en ne"`
	ServerPort     int                  `mapstructure:"server_port" validate:"min=1,max=65535"`
	RefreshMin     int                  `mapstructure:"refresh_interval_min" validate:"min=1"`
	Notifications  NotificationSchedule `mapstructure:"notifications"`
	RateLimit      RateLimit            `mapstructure:"rate_limit"`
	MetricsEnabled bool                 `mapstructure:"metrics_enabled"`
}

// NotificationSchedule holds the daily reminder times (24-hour HH:mm).
// An empty value disables that reminder.
type NotificationSchedule struct {
	MorningTime string `mapstructure:"morning_time" validate:"omitempty,datetime=15:04"`
	EveningTime string `mapstructure:"evening_time" validate:"omitempty,datetime=15:04"`
}

// RateLimit bounds requests to the conversion API.
type RateLimit struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int     `mapstructure:"burst" validate:"min=1"`
}

// RefreshInterval returns the feed refresh period.
func (s *Settings) RefreshInterval() time.Duration {
	if s.RefreshMin <= 0 {
		return DefaultRefreshMin * time.Minute
	}
	return time.Duration(s.RefreshMin) * time.Minute
}

// Loader reads Settings from defaults, an optional YAML file, .env and SAMBAT_* variables.
type Loader struct {
	v        *viper.Viper
	validate *validator.Validate
	current  atomic.Pointer[Settings]
}

// NewLoader prepares a loader. An empty path searches ./go-sambat.yaml and
// the user config directory.
func NewLoader(path string) *Loader {
	// .env is optional.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(SettingsName)
		v.SetConfigType(SettingsType)
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, SettingsDirName))
		}
	}

	return &Loader{v: v, validate: validator.New()}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyBackendURL, DefaultBackendURL)
	v.SetDefault(KeySourceMode, SourceModeWeb)
	v.SetDefault(KeyLocalPath, "")
	v.SetDefault(KeyLanguage, DefaultLanguage)
	v.SetDefault(KeyServerPort, DefaultPort)
	v.SetDefault(KeyInterval, DefaultRefreshMin)
	v.SetDefault(KeyMorningTime, DefaultMorningTime)
	v.SetDefault(KeyEveningTime, DefaultEveningTime)
	v.SetDefault(KeyRateLimit, DefaultRatePerSec)
	v.SetDefault(KeyRateBurst, DefaultRateBurst)
	v.SetDefault(KeyMetricsEnabl, true)
}

// Load reads and validates the settings, and makes them available through Current.
func (l *Loader) Load() (*Settings, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%s: %w", ErrSettingsRead, err)
		}
		slog.Debug(MsgNoSettingsFile, LogKeyComponent, CompSettings)
	}

	var s Settings
	if err := l.v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrSettingsDecode, err)
	}
	if err := l.validate.Struct(&s); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrSettingsInvalid, err)
	}

	l.current.Store(&s)
	slog.Debug(MsgSettingsLoaded,
		LogKeyComponent, CompSettings,
		LogKeyFile, l.v.ConfigFileUsed(),
	)
	return &s, nil
}

// Current returns the most recently loaded settings, or nil before the first Load.
func (l *Loader) Current() *Settings {
	return l.current.Load()
}

// Override forces a value regardless of file or environment, e.g. from a CLI flag.
func (l *Loader) Override(key string, value any) {
	l.v.Set(key, value)
}

// Watch reloads the settings file on change and signals on the returned channel.
// Invalid edits are logged and the previous settings stay in effect.
func (l *Loader) Watch() <-chan struct{} {
	changes := make(chan struct{}, ChannelBufferSize)
	if l.v.ConfigFileUsed() == "" {
		return changes
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		slog.Info(MsgSettingsChange,
			LogKeyComponent, CompSettings,
			LogKeyFile, e.Name,
		)
		if _, err := l.Load(); err != nil {
			slog.Error(ErrSettingsInvalid,
				LogKeyComponent, CompSettings,
				LogKeyError, err,
			)
			return
		}
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	l.v.WatchConfig()
	return changes
}
