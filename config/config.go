// Package config loads the settings of a mapping configuration.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes the environment variables overriding settings, e.g.
// ORMAP_LOG_LEVEL.
const EnvPrefix = "ORMAP"

// Settings represents the settings of a mapping configuration.
type Settings struct {
	// Descriptors lists the YAML descriptor files. Relative paths are
	// resolved against the directory of the settings file.
	Descriptors []string           `mapstructure:"descriptors"`
	Storage     StorageSettings    `mapstructure:"storage"`
	Validation  ValidationSettings `mapstructure:"validation"`
	Naming      NamingSettings     `mapstructure:"naming"`
	Log         LogSettings        `mapstructure:"log"`
}

// StorageSettings represents the relational storage settings.
type StorageSettings struct {
	Schema string `mapstructure:"schema"`
}

// ValidationSettings represents the validation settings.
type ValidationSettings struct {
	// Mixins enables the persistent mixin configuration check.
	Mixins bool `mapstructure:"mixins"`
	// SortWorkers bounds concurrent sort expression parsing. Zero uses
	// GOMAXPROCS.
	SortWorkers int `mapstructure:"sort_workers"`
}

// NamingSettings represents the naming settings.
type NamingSettings struct {
	PluralizeEntityNames bool `mapstructure:"pluralize_entity_names"`
}

// LogSettings represents the logging settings.
type LogSettings struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads the settings from the given file, or from an optional
// ormap.yaml in the working directory if path is empty. Environment
// variables take precedence over the file.
func Load(path string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("descriptors", []string{})
	v.SetDefault("storage.schema", "public")
	v.SetDefault("validation.mixins", true)
	v.SetDefault("validation.sort_workers", 0)
	v.SetDefault("naming.pluralize_entity_names", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("ormap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read settings: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("config: unmarshal settings: %w", err)
	}
	if file := v.ConfigFileUsed(); file != "" {
		dir := filepath.Dir(file)
		for i, d := range s.Descriptors {
			if !filepath.IsAbs(d) {
				s.Descriptors[i] = filepath.Join(dir, d)
			}
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the settings.
func (s *Settings) Validate() error {
	if len(s.Descriptors) == 0 {
		return errors.New("config: at least one descriptor file is required")
	}
	if s.Validation.SortWorkers < 0 {
		return fmt.Errorf("config: validation.sort_workers cannot be negative, got %d", s.Validation.SortWorkers)
	}
	if _, err := s.level(); err != nil {
		return err
	}
	return nil
}

// Logger builds the logger described by the log settings.
func (s *Settings) Logger() (*zap.Logger, error) {
	level, err := s.level()
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if s.Log.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

func (s *Settings) level() (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(s.Log.Level)); err != nil {
		return level, fmt.Errorf("config: log.level: %w", err)
	}
	return level, nil
}
