// Package config loads session settings from defaults, an optional
// chainsql.yaml, .env files and CHAINSQL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AppFs is the filesystem config files and .env files are read from.
var AppFs = afero.NewOsFs()

// Config holds the settings a session is built from.
type Config struct {
	Dialect  string    `mapstructure:"dialect"`
	Database string    `mapstructure:"database"` // prefix applied to table names
	DSN      string    `mapstructure:"dsn"`
	Log      LogConfig `mapstructure:"log"`
}

// LogConfig controls the zap logger built by Logger.
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Dialect: "mysql",
		Log:     LogConfig{Level: "info"},
	}
}

// Load reads configuration. paths are searched for chainsql.yaml in order,
// after the working directory; a missing file is not an error.
func Load(paths ...string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetFs(AppFs)
	v.SetConfigName("chainsql")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("CHAINSQL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("dialect", def.Dialect)
	v.SetDefault("database", def.Database)
	v.SetDefault("dsn", def.DSN)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.development", def.Log.Development)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Dialect:  strings.ToLower(v.GetString("dialect")),
		Database: v.GetString("database"),
		DSN:      v.GetString("dsn"),
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv loads .env and then .env.local. Variables already in the
// environment win over .env; .env.local overrides both. Both are optional.
func loadDotEnv() error {
	for _, name := range []string{".env", ".env.local"} {
		f, err := AppFs.Open(name)
		if err != nil {
			continue
		}
		vars, err := godotenv.Parse(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		override := name == ".env.local"
		for key, value := range vars {
			if _, set := os.LookupEnv(key); set && !override {
				continue
			}
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("set %s from %s: %w", key, name, err)
			}
		}
	}
	return nil
}

// Validate checks the fields a session cannot start without.
func (c *Config) Validate() error {
	if c.Dialect == "" {
		return fmt.Errorf("config: dialect is required")
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log level %q: %w", c.Log.Level, err)
	}
	return nil
}

// Logger builds a zap logger at the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("config: log level %q: %w", c.Log.Level, err)
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}
