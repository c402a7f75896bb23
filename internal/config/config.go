package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by Load,
// e.g. HANZI_DB_DSN maps to db.dsn.
const EnvPrefix = "HANZI_"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig `koanf:"db"`
	Log      LogConfig      `koanf:"log"`
	Quiz     QuizConfig     `koanf:"quiz"`
	Audit    AuditConfig    `koanf:"audit"`
	Admin    AdminConfig    `koanf:"admin"`
}

// DatabaseConfig selects the store backend
type DatabaseConfig struct {
	// Driver is "sqlite3" (embedded, default) or "postgres"
	Driver string `koanf:"driver" validate:"oneof=sqlite3 postgres"`
	// DSN is a file path for sqlite3 or a connection string for postgres
	DSN string `koanf:"dsn" validate:"required"`
}

type LogConfig struct {
	Mode  string `koanf:"mode"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

type QuizConfig struct {
	// Default number of questions per session
	Length int `koanf:"length" validate:"gte=1,lte=100"`
}

type AuditConfig struct {
	// Interval between viewed_count audits run by the watch command
	Interval time.Duration `koanf:"interval" validate:"gte=1s"`
}

type AdminConfig struct {
	// Username promoted to admin after the content is loaded, if that user exists
	Username string `koanf:"username"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "data/hanzi.db",
		},
		Log: LogConfig{
			Mode:  "dev",
			Level: "info",
		},
		Quiz: QuizConfig{
			Length: 10,
		},
		Audit: AuditConfig{
			Interval: 15 * time.Minute,
		},
	}
}

// RegisterFlags adds the configuration flags to flags. Flag names use dashes
// in place of the key delimiter, so --db-dsn sets db.dsn.
func RegisterFlags(flags *pflag.FlagSet) {
	def := DefaultConfig()
	flags.String("db-driver", def.Database.Driver, "database driver: sqlite3 or postgres")
	flags.String("db-dsn", def.Database.DSN, "database file path (sqlite3) or connection string (postgres)")
	flags.String("log-mode", def.Log.Mode, "log mode: dev or prod")
	flags.String("log-level", def.Log.Level, "log level: debug, info, warn, error")
	flags.Int("quiz-length", def.Quiz.Length, "default number of quiz questions")
	flags.Duration("audit-interval", def.Audit.Interval, "interval between viewed count audits")
	flags.String("admin-username", "", "user promoted to admin on init")
}

// Load builds the configuration from, in increasing priority: defaults, the
// .env file at envFile (optional), HANZI_* environment variables and flags
// explicitly set on flags. flags may be nil.
func Load(envFile string, flags *pflag.FlagSet) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	k := koanf.New(".")

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.Replace(key, "_", ".", 1)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		flagProvider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			return strings.Replace(f.Name, "-", ".", 1), posflag.FlagVal(flags, f)
		})
		if err := k.Load(flagProvider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}
