package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadEnvAndFlags(t *testing.T) {
	t.Setenv("HANZI_DB_DSN", "/tmp/from-env.db")
	t.Setenv("HANZI_QUIZ_LENGTH", "7")
	t.Setenv("HANZI_LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--log-level=debug", "--audit-interval=2m", "--admin-username=dana"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.Equal(t, "/tmp/from-env.db", cfg.Database.DSN)
	assert.Equal(t, 7, cfg.Quiz.Length)
	assert.Equal(t, "debug", cfg.Log.Level, "explicit flag wins over env")
	assert.Equal(t, 2*time.Minute, cfg.Audit.Interval)
	assert.Equal(t, "dana", cfg.Admin.Username)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("HANZI_ADMIN_USERNAME=dotenv_admin\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("HANZI_ADMIN_USERNAME") })

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "dotenv_admin", cfg.Admin.Username)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"), nil)
	assert.NoError(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("HANZI_DB_DRIVER", "mysql")

	_, err := Load("", nil)
	assert.Error(t, err)
}
