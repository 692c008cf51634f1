package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")
	logger := zerolog.Nop()

	cfg, resolved, err := Load(&logger, path)
	require.NoError(t, err)
	require.Equal(t, path, resolved)
	require.Equal(t, Default(), cfg)

	_, err = os.Stat(path)
	require.NoError(t, err)

	// The written file must load back to the same values.
	again, _, err := Load(&logger, path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
addr: ":9090"
shutdown_timeout: 2s
store:
  driver: badger
  path: /tmp/chat
rate_limit:
  rps: 0
groups:
  validate_members: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("CHATBOT_LOG_LEVEL", "debug")
	t.Setenv("CHATBOT_STORE_PATH", "/var/lib/chat")
	t.Setenv("CHATBOT_AUTH_BCRYPT_COST", "4")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.Addr)
	require.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
	require.Equal(t, 5*time.Second, cfg.ReadHeaderTimeout)
	require.Equal(t, DriverBadger, cfg.Store.Driver)
	require.Equal(t, "/var/lib/chat", cfg.Store.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, 4, cfg.Auth.BcryptCost)
	require.Zero(t, cfg.RateLimit.RPS)
	require.True(t, cfg.Groups.ValidateMembers)
	require.True(t, cfg.Metrics.Enabled)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CHATBOT_ADDR=:7070\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CHATBOT_ADDR") })

	cfg, _, err := Load(nil, filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Addr)
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{
		Addr:  ":1",
		Log:   LogConfig{Level: "warn"},
		Store: StoreConfig{Driver: DriverBadger},
	})

	require.Equal(t, ":1", cfg.Addr)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, "console", cfg.Log.Format)
	require.Equal(t, DriverBadger, cfg.Store.Driver)
	require.Equal(t, Default().Store.Path, cfg.Store.Path)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Default().Validate())

	cfg := Default()
	cfg.Store.Driver = "postgres"
	require.ErrorContains(t, cfg.Validate(), "unknown store driver")

	cfg = Default()
	cfg.RateLimit.Burst = 0
	require.Error(t, cfg.Validate())

	cfg.RateLimit.RPS = 0
	require.NoError(t, cfg.Validate())
}
