package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFromDefaults(t *testing.T) {
	cfg := LoadFrom("")

	require.Equal(t, []string{"all", "typescript", "python", "rust", "go"}, cfg.GitHub.Languages)
	require.Equal(t, "daily", cfg.GitHub.Period)
	require.Equal(t, 300*time.Millisecond, cfg.GitHub.EnrichDelay)
	require.Equal(t, 3, cfg.Retry.MaxAttempts)
	require.Equal(t, time.Second, cfg.Retry.BaseDelay)
	require.Equal(t, 1200, cfg.Card.Width)
	require.Equal(t, uint64(30), cfg.Batches.Generate)
	require.Equal(t, uint64(20), cfg.Batches.Publish)
	require.Equal(t, "UTC", cfg.Scheduler.Location().String())
	require.Equal(t, 300*time.Second, cfg.Scheduler.StageTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := `
github:
  languages: [rust]
  period: weekly
  enrichDelay: 50ms
retry:
  maxAttempts: 5
scheduler:
  timezone: Europe/Berlin
  stageTimeout: 10m
publishers:
  telegram:
    chatId: "-100file"
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	t.Setenv(telegramChatIDEnv, "-100env")
	t.Setenv(devtoAPIKeyEnv, "devto-key")

	cfg := LoadFrom(path)

	require.Equal(t, []string{"rust"}, cfg.GitHub.Languages)
	require.Equal(t, "weekly", cfg.GitHub.Period)
	require.Equal(t, 50*time.Millisecond, cfg.GitHub.EnrichDelay)
	require.Equal(t, 5, cfg.Retry.MaxAttempts)
	require.Equal(t, "Europe/Berlin", cfg.Scheduler.Location().String())
	require.Equal(t, 10*time.Minute, cfg.Scheduler.StageTimeout)
	require.Equal(t, "-100env", cfg.Publishers.Telegram.ChatID)
	require.Equal(t, "devto-key", cfg.Publishers.DevTo.APIKey)
	require.Equal(t, "https://api.telegram.org", cfg.Publishers.Telegram.APIURL)
}

func TestLoadFromMissingFileFallsBack(t *testing.T) {
	cfg := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Equal(t, "daily", cfg.GitHub.Period)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate  func(*Config)
		wantErr bool
	}{
		"defaults":         {mutate: func(*Config) {}},
		"empty dsn":        {mutate: func(c *Config) { c.Database.DSN = "" }, wantErr: true},
		"bad period":       {mutate: func(c *Config) { c.GitHub.Period = "hourly" }, wantErr: true},
		"zero attempts":    {mutate: func(c *Config) { c.Retry.MaxAttempts = 0 }, wantErr: true},
		"zero concurrency": {mutate: func(c *Config) { c.GitHub.Concurrency = 0 }, wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
