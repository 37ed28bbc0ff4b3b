package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := parse(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, &Config{
		Addr:            ":8080",
		DBPath:          "data/tracker.db",
		LogLevel:        "info",
		Mode:            ModeHTTP,
		ShutdownGrace:   5 * time.Second,
		StatsWindowDays: 30,
	}, cfg)
	assert.Equal(t, time.Local, cfg.Location())
}

func TestParsePrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TRACKER_DB_PATH=/tmp/from-dotenv.db\nTRACKER_LOG_LEVEL=warn\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("TRACKER_DB_PATH")
		os.Unsetenv("TRACKER_LOG_LEVEL")
	})

	t.Setenv("TRACKER_LOG_LEVEL", "debug")
	t.Setenv("TRACKER_USE_UTC", "true")
	t.Setenv("TRACKER_ADDR", ":9000")

	cfg, err := parse([]string{"-addr", ":7000", "-stats-window", "14", "-mode", "both"}, []string{envFile})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr, "flag beats env")
	assert.Equal(t, "debug", cfg.LogLevel, "env beats .env")
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.DBPath, ".env beats default")
	assert.True(t, cfg.UseUTC)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, 14, cfg.StatsWindowDays)
	assert.Equal(t, ModeBoth, cfg.Mode)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad mode", []string{"-mode", "grpc"}},
		{"zero window", []string{"-stats-window", "0"}},
		{"window above a year", []string{"-stats-window", "367"}},
		{"empty db", []string{"-db", ""}},
		{"unknown flag", []string{"-verbose"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(tt.args, nil)
			assert.Error(t, err)
		})
	}
}
