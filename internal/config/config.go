package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"tracker/internal/util"
)

// Run modes.
const (
	ModeHTTP = "http"
	ModeMCP  = "mcp"
	ModeBoth = "both"
)

const (
	defaultAddr          = ":8080"
	defaultDBPath        = "data/tracker.db"
	defaultLogLevel      = "info"
	defaultShutdownGrace = 5 * time.Second
	defaultStatsWindow   = 30
)

// Config holds all runtime configuration options for the tracker.
type Config struct {
	Addr            string
	DBPath          string
	LogLevel        string
	Mode            string
	UseUTC          bool
	ShutdownGrace   time.Duration
	StatsWindowDays int
}

// Location is the zone used for requests that carry no timezone.
func (c *Config) Location() *time.Location {
	if c.UseUTC {
		return time.UTC
	}
	return time.Local
}

// Parse reads configuration from args and the environment.
// Priority: CLI flags > environment variables > .env file > defaults
func Parse(args []string) (*Config, error) {
	files := []string{".env"}
	if dir, err := os.UserConfigDir(); err == nil {
		files = append(files, filepath.Join(dir, "tracker", ".env"))
	}
	return parse(args, files)
}

func parse(args []string, envFiles []string) (*Config, error) {
	for _, f := range envFiles {
		// Missing files are fine; variables already set are not overridden.
		_ = godotenv.Load(f)
	}

	cfg := &Config{}
	fs := flag.NewFlagSet("tracker", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", util.EnvOrDefault("TRACKER_ADDR", defaultAddr), "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", util.EnvOrDefault("TRACKER_DB_PATH", defaultDBPath), "Path to sqlite database file")
	fs.StringVar(&cfg.LogLevel, "log-level", util.EnvOrDefault("TRACKER_LOG_LEVEL", defaultLogLevel), "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.Mode, "mode", util.EnvOrDefault("TRACKER_MODE", ModeHTTP), "Run mode (http, mcp, both)")
	fs.BoolVar(&cfg.UseUTC, "use-utc", util.EnvBoolOrDefault("TRACKER_USE_UTC", false), "Use UTC instead of system local time for requests without a timezone")
	fs.DurationVar(&cfg.ShutdownGrace, "shutdown-grace", util.EnvDurationOrDefault("TRACKER_SHUTDOWN_GRACE", defaultShutdownGrace), "Grace period when shutting down")
	fs.IntVar(&cfg.StatsWindowDays, "stats-window", util.EnvIntOrDefault("TRACKER_STATS_WINDOW_DAYS", defaultStatsWindow), "Default stats window in days")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Mode {
	case ModeHTTP, ModeMCP, ModeBoth:
	default:
		return fmt.Errorf("invalid mode %q: must be one of http, mcp, both", c.Mode)
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.StatsWindowDays < 1 || c.StatsWindowDays > 366 {
		return fmt.Errorf("stats window must be between 1 and 366 days")
	}
	if c.ShutdownGrace < 0 {
		return fmt.Errorf("shutdown grace must not be negative")
	}
	return nil
}
