package util

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvOrDefault returns the environment variable value or fallback when it is empty.
func EnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// EnvIntOrDefault parses the variable as an integer, ignoring malformed values.
func EnvIntOrDefault(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

// EnvBoolOrDefault accepts true/1/yes and false/0/no in any case.
func EnvBoolOrDefault(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return fallback
}

// EnvDurationOrDefault parses the variable with time.ParseDuration.
func EnvDurationOrDefault(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}
