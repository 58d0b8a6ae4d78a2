package slogobs

import (
	"log/slog"
	"os"
	"strings"
)

// Format represents the output format for logs.
type Format string

const (
	// FormatText is slog's key=value text format (default).
	FormatText Format = "text"

	// FormatJSON is one JSON object per line, for log aggregation.
	FormatJSON Format = "json"
)

// ParseFormat parses a format string. Unknown values yield FormatText.
func ParseFormat(s string) Format {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatText
	}
}

// FormatFromEnv reads AGENTLOOP_LOG_FORMAT, falling back to LOG_FORMAT.
func FormatFromEnv() Format {
	if format := os.Getenv("AGENTLOOP_LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}
	return ParseFormat(os.Getenv("LOG_FORMAT"))
}

// ParseLevel parses DEBUG, INFO, WARN/WARNING or ERROR (case-insensitive).
// Unknown or empty values yield INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromEnv reads AGENTLOOP_LOG_LEVEL, falling back to LOG_LEVEL.
func LevelFromEnv() slog.Level {
	if level := os.Getenv("AGENTLOOP_LOG_LEVEL"); level != "" {
		return ParseLevel(level)
	}
	return ParseLevel(os.Getenv("LOG_LEVEL"))
}
