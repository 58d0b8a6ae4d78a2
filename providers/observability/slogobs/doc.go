// Package slogobs provides an observability.Provider backed by log/slog.
// Spans are logged at debug level on start and end, counters and histograms
// are kept in memory and logged on every update, and log calls map directly
// onto slog levels. Format and level default to the AGENTLOOP_LOG_FORMAT and
// AGENTLOOP_LOG_LEVEL environment variables.
package slogobs
