// Package utils holds small helpers shared across agentloop internals: a JSON
// round-trip over HTTP with span events and string truncation for log output.
package utils
