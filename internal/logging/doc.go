// Package logging configures structured slog logging for brainlib.
//
// Logs are JSON lines written to a size-rotated file under ~/.brainlib/logs/
// (override with BRAINLIB_LOG_DIR). In MCP stdio mode nothing is written to
// stdout or stderr because stdout carries the JSON-RPC stream.
package logging
