package logging

import (
	"log/slog"
)

// SetupMCPMode installs a file-only logger for `brainlib serve`. stdout
// carries JSON-RPC on the stdio transport and some MCP clients treat
// stderr output as a crash, so neither is written to. An empty level
// means debug.
func SetupMCPMode(level string) (func(), error) {
	if level == "" {
		level = "debug"
	}
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.Stderr = nil

	cleanup, err := SetupDefault(cfg)
	if err != nil {
		return nil, err
	}

	slog.Info("mcp_logging_initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))
	return cleanup, nil
}
