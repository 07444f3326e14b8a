package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config describes where brainlib log records go.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// FilePath is the JSON log file, rotated by size.
	FilePath string
	// MaxSizeMB and MaxFiles bound rotation.
	MaxSizeMB int
	MaxFiles  int
	// Stderr, when set, receives a copy of every record.
	Stderr io.Writer
	// AddSource records the calling file and line.
	AddSource bool
}

// DefaultConfig logs info and above to the server log and stderr.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		FilePath:  DefaultLogPath(),
		MaxSizeMB: 10,
		MaxFiles:  5,
		Stderr:    os.Stderr,
	}
}

// DebugConfig is DefaultConfig at debug level with source locations.
func DebugConfig() Config {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.AddSource = true
	return cfg
}

// Setup returns a JSON logger over a RotatingWriter and a cleanup that
// flushes and closes the file. Every record carries the process id so
// concurrent brainlib processes sharing a log can be told apart.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	writer, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = writer
	if cfg.Stderr != nil {
		out = io.MultiWriter(writer, cfg.Stderr)
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:     LevelFromString(cfg.Level),
		AddSource: cfg.AddSource,
	})
	logger := slog.New(handler).With(slog.Int("pid", os.Getpid()))

	cleanup := func() {
		_ = writer.Sync()
		_ = writer.Close()
	}
	return logger, cleanup, nil
}

// SetupDefault is Setup followed by slog.SetDefault.
func SetupDefault(cfg Config) (func(), error) {
	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}

// SetupConsole installs a plain text logger on w for one-shot commands,
// which keep no log file.
func SetupConsole(w io.Writer, level string) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: LevelFromString(level),
	}))
	slog.SetDefault(logger)
	return logger
}

// LevelFromString maps a level name to slog.Level. Unknown names are info.
func LevelFromString(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
