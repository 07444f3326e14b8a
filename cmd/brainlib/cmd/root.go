// Package cmd provides the CLI commands for brainlib.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/brainlib/internal/config"
	brainerrors "github.com/Aman-CERP/brainlib/internal/errors"
	"github.com/Aman-CERP/brainlib/internal/extract"
	"github.com/Aman-CERP/brainlib/internal/library"
	"github.com/Aman-CERP/brainlib/internal/logging"
	"github.com/Aman-CERP/brainlib/pkg/version"
)

// Persistent flags.
var (
	debugMode  bool
	configPath string
)

// loggingCleanup closes the log file installed for the running command.
var loggingCleanup func()

// NewRootCmd creates the root command for the brainlib CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "brainlib",
		Short: "Search your personal documents from any MCP client",
		Long: `brainlib indexes a folder of personal documents (text, Markdown, PDF)
and answers keyword searches over them through the Model Context Protocol.

The index lives in memory. It is built at startup and kept current
while the server runs by watching the folder for changes.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("brainlib version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.brainlib/logs/")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (default: .brainlib.yaml)")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newScanCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging installs the logger for one-shot commands: warnings on
// stderr, or everything to the log file and stderr with --debug. serve
// replaces it with file-only logging.
func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		logging.SetupConsole(os.Stderr, "warn")
		return nil
	}

	cfg := logging.DebugConfig()
	cleanup, err := logging.SetupDefault(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.Debug("debug_logging_enabled",
		slog.String("log_file", cfg.FilePath),
		slog.String("version", version.Version))
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	closeLogging()
	return nil
}

func closeLogging() {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
}

// Execute runs the root command, cancelling on SIGINT or SIGTERM, and
// prints any error in CLI form.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	closeLogging()
	if err != nil {
		fmt.Fprint(os.Stderr, brainerrors.FormatForCLI(err))
	}
	return err
}

// loadConfig returns the effective configuration: --config when given,
// otherwise the layered configuration for the working directory.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(".")
	}
	if err != nil {
		return nil, brainerrors.Wrap(brainerrors.ErrCodeConfigInvalid, err)
	}
	return cfg, nil
}

// newIndex creates an empty index configured by cfg.
func newIndex(cfg *config.Config, onProgress library.ProgressFunc) (*library.Index, error) {
	registry, err := extract.NewRegistry(cfg.Index.Extensions)
	if err != nil {
		return nil, err
	}
	return library.New(library.Options{
		Dir:            cfg.DocumentsPath(),
		Registry:       registry,
		MinChunkLength: cfg.Index.MinChunkLength,
		TopK:           cfg.Search.TopK,
		CacheSize:      cfg.Search.CacheSize,
		MaxFileSize:    cfg.Index.MaxFileSize,
		Workers:        cfg.Index.Workers,
		OnProgress:     onProgress,
	})
}
