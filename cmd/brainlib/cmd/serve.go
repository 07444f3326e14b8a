package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	brainerrors "github.com/Aman-CERP/brainlib/internal/errors"
	"github.com/Aman-CERP/brainlib/internal/logging"
	"github.com/Aman-CERP/brainlib/internal/mcp"
	"github.com/Aman-CERP/brainlib/internal/watcher"
)

type serveOptions struct {
	transport string
	port      int
	noWatch   bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server over the documents folder.

The folder is indexed at startup, then watched so that added, changed,
renamed and deleted files are reflected in search results.

With the stdio transport nothing is written to stdout or stderr except
MCP messages; logs go to ~/.brainlib/logs/server.log.`,
		Example: `  # Serve over stdio (how MCP clients launch brainlib)
  brainlib serve

  # Serve over streamable HTTP on port 8765
  brainlib serve --transport http --port 8765`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("transport") {
				opts.transport = ""
			}
			if !cmd.Flags().Changed("port") {
				opts.port = 0
			}
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", "stdio", "Transport: stdio or http")
	cmd.Flags().IntVar(&opts.port, "port", 8765, "Port for the http transport")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "Index once at startup and do not watch for changes")

	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.transport != "" {
		cfg.Server.Transport = opts.transport
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}
	if opts.noWatch {
		cfg.Watcher.Disabled = true
	}
	if err := cfg.Validate(); err != nil {
		return brainerrors.Wrap(brainerrors.ErrCodeConfigInvalid, err)
	}

	level := cfg.Server.LogLevel
	if debugMode {
		level = "debug"
	}
	closeLogging()
	cleanup, err := logging.SetupMCPMode(level)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup

	ix, err := newIndex(cfg, nil)
	if err != nil {
		return err
	}

	if cfg.Watcher.Disabled {
		_, err = ix.Initialize(ctx)
	} else {
		src := watcher.NewFSNotifySource(watcher.Options{DebounceWindow: cfg.DebounceDuration()})
		_, err = ix.Start(ctx, src)
		if brainerrors.GetCode(err) == brainerrors.ErrCodeWatchFailed {
			// Search still works over the startup scan.
			slog.Error("watch_unavailable", brainerrors.FormatForLog(err)...)
			err = nil
		}
		defer func() { _ = ix.Close() }()
	}
	if err != nil {
		slog.Error("startup_scan_failed", brainerrors.FormatForLog(err)...)
		return err
	}

	server, err := mcp.NewServer(ix)
	if err != nil {
		return err
	}
	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	return server.Serve(ctx, cfg.Server.Transport, addr)
}
