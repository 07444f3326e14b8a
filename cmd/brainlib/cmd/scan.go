package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/brainlib/internal/output"
	"github.com/Aman-CERP/brainlib/internal/ui"
)

type scanOptions struct {
	noTUI   bool
	noColor bool
}

func newScanCmd() *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Index the documents folder once and report what was found",
		Long: `Index the documents folder once, showing progress, and print a summary
of the files indexed, skipped and failed. Nothing is saved; use this to
check which documents the server will see.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.noTUI, "no-tui", false, "Plain progress output, one line per file")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runScan(ctx context.Context, cmd *cobra.Command, opts scanOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(opts.noTUI),
		ui.WithNoColor(opts.noColor),
		ui.WithDir(cfg.DocumentsPath()),
	))
	if tui, ok := renderer.(*ui.TUIRenderer); ok {
		tui.OnInterrupt(cancel)
	}

	ix, err := newIndex(cfg, ui.Observe(renderer))
	if err != nil {
		return err
	}

	if err := renderer.Start(ctx); err != nil {
		return err
	}
	stats, err := ix.Initialize(ctx)
	if err != nil {
		_ = renderer.Stop()
		return err
	}
	renderer.Complete(ui.SummaryFromStats(stats))
	if err := renderer.Stop(); err != nil {
		return err
	}

	if stats.Failed > 0 {
		output.New(cmd.ErrOrStderr()).Warningf("%d of %d files could not be read; see the log for details", stats.Failed, stats.Files)
	}
	return nil
}
