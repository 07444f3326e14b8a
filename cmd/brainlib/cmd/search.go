package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/brainlib/internal/library"
	"github.com/Aman-CERP/brainlib/internal/mcp"
	"github.com/Aman-CERP/brainlib/internal/output"
)

type searchOptions struct {
	format string // "text" or "json"
	topK   int
}

// searchResponse is the JSON output of the search command.
type searchResponse struct {
	Query   string           `json:"query"`
	Results []library.Result `json:"results"`
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search the documents folder once",
		Long: `Index the documents folder and run one search, printing exactly what
the search_documents tool would return to an MCP client.`,
		Example: `  brainlib search alpha budget
  brainlib search "project alpha" --format json --top-k 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.Context(), cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "Number of results (default from config)")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (supported: text, json)", opts.format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.topK > 0 {
		cfg.Search.TopK = opts.topK
	}

	ix, err := newIndex(cfg, nil)
	if err != nil {
		return err
	}
	if _, err := ix.Initialize(ctx); err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if opts.format == "json" {
		return out.JSON(searchResponse{Query: query, Results: ix.Search(query)})
	}

	server, err := mcp.NewServer(ix)
	if err != nil {
		return err
	}
	text, err := server.CallTool(ctx, mcp.ToolSearchDocuments, map[string]any{"query": query})
	if err != nil {
		return err
	}
	out.Text(text)
	return nil
}
