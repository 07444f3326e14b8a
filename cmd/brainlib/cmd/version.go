package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/brainlib/internal/output"
	"github.com/Aman-CERP/brainlib/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var (
		jsonOutput  bool
		shortOutput bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())
			switch {
			case shortOutput:
				out.Text(version.Short())
			case jsonOutput:
				return out.JSON(version.GetInfo())
			default:
				out.Text(version.String())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")
	cmd.Flags().BoolVar(&shortOutput, "short", false, "Output only the version number")

	return cmd
}
