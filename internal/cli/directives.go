package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/flowfilt/internal/filter"
)

// NewDirectivesCommand creates the directives command.
func NewDirectivesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "directives",
		Short: "List filter directives and operators",
		Long: `List every filter directive with its argument kind, followed by the
operators and grouping syntax.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDirectives(rootOpts, cmd)
		},
	}

	return cmd
}

func runDirectives(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	help := filter.Help()

	if formatter.Format == "json" {
		return formatter.Success(help)
	}

	width := 0
	for _, h := range help {
		if len(h.Syntax) > width {
			width = len(h.Syntax)
		}
	}
	for _, h := range help {
		fmt.Fprintf(formatter.Writer, "%-*s  %s\n", width, h.Syntax, h.Description)
	}
	return nil
}
